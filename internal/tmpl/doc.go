// Package tmpl implements the column-aligned line templates used to render
// trace events.
//
// A template is plain text with placeholders and alignment stops:
//
//	(%depth)%depth_indent⚓10⚓%line⚓90⚓File "%file", line %lineno (%func)
//
// Placeholders:
//
//   - %file: source file path
//   - %func: displayed function name
//   - %lineno: 1-based line number
//   - %event: event kind (call, line, return)
//   - %depth_indent: the depth tab repeated depth times
//   - %depth: call depth
//   - %line: source text of the line
//
// Text between a pair of anchors is a column number: the output is padded
// with spaces so that the next literal starts at that column. Invisible ANSI
// escape sequences are discounted according to an AlignPolicy.
//
// Templates are tokenized once by Parse. Rendering is a single substitution
// pass, so substituted values are never scanned for placeholders or anchors.
package tmpl
