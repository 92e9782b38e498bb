package tmpl

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTemplate is returned by Parse for malformed alignment stops.
var ErrInvalidTemplate = errors.New("invalid template")

// Placeholder identifies a substitutable field.
type Placeholder uint8

const (
	PlaceholderFile Placeholder = iota + 1
	PlaceholderFunc
	PlaceholderLineNo
	PlaceholderEvent
	PlaceholderDepthIndent
	PlaceholderDepth
	PlaceholderLine
)

// placeholderTokens is ordered longest first so a token is never shadowed by
// one of its prefixes (%lineno / %line, %depth_indent / %depth).
var placeholderTokens = []struct {
	token string
	ph    Placeholder
}{
	{"%depth_indent", PlaceholderDepthIndent},
	{"%lineno", PlaceholderLineNo},
	{"%event", PlaceholderEvent},
	{"%depth", PlaceholderDepth},
	{"%file", PlaceholderFile},
	{"%func", PlaceholderFunc},
	{"%line", PlaceholderLine},
}

// String returns the template token for the placeholder.
func (p Placeholder) String() string {
	for _, t := range placeholderTokens {
		if t.ph == p {
			return t.token
		}
	}
	return "%unknown"
}

type pieceKind uint8

const (
	pieceLiteral pieceKind = iota
	piecePlaceholder
	pieceStop
)

type piece struct {
	kind  pieceKind
	text  string      // literal
	ph    Placeholder // placeholder
	width int         // stop column
}

// Template is a parsed line template. It is immutable and safe to share.
type Template struct {
	raw    string
	pieces []piece
}

// Parse tokenizes text. Segments between pairs of anchor glyphs must be
// non-negative integers. An empty anchor disables alignment.
func Parse(text, anchor string) (*Template, error) {
	t := &Template{raw: text}
	if anchor == "" {
		t.pieces = tokenize(nil, text)
		return t, nil
	}

	for i, seg := range strings.Split(text, anchor) {
		if i%2 == 0 {
			t.pieces = tokenize(t.pieces, seg)
			continue
		}
		width, err := strconv.Atoi(strings.TrimSpace(seg))
		if err != nil || width < 0 {
			return nil, fmt.Errorf("%w: column stop %q in %q is not a non-negative integer", ErrInvalidTemplate, seg, text)
		}
		t.pieces = append(t.pieces, piece{kind: pieceStop, width: width})
	}
	return t, nil
}

// MustParse is like Parse but panics on error. Intended for built-in templates.
func MustParse(text, anchor string) *Template {
	t, err := Parse(text, anchor)
	if err != nil {
		panic(err)
	}
	return t
}

func tokenize(out []piece, seg string) []piece {
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			out = append(out, piece{kind: pieceLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(seg); {
		if seg[i] == '%' {
			if ph, n := matchPlaceholder(seg[i:]); n > 0 {
				flush()
				out = append(out, piece{kind: piecePlaceholder, ph: ph})
				i += n
				continue
			}
		}
		lit.WriteByte(seg[i])
		i++
	}
	flush()
	return out
}

func matchPlaceholder(s string) (Placeholder, int) {
	for _, t := range placeholderTokens {
		if strings.HasPrefix(s, t.token) {
			return t.ph, len(t.token)
		}
	}
	return 0, 0
}

// Contains reports whether the raw template contains substr.
func (t *Template) Contains(substr string) bool {
	return t != nil && strings.Contains(t.raw, substr)
}

// Uses reports whether the template references the placeholder.
func (t *Template) Uses(ph Placeholder) bool {
	if t == nil {
		return false
	}
	for _, p := range t.pieces {
		if p.kind == piecePlaceholder && p.ph == ph {
			return true
		}
	}
	return false
}

// Empty reports whether the template renders nothing.
func (t *Template) Empty() bool {
	return t == nil || t.raw == ""
}
