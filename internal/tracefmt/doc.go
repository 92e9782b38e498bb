// Package tracefmt turns a finalized sequence of execution events into an
// annotated, column-aligned trace.
//
// Each event flows through a fixed pipeline:
//
//	gate → start detector → line resolver → line filter → merge tracker → template
//
// The gate applies structural filters (event kind, depth, file and function
// patterns) and suppresses whole subtrees below a rejected call. Until the
// start trigger fires events are resolved but not rendered. Resolved source
// text may be filtered by content. Consecutive lines of one call use the
// compact consecutive template, and a line re-entered from another function
// replaces its previous rendering with a merged "caller=>callee" entry.
//
// A Formatter owns the mutable ParsingState of one pass. Config is immutable
// and may be shared between formatters.
package tracefmt
