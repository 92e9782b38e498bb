package tracefmt

import (
	"fulltrace/internal/event"
	"fulltrace/internal/source"
)

// location identifies the most recently rendered event. fn is the displayed
// function name, so repeated same-line merges chain as a=>b=>c.
type location struct {
	file string
	fn   string
	line int
}

// noLocation can never match a real event: lines are 1-based.
var noLocation = location{line: -2}

// continues reports whether ev is the next line of the same call.
func (l location) continues(ev event.Event) bool {
	return ev.Filename == l.file && ev.Function == l.fn && ev.Line == l.line+1
}

// sameLine reports whether ev re-enters the rendered line.
func (l location) sameLine(ev event.Event) bool {
	return ev.Filename == l.file && ev.Line == l.line
}

// ParsingState is the mutable state of one render pass. It is owned by a
// single Formatter and only changed by Formatter.step.
type ParsingState struct {
	started  bool
	ignoring int
	cache    *source.Cache
	last     location
	lines    []string
	consumed int
	stats    Stats
}

func newParsingState(cfg *Config) ParsingState {
	return ParsingState{
		started: !cfg.hasStartTrigger(),
		cache:   source.NewCache(),
		last:    noLocation,
	}
}

// Started reports whether the start trigger has fired.
func (s *ParsingState) Started() bool { return s.started }

// Ignoring returns the suppression depth, 0 when no subtree is suppressed.
func (s *ParsingState) Ignoring() int { return s.ignoring }

// Stats counts what happened to the events of a pass.
type Stats struct {
	Seen       int `json:"seen"`
	Rejected   int `json:"rejected"`   // failed depth or name filters
	Excluded   int `json:"excluded"`   // kind filter
	Suppressed int `json:"suppressed"` // inside a rejected subtree
	PreStart   int `json:"pre_start"`  // before the start trigger
	Filtered   int `json:"filtered"`   // line pattern
	Unfound    int `json:"unfound"`    // dropped unresolved source
	Rendered   int `json:"rendered"`   // appended lines
	Replaced   int `json:"replaced"`   // same-line merges
}
