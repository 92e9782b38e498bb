package tracefmt

import "fulltrace/internal/event"

// verdict is the outcome of the structural gate.
type verdict uint8

const (
	admitted   verdict = iota
	suppressed         // inside a rejected subtree
	excluded           // kind filter; never starts a subtree
	rejected           // failed depth or name filter
)

// Admit decides whether ev passes the structural filters. ignoring is the
// current suppression depth (0 when none); the returned value replaces it.
//
// A call or line event rejected by any filter, the kind filter included,
// suppresses every following event at the same or a greater depth until an
// event above that depth arrives. Rejected return events carry their caller's
// depth and never start a suppressed subtree.
func Admit(ev event.Event, cfg *Config, ignoring int) (bool, int) {
	v, ignoring := cfg.gate(ev, ignoring)
	return v == admitted, ignoring
}

func (c *Config) gate(ev event.Event, ignoring int) (verdict, int) {
	if ignoring != 0 && ev.Depth < ignoring {
		ignoring = 0
	}
	if ignoring != 0 {
		return suppressed, ignoring
	}
	if !c.s.TraceLines && ev.Kind != event.KindCall {
		return excluded, suppressionDepth(ev)
	}
	if c.structurallyRejected(ev) {
		return rejected, suppressionDepth(ev)
	}
	return admitted, 0
}

// suppressionDepth is the subtree depth a rejected event suppresses.
func suppressionDepth(ev event.Event) int {
	if ev.Kind == event.KindReturn {
		return 0
	}
	return ev.Depth
}

func (c *Config) structurallyRejected(ev event.Event) bool {
	switch {
	case c.s.MaxDepth > 0 && ev.Depth > c.s.MaxDepth:
		return true
	case c.filename != nil && !c.filename.MatchString(ev.Filename):
		return true
	case c.funcName != nil && !c.funcName.MatchString(ev.Function):
		return true
	default:
		return false
	}
}

// startTriggered reports whether every configured start pattern matches.
// Only events with resolved source text are considered.
func (c *Config) startTriggered(ev event.Event, text string) bool {
	if c.startLine != nil && !c.startLine.MatchString(text) {
		return false
	}
	if c.startFunc != nil && !c.startFunc.MatchString(ev.Function) {
		return false
	}
	if c.startFile != nil && !c.startFile.MatchString(ev.Filename) {
		return false
	}
	return true
}
