package tracefmt

import (
	"fmt"
	"strconv"
	"strings"

	"fulltrace/internal/event"
	"fulltrace/internal/observ"
)

// Separator joins rendered lines into the text of a pass.
const Separator = "\n\t"

// Result is the output of a render pass.
type Result struct {
	Lines []string
	Text  string
	Stats Stats
}

// Formatter drives the pipeline over event sequences. It is not safe for
// concurrent use; run independent passes on separate Formatters.
type Formatter struct {
	cfg    *Config
	tracer observ.Tracer
	parent uint64
	debug  bool
	state  ParsingState
}

// New creates a Formatter. Passing WithConfig together with any override
// option is rejected with ErrConflictingConfig.
func New(opts ...Option) (*Formatter, error) {
	b := builder{tracer: observ.Nop}
	for _, opt := range opts {
		opt(&b)
	}

	cfg := b.cfg
	switch {
	case cfg != nil && b.nOverride > 0:
		return nil, ErrConflictingConfig
	case cfg == nil:
		var err error
		if cfg, err = NewConfig(b.overrides); err != nil {
			return nil, err
		}
	}
	if b.tracer == nil {
		b.tracer = observ.Nop
	}

	f := &Formatter{
		cfg:    cfg,
		tracer: b.tracer,
		parent: b.parent,
		debug:  b.tracer.Enabled() && b.tracer.Level().ShouldEmit(observ.ScopeEvent),
	}
	f.Reset()
	return f, nil
}

// Config returns the formatter's configuration.
func (f *Formatter) Config() *Config { return f.cfg }

// State exposes the current parsing state for inspection.
func (f *Formatter) State() *ParsingState { return &f.state }

// Reset discards the parsing state, source cache included.
func (f *Formatter) Reset() {
	f.state = newParsingState(f.cfg)
}

// Render processes events with a fresh state. Rendering the same events
// twice yields identical results.
func (f *Formatter) Render(events []event.Event) Result {
	f.Reset()
	return f.Extend(events)
}

// RenderStream renders the events of an event source.
func (f *Formatter) RenderStream(s event.Stream) Result {
	return f.Render(s.Events())
}

// Extend continues the current pass over a longer version of the event list
// previously given to Render or Extend. Already processed events are skipped,
// so the output for them is unchanged.
func (f *Formatter) Extend(events []event.Event) Result {
	st := &f.state
	if st.consumed > len(events) {
		st.consumed = len(events)
	}
	pending := events[st.consumed:]

	span := observ.Begin(f.tracer, observ.ScopePass, "render", f.parent)
	for _, ev := range pending {
		f.step(ev, span.ID())
	}
	st.consumed += len(pending)

	span.WithExtra("events", strconv.Itoa(len(pending))).
		WithExtra("lines", strconv.Itoa(len(st.lines))).
		End("")

	return f.Result()
}

// Result returns the output accumulated so far.
func (f *Formatter) Result() Result {
	lines := make([]string, len(f.state.lines))
	copy(lines, f.state.lines)
	return Result{
		Lines: lines,
		Text:  strings.Join(lines, Separator),
		Stats: f.state.stats,
	}
}

// Lines returns the rendered lines.
func (f *Formatter) Lines() []string { return f.Result().Lines }

// String summarizes the pass as Formatter(rendered/seen) followed by the text.
func (f *Formatter) String() string {
	return fmt.Sprintf("Formatter(%d/%d)%s%s", len(f.state.lines), f.state.stats.Seen, Separator, strings.Join(f.state.lines, Separator))
}

// step runs one event through the pipeline.
func (f *Formatter) step(ev event.Event, span uint64) {
	st := &f.state
	cfg := f.cfg
	st.stats.Seen++

	v, ignoring := cfg.gate(ev, st.ignoring)
	st.ignoring = ignoring
	switch v {
	case suppressed:
		st.stats.Suppressed++
		f.note("suppressed", ev, span)
		return
	case excluded:
		st.stats.Excluded++
		f.note("excluded", ev, span)
		return
	case rejected:
		st.stats.Rejected++
		f.note("rejected", ev, span)
		return
	}

	text, found := st.cache.Resolve(ev.Filename, ev.Line, cfg.s.NotFound)

	if !st.started {
		if !found || !cfg.startTriggered(ev, text) {
			st.stats.PreStart++
			f.note("before start", ev, span)
			return
		}
		st.started = true
		f.note("start", ev, span)
	}

	if cfg.line != nil && !cfg.line.MatchString(text) {
		st.stats.Filtered++
		f.note("filtered", ev, span)
		return
	}
	if !found && cfg.s.IgnoreUnfoundLines {
		st.stats.Unfound++
		f.note("unfound", ev, span)
		return
	}

	continuation := st.last.continues(ev)
	same := st.last.sameLine(ev)
	fn := ev.Function
	if same {
		fn = st.last.fn + "=>" + ev.Function
	}

	rendered := cfg.RenderEvent(cfg.template(continuation), ev, fn, text)
	if same && len(st.lines) > 0 {
		st.lines[len(st.lines)-1] = rendered
		st.stats.Replaced++
		f.note("replaced", ev, span)
	} else {
		st.lines = append(st.lines, rendered)
		st.stats.Rendered++
		f.note("rendered", ev, span)
	}
	st.last = location{file: ev.Filename, fn: fn, line: ev.Line}
}

func (f *Formatter) note(decision string, ev event.Event, span uint64) {
	if !f.debug {
		return
	}
	observ.Point(f.tracer, observ.ScopeEvent, decision, ev.String(), span)
}
