package tracefmt

import "fulltrace/internal/observ"

// Option configures a Formatter.
type Option func(*builder)

type builder struct {
	cfg       *Config
	overrides Overrides
	nOverride int
	tracer    observ.Tracer
	parent    uint64
}

// WithConfig uses a compiled configuration as is.
func WithConfig(cfg *Config) Option {
	return func(b *builder) { b.cfg = cfg }
}

// WithOverrides changes individual settings on top of DefaultSettings.
func WithOverrides(o Overrides) Option {
	return func(b *builder) {
		b.overrides = b.overrides.Merge(o)
		b.nOverride++
	}
}

// WithMaxDepth limits the traced call depth.
func WithMaxDepth(depth int) Option {
	return WithOverrides(Overrides{MaxDepth: &depth})
}

// WithTraceLines toggles rendering of line and return events.
func WithTraceLines(on bool) Option {
	return WithOverrides(Overrides{TraceLines: &on})
}

// WithMode sets the normal template.
func WithMode(mode string) Option {
	return WithOverrides(Overrides{Mode: &mode})
}

// WithConsecutiveMode sets the continuation template.
func WithConsecutiveMode(mode string) Option {
	return WithOverrides(Overrides{ConsecutiveMode: &mode})
}

// WithTracer reports pass progress to t under the parent span.
func WithTracer(t observ.Tracer, parent uint64) Option {
	return func(b *builder) {
		b.tracer = t
		b.parent = parent
	}
}
