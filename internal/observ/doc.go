// Package observ records what fulltrace itself is doing: which passes ran,
// which event files were read and, at the most verbose level, what the
// formatter decided for every event.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	fulltrace render --trace=- --trace-level=detail events.ndjson
//
// # Architecture
//
//   - nopTracer: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate write to output (file/stderr)
//   - RingTracer: circular buffer, dumped on failure
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only the ring dump after a failed command
//   - LevelPhase: command and render pass boundaries
//   - LevelDetail: per-file records
//   - LevelDebug: one record per formatter decision
//
// # Context Propagation
//
//	ctx = observ.WithTracer(ctx, tracer)
//	t := observ.FromContext(ctx)
//
//	span := observ.Begin(t, observ.ScopePass, "render", parentID)
//	defer span.End("")
package observ
