package event

import (
	"path"
	"runtime"
	"sync"
)

// Recorder is an in-process event source for Go programs. Instrumented code
// calls Call on function entry (usually followed by defer Return) and Line
// before interesting statements; the recorder captures the caller's location
// and keeps the call/return depth bracketing.
type Recorder struct {
	mu         sync.Mutex
	events     []Event
	depth      int
	recording  bool
	traceLines bool
}

// NewRecorder creates a stopped Recorder that records line events.
func NewRecorder() *Recorder {
	return &Recorder{traceLines: true}
}

// TraceLines toggles recording of line and return events. With false only
// call events are kept, depth is still tracked.
func (r *Recorder) TraceLines(on bool) {
	r.mu.Lock()
	r.traceLines = on
	r.mu.Unlock()
}

// Start begins recording.
func (r *Recorder) Start() {
	r.mu.Lock()
	r.recording = true
	r.mu.Unlock()
}

// Stop ends recording and drops the last trim events, which lets callers
// discard the bookkeeping frames of their own stop sequence.
func (r *Recorder) Stop(trim int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	if trim <= 0 {
		return
	}
	if trim > len(r.events) {
		trim = len(r.events)
	}
	r.events = r.events[:len(r.events)-trim]
}

// Clear removes recorded events and resets depth.
func (r *Recorder) Clear() {
	r.mu.Lock()
	r.events = nil
	r.depth = 0
	r.mu.Unlock()
}

// Call records entry into the calling function.
func (r *Recorder) Call() {
	r.record(KindCall, 2)
}

// Line records execution of the calling line.
func (r *Recorder) Line() {
	r.record(KindLine, 2)
}

// Return records a return from the calling function. An unmatched Return is
// ignored so depth never goes negative.
func (r *Recorder) Return() {
	r.record(KindReturn, 2)
}

// Depth returns the current call depth.
func (r *Recorder) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.depth
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) record(kind Kind, skip int) {
	frame, ok := callerFrame(skip + 1)
	if !ok {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}

	switch kind {
	case KindCall:
		r.depth++
	case KindReturn:
		if r.depth == 0 {
			return
		}
		r.depth--
	}
	if kind != KindCall && !r.traceLines {
		return
	}

	r.events = append(r.events, Event{
		Filename: frame.File,
		Function: path.Base(frame.Function),
		Line:     frame.Line,
		Depth:    r.depth,
		Kind:     kind,
	})
}

// callerFrame resolves the frame skip levels above its caller. Callers is
// used instead of Caller so inlined frames keep their own function name.
func callerFrame(skip int) (runtime.Frame, bool) {
	var pcs [1]uintptr
	if runtime.Callers(skip+1, pcs[:]) == 0 {
		return runtime.Frame{}, false
	}
	frame, _ := runtime.CallersFrames(pcs[:]).Next()
	if frame.Function == "" {
		frame.Function = "?"
	}
	return frame, true
}
