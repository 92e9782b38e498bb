package event

import (
	"fmt"
	"strings"
)

// Kind represents the type of an execution event.
type Kind uint8

const (
	// KindCall marks entry into a function. Depth already includes the new frame.
	KindCall Kind = iota + 1
	// KindLine marks execution of a source line.
	KindLine
	// KindReturn marks a function return. Depth is the caller's depth.
	KindReturn
)

// String returns the name used in templates and event files.
func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindLine:
		return "line"
	case KindReturn:
		return "return"
	default:
		return "unknown"
	}
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call":
		return KindCall, nil
	case "line":
		return KindLine, nil
	case "return":
		return KindReturn, nil
	default:
		return 0, fmt.Errorf("invalid event kind: %q (expected: call|line|return)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < KindCall || k > KindReturn {
		return nil, fmt.Errorf("invalid event kind: %d", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Event is one reported execution step.
type Event struct {
	Filename string `json:"filename" msgpack:"filename"`
	Function string `json:"function" msgpack:"function"`
	Line     int    `json:"line" msgpack:"line"`   // 1-based
	Depth    int    `json:"depth" msgpack:"depth"` // owned by the producer
	Kind     Kind   `json:"kind" msgpack:"kind"`
}

// String formats the event as file:line func (kind@depth).
func (e Event) String() string {
	return fmt.Sprintf("%s:%d %s (%s@%d)", e.Filename, e.Line, e.Function, e.Kind, e.Depth)
}

// Validate reports malformed events that no producer should emit.
func (e Event) Validate() error {
	if e.Kind < KindCall || e.Kind > KindReturn {
		return fmt.Errorf("event %s: invalid kind %d", e.Filename, e.Kind)
	}
	if e.Line < 1 {
		return fmt.Errorf("event %s: line must be positive, got %d", e.Filename, e.Line)
	}
	if e.Depth < 0 {
		return fmt.Errorf("event %s:%d: negative depth %d", e.Filename, e.Line, e.Depth)
	}
	return nil
}

// Stream is the seam between an event producer and the formatter.
// Implementations must return events in arrival order.
type Stream interface {
	Events() []Event
}

// Slice is a Stream over a fixed list of events.
type Slice []Event

// Events returns the slice itself.
func (s Slice) Events() []Event { return s }
