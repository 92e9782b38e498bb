package event

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Format identifies an on-disk event file encoding.
type Format uint8

const (
	FormatAuto    Format = iota // detect from extension
	FormatNDJSON                // one JSON object per line
	FormatMsgpack               // msgpack array of events
)

// ErrUnknownFormat is returned when an encoding cannot be determined.
var ErrUnknownFormat = errors.New("unknown event file format")

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatNDJSON:
		return "ndjson"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ParseFormat converts a flag value to Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "ndjson", "jsonl", "json":
		return FormatNDJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %q (expected: auto|ndjson|msgpack)", ErrUnknownFormat, s)
	}
}

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl", ".json":
		return FormatNDJSON, nil
	case ".msgpack", ".mp":
		return FormatMsgpack, nil
	default:
		return FormatAuto, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Read loads and validates an event file.
func Read(path string, format Format) ([]Event, error) {
	if format == FormatAuto {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	events, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// Write stores events to path, creating or truncating it.
func Write(path string, format Format, events []Event) (err error) {
	if format == FormatAuto {
		if format, err = DetectFormat(path); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	w := bufio.NewWriter(f)
	if err := Encode(w, format, events); err != nil {
		return err
	}
	return w.Flush()
}

// Decode reads events in the given format and validates each of them.
func Decode(r io.Reader, format Format) ([]Event, error) {
	var (
		events []Event
		err    error
	)
	switch format {
	case FormatNDJSON:
		events, err = decodeNDJSON(r)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&events)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	for i, ev := range events {
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("event #%d: %w", i+1, err)
		}
	}
	Intern(events)
	return events, nil
}

// Encode writes events in the given format.
func Encode(w io.Writer, format Format, events []Event) error {
	switch format {
	case FormatNDJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		for _, ev := range events {
			if err := enc.Encode(ev); err != nil {
				return err
			}
		}
		return nil
	case FormatMsgpack:
		if events == nil {
			events = []Event{}
		}
		return msgpack.NewEncoder(w).Encode(events)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFormat, format)
	}
}

func decodeNDJSON(r io.Reader) ([]Event, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var events []Event
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
