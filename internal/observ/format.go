package observ

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Format represents the output format for records.
type Format uint8

const (
	FormatAuto   Format = iota // detect from output path
	FormatText                 // human-readable text
	FormatNDJSON               // newline-delimited JSON
)

// FormatRecord formats a record according to the specified format.
func FormatRecord(rec *Record, format Format) []byte {
	if format == FormatNDJSON {
		return formatNDJSON(rec)
	}
	return formatText(rec)
}

func formatNDJSON(rec *Record) []byte {
	type jsonRecord struct {
		Time     string            `json:"time"`
		Seq      uint64            `json:"seq"`
		Kind     string            `json:"kind"`
		Scope    string            `json:"scope"`
		SpanID   uint64            `json:"span_id,omitempty"`
		ParentID uint64            `json:"parent_id,omitempty"`
		Name     string            `json:"name"`
		Detail   string            `json:"detail,omitempty"`
		Extra    map[string]string `json:"extra,omitempty"`
	}

	data, _ := json.Marshal(jsonRecord{
		Time:     rec.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:      rec.Seq,
		Kind:     rec.Kind.String(),
		Scope:    rec.Scope.String(),
		SpanID:   rec.SpanID,
		ParentID: rec.ParentID,
		Name:     rec.Name,
		Detail:   rec.Detail,
		Extra:    rec.Extra,
	})
	return append(data, '\n')
}

// formatText formats a record as one line:
// [15:04:05.000] #seq [indent]→/←/• name (detail) {k=v}
func formatText(rec *Record) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[%s] #%d ", rec.Time.Format("15:04:05.000"), rec.Seq)
	if rec.ParentID > 0 {
		sb.WriteString("  ")
	}

	switch rec.Kind {
	case KindSpanBegin:
		sb.WriteString("\u2192 ") // →
	case KindSpanEnd:
		sb.WriteString("\u2190 ") // ←
	case KindPoint:
		sb.WriteString("\u2022 ") // •
	}

	sb.WriteString(rec.Name)
	if rec.Detail != "" {
		sb.WriteString(" (")
		sb.WriteString(rec.Detail)
		sb.WriteString(")")
	}

	if len(rec.Extra) > 0 {
		keys := make([]string, 0, len(rec.Extra))
		for k := range rec.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString("=")
			sb.WriteString(rec.Extra[k])
		}
		sb.WriteString("}")
	}

	sb.WriteString("\n")
	return []byte(sb.String())
}
