package tmpl

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// AlignPolicy decides how invisible escape sequences count toward a column.
type AlignPolicy uint8

const (
	// AlignApprox credits back 4 columns per ESC seen so far plus 1 when any
	// was seen. It is exact for 5-byte SGR codes such as "\x1b[32m".
	AlignApprox AlignPolicy = iota
	// AlignVisible measures the terminal width of the output so far.
	AlignVisible
)

// String returns the string representation of AlignPolicy.
func (p AlignPolicy) String() string {
	switch p {
	case AlignApprox:
		return "approx"
	case AlignVisible:
		return "visible"
	default:
		return "unknown"
	}
}

// ParseAlignPolicy converts a string to AlignPolicy.
func ParseAlignPolicy(s string) (AlignPolicy, error) {
	switch strings.ToLower(s) {
	case "", "approx":
		return AlignApprox, nil
	case "visible":
		return AlignVisible, nil
	default:
		return AlignApprox, fmt.Errorf("invalid align policy: %q (expected: approx|visible)", s)
	}
}

// Values holds the data substituted into a template.
type Values struct {
	File        string
	Func        string
	LineNo      int
	Event       string
	DepthIndent string
	Depth       int
	Line        string
}

func (v *Values) lookup(ph Placeholder) string {
	switch ph {
	case PlaceholderFile:
		return v.File
	case PlaceholderFunc:
		return v.Func
	case PlaceholderLineNo:
		return strconv.Itoa(v.LineNo)
	case PlaceholderEvent:
		return v.Event
	case PlaceholderDepthIndent:
		return v.DepthIndent
	case PlaceholderDepth:
		return strconv.Itoa(v.Depth)
	case PlaceholderLine:
		return v.Line
	default:
		return ""
	}
}

// Render substitutes values and pads every column stop.
func (t *Template) Render(v Values, policy AlignPolicy) string {
	if t == nil {
		return ""
	}
	var (
		out   strings.Builder
		runes int // rune length of out
		escs  int // ESC characters in out
	)
	write := func(s string) {
		out.WriteString(s)
		runes += utf8.RuneCountInString(s)
		escs += strings.Count(s, "\x1b")
	}

	for _, p := range t.pieces {
		switch p.kind {
		case pieceLiteral:
			write(p.text)
		case piecePlaceholder:
			write(v.lookup(p.ph))
		case pieceStop:
			var pad int
			if policy == AlignVisible {
				pad = Padding(p.width, lipgloss.Width(out.String()), 0)
			} else {
				pad = Padding(p.width, runes, escs)
			}
			write(strings.Repeat(" ", pad))
		}
	}
	return out.String()
}

// Padding returns the number of spaces needed to reach column width from a
// prefix of length n containing escapes ESC characters.
func Padding(width, n, escapes int) int {
	pad := width - n + 4*escapes
	if escapes > 0 {
		pad++
	}
	return max(pad, 0)
}
