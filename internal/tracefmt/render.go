package tracefmt

import (
	"strings"

	"fulltrace/internal/event"
	"fulltrace/internal/tmpl"
)

// RenderEvent renders ev through tpl with an already merged function name
// and the raw resolved line text.
func (c *Config) RenderEvent(tpl *tmpl.Template, ev event.Event, fn, text string) string {
	linked := tpl.Contains(c.s.Link)

	line := text
	if linked && c.s.QuotationReplacement != "" {
		line = strings.ReplaceAll(line, `"`, c.s.QuotationReplacement)
	}
	if c.s.Strip {
		line = strings.TrimSpace(line)
	}

	v := tmpl.Values{
		File:   ev.Filename,
		Func:   fn,
		LineNo: ev.Line,
		Event:  ev.Kind.String(),
		Depth:  ev.Depth,
		Line:   line,
	}
	if tpl.Uses(tmpl.PlaceholderDepthIndent) {
		v.DepthIndent = strings.Repeat(c.s.DepthTab, ev.Depth)
	}
	return tpl.Render(v, c.s.Align)
}

// template picks the continuation template when one is configured.
func (c *Config) template(continuation bool) *tmpl.Template {
	if continuation && !c.consecutive.Empty() {
		return c.consecutive
	}
	return c.mode
}
