package tracefmt

import (
	"errors"
	"fmt"
	"regexp"

	"fulltrace/internal/tmpl"
)

var (
	// ErrInvalidPattern is returned for a pattern that does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrInvalidTemplate is returned for a template with a malformed column stop.
	ErrInvalidTemplate = tmpl.ErrInvalidTemplate
	// ErrConflictingConfig is returned when a full Config and individual
	// overrides are passed to the same constructor.
	ErrConflictingConfig = errors.New("pass either a Config or individual overrides, not both")
)

// Settings is the plain option set of a render pass.
// Empty patterns are unset. Empty Link, Mode, ConsecutiveMode and NotFound
// are derived from the other settings by Compile.
type Settings struct {
	Anchor               string // column stop delimiter
	QuotationReplacement string // replaces `"` in line text of linked templates; empty keeps quotes
	NotFound             string // text shown for unresolvable source
	LineLength           int    // expected source width, used by the default templates
	IDE                  IDE    // picks the default link

	FilenamePattern string // prefix match against the file name
	FuncNamePattern string // prefix match against the function name
	LinePattern     string // searched in the resolved source text

	StartLinePattern string // searched in the source text
	StartFuncPattern string // prefix match against the function name
	StartFilePattern string // prefix match against the file name

	MaxDepth           int  // 0 means unlimited
	TraceLines         bool // false keeps call events only
	IgnoreUnfoundLines bool // drop events whose source could not be resolved
	DepthTab           string
	Strip              bool

	Link              string // substring marking a template as hyperlinked
	Mode              string
	ConsecutiveMode   string
	NoConsecutiveMode bool // render continuation lines with Mode

	Align tmpl.AlignPolicy
	Color bool // color the derived templates and marker
}

// Overrides holds only the settings a caller wants to change.
type Overrides struct {
	Anchor               *string
	QuotationReplacement *string
	NotFound             *string
	LineLength           *int
	IDE                  *IDE

	FilenamePattern *string
	FuncNamePattern *string
	LinePattern     *string

	StartLinePattern *string
	StartFuncPattern *string
	StartFilePattern *string

	MaxDepth           *int
	TraceLines         *bool
	IgnoreUnfoundLines *bool
	DepthTab           *string
	Strip              *bool

	Link              *string
	Mode              *string
	ConsecutiveMode   *string
	NoConsecutiveMode *bool

	Align *tmpl.AlignPolicy
	Color *bool
}

// Apply returns s with every set override applied.
func (o Overrides) Apply(s Settings) Settings {
	set(&s.Anchor, o.Anchor)
	set(&s.QuotationReplacement, o.QuotationReplacement)
	set(&s.NotFound, o.NotFound)
	set(&s.LineLength, o.LineLength)
	set(&s.IDE, o.IDE)
	set(&s.FilenamePattern, o.FilenamePattern)
	set(&s.FuncNamePattern, o.FuncNamePattern)
	set(&s.LinePattern, o.LinePattern)
	set(&s.StartLinePattern, o.StartLinePattern)
	set(&s.StartFuncPattern, o.StartFuncPattern)
	set(&s.StartFilePattern, o.StartFilePattern)
	set(&s.MaxDepth, o.MaxDepth)
	set(&s.TraceLines, o.TraceLines)
	set(&s.IgnoreUnfoundLines, o.IgnoreUnfoundLines)
	set(&s.DepthTab, o.DepthTab)
	set(&s.Strip, o.Strip)
	set(&s.Link, o.Link)
	set(&s.Mode, o.Mode)
	set(&s.ConsecutiveMode, o.ConsecutiveMode)
	set(&s.NoConsecutiveMode, o.NoConsecutiveMode)
	set(&s.Align, o.Align)
	set(&s.Color, o.Color)
	return s
}

// Merge layers other on top of o.
func (o Overrides) Merge(other Overrides) Overrides {
	pick(&o.Anchor, other.Anchor)
	pick(&o.QuotationReplacement, other.QuotationReplacement)
	pick(&o.NotFound, other.NotFound)
	pick(&o.LineLength, other.LineLength)
	pick(&o.IDE, other.IDE)
	pick(&o.FilenamePattern, other.FilenamePattern)
	pick(&o.FuncNamePattern, other.FuncNamePattern)
	pick(&o.LinePattern, other.LinePattern)
	pick(&o.StartLinePattern, other.StartLinePattern)
	pick(&o.StartFuncPattern, other.StartFuncPattern)
	pick(&o.StartFilePattern, other.StartFilePattern)
	pick(&o.MaxDepth, other.MaxDepth)
	pick(&o.TraceLines, other.TraceLines)
	pick(&o.IgnoreUnfoundLines, other.IgnoreUnfoundLines)
	pick(&o.DepthTab, other.DepthTab)
	pick(&o.Strip, other.Strip)
	pick(&o.Link, other.Link)
	pick(&o.Mode, other.Mode)
	pick(&o.ConsecutiveMode, other.ConsecutiveMode)
	pick(&o.NoConsecutiveMode, other.NoConsecutiveMode)
	pick(&o.Align, other.Align)
	pick(&o.Color, other.Color)
	return o
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func pick[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}

// Config is the compiled, immutable form of Settings.
type Config struct {
	s Settings

	filename, funcName, line        *regexp.Regexp
	startFile, startFunc, startLine *regexp.Regexp
	mode, consecutive               *tmpl.Template
}

// Compile validates s, fills in derived values and compiles patterns and
// templates.
func Compile(s Settings) (*Config, error) {
	if s.Link == "" {
		s.Link = LinkFor(s.IDE)
	}
	if s.Mode == "" || s.ConsecutiveMode == "" {
		mode, consecutive := defaultModes(s.Anchor, s.LineLength, s.Link, s.Color)
		if s.Mode == "" {
			s.Mode = mode
		}
		if s.ConsecutiveMode == "" {
			s.ConsecutiveMode = consecutive
		}
	}
	if s.NotFound == "" {
		s.NotFound = defaultNotFound(s.Color)
	}
	if s.MaxDepth < 0 {
		return nil, fmt.Errorf("max depth must not be negative, got %d", s.MaxDepth)
	}

	c := &Config{s: s}
	var err error
	patterns := []struct {
		name   string
		expr   string
		prefix bool
		dst    **regexp.Regexp
	}{
		{"filename pattern", s.FilenamePattern, true, &c.filename},
		{"function name pattern", s.FuncNamePattern, true, &c.funcName},
		{"line pattern", s.LinePattern, false, &c.line},
		{"start file pattern", s.StartFilePattern, true, &c.startFile},
		{"start function pattern", s.StartFuncPattern, true, &c.startFunc},
		{"start line pattern", s.StartLinePattern, false, &c.startLine},
	}
	for _, p := range patterns {
		if *p.dst, err = compilePattern(p.name, p.expr, p.prefix); err != nil {
			return nil, err
		}
	}

	if c.mode, err = tmpl.Parse(s.Mode, s.Anchor); err != nil {
		return nil, fmt.Errorf("mode: %w", err)
	}
	if !s.NoConsecutiveMode {
		if c.consecutive, err = tmpl.Parse(s.ConsecutiveMode, s.Anchor); err != nil {
			return nil, fmt.Errorf("consecutive mode: %w", err)
		}
	}
	return c, nil
}

// NewConfig applies overrides to DefaultSettings and compiles the result.
func NewConfig(o Overrides) (*Config, error) {
	return Compile(o.Apply(DefaultSettings()))
}

// MustConfig is like NewConfig but panics on error.
func MustConfig(o Overrides) *Config {
	c, err := NewConfig(o)
	if err != nil {
		panic(err)
	}
	return c
}

// compilePattern compiles expr; prefix patterns are anchored at the start of
// the subject but not at its end.
func compilePattern(name, expr string, prefix bool) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	src := expr
	if prefix {
		src = `^(?:` + expr + `)`
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrInvalidPattern, name, expr, err)
	}
	return re, nil
}

// Settings returns the effective settings, derived values included.
func (c *Config) Settings() Settings { return c.s }

// Mode returns the normal template.
func (c *Config) Mode() *tmpl.Template { return c.mode }

// ConsecutiveMode returns the continuation template, nil when disabled.
func (c *Config) ConsecutiveMode() *tmpl.Template { return c.consecutive }

func (c *Config) hasStartTrigger() bool {
	return c.startFile != nil || c.startFunc != nil || c.startLine != nil
}
