// Package config loads render settings from .fulltrace.toml files and the
// environment.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"fulltrace/internal/tmpl"
	"fulltrace/internal/tracefmt"
)

// File is a decoded configuration file.
type File struct {
	Path   string        `toml:"-"`
	Render RenderSection `toml:"render"`
}

// RenderSection mirrors tracefmt.Overrides with snake_case keys. Absent keys
// stay nil and keep their defaults.
type RenderSection struct {
	Anchor               *string `toml:"anchor"`
	QuotationReplacement *string `toml:"quotation_replacement"`
	NotFound             *string `toml:"not_found"`
	LineLength           *int    `toml:"line_length"`
	IDE                  *string `toml:"ide"`

	FilenamePattern *string `toml:"filename_pattern"`
	FuncNamePattern *string `toml:"func_name_pattern"`
	LinePattern     *string `toml:"line_pattern"`

	StartLinePattern *string `toml:"start_line_pattern"`
	StartFuncPattern *string `toml:"start_func_pattern"`
	StartFilePattern *string `toml:"start_file_pattern"`

	MaxDepth           *int    `toml:"max_depth"`
	TraceLines         *bool   `toml:"trace_lines"`
	IgnoreUnfoundLines *bool   `toml:"ignore_unfound_lines"`
	DepthTab           *string `toml:"depth_tab"`
	Strip              *bool   `toml:"strip"`

	Link              *string `toml:"link"`
	Mode              *string `toml:"mode"`
	ConsecutiveMode   *string `toml:"consecutive_mode"`
	NoConsecutiveMode *bool   `toml:"no_consecutive_mode"`

	Align *string `toml:"align"`
	Color *bool   `toml:"color"`
}

// Load decodes the file at path. Unknown keys are an error so typos do not
// silently fall back to defaults.
func Load(path string) (*File, error) {
	var f File
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	f.Path = path
	return &f, nil
}

// Discover loads the nearest .fulltrace.toml above startDir, if any.
func Discover(startDir string) (*File, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	f, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return f, true, nil
}

// Overrides converts the [render] table into tracefmt overrides.
func (f *File) Overrides() (tracefmt.Overrides, error) {
	if f == nil {
		return tracefmt.Overrides{}, nil
	}
	r := f.Render
	o := tracefmt.Overrides{
		Anchor:               r.Anchor,
		QuotationReplacement: r.QuotationReplacement,
		NotFound:             r.NotFound,
		LineLength:           r.LineLength,
		FilenamePattern:      r.FilenamePattern,
		FuncNamePattern:      r.FuncNamePattern,
		LinePattern:          r.LinePattern,
		StartLinePattern:     r.StartLinePattern,
		StartFuncPattern:     r.StartFuncPattern,
		StartFilePattern:     r.StartFilePattern,
		MaxDepth:             r.MaxDepth,
		TraceLines:           r.TraceLines,
		IgnoreUnfoundLines:   r.IgnoreUnfoundLines,
		DepthTab:             r.DepthTab,
		Strip:                r.Strip,
		Link:                 r.Link,
		Mode:                 r.Mode,
		ConsecutiveMode:      r.ConsecutiveMode,
		NoConsecutiveMode:    r.NoConsecutiveMode,
		Color:                r.Color,
	}
	if r.IDE != nil {
		ide, err := tracefmt.ParseIDEOverride(*r.IDE)
		if err != nil {
			return tracefmt.Overrides{}, fmt.Errorf("%s: [render].ide: %w", f.Path, err)
		}
		o.IDE = ide
	}
	if r.Align != nil {
		align, err := tmpl.ParseAlignPolicy(*r.Align)
		if err != nil {
			return tracefmt.Overrides{}, fmt.Errorf("%s: [render].align: %w", f.Path, err)
		}
		o.Align = &align
	}
	return o, nil
}

// Environment returns the overrides implied by the environment: the hosting
// IDE when one is detected.
func Environment(getenv func(string) string) tracefmt.Overrides {
	ide := tracefmt.DetectIDE(getenv)
	if ide == tracefmt.IDEUnknown {
		return tracefmt.Overrides{}
	}
	return tracefmt.Overrides{IDE: &ide}
}
