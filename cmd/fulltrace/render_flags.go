package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"fulltrace/internal/config"
	"fulltrace/internal/tmpl"
	"fulltrace/internal/tracefmt"
)

// addRenderFlags registers the flags shared by render and view. Defaults are
// only documentation: a flag takes part in the configuration when it was set.
func addRenderFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "configuration file (default: nearest "+config.FileName+")")
	fs.String("events-format", "auto", "event file format (auto|ndjson|msgpack)")

	fs.String("anchor", tracefmt.DefaultAnchor, "column stop delimiter in templates")
	fs.String("quotation-replacement", tracefmt.DefaultQuotationReplacement, `replacement for " in linked line text (empty keeps quotes)`)
	fs.String("not-found", "Not found", "text shown for unresolvable source lines")
	fs.Int("line-length", tracefmt.DefaultLineLength, "source width assumed by the default templates")
	fs.String("ide", "auto", "hyperlink flavor (auto|vscode|pycharm)")

	fs.String("filename-pattern", "", "keep files whose name starts with a match")
	fs.String("func-name-pattern", "", "keep functions whose name starts with a match")
	fs.String("line-pattern", "", "keep events whose source line contains a match")

	fs.String("start-line-pattern", "", "start rendering at a source line containing a match")
	fs.String("start-func-pattern", "", "start rendering in a function whose name starts with a match")
	fs.String("start-file-pattern", "", "start rendering in a file whose name starts with a match")

	fs.Int("max-depth", 0, "maximum call depth (0 = unlimited)")
	fs.Bool("trace-lines", true, "render line and return events, not only calls")
	fs.Bool("ignore-unfound-lines", true, "drop events whose source cannot be resolved")
	fs.String("depth-tab", "", "indent unit repeated per depth for %depth_indent")
	fs.Bool("strip", false, "trim whitespace around source lines")

	fs.String("link", "", "hyperlink template (default depends on --ide)")
	fs.String("mode", "", "template for a rendered event")
	fs.String("consecutive-mode", "", "template for the next line of the same call")
	fs.Bool("no-consecutive-mode", false, "render continuation lines with --mode")
	fs.String("align", "approx", "column alignment (approx|visible)")
}

// changed returns a pointer to the flag value when it was set explicitly.
func changed[T any](fs *pflag.FlagSet, name string, get func(string) (T, error)) (*T, error) {
	if !fs.Changed(name) {
		return nil, nil
	}
	v, err := get(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s flag: %w", name, err)
	}
	return &v, nil
}

// flagOverrides collects the render flags that were set explicitly.
func flagOverrides(fs *pflag.FlagSet) (tracefmt.Overrides, error) {
	var (
		o    tracefmt.Overrides
		errs []error
	)
	str := func(dst **string, name string) {
		v, err := changed(fs, name, fs.GetString)
		*dst = v
		errs = append(errs, err)
	}
	num := func(dst **int, name string) {
		v, err := changed(fs, name, fs.GetInt)
		*dst = v
		errs = append(errs, err)
	}
	flag := func(dst **bool, name string) {
		v, err := changed(fs, name, fs.GetBool)
		*dst = v
		errs = append(errs, err)
	}

	str(&o.Anchor, "anchor")
	str(&o.QuotationReplacement, "quotation-replacement")
	str(&o.NotFound, "not-found")
	num(&o.LineLength, "line-length")
	str(&o.FilenamePattern, "filename-pattern")
	str(&o.FuncNamePattern, "func-name-pattern")
	str(&o.LinePattern, "line-pattern")
	str(&o.StartLinePattern, "start-line-pattern")
	str(&o.StartFuncPattern, "start-func-pattern")
	str(&o.StartFilePattern, "start-file-pattern")
	num(&o.MaxDepth, "max-depth")
	flag(&o.TraceLines, "trace-lines")
	flag(&o.IgnoreUnfoundLines, "ignore-unfound-lines")
	str(&o.DepthTab, "depth-tab")
	flag(&o.Strip, "strip")
	str(&o.Link, "link")
	str(&o.Mode, "mode")
	str(&o.ConsecutiveMode, "consecutive-mode")
	flag(&o.NoConsecutiveMode, "no-consecutive-mode")
	for _, err := range errs {
		if err != nil {
			return tracefmt.Overrides{}, err
		}
	}

	ide, err := changed(fs, "ide", fs.GetString)
	if err != nil {
		return tracefmt.Overrides{}, err
	}
	if ide != nil {
		if o.IDE, err = tracefmt.ParseIDEOverride(*ide); err != nil {
			return tracefmt.Overrides{}, err
		}
	}
	align, err := changed(fs, "align", fs.GetString)
	if err != nil {
		return tracefmt.Overrides{}, err
	}
	if align != nil {
		v, err := tmpl.ParseAlignPolicy(*align)
		if err != nil {
			return tracefmt.Overrides{}, err
		}
		o.Align = &v
	}
	return o, nil
}

// loadRenderConfig layers the configuration sources, later ones winning:
// environment, --color auto, configuration file, explicit --color, flags.
func loadRenderConfig(cmd *cobra.Command, out *os.File) (*tracefmt.Config, error) {
	fs := cmd.Flags()

	mode, explicitColor, err := colorFlag(cmd)
	if err != nil {
		return nil, err
	}
	colored := shouldColor(mode, out)
	colorLayer := tracefmt.Overrides{Color: &colored}

	layers := []tracefmt.Overrides{config.Environment(os.Getenv)}
	if !explicitColor {
		layers = append(layers, colorLayer)
	}

	fileLayer, err := loadConfigFile(fs)
	if err != nil {
		return nil, err
	}
	layers = append(layers, fileLayer)
	if explicitColor {
		layers = append(layers, colorLayer)
	}

	flags, err := flagOverrides(fs)
	if err != nil {
		return nil, err
	}
	layers = append(layers, flags)

	var merged tracefmt.Overrides
	for _, l := range layers {
		merged = merged.Merge(l)
	}
	return tracefmt.NewConfig(merged)
}

func loadConfigFile(fs *pflag.FlagSet) (tracefmt.Overrides, error) {
	path, err := fs.GetString("config")
	if err != nil {
		return tracefmt.Overrides{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var f *config.File
	if path != "" {
		if f, err = config.Load(path); err != nil {
			return tracefmt.Overrides{}, err
		}
	} else if f, _, err = config.Discover("."); err != nil {
		return tracefmt.Overrides{}, err
	}
	return f.Overrides()
}
