package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"fulltrace/internal/event"
	"fulltrace/internal/observ"
	"fulltrace/internal/tracefmt"
)

var renderCmd = &cobra.Command{
	Use:   "render [flags] events...",
	Short: "Render event files as annotated traces",
	Long: `Render reads recorded events (NDJSON or msgpack) and prints one annotated,
column-aligned line per surviving event`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	addRenderCmdFlags(renderCmd.Flags())
}

func addRenderCmdFlags(fs *pflag.FlagSet) {
	addRenderFlags(fs)
	fs.Int("jobs", runtime.GOMAXPROCS(0), "number of event files rendered concurrently")
	fs.String("format", "text", "output format (text|json)")
	fs.StringP("output", "o", "", "write output to file instead of stdout")
}

// renderedFile is the outcome of one render pass.
type renderedFile struct {
	Path   string         `json:"path"`
	Lines  []string       `json:"lines"`
	Stats  tracefmt.Stats `json:"stats"`
	result tracefmt.Result
}

func runRender(cmd *cobra.Command, args []string) (err error) {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	defer func() {
		if err != nil {
			dumpTraceRing(cmd, cmd.ErrOrStderr())
		}
	}()

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	eventsFormat, err := eventsFormatFlag(cmd)
	if err != nil {
		return err
	}

	timer := observ.NewTimer()
	tracer := observ.FromContext(cmd.Context())
	span := observ.Begin(tracer, observ.ScopeCommand, "render", 0).
		WithExtra("files", strconv.Itoa(len(args)))
	defer span.End("")

	out, closeOut, err := openOutput(cmd, outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	idx := timer.Begin("config")
	cfg, err := loadRenderConfig(cmd, terminalOf(out))
	timer.End(idx, "")
	if err != nil {
		return err
	}

	idx = timer.Begin("render")
	files, err := renderFiles(cmd.Context(), cfg, args, eventsFormat, jobs, span.ID())
	timer.End(idx, fmt.Sprintf("%d files", len(args)))
	if err != nil {
		return err
	}

	idx = timer.Begin("write")
	if format == "json" {
		err = writeRenderJSON(out, files)
	} else {
		err = writeRenderText(out, files, len(files) > 1 && !isQuiet(cmd))
	}
	timer.End(idx, "")
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	printTimings(cmd, cmd.ErrOrStderr(), timer)
	return nil
}

func eventsFormatFlag(cmd *cobra.Command) (event.Format, error) {
	value, err := cmd.Flags().GetString("events-format")
	if err != nil {
		return event.FormatAuto, fmt.Errorf("failed to get events-format flag: %w", err)
	}
	return event.ParseFormat(value)
}

// renderFiles renders every event file in its own pass. At most jobs passes
// run at once; results keep the order of paths.
func renderFiles(ctx context.Context, cfg *tracefmt.Config, paths []string, format event.Format, jobs int, parent uint64) ([]renderedFile, error) {
	tracer := observ.FromContext(ctx)
	results := make([]renderedFile, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(min(jobs, len(paths)))
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rf, err := renderFile(tracer, cfg, path, format, parent)
			if err != nil {
				return err
			}
			results[i] = rf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// renderFile runs one render pass over an event file under a file span.
func renderFile(tracer observ.Tracer, cfg *tracefmt.Config, path string, format event.Format, parent uint64) (renderedFile, error) {
	span := observ.Begin(tracer, observ.ScopeFile, "file:"+path, parent)
	defer span.End("")

	events, err := event.Read(path, format)
	if err != nil {
		return renderedFile{}, fmt.Errorf("failed to read events: %w", err)
	}
	f, err := tracefmt.New(tracefmt.WithConfig(cfg), tracefmt.WithTracer(tracer, span.ID()))
	if err != nil {
		return renderedFile{}, err
	}
	res := f.Render(events)
	return renderedFile{Path: path, Lines: res.Lines, Stats: res.Stats, result: res}, nil
}

func writeRenderText(w io.Writer, files []renderedFile, headers bool) error {
	for i, f := range files {
		if headers {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "==> %s <==\n", f.Path); err != nil {
				return err
			}
		}
		if len(f.Lines) == 0 {
			continue
		}
		if _, err := fmt.Fprintln(w, f.result.Text); err != nil {
			return err
		}
	}
	return nil
}

func writeRenderJSON(w io.Writer, files []renderedFile) error {
	for i := range files {
		if files[i].Lines == nil {
			files[i].Lines = []string{}
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(files)
}

// openOutput returns the command output or a created file.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed to close output: %v\n", err)
		}
	}, nil
}

// terminalOf returns w as a file when it is one, for color detection.
func terminalOf(w io.Writer) *os.File {
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	return f
}
