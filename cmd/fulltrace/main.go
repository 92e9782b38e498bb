package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"fulltrace/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "fulltrace",
	Short: "Annotated execution trace renderer",
	Long: `fulltrace renders recorded call, line and return events into an annotated,
column-aligned trace with links back to the traced source`,
	SilenceUsage: true,
}

// main registers subcommands and persistent flags, then executes the root
// command. A failing command exits with status 1.
func main() {
	// Версия для автоматического флага --version
	rootCmd.Version = version.Version

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(versionCmd)

	addPersistentFlags(rootCmd.PersistentFlags())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addPersistentFlags registers the global flags.
func addPersistentFlags(fs *pflag.FlagSet) {
	fs.String("color", "auto", "colorize output (auto|on|off)")
	fs.Bool("quiet", false, "suppress non-essential output")
	fs.Bool("timings", false, "show timing information")
	fs.String("trace", "", "write tool trace to file (- for stderr)")
	fs.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	fs.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	fs.Int("trace-ring-size", 4096, "ring buffer size for --trace-mode ring|both")
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
