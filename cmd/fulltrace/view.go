package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"fulltrace/internal/observ"
	"fulltrace/internal/ui"
)

var viewCmd = &cobra.Command{
	Use:   "view [flags] events",
	Short: "Browse a rendered trace interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runView,
}

func init() {
	addRenderFlags(viewCmd.Flags())
}

func runView(cmd *cobra.Command, args []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eventsFormat, err := eventsFormatFlag(cmd)
	if err != nil {
		return err
	}
	out := terminalOf(cmd.OutOrStdout())
	cfg, err := loadRenderConfig(cmd, out)
	if err != nil {
		return err
	}
	path := args[0]
	tracer := observ.FromContext(cmd.Context())
	span := observ.Begin(tracer, observ.ScopeCommand, "view", 0)
	rf, err := renderFile(tracer, cfg, path, eventsFormat, span.ID())
	span.End("")
	if err != nil {
		return err
	}

	// без терминала просто печатаем результат
	if out == nil || !isTerminal(out) {
		return writeRenderText(cmd.OutOrStdout(), []renderedFile{rf}, false)
	}

	summary := fmt.Sprintf("%d/%d events", rf.Stats.Rendered, rf.Stats.Seen)
	model := ui.NewViewerModel(path, summary, rf.Lines)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithOutput(out)).Run(); err != nil {
		return fmt.Errorf("viewer failed: %w", err)
	}
	return nil
}
