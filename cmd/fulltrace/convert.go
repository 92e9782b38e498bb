package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"fulltrace/internal/event"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] input output",
	Short: "Convert event files between NDJSON and msgpack",
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

func init() {
	addConvertFlags(convertCmd.Flags())
}

func addConvertFlags(fs *pflag.FlagSet) {
	fs.String("from", "auto", "input format (auto|ndjson|msgpack)")
	fs.String("to", "auto", "output format (auto|ndjson|msgpack)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	fromValue, err := cmd.Flags().GetString("from")
	if err != nil {
		return fmt.Errorf("failed to get from flag: %w", err)
	}
	toValue, err := cmd.Flags().GetString("to")
	if err != nil {
		return fmt.Errorf("failed to get to flag: %w", err)
	}
	from, err := event.ParseFormat(fromValue)
	if err != nil {
		return err
	}
	to, err := event.ParseFormat(toValue)
	if err != nil {
		return err
	}

	events, err := event.Read(args[0], from)
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}
	if err := event.Write(args[1], to, events); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}
	if !isQuiet(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "converted %d events: %s -> %s\n", len(events), args[0], args[1])
	}
	return nil
}
