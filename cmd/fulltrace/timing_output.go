package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"fulltrace/internal/observ"
)

func printTimings(cmd *cobra.Command, out io.Writer, timer *observ.Timer) {
	if out == nil || timer == nil {
		return
	}
	show, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil || !show {
		return
	}
	if _, err := fmt.Fprint(out, timer.Summary()); err != nil {
		panic(err)
	}
}

func isQuiet(cmd *cobra.Command) bool {
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && quiet
}
