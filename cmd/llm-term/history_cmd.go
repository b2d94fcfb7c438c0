package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dh1101/llm-term/internal/history"
	"github.com/dh1101/llm-term/internal/logging"
	"github.com/fatih/color"

	"github.com/spf13/cobra"
)

var historyLimit int

func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently generated and executed commands",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVarP(&historyLimit, "number", "n", 20, "Number of entries to show")
	return historyCmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	paths, err := resolvePaths(logging.New(os.Stderr, debug))
	if err != nil {
		return err
	}

	store, err := history.Open(paths.History)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(context.Background(), historyLimit)
	if err != nil {
		return err
	}
	printHistory(os.Stdout, entries)
	return nil
}

func printHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No history yet.")
		return
	}

	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan, color.Bold)

	for _, e := range entries {
		gray.Fprintf(w, "%s  %-9s  ", e.Timestamp.Local().Format(time.DateTime), e.Source)
		switch {
		case !e.Executed:
			gray.Fprint(w, "skipped")
		case e.ExitCode == 0:
			green.Fprint(w, "ok")
		default:
			red.Fprintf(w, "exit %d", e.ExitCode)
		}
		fmt.Fprintf(w, "\n  %s\n", e.Prompt)
		cyan.Fprintf(w, "  %s\n", e.Command)
	}
}
