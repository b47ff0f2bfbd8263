package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/glide/internal/config"
	"github.com/verte-zerg/glide/internal/stats"
	"github.com/verte-zerg/glide/internal/store"
)

const (
	defaultPatternsLast   = 50
	defaultPatternsWindow = 10
)

var (
	patternsLast   int
	patternsWindow int
)

func newPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Show learned patterns and decode statistics",
		Args:  cobra.NoArgs,
		RunE:  runPatternsCmd,
	}
	cmd.Flags().IntVar(&patternsLast, "last", defaultPatternsLast, "number of recent decodes to show")
	cmd.Flags().IntVar(&patternsWindow, "window", defaultPatternsWindow, "moving average window for the cache hit trend")
	return cmd
}

func runPatternsCmd(cmd *cobra.Command, _ []string) error {
	if patternsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if patternsWindow <= 0 {
		return fmt.Errorf("--window must be > 0")
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(cmd.Context(), st, patternsLast)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	return stats.RenderReport(cmd.OutOrStdout(), report, stats.TerminalWidth(), patternsWindow)
}
