// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dbakit/cli/internal/history"
)

var (
	historyLimit  int
	historyFailed bool
)

// historyCmd shows what ran before, from the local journal.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent runs from the local journal",
	Long: `Every command invocation journals one row per target: what ran, where, how
long it took and how it ended. The journal lives in the local state
directory and never leaves the machine. --no-history skips writing it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open()
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.List(historyLimit, historyFailed)
		if err != nil {
			return err
		}

		if flagOutput == outputJSON {
			return printJSON(runs)
		}
		if len(runs) == 0 {
			pterm.Println("No runs recorded yet.")
			return nil
		}

		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			status := "✅ ok"
			if r.Status != history.StatusOK {
				status = "❌ " + r.Error
			}
			rows = append(rows, []string{
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Command,
				r.Target,
				r.Duration.Round(time.Millisecond).String(),
				status,
			})
		}
		renderTable([]string{"Started", "Command", "Target", "Duration", "Result"}, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "How many runs to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "Only failed runs")
}
