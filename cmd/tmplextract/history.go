// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tmplextract/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent extraction runs from the history database",
	Long: `History lists the most recent runs recorded in the database given with
--history-db, newest first, with the outcome and content hash of each job.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := extractorConfig()
		if cfg.HistoryDB == "" {
			return fmt.Errorf("no history database: set --history-db or history_db in the config file")
		}
		limit, _ := cmd.Flags().GetInt("limit")

		store, err := history.Open(cfg.HistoryDB, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		formatRuns(os.Stdout, runs)
		return nil
	},
}

func formatRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "run %d  %s  %s  %s (sha256 %s)\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Mode, r.Source, shortHash(r.SourceSHA256))
		for _, j := range r.Jobs {
			line := fmt.Sprintf("  %-10s %-24s %6d bytes  %s", j.Status, j.OutputName, j.Bytes, shortHash(j.SHA256))
			if j.Error != "" {
				line += "  " + j.Error
			}
			fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func init() {
	historyCmd.Flags().Int("limit", 10, "maximum number of runs to show")

	rootCmd.AddCommand(historyCmd)
}
