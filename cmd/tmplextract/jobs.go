// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tmplextract/pkg/types"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the extraction jobs that a run would execute",
	Long: `Jobs prints the effective job list: the job manifest given with --jobs,
or the built-in contract, deploy script, and test script jobs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, err := loadJobs(extractorConfig())
		if err != nil {
			return err
		}
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return formatJobs(os.Stdout, jobs, jsonOutput)
	},
}

func formatJobs(w io.Writer, jobs []types.ExtractionJob, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	}

	fmt.Fprintf(w, "%-3s  %-32s  %-10s  %s\n", "#", "Start marker", "End", "Output")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for i, j := range jobs {
		fmt.Fprintf(w, "%-3d  %-32s  %-10q  %s\n", i+1, j.StartMarker, j.EndDelimiter, j.OutputName)
	}
	return nil
}

func init() {
	jobsCmd.Flags().Bool("json", false, "output jobs as JSON")

	rootCmd.AddCommand(jobsCmd)
}
