package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/prmetrics/internal/formatter"
	"github.com/boshu2/prmetrics/internal/report"
)

var (
	reportInput inputFlags
	reportLimit int
)

var reportCmd = &cobra.Command{
	Use:   "report [file...]",
	Short: "Summarize a batch of pull requests",
	Long: `Build the dashboard view for a batch of pull requests.

The report has:
  - counts of merged, deployed and force-pushed pull requests
  - count, mean, median and max of each metric where it is defined
  - rankings: Most Reviewed, Longest Cycles, Most Changes

Examples:
  prmetrics report prs.json
  prmetrics report --limit 10 -o markdown prs.jsonl > REPORT.md`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportInput.register(reportCmd)
	reportCmd.Flags().IntVar(&reportLimit, "limit", report.DefaultRankLimit, "Entries per ranking")
}

func runReport(cmd *cobra.Command, args []string) error {
	if reportLimit < 1 {
		return fmt.Errorf("--limit must be at least 1, got %d", reportLimit)
	}
	p, err := reportInput.newParser(cmd)
	if err != nil {
		return err
	}
	cal, err := GetCalendar()
	if err != nil {
		return err
	}

	prs, err := loadPullRequests(cmd, p, args)
	if err != nil {
		return err
	}

	rows := report.DeriveAll(cal, prs, GetWorkers())
	rep := report.Build(rows, report.Options{RankLimit: reportLimit})
	logger.Debug("report built", "run_id", rep.RunID, "pull_requests", rep.PullRequests)

	w := cmd.OutOrStdout()
	switch GetOutput() {
	case "json":
		return writeJSON(w, rep)
	case "jsonl":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(rep)
	case "yaml":
		return writeYAML(w, rep)
	case "markdown":
		return formatter.NewMarkdownFormatter().Format(w, rep, nil)
	case "table":
		return formatter.WriteReportTable(w, rep)
	default:
		return fmt.Errorf("unsupported output format %q", GetOutput())
	}
}
