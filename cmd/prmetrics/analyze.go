package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boshu2/prmetrics/internal/formatter"
	"github.com/boshu2/prmetrics/internal/report"
)

var analyzeInput inputFlags

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file...]",
	Short: "Derive metrics for each pull request",
	Long: `Derive cycle time metrics for every pull request record.

Records are read from the given files, or stdin when none (or "-") are given.
Accepted inputs: a JSON node, a JSON array of nodes, a GraphQL search
response (data.search.edges[].node), JSON Lines, or YAML.

Metrics that cannot be computed are shown as "-" and omitted from JSON.
A "*" after the state marks history rewritten by a force push.

Examples:
  prmetrics analyze prs.json
  gh api graphql -f query=@search.graphql | prmetrics analyze -o jsonl
  prmetrics analyze --skip-malformed=false export.jsonl`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeInput.register(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	p, err := analyzeInput.newParser(cmd)
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
	logger.Debug("metrics derived", "pull_requests", len(rows), "workers", GetWorkers())

	w := cmd.OutOrStdout()
	switch GetOutput() {
	case "json":
		return writeJSON(w, rows)
	case "jsonl":
		return formatter.NewJSONLFormatter().Format(w, rows)
	case "yaml":
		return writeYAML(w, rows)
	case "markdown":
		rep := report.Build(rows, report.Options{})
		return formatter.NewMarkdownFormatter().Format(w, rep, rows)
	case "table":
		if len(rows) == 0 {
			fmt.Fprintln(w, "No pull requests found.")
			return nil
		}
		return formatter.WriteMetricsTable(w, rows)
	default:
		return fmt.Errorf("unsupported output format %q", GetOutput())
	}
}
