package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/boshu2/prmetrics/internal/config"
)

var (
	configShow bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View prmetrics configuration.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (PRMETRICS_*)
  3. Project config (.prmetrics/config.yaml)
  4. Home config (~/.prmetrics/config.yaml)
  5. Defaults

Environment variables:
  PRMETRICS_CONFIG     - Explicit config file path (overrides the project config location)
  PRMETRICS_OUTPUT     - Default output format (table, json, jsonl, markdown, yaml)
  PRMETRICS_VERBOSE    - Enable verbose output (true/1)
  PRMETRICS_WORKERS    - Derivation workers (0 = one per CPU)
  PRMETRICS_TIMEZONE   - IANA zone for business-day dates (default: UTC)
  PRMETRICS_ADDR       - serve listen address (default: :8080)
  PRMETRICS_LOG_FORMAT - Log format (json, text)

The deployment label is always "deployed-PROD".

Examples:
  prmetrics config --show           # Show resolved configuration
  prmetrics config --show -o json   # Output as JSON`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configShow, "show", false, "Show resolved configuration with sources")
}

// configEnvVars lists the variables reported by config --show.
var configEnvVars = []string{
	config.EnvConfig,
	config.EnvOutput,
	config.EnvVerbose,
	config.EnvWorkers,
	config.EnvTimezone,
	config.EnvAddr,
	config.EnvLogFormat,
}

func runConfig(cmd *cobra.Command, args []string) error {
	if !configShow {
		return cmd.Help()
	}

	flagOutput := ""
	if cmd.Flags().Changed("output") {
		flagOutput = output
	}
	var flagWorkers *int
	if cmd.Flags().Changed("workers") {
		flagWorkers = &workers
	}
	var flagVerbose *bool
	if cmd.Flags().Changed("verbose") {
		flagVerbose = &verbose
	}
	resolved := config.Resolve(flagOutput, flagWorkers, flagVerbose)

	w := cmd.OutOrStdout()
	switch GetOutput() {
	case "json", "jsonl":
		return writeJSON(w, resolved)
	case "yaml":
		return writeYAML(w, resolved)
	}

	printResolvedConfig(w, resolved)
	return nil
}

func printResolvedConfig(w io.Writer, resolved *config.ResolvedConfig) {
	fmt.Fprintln(w, "prmetrics Configuration")
	fmt.Fprintln(w, "=======================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Config files:")
	home, _ := os.UserHomeDir()
	printConfigFile(w, "Home:   ", filepath.Join(home, ".prmetrics", "config.yaml"))
	project := os.Getenv(config.EnvConfig)
	if project == "" {
		cwd, _ := os.Getwd()
		project = filepath.Join(cwd, ".prmetrics", "config.yaml")
	}
	printConfigFile(w, "Project:", project)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Resolved values:")
	fmt.Fprintf(w, "  output:                %v  (from %s)\n", resolved.Output.Value, resolved.Output.Source)
	fmt.Fprintf(w, "  verbose:               %v  (from %s)\n", resolved.Verbose.Value, resolved.Verbose.Source)
	fmt.Fprintf(w, "  workers:               %v  (from %s)\n", resolved.Workers.Value, resolved.Workers.Source)
	fmt.Fprintf(w, "  timezone:              %v  (from %s)\n", resolved.Timezone.Value, resolved.Timezone.Source)
	fmt.Fprintf(w, "  log_format:            %v  (from %s)\n", resolved.LogFormat.Value, resolved.LogFormat.Source)
	fmt.Fprintf(w, "  parser.skip_malformed: %v  (from %s)\n", resolved.SkipMalformed.Value, resolved.SkipMalformed.Source)
	fmt.Fprintf(w, "  server.addr:           %v  (from %s)\n", resolved.ServerAddr.Value, resolved.ServerAddr.Source)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables (if set):")
	anySet := false
	for _, env := range configEnvVars {
		if v := os.Getenv(env); v != "" {
			fmt.Fprintf(w, "  %s=%s\n", env, v)
			anySet = true
		}
	}
	if !anySet {
		fmt.Fprintln(w, "  (none set)")
	}
}

func printConfigFile(w io.Writer, label, path string) {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "  ✓ %s %s\n", label, path)
		return
	}
	fmt.Fprintf(w, "  ✗ %s %s (not found)\n", label, path)
}
