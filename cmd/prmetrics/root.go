package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/boshu2/prmetrics/internal/config"
	"github.com/boshu2/prmetrics/internal/cycletime"
)

var (
	// Global flags
	verbose bool
	output  string
	cfgFile string
	workers int

	// cfg is the resolved configuration, loaded before any command runs.
	cfg *config.Config
	// logger writes diagnostics to stderr.
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "prmetrics",
	Short: "Pull request cycle time metrics",
	Long: `prmetrics derives delivery metrics from pull request records.

For every pull request it reports, in business days:
  days to first review   creation to the first review by someone else
  rework time            first to last outside review before merge
  waiting to deploy      last outside review before merge to the
                         deployed-PROD label
  cycle time             creation to deployment, or merge if never deployed

Cycle time is withheld when a force push left the history uncertain.

Commands:
  analyze      Per pull request metrics
  report       Summary tiles and rankings for a batch
  serve        HTTP API for dashboards
  config       Show resolved configuration
  version      Show version information`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		syncConfigFlagToEnv()
		return loadConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json, jsonl, markdown, yaml)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .prmetrics/config.yaml)")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Derivation workers (0 = one per CPU)")
}

// loadConfig resolves configuration. Flags only override when set explicitly,
// so config files and env can change the defaults.
func loadConfig(cmd *cobra.Command) error {
	overrides := &config.Config{}
	flags := cmd.Flags()
	if flags.Changed("output") {
		overrides.Output = output
	}
	if flags.Changed("verbose") {
		overrides.Verbose = verbose
		overrides.VerboseSet = true
	}
	if flags.Changed("workers") {
		overrides.Workers = workers
		overrides.WorkersSet = true
	}

	loaded, err := config.Load(overrides)
	if err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	cfg = loaded
	verbose = cfg.Verbose

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = newLogger(cmd.ErrOrStderr(), cfg.LogFormat, level)
	return nil
}

// newLogger builds the slog logger for the configured format.
func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// GetVerbose returns the verbose flag value for use by subcommands.
func GetVerbose() bool {
	return verbose
}

// GetOutput returns the output format for use by subcommands.
func GetOutput() string {
	if cfg != nil {
		return cfg.Output
	}
	return output
}

// GetConfigFile returns the config file path for use by subcommands.
func GetConfigFile() string {
	return cfgFile
}

// GetWorkers returns the derivation concurrency.
func GetWorkers() int {
	if cfg != nil {
		return cfg.Workers
	}
	return workers
}

// GetCalendar returns the business-day calendar for the configured timezone.
func GetCalendar() (cycletime.Calendar, error) {
	if cfg == nil {
		return cycletime.UTC, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return cycletime.Calendar{}, err
	}
	return cycletime.NewCalendar(loc), nil
}

// VerbosePrintf prints to stderr only when verbose mode is enabled.
// Stdout is reserved for command output.
func VerbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func syncConfigFlagToEnv() {
	path := strings.TrimSpace(GetConfigFile())
	if path == "" {
		return
	}
	_ = os.Setenv(config.EnvConfig, path)
}
