package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/boshu2/prmetrics/internal/parser"
	"github.com/boshu2/prmetrics/internal/pullrequest"
)

// stdinArg reads records from standard input.
const stdinArg = "-"

// ErrMalformedInput is returned when strict parsing rejects records.
var ErrMalformedInput = errors.New("malformed pull request records")

// inputFlags are shared by every command that reads pull request records.
type inputFlags struct {
	format        string
	skipMalformed bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "auto", "Input format (auto, json, jsonl, yaml)")
	cmd.Flags().BoolVar(&f.skipMalformed, "skip-malformed", true, "Skip records that fail to decode instead of failing")
}

// newParser builds a parser. The skip flag wins over config only when set.
func (f *inputFlags) newParser(cmd *cobra.Command) (*parser.Parser, error) {
	format, err := parser.ParseFormat(f.format)
	if err != nil {
		return nil, err
	}

	skip := true
	if cfg != nil {
		skip = cfg.Parser.SkipMalformed
	}
	if cmd.Flags().Changed("skip-malformed") {
		skip = f.skipMalformed
	}
	return &parser.Parser{Format: format, SkipMalformed: skip}, nil
}

// loadPullRequests reads every record from the named files, or stdin when
// there are none. Records keep file then input order.
func loadPullRequests(cmd *cobra.Command, p *parser.Parser, args []string) ([]*pullrequest.PullRequest, error) {
	if len(args) == 0 {
		args = []string{stdinArg}
	}

	var (
		prs       []*pullrequest.PullRequest
		malformed int
		errs      []error
	)
	for _, arg := range args {
		result, err := parseInput(cmd.InOrStdin(), p, arg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", displayName(arg), err)
		}

		VerbosePrintf("Parsed %s: %d records, %d malformed (checksum %s)\n",
			displayName(arg), result.TotalRecords, result.MalformedRecords, result.Checksum)
		logger.Debug("input parsed",
			"source", displayName(arg),
			"records", result.TotalRecords,
			"malformed", result.MalformedRecords,
			"checksum", result.Checksum)

		prs = append(prs, result.PullRequests...)
		malformed += result.MalformedRecords
		for _, e := range result.Errors {
			errs = append(errs, fmt.Errorf("%s: %w", displayName(arg), e))
		}
	}

	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", e)
		}
		return nil, fmt.Errorf("%w: %d rejected", ErrMalformedInput, len(errs))
	}
	if malformed > 0 {
		logger.Warn("skipped malformed records", "count", malformed)
	}
	return prs, nil
}

func parseInput(stdin io.Reader, p *parser.Parser, arg string) (*parser.ParseResult, error) {
	if arg == stdinArg {
		return p.Parse(stdin)
	}
	if _, err := os.Stat(arg); err != nil {
		return nil, err
	}
	return p.ParseFile(arg)
}

func displayName(arg string) string {
	if arg == stdinArg {
		return "stdin"
	}
	return arg
}
