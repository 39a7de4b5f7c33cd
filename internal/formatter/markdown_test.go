package formatter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/boshu2/prmetrics/internal/report"
)

func TestMarkdownFormatter_Format(t *testing.T) {
	rows := fixtureRows()
	fixed := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	r := report.Build(rows, report.Options{Now: func() time.Time { return fixed }})

	var buf bytes.Buffer
	if err := NewMarkdownFormatter().Format(&buf, r, rows); err != nil {
		t.Fatalf("Format: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Pull Request Cycle Time",
		"**Generated:** 2024-04-01T12:00:00Z",
		"## Summary",
		"| cycle_time | 1 | 4.0 | 4.0 | 4 |",
		"| waiting_to_deploy | 0 | - | - | - |",
		"## " + report.RankMostChanges,
		"[#42](https://github.com/acme/api/pull/42)",
		"## Pull Requests",
		`Add retry \| backoff`,
		"| PR_2 | bob | MERGED* |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownFormatter_NoRows(t *testing.T) {
	r := report.Build(nil, report.Options{})

	var buf bytes.Buffer
	if err := NewMarkdownFormatter().Format(&buf, r, nil); err != nil {
		t.Fatalf("Format: %v", err)
	}
	out := buf.String()

	if strings.Contains(out, "## Pull Requests") {
		t.Error("per pull request table should be omitted without rows")
	}
	if !strings.Contains(out, "_None._") {
		t.Errorf("empty rankings should render a placeholder:\n%s", out)
	}
}

func TestEscapeCell(t *testing.T) {
	if got := escapeCell("a|b\nc"); got != `a\|b c` {
		t.Errorf("escapeCell = %q", got)
	}
}
