package formatter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/boshu2/prmetrics/internal/cycletime"
	"github.com/boshu2/prmetrics/internal/pullrequest"
	"github.com/boshu2/prmetrics/internal/report"
)

func intp(v int) *int { return &v }

func fixtureRows() []cycletime.KeyMetrics {
	created := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	merged := time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC)
	return []cycletime.KeyMetrics{
		{
			ID:                "PR_1",
			Number:            42,
			Title:             "Add retry | backoff",
			URL:               "https://github.com/acme/api/pull/42",
			Author:            "alice",
			State:             pullrequest.StateMerged,
			CreatedAt:         created,
			MergedAt:          &merged,
			Reviews:           2,
			Additions:         120,
			Deletions:         30,
			DaysToFirstReview: intp(2),
			CycleTime:         intp(4),
		},
		{
			ID:               "PR_2",
			Title:            "Rewrite history",
			Author:           "bob",
			State:            pullrequest.StateMerged,
			CreatedAt:        created,
			MergedAt:         &merged,
			HistoryUncertain: true,
		},
	}
}

func TestTable_BasicOutput(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "NAME", "AGE", "STATUS")
	tbl.AddRow("alice", "30", "active")
	tbl.AddRow("bob", "25", "inactive")
	if err := tbl.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()

	if !strings.Contains(out, "NAME") || !strings.Contains(out, "AGE") || !strings.Contains(out, "STATUS") {
		t.Errorf("missing headers in output:\n%s", out)
	}
	if !strings.Contains(out, "----") {
		t.Errorf("missing separator in output:\n%s", out)
	}

	// header, separator, 2 data rows
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Errorf("expected 4 lines, got %d:\n%s", len(lines), out)
	}
}

func TestTable_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "A", "B")
	if err := tbl.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected empty output for table with no rows, got:\n%s", buf.String())
	}
}

func TestTable_MaxWidth(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "ID", "VALUE")
	tbl.SetMaxWidth(0, 8)
	tbl.AddRow("abcdefghijklmnop", "ok")
	if err := tbl.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "abcde...") {
		t.Errorf("expected truncated ID, got:\n%s", out)
	}
	if strings.Contains(out, "abcdefghijklmnop") {
		t.Errorf("ID should have been truncated:\n%s", out)
	}
}

func TestWriteMetricsTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMetricsTable(&buf, fixtureRows()); err != nil {
		t.Fatalf("WriteMetricsTable: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}

	first := strings.Fields(lines[2])
	// PR AUTHOR STATE CREATED MERGED DEPLOYED FIRST REWORK WAIT CYCLE TITLE...
	want := []string{"#42", "alice", "MERGED", "2024-03-04", "2024-03-08", "-", "2", "-", "-", "4"}
	for i, w := range want {
		if first[i] != w {
			t.Errorf("column %d = %q, want %q (row %q)", i, first[i], w, lines[2])
		}
	}

	second := strings.Fields(lines[3])
	if second[0] != "PR_2" {
		t.Errorf("PR without number should fall back to ID, got %q", second[0])
	}
	if second[2] != "MERGED*" {
		t.Errorf("uncertain history should be flagged, got %q", second[2])
	}
	if second[9] != Absent {
		t.Errorf("cycle time should be absent, got %q", second[9])
	}
}

func TestWriteReportTable(t *testing.T) {
	r := report.Build(fixtureRows(), report.Options{})

	var buf bytes.Buffer
	if err := WriteReportTable(&buf, r); err != nil {
		t.Fatalf("WriteReportTable: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Pull requests: 2",
		"uncertain history: 1",
		report.MetricCycleTime,
		report.RankMostReviewed,
		report.RankLongestCycles,
		report.RankMostChanges,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// waiting_to_deploy is absent for every row
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, report.MetricWaitingToDeploy) {
			if !strings.Contains(line, Absent) {
				t.Errorf("empty summary should print %q: %q", Absent, line)
			}
		}
	}
}

func TestFormatDays(t *testing.T) {
	if got := formatDays(nil); got != Absent {
		t.Errorf("formatDays(nil) = %q, want %q", got, Absent)
	}
	if got := formatDays(intp(-3)); got != "-3" {
		t.Errorf("formatDays(-3) = %q", got)
	}
	if got := formatDays(intp(0)); got != "0" {
		t.Errorf("formatDays(0) = %q", got)
	}
}
