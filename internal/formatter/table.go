// Package formatter renders derived pull request metrics and batch reports as
// aligned tables, JSON Lines, or Markdown.
package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/boshu2/prmetrics/internal/cycletime"
	"github.com/boshu2/prmetrics/internal/report"
)

// Absent is printed for metrics that could not be computed.
const Absent = "-"

// dateLayout is used for every timestamp cell.
const dateLayout = "2006-01-02"

// Table formats columnar output using tabwriter.
type Table struct {
	w             *tabwriter.Writer
	headers       []string
	maxWidth      map[int]int // column index -> max width (0 = unlimited)
	headerWritten bool
}

// NewTable creates a table that writes to w with the given column headers.
func NewTable(w io.Writer, headers ...string) *Table {
	return &Table{
		w:        tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		headers:  headers,
		maxWidth: make(map[int]int),
	}
}

// SetMaxWidth sets the maximum display width for a column (0-indexed).
// Values exceeding the limit are truncated with "...".
func (t *Table) SetMaxWidth(col, width int) *Table {
	t.maxWidth[col] = width
	return t
}

// AddRow appends a data row. Extra values beyond the header count are ignored;
// missing values are filled with empty strings.
func (t *Table) AddRow(values ...string) {
	if !t.headerWritten {
		t.headerWritten = true
		t.writeLine(t.headers)
		sep := make([]string, len(t.headers))
		for i, h := range t.headers {
			sep[i] = strings.Repeat("-", len(h))
		}
		t.writeLine(sep)
	}

	cells := make([]string, len(t.headers))
	for i := range cells {
		if i < len(values) {
			cells[i] = t.truncate(i, values[i])
		}
	}
	t.writeLine(cells)
}

// Render flushes the underlying tabwriter. Must be called after all AddRow calls.
func (t *Table) Render() error {
	return t.w.Flush()
}

func (t *Table) writeLine(cells []string) {
	//nolint:errcheck // tabwriter buffers; Render reports the write error
	fmt.Fprintln(t.w, strings.Join(cells, "\t"))
}

func (t *Table) truncate(col int, s string) string {
	max, ok := t.maxWidth[col]
	if !ok || max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// WriteMetricsTable writes one row per pull request.
func WriteMetricsTable(w io.Writer, rows []cycletime.KeyMetrics) error {
	tbl := NewTable(w, "PR", "AUTHOR", "STATE", "CREATED", "MERGED", "DEPLOYED",
		"FIRST REVIEW", "REWORK", "WAIT DEPLOY", "CYCLE", "TITLE")
	tbl.SetMaxWidth(0, 24).SetMaxWidth(10, 48)

	for _, m := range rows {
		state := string(m.State)
		if m.HistoryUncertain {
			state += "*"
		}
		tbl.AddRow(
			prLabel(m),
			m.Author,
			state,
			m.CreatedAt.Format(dateLayout),
			formatDate(m.MergedAt),
			formatDate(m.DeployedAt),
			formatDays(m.DaysToFirstReview),
			formatDays(m.ReworkTimeInDays),
			formatDays(m.WaitingToDeploy),
			formatDays(m.CycleTime),
			m.Title,
		)
	}
	return tbl.Render()
}

// WriteReportTable writes the summary tiles followed by each ranking.
func WriteReportTable(w io.Writer, r *report.Report) error {
	//nolint:errcheck // best-effort header on a writer the caller owns
	fmt.Fprintf(w, "Pull requests: %d  merged: %d  deployed: %d  uncertain history: %d\n\n",
		r.PullRequests, r.Merged, r.Deployed, r.Uncertain)

	summary := NewTable(w, "METRIC", "COUNT", "MEAN", "MEDIAN", "MAX")
	for _, s := range r.Summaries {
		if s.Count == 0 {
			summary.AddRow(s.Metric, "0", Absent, Absent, Absent)
			continue
		}
		summary.AddRow(s.Metric, strconv.Itoa(s.Count),
			strconv.FormatFloat(s.Mean, 'f', 1, 64),
			strconv.FormatFloat(s.Median, 'f', 1, 64),
			strconv.Itoa(s.Max))
	}
	if err := summary.Render(); err != nil {
		return err
	}

	for _, rk := range r.Rankings {
		//nolint:errcheck // best-effort section header
		fmt.Fprintf(w, "\n%s\n", rk.Label)
		if len(rk.Entries) == 0 {
			//nolint:errcheck // best-effort placeholder
			fmt.Fprintln(w, "  (none)")
			continue
		}
		tbl := NewTable(w, "PR", "AUTHOR", "VALUE", "TITLE")
		tbl.SetMaxWidth(0, 24).SetMaxWidth(3, 48)
		for _, e := range rk.Entries {
			tbl.AddRow(entryLabel(e), e.Author, strconv.Itoa(e.Value), e.Title)
		}
		if err := tbl.Render(); err != nil {
			return err
		}
	}
	return nil
}

func prLabel(m cycletime.KeyMetrics) string {
	if m.Number > 0 {
		return "#" + strconv.Itoa(m.Number)
	}
	return m.ID
}

func entryLabel(e report.Entry) string {
	if e.Number > 0 {
		return "#" + strconv.Itoa(e.Number)
	}
	return e.ID
}

func formatDays(v *int) string {
	if v == nil {
		return Absent
	}
	return strconv.Itoa(*v)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return Absent
	}
	return t.Format(dateLayout)
}
