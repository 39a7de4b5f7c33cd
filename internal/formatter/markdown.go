package formatter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/boshu2/prmetrics/internal/cycletime"
	"github.com/boshu2/prmetrics/internal/report"
)

// MarkdownFormatter renders a report and its rows as a Markdown document.
type MarkdownFormatter struct {
	// Title is the top-level heading.
	Title string
}

// NewMarkdownFormatter creates a markdown formatter with the default title.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{Title: "Pull Request Cycle Time"}
}

// Format writes the report. rows may be nil to omit the per pull request table.
func (mf *MarkdownFormatter) Format(w io.Writer, r *report.Report, rows []cycletime.KeyMetrics) error {
	tmpl, err := template.New("report").Funcs(mf.templateFuncs()).Parse(markdownTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	return tmpl.Execute(w, &templateData{
		Title:  mf.Title,
		Report: r,
		Rows:   rows,
	})
}

// Extension returns the file extension for markdown.
func (mf *MarkdownFormatter) Extension() string {
	return ".md"
}

type templateData struct {
	Title  string
	Report *report.Report
	Rows   []cycletime.KeyMetrics
}

func (mf *MarkdownFormatter) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"days": formatDays,
		"date": formatDate,
		"day": func(t time.Time) string {
			return t.Format(dateLayout)
		},
		"timestamp": func(t time.Time) string {
			return t.Format(time.RFC3339)
		},
		"prLink": func(m cycletime.KeyMetrics) string {
			return mdLink(prLabel(m), m.URL)
		},
		"entryLink": func(e report.Entry) string {
			return mdLink(entryLabel(e), e.URL)
		},
		"cell": escapeCell,
		"decimal": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 1, 64)
		},
	}
}

func mdLink(text, url string) string {
	if url == "" {
		return text
	}
	return fmt.Sprintf("[%s](%s)", text, url)
}

// escapeCell keeps free text from breaking a Markdown table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

const markdownTemplate = `# {{ .Title }}

**Run:** {{ .Report.RunID }}
**Generated:** {{ timestamp .Report.GeneratedAt }}

- **Pull requests:** {{ .Report.PullRequests }}
- **Merged:** {{ .Report.Merged }}
- **Deployed:** {{ .Report.Deployed }}
- **Uncertain history:** {{ .Report.Uncertain }}

## Summary

| Metric | Count | Mean | Median | Max |
|--------|-------|------|--------|-----|
{{- range .Report.Summaries }}
{{- if .Count }}
| {{ .Metric }} | {{ .Count }} | {{ decimal .Mean }} | {{ decimal .Median }} | {{ .Max }} |
{{- else }}
| {{ .Metric }} | 0 | - | - | - |
{{- end }}
{{- end }}
{{- range .Report.Rankings }}

## {{ .Label }}
{{ if .Entries }}
| PR | Author | Value | Title |
|----|--------|-------|-------|
{{- range .Entries }}
| {{ entryLink . }} | {{ .Author }} | {{ .Value }} | {{ cell .Title }} |
{{- end }}
{{- else }}
_None._
{{- end }}
{{- end }}
{{- if .Rows }}

## Pull Requests

| PR | Author | State | Created | Merged | Deployed | First review | Rework | Wait deploy | Cycle |
|----|--------|-------|---------|--------|----------|--------------|--------|-------------|-------|
{{- range .Rows }}
| {{ prLink . }} | {{ .Author }} | {{ .State }}{{ if .HistoryUncertain }}*{{ end }} | {{ day .CreatedAt }} | {{ date .MergedAt }} | {{ date .DeployedAt }} | {{ days .DaysToFirstReview }} | {{ days .ReworkTimeInDays }} | {{ days .WaitingToDeploy }} | {{ days .CycleTime }} |
{{- end }}

\* history rewritten by an unresolved force push; cycle time withheld.
{{- end }}
`
