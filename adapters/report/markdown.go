// Package report renders an analysis run as a markdown document, a
// standalone HTML page, or an XLSX workbook.
package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"text/template"

	"immunostat/domain/cohort"
	domstats "immunostat/domain/stats"
)

// Input bundles everything one report needs. Frequencies is optional;
// when present the xlsx export gains a per-sample frequency sheet.
type Input struct {
	Title       string
	Filter      cohort.Filter
	Counts      cohort.CohortCounts
	Run         *domstats.AnalysisRun
	Flow        []cohort.FlowStep
	Frequencies []cohort.SampleFrequencyRow
}

const markdownTemplate = `# {{.Title}}

Generated at: {{.Run.ComputedAt}}

## Active Filters

{{.FilterText}}

## Cohort Counts

n_samples={{.Counts.NSamples}} | n_subjects={{.Counts.NSubjects}}

## Method Summary

Test={{.Run.Summary.TestLabel}} | Correction={{.Run.Summary.CorrectionLabel}} | Unit={{.Run.Summary.Unit}} | Metric={{.Run.Summary.Metric}} | Transform={{.Run.Summary.TransformLabel}} | Bootstrap={{.Run.Summary.BootstrapLabel}}

## Statistical Results

| Cell Type | n (yes) | n (no) | Median Diff | Direction | CI Low | CI High | Effect | p | q | Significant |
|-----------|---------|--------|-------------|-----------|--------|---------|--------|---|---|-------------|
{{- range .ResultRows}}
| {{.CellType}} | {{.NA}} | {{.NB}} | {{.MedianDiff}} | {{.Direction}} | {{.CILow}} | {{.CIHigh}} | {{.Effect}} | {{.P}} | {{.Q}} | {{.Significant}} |
{{- end}}
{{- if .SkippedRows}}

## Skipped Cell Types

| Cell Type | Reason | Detail |
|-----------|--------|--------|
{{- range .SkippedRows}}
| {{.CellType}} | {{.Reason}} | {{.Detail}} |
{{- end}}
{{- end}}

## Cohort Flow

| Step | Samples | Subjects |
|------|---------|----------|
{{- range .Flow}}
| {{.Step}} | {{.NSamples}} | {{.NSubjects}} |
{{- end}}
`

var markdownTmpl = template.Must(template.New("report").Parse(markdownTemplate))

type resultRow struct {
	CellType    string
	NA, NB      int
	MedianDiff  string
	Direction   string
	CILow       string
	CIHigh      string
	Effect      string
	P, Q        string
	Significant string
}

type skippedRow struct {
	CellType string
	Reason   string
	Detail   string
}

type templateData struct {
	Title       string
	FilterText  string
	Counts      cohort.CohortCounts
	Run         *domstats.AnalysisRun
	ResultRows  []resultRow
	SkippedRows []skippedRow
	Flow        []cohort.FlowStep
}

// Markdown renders the run as a markdown document.
func Markdown(in Input) ([]byte, error) {
	data := templateData{
		Title:      in.Title,
		FilterText: filterText(in.Filter),
		Counts:     in.Counts,
		Run:        in.Run,
		Flow:       in.Flow,
	}
	if data.Title == "" {
		data.Title = "Clinical Trial Analysis Report"
	}

	for _, res := range in.Run.Results {
		if res.Skipped {
			data.SkippedRows = append(data.SkippedRows, skippedRow{
				CellType: res.CellType.String(),
				Reason:   string(res.SkipReason),
				Detail:   res.SkipDetail,
			})
			continue
		}
		row := resultRow{
			CellType:    res.CellType.String(),
			NA:          res.NA,
			NB:          res.NB,
			MedianDiff:  formatFloat(res.MedianDiff, 4),
			Direction:   string(res.Direction),
			Effect:      formatFloat(res.Effect, 3),
			P:           formatFloat(res.PValue, 5),
			Q:           formatFloat(res.QValue, 5),
			Significant: boolMark(res.Significant),
		}
		if res.CI.Valid {
			row.CILow = formatFloat(res.CI.Low, 4)
			row.CIHigh = formatFloat(res.CI.High, 4)
		} else {
			row.CILow, row.CIHigh = "n/a", "n/a"
		}
		data.ResultRows = append(data.ResultRows, row)
	}

	var buf bytes.Buffer
	if err := markdownTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render report template: %w", err)
	}
	return buf.Bytes(), nil
}

func filterText(f cohort.Filter) string {
	parts := []string{
		"condition=" + emptyAsAll(f.Condition),
		"treatment=" + emptyAsAll(f.Treatment),
		"sample_type=" + emptyAsAll(f.SampleType),
	}
	t := f.Time
	if t == "" {
		t = cohort.TimeAll
	}
	parts = append(parts, "time="+string(t))
	return strings.Join(parts, " | ")
}

func emptyAsAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func formatFloat(v float64, prec int) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v)
}

func boolMark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
