package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"immunostat/domain/cohort"
	"immunostat/domain/core"
	domstats "immunostat/domain/stats"
)

func testInput() Input {
	opts := domstats.DefaultOptions()
	run := &domstats.AnalysisRun{
		ID:         core.NewAnalysisID(),
		CohortHash: "deadbeef",
		Options:    opts,
		Summary:    opts.BuildSummary(),
		Results: []domstats.TestResult{
			{
				CellType: "b_cell", NA: 6, NB: 6,
				Statistic: 0, PValue: 0.00216, QValue: 0.00433,
				CliffsDelta: 1, Direction: domstats.DirectionAHigher,
				MedianDiff: 0.18, Effect: 1,
				CI:          domstats.ConfidenceInterval{Low: 0.1, High: 0.26, Level: 0.95, Target: "median_diff", Resamples: 1000, Valid: true},
				Significant: true,
			},
			{
				CellType: "cd8_t_cell", NA: 6, NB: 0,
				PValue: math.NaN(), QValue: math.NaN(),
				Skipped: true, SkipReason: domstats.SkipUndefinedResult,
				SkipDetail: "empty comparison group",
			},
		},
		ComputedAt: core.Now(),
	}
	return Input{
		Filter: cohort.DefaultFilter(),
		Counts: cohort.CohortCounts{NSamples: 12, NSubjects: 12},
		Run:    run,
		Flow: []cohort.FlowStep{
			{Step: "all samples", NSamples: 40, NSubjects: 20},
			{Step: "condition: melanoma", NSamples: 24, NSubjects: 12},
		},
		Frequencies: []cohort.SampleFrequencyRow{
			{SampleID: "smp001", SubjectID: "sbj001", CellType: "b_cell", Count: 25, TotalCount: 100, Frequency: 0.25},
			{SampleID: "smp001", SubjectID: "sbj001", CellType: "nk_cell", Count: 75, TotalCount: 100, Frequency: 0.75},
		},
	}
}

func TestMarkdownReportContent(t *testing.T) {
	md, err := Markdown(testInput())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	text := string(md)

	for _, want := range []string{
		"condition=melanoma",
		"n_samples=12 | n_subjects=12",
		"Mann-Whitney U",
		"b_cell",
		"0.00216",
		"higher_in_responders",
		"UNDEFINED_RESULT",
		"all samples",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestHTMLReportWrapsMarkdown(t *testing.T) {
	page, err := HTML(testInput())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	text := string(page)

	if !strings.Contains(text, "<!DOCTYPE html>") {
		t.Error("expected full HTML document")
	}
	if !strings.Contains(text, "<table>") {
		t.Error("markdown tables should render as HTML tables")
	}
	if !strings.Contains(text, "b_cell") {
		t.Error("result rows missing from page")
	}
}

func TestExcelReportRoundTrip(t *testing.T) {
	data, err := Excel(testInput())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("workbook unreadable: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Results")
	if err != nil {
		t.Fatalf("results sheet missing: %v", err)
	}
	// Header plus two result rows.
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1][0] != "b_cell" {
		t.Errorf("expected b_cell in first data row, got %q", rows[1][0])
	}

	flowRows, err := f.GetRows("Cohort Flow")
	if err != nil {
		t.Fatalf("flow sheet missing: %v", err)
	}
	if len(flowRows) != 3 {
		t.Errorf("expected 3 flow rows, got %d", len(flowRows))
	}

	freqRows, err := f.GetRows("Frequencies")
	if err != nil {
		t.Fatalf("frequencies sheet missing: %v", err)
	}
	if len(freqRows) != 3 {
		t.Fatalf("expected 3 frequency rows, got %d", len(freqRows))
	}
	if freqRows[1][2] != "b_cell" {
		t.Errorf("expected b_cell in first frequency row, got %q", freqRows[1][2])
	}
}
