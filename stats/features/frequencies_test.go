package features

import (
	"math"
	"testing"

	"immunostat/domain/cohort"
	"immunostat/domain/core"
)

func rec(sample, subject string, ct core.CellType, count int64) cohort.CellCountRecord {
	return cohort.CellCountRecord{
		SampleID:  core.SampleID(sample),
		SubjectID: core.SubjectID(subject),
		CellType:  ct,
		Count:     count,
	}
}

func TestComputeFrequenciesBasic(t *testing.T) {
	records := []cohort.CellCountRecord{
		rec("s1", "p1", "b_cell", 40),
		rec("s1", "p1", "cd8_t_cell", 60),
	}

	rows, issues := ComputeFrequencies(records)
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	f, err := FrequencyFor(rows, "s1", "b_cell")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if f != 0.4 {
		t.Errorf("expected b_cell frequency 0.4, got %v", f)
	}
	f, _ = FrequencyFor(rows, "s1", "cd8_t_cell")
	if f != 0.6 {
		t.Errorf("expected cd8_t_cell frequency 0.6, got %v", f)
	}
}

func TestComputeFrequenciesSumToOne(t *testing.T) {
	records := []cohort.CellCountRecord{
		rec("s1", "p1", "b_cell", 12345),
		rec("s1", "p1", "cd8_t_cell", 6789),
		rec("s1", "p1", "cd4_t_cell", 10111),
		rec("s1", "p1", "nk_cell", 213),
		rec("s1", "p1", "monocyte", 1),
	}

	rows, _ := ComputeFrequencies(records)
	sum := 0.0
	for _, row := range rows {
		sum += row.Frequency
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("frequencies must sum to 1 within 1e-9, got %v", sum)
	}
}

func TestComputeFrequenciesZeroTotalSample(t *testing.T) {
	records := []cohort.CellCountRecord{
		rec("bad", "p1", "b_cell", 0),
		rec("bad", "p1", "cd8_t_cell", 0),
		rec("good", "p2", "b_cell", 10),
		rec("good", "p2", "cd8_t_cell", 30),
	}

	rows, issues := ComputeFrequencies(records)

	if len(issues) != 1 {
		t.Fatalf("expected one issue, got %d", len(issues))
	}
	if issues[0].SampleID != "bad" {
		t.Errorf("expected issue on sample bad, got %s", issues[0].SampleID)
	}

	// The healthy sample still produces rows.
	for _, row := range rows {
		if row.SampleID == "bad" {
			t.Error("zero-total sample must not produce frequency rows")
		}
	}
	f, err := FrequencyFor(rows, "good", "b_cell")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if f != 0.25 {
		t.Errorf("expected 0.25, got %v", f)
	}
}

func TestComputeFrequenciesDeterministicOrder(t *testing.T) {
	records := []cohort.CellCountRecord{
		rec("s2", "p1", "monocyte", 5),
		rec("s1", "p1", "b_cell", 3),
		rec("s2", "p1", "b_cell", 5),
		rec("s1", "p1", "monocyte", 7),
	}

	first, _ := ComputeFrequencies(records)
	second, _ := ComputeFrequencies(records)

	if len(first) != len(second) {
		t.Fatalf("row count differs between runs")
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("row %d differs between identical runs", i)
		}
	}
	// Sorted by (sample, cell type).
	if first[0].SampleID != "s1" || first[0].CellType != "b_cell" {
		t.Errorf("unexpected first row: %+v", first[0])
	}
}

func TestComputeFrequenciesZeroFill(t *testing.T) {
	records := []cohort.CellCountRecord{
		rec("s1", "p1", "b_cell", 10),
	}
	opts := Options{ZeroFill: true, CellTypes: []core.CellType{"b_cell", "nk_cell"}}

	rows, issues := ComputeFrequenciesWith(records, opts)
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(rows) != 2 {
		t.Fatalf("expected a filled row for nk_cell, got %d rows", len(rows))
	}
	f, err := FrequencyFor(rows, "s1", "nk_cell")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if f != 0 {
		t.Errorf("expected zero frequency for filled cell type, got %v", f)
	}
}
