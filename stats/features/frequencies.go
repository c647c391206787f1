// Package features converts raw per-sample cell counts into relative
// frequencies and subject-level aggregates. Everything here is pure: inputs
// are never mutated and each function returns a freshly derived table.
package features

import (
	"fmt"
	"sort"

	"immunostat/domain/cohort"
	"immunostat/domain/core"
	"immunostat/internal/errors"
)

// SampleIssue reports a sample that could not produce frequencies. A bad
// sample never aborts processing of the others.
type SampleIssue struct {
	SampleID core.SampleID `json:"sample_id"`
	Code     string        `json:"code"`
	Detail   string        `json:"detail"`
}

// Options controls frequency computation. The zero value treats absent
// cell types as not-measured, which is the correct default: an absent
// measurement must not enter downstream denominators as a zero.
type Options struct {
	// ZeroFill inserts an explicit zero-count row for every cell type in
	// CellTypes that a sample did not measure. Only for callers that know
	// the panel was complete and absent means zero.
	ZeroFill  bool
	CellTypes []core.CellType
}

// ComputeFrequencies derives one SampleFrequencyRow per (sample, cell type)
// from raw count records. The relative frequency is count divided by the
// sample's total across all measured cell types. Samples whose total is
// zero yield no rows and one MissingData issue each.
func ComputeFrequencies(records []cohort.CellCountRecord) ([]cohort.SampleFrequencyRow, []SampleIssue) {
	return ComputeFrequenciesWith(records, Options{})
}

// ComputeFrequenciesWith is ComputeFrequencies with explicit Options.
func ComputeFrequenciesWith(records []cohort.CellCountRecord, opts Options) ([]cohort.SampleFrequencyRow, []SampleIssue) {
	type sampleAgg struct {
		subject core.SubjectID
		counts  map[core.CellType]int64
		total   int64
	}

	samples := make(map[core.SampleID]*sampleAgg)
	order := make([]core.SampleID, 0)
	for _, rec := range records {
		agg, ok := samples[rec.SampleID]
		if !ok {
			agg = &sampleAgg{subject: rec.SubjectID, counts: make(map[core.CellType]int64)}
			samples[rec.SampleID] = agg
			order = append(order, rec.SampleID)
		}
		agg.counts[rec.CellType] += rec.Count
		agg.total += rec.Count
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	rows := make([]cohort.SampleFrequencyRow, 0, len(records))
	issues := make([]SampleIssue, 0)

	for _, sampleID := range order {
		agg := samples[sampleID]

		if opts.ZeroFill {
			for _, ct := range opts.CellTypes {
				if _, measured := agg.counts[ct]; !measured {
					agg.counts[ct] = 0
				}
			}
		}

		if agg.total == 0 {
			issues = append(issues, SampleIssue{
				SampleID: sampleID,
				Code:     errors.CodeMissingData,
				Detail:   "total cell count is zero; frequencies undefined",
			})
			continue
		}

		cellTypes := make([]core.CellType, 0, len(agg.counts))
		for ct := range agg.counts {
			cellTypes = append(cellTypes, ct)
		}
		sort.Slice(cellTypes, func(i, j int) bool { return cellTypes[i] < cellTypes[j] })

		for _, ct := range cellTypes {
			count := agg.counts[ct]
			rows = append(rows, cohort.SampleFrequencyRow{
				SampleID:   sampleID,
				SubjectID:  agg.subject,
				CellType:   ct,
				Count:      count,
				TotalCount: agg.total,
				Frequency:  float64(count) / float64(agg.total),
			})
		}
	}

	return rows, issues
}

// FrequencyFor looks up one sample's frequency for a cell type; used by
// the presentation layers and tests.
func FrequencyFor(rows []cohort.SampleFrequencyRow, sample core.SampleID, ct core.CellType) (float64, error) {
	for _, row := range rows {
		if row.SampleID == sample && row.CellType == ct {
			return row.Frequency, nil
		}
	}
	return 0, errors.NotFound(fmt.Sprintf("frequency for sample %s cell type %s", sample, ct))
}
