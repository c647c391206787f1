package report

import (
	"bytes"
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
)

// Excel renders the run as an XLSX workbook: one sheet of statistical
// results, one sheet of the cohort flow.
func Excel(in Input) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const resultsSheet = "Results"
	const flowSheet = "Cohort Flow"

	index, err := f.NewSheet(resultsSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create results sheet: %w", err)
	}
	f.SetActiveSheet(index)

	header := []interface{}{
		"cell_type", "n_yes", "n_no", "median_diff", "direction",
		"ci_low", "ci_high", "effect", "p_value", "q_value", "significant", "skipped", "skip_reason",
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write results header: %w", err)
	}

	for i, res := range in.Run.Results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			res.CellType.String(), res.NA, res.NB,
			cellValue(res.MedianDiff), string(res.Direction),
			ciValue(res.CI.Low, res.CI.Valid), ciValue(res.CI.High, res.CI.Valid),
			cellValue(res.Effect), cellValue(res.PValue), cellValue(res.QValue),
			res.Significant, res.Skipped, string(res.SkipReason),
		}
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write results row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(flowSheet); err != nil {
		return nil, fmt.Errorf("failed to create flow sheet: %w", err)
	}
	flowHeader := []interface{}{"step", "n_samples", "n_subjects"}
	if err := f.SetSheetRow(flowSheet, "A1", &flowHeader); err != nil {
		return nil, fmt.Errorf("failed to write flow header: %w", err)
	}
	for i, step := range in.Flow {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{step.Step, step.NSamples, step.NSubjects}
		if err := f.SetSheetRow(flowSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write flow row %d: %w", i+2, err)
		}
	}

	if len(in.Frequencies) > 0 {
		const freqSheet = "Frequencies"
		if _, err := f.NewSheet(freqSheet); err != nil {
			return nil, fmt.Errorf("failed to create frequencies sheet: %w", err)
		}
		freqHeader := []interface{}{"sample", "subject", "cell_type", "count", "total_count", "frequency"}
		if err := f.SetSheetRow(freqSheet, "A1", &freqHeader); err != nil {
			return nil, fmt.Errorf("failed to write frequencies header: %w", err)
		}
		for i, row := range in.Frequencies {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return nil, err
			}
			values := []interface{}{
				row.SampleID.String(), row.SubjectID.String(), row.CellType.String(),
				row.Count, row.TotalCount, row.Frequency,
			}
			if err := f.SetSheetRow(freqSheet, cell, &values); err != nil {
				return nil, fmt.Errorf("failed to write frequencies row %d: %w", i+2, err)
			}
		}
	}

	// Drop the default sheet so the workbook opens on Results.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// cellValue keeps NaN out of the workbook; Excel has no representation
// for it.
func cellValue(v float64) interface{} {
	if math.IsNaN(v) {
		return ""
	}
	return v
}

func ciValue(v float64, valid bool) interface{} {
	if !valid || math.IsNaN(v) {
		return ""
	}
	return v
}
