// Package ingest reads the wide-format trial export (CSV or XLSX) and
// melts its per-cell-type columns into the long-form records the store
// persists.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"immunostat/domain/cohort"
	"immunostat/domain/core"
)

// Dataset is one parsed export, deduplicated and ready to persist.
type Dataset struct {
	Subjects []cohort.Subject
	Samples  []cohort.Sample
	Counts   []cohort.CellCount
}

// Reader parses a trial export file. The format is chosen from the file
// extension: .csv or anything excelize can open.
type Reader struct {
	filePath string
	fileType string // "csv" or "xlsx"
}

// NewReader creates a reader for the given export file.
func NewReader(filePath string) *Reader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &Reader{filePath: filePath, fileType: fileType}
}

// Read parses the export into a Dataset.
func (r *Reader) Read() (*Dataset, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("export file not found: %s", r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSV()
	case "xlsx":
		rows, err = r.readXLSX()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("export must have a header row and at least one data row")
	}
	return melt(rows)
}

func (r *Reader) readCSV() ([][]string, error) {
	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func (r *Reader) readXLSX() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// Required identifying columns of the wide export. Any further columns
// whose headers parse as known cell types become count measurements.
var requiredColumns = []string{
	"project", "subject", "condition", "age", "sex",
	"treatment", "response", "sample", "sample_type",
	"time_from_treatment_start",
}

// melt converts the wide table into deduplicated subjects, samples, and
// long-form cell counts. Row order of the export is preserved for rows
// first seen.
func melt(rows [][]string) (*Dataset, error) {
	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := header[col]; !ok {
			return nil, fmt.Errorf("export missing required column %q", col)
		}
	}

	known := make(map[core.CellType]bool)
	for _, ct := range core.DefaultCellTypes() {
		known[ct] = true
	}
	type cellColumn struct {
		ct  core.CellType
		idx int
	}
	var cellColumns []cellColumn
	for name, idx := range header {
		if known[core.CellType(name)] {
			cellColumns = append(cellColumns, cellColumn{ct: core.CellType(name), idx: idx})
		}
	}
	if len(cellColumns) == 0 {
		return nil, fmt.Errorf("export has no recognized cell type columns")
	}

	ds := &Dataset{}
	seenSubjects := make(map[core.SubjectID]bool)
	seenSamples := make(map[core.SampleID]bool)

	for lineNo, row := range rows[1:] {
		get := func(col string) string {
			idx := header[col]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		subjectID, err := core.ParseSubjectID(get("subject"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", lineNo+2, err)
		}
		sampleID, err := core.ParseSampleID(get("sample"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", lineNo+2, err)
		}

		if !seenSubjects[subjectID] {
			seenSubjects[subjectID] = true
			age, err := parseIntField(get("age"), "age", lineNo)
			if err != nil {
				return nil, err
			}
			ds.Subjects = append(ds.Subjects, cohort.Subject{
				SubjectID: subjectID,
				ProjectID: core.ProjectID(get("project")),
				Condition: get("condition"),
				Age:       age,
				Sex:       get("sex"),
				Treatment: get("treatment"),
				Response:  strings.ToLower(get("response")),
			})
		}

		if !seenSamples[sampleID] {
			seenSamples[sampleID] = true
			visit, err := parseFloatField(get("time_from_treatment_start"), "time_from_treatment_start", lineNo)
			if err != nil {
				return nil, err
			}
			ds.Samples = append(ds.Samples, cohort.Sample{
				SampleID:   sampleID,
				SubjectID:  subjectID,
				SampleType: get("sample_type"),
				VisitTime:  core.VisitTime(visit),
			})

			for _, col := range cellColumns {
				raw := get(string(col.ct))
				if raw == "" {
					continue
				}
				count, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("row %d: invalid %s count %q", lineNo+2, col.ct, raw)
				}
				if count < 0 {
					return nil, fmt.Errorf("row %d: negative %s count", lineNo+2, col.ct)
				}
				ds.Counts = append(ds.Counts, cohort.CellCount{
					SampleID: sampleID,
					CellType: col.ct,
					Count:    count,
				})
			}
		}
	}
	return ds, nil
}

func parseIntField(raw, col string, lineNo int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("row %d: invalid %s %q", lineNo+2, col, raw)
	}
	return v, nil
}

func parseFloatField(raw, col string, lineNo int) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: invalid %s %q", lineNo+2, col, raw)
	}
	return v, nil
}
