package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCSV = `project,subject,condition,age,sex,treatment,response,sample,sample_type,time_from_treatment_start,b_cell,cd8_t_cell,cd4_t_cell,nk_cell,monocyte
prj1,sbj1,melanoma,64,F,miraclib,yes,s1,PBMC,0,36000,26000,40000,8000,15000
prj1,sbj1,melanoma,64,F,miraclib,yes,s2,PBMC,14,34000,27000,41000,8500,14000
prj1,sbj2,melanoma,58,M,miraclib,no,s3,PBMC,0,20000,30000,42000,9000,16000
prj2,sbj3,carcinoma,71,M,phauximab,,s4,WB,0,15000,25000,38000,7000,12000
`

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cell-count.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestReadMeltsWideExport(t *testing.T) {
	ds, err := NewReader(writeTempCSV(t, sampleCSV)).Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if len(ds.Subjects) != 3 {
		t.Errorf("expected 3 deduplicated subjects, got %d", len(ds.Subjects))
	}
	if len(ds.Samples) != 4 {
		t.Errorf("expected 4 samples, got %d", len(ds.Samples))
	}
	// 4 samples x 5 cell types.
	if len(ds.Counts) != 20 {
		t.Errorf("expected 20 cell count rows, got %d", len(ds.Counts))
	}
}

func TestReadSubjectAttributes(t *testing.T) {
	ds, err := NewReader(writeTempCSV(t, sampleCSV)).Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var found bool
	for _, sub := range ds.Subjects {
		if sub.SubjectID == "sbj1" {
			found = true
			if sub.ProjectID != "prj1" || sub.Condition != "melanoma" ||
				sub.Age != 64 || sub.Sex != "F" || sub.Response != "yes" {
				t.Errorf("unexpected subject attributes: %+v", sub)
			}
		}
		if sub.SubjectID == "sbj3" && sub.Response != "" {
			t.Errorf("unassessed response must stay empty, got %q", sub.Response)
		}
	}
	if !found {
		t.Fatal("sbj1 missing")
	}
}

func TestReadSampleVisitTimes(t *testing.T) {
	ds, err := NewReader(writeTempCSV(t, sampleCSV)).Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	for _, smp := range ds.Samples {
		switch smp.SampleID {
		case "s1", "s3", "s4":
			if !smp.VisitTime.IsBaseline() {
				t.Errorf("sample %s should be baseline", smp.SampleID)
			}
		case "s2":
			if smp.VisitTime.IsBaseline() {
				t.Error("sample s2 is a follow-up draw")
			}
		}
	}
}

func TestReadCellCounts(t *testing.T) {
	ds, err := NewReader(writeTempCSV(t, sampleCSV)).Read()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var got int64 = -1
	for _, cc := range ds.Counts {
		if cc.SampleID == "s1" && cc.CellType == "b_cell" {
			got = cc.Count
		}
	}
	if got != 36000 {
		t.Errorf("expected s1 b_cell count 36000, got %d", got)
	}
}

func TestReadMissingColumn(t *testing.T) {
	bad := "project,subject,sample\nprj1,sbj1,s1\n"
	_, err := NewReader(writeTempCSV(t, bad)).Read()
	if err == nil {
		t.Fatal("expected error for missing required columns")
	}
}

func TestReadNegativeCount(t *testing.T) {
	bad := `project,subject,condition,age,sex,treatment,response,sample,sample_type,time_from_treatment_start,b_cell,cd8_t_cell,cd4_t_cell,nk_cell,monocyte
prj1,sbj1,melanoma,64,F,miraclib,yes,s1,PBMC,0,-5,26000,40000,8000,15000
`
	_, err := NewReader(writeTempCSV(t, bad)).Read()
	if err == nil {
		t.Fatal("expected error for negative count")
	}
}

func TestReadHeaderOnly(t *testing.T) {
	header := "project,subject,condition,age,sex,treatment,response,sample,sample_type,time_from_treatment_start,b_cell,cd8_t_cell,cd4_t_cell,nk_cell,monocyte\n"
	_, err := NewReader(writeTempCSV(t, header)).Read()
	if err == nil {
		t.Fatal("expected error for export with no data rows")
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "absent.csv")).Read()
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
