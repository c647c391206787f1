package testkit

import "testing"

func TestGenerateDeterministicPerSeed(t *testing.T) {
	cfg := DefaultCohortConfig()
	first := NewCohortGenerator(cfg).Generate()
	second := NewCohortGenerator(cfg).Generate()

	if len(first) != len(second) {
		t.Fatalf("record counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("record %d differs between identical seeds", i)
		}
	}
}

func TestGeneratePlantsDifference(t *testing.T) {
	records := NewCohortGenerator(DefaultCohortConfig()).Generate()

	var respSum, nonRespSum float64
	var respN, nonRespN int
	for _, rec := range records {
		if rec.CellType != "b_cell" {
			continue
		}
		if rec.Response == "yes" {
			respSum += float64(rec.Count)
			respN++
		} else {
			nonRespSum += float64(rec.Count)
			nonRespN++
		}
	}
	if respN == 0 || nonRespN == 0 {
		t.Fatal("generator must produce both groups")
	}
	if respSum/float64(respN) <= nonRespSum/float64(nonRespN) {
		t.Error("responders should carry the planted b_cell elevation")
	}
}

func TestGenerateDatasetShapes(t *testing.T) {
	cfg := DefaultCohortConfig()
	subjects, samples, counts := NewCohortGenerator(cfg).GenerateDataset()

	if len(subjects) != cfg.Subjects {
		t.Errorf("expected %d subjects, got %d", cfg.Subjects, len(subjects))
	}
	wantSamples := cfg.Subjects * cfg.SamplesPerSubject
	if len(samples) != wantSamples {
		t.Errorf("expected %d samples, got %d", wantSamples, len(samples))
	}
	if len(counts) != wantSamples*5 {
		t.Errorf("expected %d counts, got %d", wantSamples*5, len(counts))
	}
}
