// Package testkit generates seeded synthetic trial cohorts for tests
// and demos.
package testkit

import (
	"fmt"
	"math/rand"

	"immunostat/domain/cohort"
	"immunostat/domain/core"
)

// CohortGeneratorConfig configures the synthetic cohort generator.
type CohortGeneratorConfig struct {
	Subjects          int     `json:"subjects"`
	SamplesPerSubject int     `json:"samples_per_subject"`
	ResponderRate     float64 `json:"responder_rate"`
	// PlantedShift inflates responder b_cell counts by this fraction so
	// tests can assert the pipeline finds a planted difference.
	PlantedShift float64 `json:"planted_shift"`
	Condition    string  `json:"condition"`
	Treatment    string  `json:"treatment"`
	SampleType   string  `json:"sample_type"`
	Seed         int64   `json:"seed"`
}

// DefaultCohortConfig returns a cohort large enough for stable tests.
func DefaultCohortConfig() CohortGeneratorConfig {
	return CohortGeneratorConfig{
		Subjects:          20,
		SamplesPerSubject: 2,
		ResponderRate:     0.5,
		PlantedShift:      0.6,
		Condition:         "melanoma",
		Treatment:         "miraclib",
		SampleType:        "PBMC",
		Seed:              42,
	}
}

// CohortGenerator produces deterministic synthetic cell count records.
type CohortGenerator struct {
	config CohortGeneratorConfig
	rng    *rand.Rand
}

// NewCohortGenerator creates a generator from the config's seed.
func NewCohortGenerator(config CohortGeneratorConfig) *CohortGenerator {
	return &CohortGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// baseCounts are per-cell-type count centers roughly matching the trial's
// observed panel proportions.
var baseCounts = map[core.CellType]float64{
	"b_cell":     12000,
	"cd8_t_cell": 30000,
	"cd4_t_cell": 36000,
	"nk_cell":    8000,
	"monocyte":   14000,
}

// Generate produces the full record set. Responders carry inflated
// b_cell counts by the configured planted shift.
func (g *CohortGenerator) Generate() []cohort.CellCountRecord {
	var records []cohort.CellCountRecord
	nResponders := int(float64(g.config.Subjects) * g.config.ResponderRate)

	for i := 0; i < g.config.Subjects; i++ {
		subjectID := core.SubjectID(fmt.Sprintf("sbj%03d", i+1))
		response := "no"
		if i < nResponders {
			response = "yes"
		}
		sex := "M"
		if g.rng.Float64() < 0.5 {
			sex = "F"
		}

		for s := 0; s < g.config.SamplesPerSubject; s++ {
			sampleID := core.SampleID(fmt.Sprintf("smp%03d_%d", i+1, s))
			visit := core.VisitTime(float64(s * 14))

			for _, ct := range core.DefaultCellTypes() {
				center := baseCounts[ct]
				if ct == "b_cell" && response == "yes" {
					center *= 1 + g.config.PlantedShift
				}
				// Lognormal-ish spread around the center.
				count := int64(center * (0.8 + 0.4*g.rng.Float64()))
				records = append(records, cohort.CellCountRecord{
					SampleID:   sampleID,
					SubjectID:  subjectID,
					CellType:   ct,
					Count:      count,
					ProjectID:  "prj1",
					Condition:  g.config.Condition,
					Treatment:  g.config.Treatment,
					Response:   response,
					Sex:        sex,
					SampleType: g.config.SampleType,
					VisitTime:  visit,
				})
			}
		}
	}
	return records
}

// GenerateDataset splits the records into the store's normalized form.
func (g *CohortGenerator) GenerateDataset() (subjects []cohort.Subject, samples []cohort.Sample, counts []cohort.CellCount) {
	records := g.Generate()
	seenSubjects := make(map[core.SubjectID]bool)
	seenSamples := make(map[core.SampleID]bool)

	for _, rec := range records {
		if !seenSubjects[rec.SubjectID] {
			seenSubjects[rec.SubjectID] = true
			subjects = append(subjects, cohort.Subject{
				SubjectID: rec.SubjectID,
				ProjectID: rec.ProjectID,
				Condition: rec.Condition,
				Age:       40 + g.rng.Intn(30),
				Sex:       rec.Sex,
				Treatment: rec.Treatment,
				Response:  rec.Response,
			})
		}
		if !seenSamples[rec.SampleID] {
			seenSamples[rec.SampleID] = true
			samples = append(samples, cohort.Sample{
				SampleID:   rec.SampleID,
				SubjectID:  rec.SubjectID,
				SampleType: rec.SampleType,
				VisitTime:  rec.VisitTime,
			})
		}
		counts = append(counts, cohort.CellCount{
			SampleID: rec.SampleID,
			CellType: rec.CellType,
			Count:    rec.Count,
		})
	}
	return subjects, samples, counts
}
