package cohort

import "immunostat/domain/core"

// ProjectSampleCount is one row of the per-project sample tally.
type ProjectSampleCount struct {
	ProjectID core.ProjectID `json:"project_id" db:"project_id"`
	NSamples  int            `json:"n_samples" db:"n_samples"`
}

// LabelCount is a generic (label, subject count) pair used for response
// and sex breakdowns.
type LabelCount struct {
	Label     string `json:"label" db:"label"`
	NSubjects int    `json:"n_subjects" db:"n_subjects"`
}

// SubsetStats summarizes a filtered cohort slice for the operations
// dashboard: where its samples came from and who its subjects are.
type SubsetStats struct {
	Filter   Filter               `json:"filter"`
	Counts   CohortCounts         `json:"counts"`
	Projects []ProjectSampleCount `json:"projects"`
	Response []LabelCount         `json:"response"`
	Sex      []LabelCount         `json:"sex"`

	// AvgBCellMaleResponders is the mean baseline b_cell frequency among
	// male responders, the trial's tracked sentinel metric. Valid is false
	// when the subset is empty.
	AvgBCellMaleResponders float64 `json:"avg_b_cell_male_responders"`
	AvgBCellValid          bool    `json:"avg_b_cell_valid"`
}
