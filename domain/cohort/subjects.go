package cohort

import "immunostat/domain/core"

// Subject is one trial participant. Response is "yes"/"no" for treated
// subjects and empty when the endpoint was never assessed.
type Subject struct {
	SubjectID core.SubjectID `json:"subject_id" db:"subject_id"`
	ProjectID core.ProjectID `json:"project_id" db:"project_id"`
	Condition string         `json:"condition" db:"condition"`
	Age       int            `json:"age" db:"age"`
	Sex       string         `json:"sex" db:"sex"`
	Treatment string         `json:"treatment" db:"treatment"`
	Response  string         `json:"response" db:"response"`
}

// Sample is one specimen drawn from a subject at a visit. VisitTime is
// days from treatment start; zero marks the baseline draw.
type Sample struct {
	SampleID   core.SampleID  `json:"sample_id" db:"sample_id"`
	SubjectID  core.SubjectID `json:"subject_id" db:"subject_id"`
	SampleType string         `json:"sample_type" db:"sample_type"`
	VisitTime  core.VisitTime `json:"visit_time" db:"visit_time"`
}

// CellCount is one stored measurement in long form.
type CellCount struct {
	SampleID core.SampleID `json:"sample_id" db:"sample_id"`
	CellType core.CellType `json:"cell_type" db:"cell_type"`
	Count    int64         `json:"count" db:"count"`
}
