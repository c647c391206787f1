// Package cohort holds the immutable tabular types flowing through the
// analysis pipeline: raw per-sample counts, derived frequency rows, subject
// aggregates, and the binary group partition used for comparisons.
package cohort

import (
	"fmt"

	"immunostat/domain/core"
)

// CellCountRecord is one raw measurement: a cell type's count within one
// sample. Records are immutable once produced by the data source.
type CellCountRecord struct {
	SampleID  core.SampleID  `json:"sample_id" db:"sample_id"`
	SubjectID core.SubjectID `json:"subject_id" db:"subject_id"`
	CellType  core.CellType  `json:"cell_type" db:"cell_type"`
	Count     int64          `json:"count" db:"count"`

	// Descriptive attributes carried along for filtering and summaries.
	ProjectID  core.ProjectID `json:"project_id,omitempty" db:"project_id"`
	Condition  string         `json:"condition,omitempty" db:"condition"`
	Treatment  string         `json:"treatment,omitempty" db:"treatment"`
	Response   string         `json:"response,omitempty" db:"response"`
	Sex        string         `json:"sex,omitempty" db:"sex"`
	SampleType string         `json:"sample_type,omitempty" db:"sample_type"`
	VisitTime  core.VisitTime `json:"visit_time,omitempty" db:"visit_time"`
}

// SampleFrequencyRow is one derived frequency: a cell type's share of the
// total cell count within its sample.
// INVARIANT: for a fixed sample, frequencies over its measured cell types
// sum to 1.0 within floating-point tolerance. A zero-total sample never
// produces frequency rows; it is surfaced as a MissingData issue instead.
type SampleFrequencyRow struct {
	SampleID   core.SampleID  `json:"sample_id"`
	SubjectID  core.SubjectID `json:"subject_id"`
	CellType   core.CellType  `json:"cell_type"`
	Count      int64          `json:"count"`
	TotalCount int64          `json:"total_count"`
	Frequency  float64        `json:"frequency"` // Count / TotalCount, in [0,1]
}

// SubjectAggregateRow collapses repeated samples of one subject into a
// single value per cell type, so repeated measures do not enter a test as
// independent observations.
type SubjectAggregateRow struct {
	SubjectID core.SubjectID `json:"subject_id"`
	CellType  core.CellType  `json:"cell_type"`
	Value     float64        `json:"value"`
	NSamples  int            `json:"n_samples"`
}

// GroupLabel is one side of the binary partition (e.g. "yes" / "no").
type GroupLabel string

func (g GroupLabel) String() string { return string(g) }

// GroupPartition assigns each analysis unit (subject or sample) to exactly
// one of two groups. GroupA is conventionally the responder side.
type GroupPartition struct {
	GroupA GroupLabel            `json:"group_a"`
	GroupB GroupLabel            `json:"group_b"`
	Labels map[string]GroupLabel `json:"labels"` // unit id -> group
}

// NewResponderPartition builds the standard responder / non-responder split
// from per-unit response labels.
func NewResponderPartition(labels map[string]GroupLabel) GroupPartition {
	return GroupPartition{GroupA: "yes", GroupB: "no", Labels: labels}
}

// Validate checks the partition is binary and both groups are inhabited.
func (p GroupPartition) Validate() error {
	if p.GroupA == "" || p.GroupB == "" || p.GroupA == p.GroupB {
		return core.NewInvalidInputError("partition must name two distinct groups")
	}
	var nA, nB int
	for unit, label := range p.Labels {
		switch label {
		case p.GroupA:
			nA++
		case p.GroupB:
			nB++
		default:
			return core.NewInvalidInputError(
				fmt.Sprintf("unit %s carries unknown group label %q", unit, label))
		}
	}
	if nA == 0 || nB == 0 {
		return core.NewInvalidInputError("both groups must have at least one member")
	}
	return nil
}

// Group resolves the unit's side of the partition. The second return is
// false when the unit is unlabeled and must be excluded from testing.
func (p GroupPartition) Group(unitID string) (GroupLabel, bool) {
	label, ok := p.Labels[unitID]
	if !ok || (label != p.GroupA && label != p.GroupB) {
		return "", false
	}
	return label, true
}

// CohortCounts summarizes the size of a filtered cohort.
type CohortCounts struct {
	NSamples  int `json:"n_samples" db:"n_samples"`
	NSubjects int `json:"n_subjects" db:"n_subjects"`
}

// FlowStep is one row of the cohort attrition table: how many samples and
// subjects remain after a filter step is applied.
type FlowStep struct {
	Step      string `json:"step"`
	NSamples  int    `json:"n_samples"`
	NSubjects int    `json:"n_subjects"`
}
