package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	SampleID   string
	SubjectID  string
	ProjectID  string
	CellType   string
	AnalysisID ID
)

func (id SampleID) String() string   { return string(id) }
func (id SubjectID) String() string  { return string(id) }
func (id ProjectID) String() string  { return string(id) }
func (ct CellType) String() string   { return string(ct) }
func (id AnalysisID) String() string { return ID(id).String() }

// NewAnalysisID creates a fresh identifier for one analysis run
func NewAnalysisID() AnalysisID {
	return AnalysisID(NewID())
}

// DefaultCellTypes returns the immune cell populations measured by the
// trial's flow panel, in canonical order.
func DefaultCellTypes() []CellType {
	return []CellType{"b_cell", "cd8_t_cell", "cd4_t_cell", "nk_cell", "monocyte"}
}

// ParseCellType parses a string into CellType
func ParseCellType(s string) (CellType, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("cell type cannot be empty")
	}
	return CellType(strings.ToLower(strings.TrimSpace(s))), nil
}

// ParseSampleID parses a string into SampleID
func ParseSampleID(s string) (SampleID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("sample ID cannot be empty")
	}
	return SampleID(s), nil
}

// ParseSubjectID parses a string into SubjectID
func ParseSubjectID(s string) (SubjectID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("subject ID cannot be empty")
	}
	return SubjectID(s), nil
}
