package cohort

import (
	"fmt"
	"strings"
)

// TimeFilter restricts samples by visit time.
type TimeFilter string

const (
	TimeAll          TimeFilter = "all"
	TimeBaselineOnly TimeFilter = "baseline_only"
)

// Filter selects the cohort slice an analysis runs against. Empty or "all"
// fields match everything; string matching is case-insensitive.
type Filter struct {
	Condition  string     `json:"condition"`
	Treatment  string     `json:"treatment"`
	SampleType string     `json:"sample_type"`
	Time       TimeFilter `json:"time"`
}

// DefaultFilter is the trial's primary cohort: melanoma subjects on
// miraclib, PBMC samples at baseline.
func DefaultFilter() Filter {
	return Filter{
		Condition:  "melanoma",
		Treatment:  "miraclib",
		SampleType: "PBMC",
		Time:       TimeBaselineOnly,
	}
}

// Matches reports whether a record falls inside the filter.
func (f Filter) Matches(rec CellCountRecord) bool {
	if !matchField(f.Condition, rec.Condition) {
		return false
	}
	if !matchField(f.Treatment, rec.Treatment) {
		return false
	}
	if !matchField(f.SampleType, rec.SampleType) {
		return false
	}
	if f.Time == TimeBaselineOnly && !rec.VisitTime.IsBaseline() {
		return false
	}
	return true
}

// Key renders a stable string form used for cohort hashing and report
// headers.
func (f Filter) Key() string {
	t := f.Time
	if t == "" {
		t = TimeAll
	}
	return fmt.Sprintf("condition=%s|treatment=%s|sample_type=%s|time=%s",
		strings.ToLower(f.Condition), strings.ToLower(f.Treatment),
		strings.ToLower(f.SampleType), t)
}

func matchField(want, have string) bool {
	if want == "" || strings.EqualFold(want, "all") {
		return true
	}
	return strings.EqualFold(want, have)
}
