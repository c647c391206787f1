// Package stats defines the canonical result types produced by the
// inferential engine. The engine owns TestResult construction exclusively;
// downstream consumers (report, API, UI) only read these values.
package stats

import (
	"immunostat/domain/core"
)

// ============================================================================
// CLOSED METHOD SETS
// ============================================================================

// TestMethod is the closed set of supported two-group comparison tests.
// Represented as a tagged constant rather than a free-form string so an
// unsupported method is a compile-time-visible condition.
type TestMethod string

const (
	TestMannWhitney TestMethod = "mann_whitney"
	TestWelchT      TestMethod = "welch_t"
)

// Label returns the human-readable test name used in reports.
func (m TestMethod) Label() string {
	switch m {
	case TestWelchT:
		return "Welch t-test"
	default:
		return "Mann-Whitney U"
	}
}

// Correction is the closed set of multiple-comparison corrections.
type Correction string

const (
	CorrectionBH   Correction = "benjamini_hochberg"
	CorrectionNone Correction = "none"
)

// Label returns the human-readable correction name used in reports.
func (c Correction) Label() string {
	if c == CorrectionNone {
		return "None"
	}
	return "BH-FDR"
}

// Transform is the closed set of compositional transforms.
type Transform string

const (
	TransformNone Transform = "none"
	TransformCLR  Transform = "clr"
)

// Unit selects the unit of analysis. Subject is the default: repeated
// samples from one subject are collapsed first, so they never enter a test
// as independent observations.
type Unit string

const (
	UnitSubject Unit = "subject"
	UnitSample  Unit = "sample"
)

// Metric selects the measured value entering the tests.
type Metric string

const (
	MetricPercentage Metric = "percentage"
	MetricCount      Metric = "count"
)

// AggregateMethod reduces repeated per-sample values for one subject.
type AggregateMethod string

const (
	AggregateMean   AggregateMethod = "mean"
	AggregateMedian AggregateMethod = "median"
)

// ============================================================================
// RESULT PRIMITIVES
// ============================================================================

// Direction states which group has the higher central tendency, derived
// from the sign of median(A) - median(B).
type Direction string

const (
	DirectionAHigher      Direction = "higher_in_responders"
	DirectionBHigher      Direction = "higher_in_non_responders"
	DirectionNoDifference Direction = "no_difference"
	DirectionUndetermined Direction = "undetermined"
)

// RawTestResult carries the uncorrected output of one two-group test.
type RawTestResult struct {
	Method    TestMethod `json:"method"`
	Statistic float64    `json:"statistic"`
	PValue    float64    `json:"p_value"`
	NA        int        `json:"n_a"`
	NB        int        `json:"n_b"`
	// Effect is the method-native effect size: rank-biserial correlation
	// for Mann-Whitney, mean difference for Welch.
	Effect      float64 `json:"effect"`
	EffectLabel string  `json:"effect_label"`
}

// EffectSize is the distribution-free effect estimate paired with the
// rank-sum test.
type EffectSize struct {
	CliffsDelta float64   `json:"cliffs_delta"` // in [-1, 1]
	Direction   Direction `json:"direction"`
	MedianDiff  float64   `json:"median_diff"` // median(A) - median(B)
}

// ConfidenceInterval is an empirical percentile bootstrap interval.
type ConfidenceInterval struct {
	Low       float64 `json:"low"`
	High      float64 `json:"high"`
	Level     float64 `json:"level"`     // e.g. 0.95
	Target    string  `json:"target"`    // e.g. "median_diff"
	Resamples int     `json:"resamples"` // resample count used
	Valid     bool    `json:"valid"`     // false when bootstrap was not meaningful
}

// SkipCode is the structured reason a cell type produced no test result.
type SkipCode string

const (
	SkipMissingData      SkipCode = "MISSING_DATA"
	SkipUndefinedResult  SkipCode = "UNDEFINED_RESULT"
	SkipInsufficientData SkipCode = "INSUFFICIENT_DATA"
	SkipInvalidInput     SkipCode = "INVALID_INPUT"
)

// WarningCode flags degenerate but computable inputs.
type WarningCode string

const (
	WarningZeroVariance WarningCode = "ZERO_VARIANCE" // all values identical across both groups
	WarningLowN         WarningCode = "LOW_N"         // fewer than 5 units in a group
)

// TestResult is one annotated row of the analysis table, one per cell type.
type TestResult struct {
	CellType core.CellType `json:"cell_type"`
	NA       int           `json:"n_a"`
	NB       int           `json:"n_b"`

	Statistic   float64   `json:"statistic"`
	PValue      float64   `json:"p_value"`
	QValue      float64   `json:"q_value"`
	Effect      float64   `json:"effect"`
	EffectLabel string    `json:"effect_label"`
	CliffsDelta float64   `json:"cliffs_delta"`
	Direction   Direction `json:"direction"`
	MedianDiff  float64   `json:"median_diff"`
	MeanA       float64   `json:"mean_a"`
	MeanB       float64   `json:"mean_b"`

	CI ConfidenceInterval `json:"ci"`

	Significant bool          `json:"significant"` // q < 0.05
	Skipped     bool          `json:"skipped"`
	SkipReason  SkipCode      `json:"skip_reason,omitempty"`
	SkipDetail  string        `json:"skip_detail,omitempty"`
	Warnings    []WarningCode `json:"warnings,omitempty"`
}

// Summary labels the method choices of one run for report headers.
type Summary struct {
	TestLabel       string `json:"test_label"`
	CorrectionLabel string `json:"correction_label"`
	Unit            Unit   `json:"unit"`
	Metric          Metric `json:"metric"`
	TransformLabel  string `json:"transform_label"`
	BootstrapLabel  string `json:"bootstrap_label"`
}

// AnalysisRun is the complete output of one cohort analysis: the ordered
// result table plus the provenance needed to reproduce it. Results are
// sorted by ascending raw p-value, ties broken by cell type label; skipped
// cell types sort last. Q-values are computed across the tested family
// only (m = number of non-skipped rows in this run).
type AnalysisRun struct {
	ID         core.AnalysisID `json:"id"`
	CohortHash core.CohortHash `json:"cohort_hash"`
	Options    AnalysisOptions `json:"options"`
	Summary    Summary         `json:"summary"`
	Results    []TestResult    `json:"results"`
	ComputedAt core.Timestamp  `json:"computed_at"`
}

// TestedCount returns the family size m used for the FDR correction.
func (r *AnalysisRun) TestedCount() int {
	n := 0
	for _, res := range r.Results {
		if !res.Skipped {
			n++
		}
	}
	return n
}
