package stats

import (
	"fmt"

	"immunostat/domain/core"
)

// AnalysisOptions is the full configuration surface of one analysis run.
// It is an explicit value handed to each entry point; there is no mutable
// process-wide configuration, so concurrent runs with different options
// cannot interfere.
type AnalysisOptions struct {
	Unit            Unit            `json:"unit"`
	Metric          Metric          `json:"metric"`
	Transform       Transform       `json:"transform"`
	Method          TestMethod      `json:"method"`
	Correction      Correction      `json:"correction"`
	Aggregate       AggregateMethod `json:"aggregate"`
	ConfidenceLevel float64         `json:"confidence_level"`
	Resamples       int             `json:"resamples"`
	RandomSeed      int64           `json:"random_seed"`
}

// DefaultOptions mirrors the trial's primary analysis: subject-level
// percentages, Mann-Whitney with BH-FDR, 95% bootstrap CI over 1000
// resamples at seed 42.
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		Unit:            UnitSubject,
		Metric:          MetricPercentage,
		Transform:       TransformNone,
		Method:          TestMannWhitney,
		Correction:      CorrectionBH,
		Aggregate:       AggregateMedian,
		ConfidenceLevel: 0.95,
		Resamples:       1000,
		RandomSeed:      42,
	}
}

// Validate rejects options outside the closed configuration surface.
func (o AnalysisOptions) Validate() error {
	switch o.Unit {
	case UnitSubject, UnitSample:
	default:
		return core.NewInvalidInputError(fmt.Sprintf("unknown unit %q", o.Unit))
	}
	switch o.Metric {
	case MetricPercentage, MetricCount:
	default:
		return core.NewInvalidInputError(fmt.Sprintf("unknown metric %q", o.Metric))
	}
	switch o.Transform {
	case TransformNone, TransformCLR:
	default:
		return core.NewInvalidInputError(fmt.Sprintf("unknown transform %q", o.Transform))
	}
	switch o.Method {
	case TestMannWhitney, TestWelchT:
	default:
		return core.NewInvalidInputError(fmt.Sprintf("unknown test method %q", o.Method))
	}
	switch o.Correction {
	case CorrectionBH, CorrectionNone:
	default:
		return core.NewInvalidInputError(fmt.Sprintf("unknown correction %q", o.Correction))
	}
	switch o.Aggregate {
	case AggregateMean, AggregateMedian:
	default:
		return core.NewInvalidInputError(fmt.Sprintf("unknown aggregate method %q", o.Aggregate))
	}
	if o.ConfidenceLevel <= 0 || o.ConfidenceLevel >= 1 {
		return core.NewInvalidInputError("confidence level must be in (0,1)")
	}
	if o.Resamples <= 0 {
		return core.NewInvalidInputError("resample count must be positive")
	}
	return nil
}

// CITarget names the statistic the bootstrap interval covers: the mean
// difference when the primary test compares means, the median difference
// otherwise.
func (o AnalysisOptions) CITarget() string {
	if o.Method == TestWelchT {
		return "mean_diff"
	}
	return "median_diff"
}

// BuildSummary renders the method labels for report headers.
func (o AnalysisOptions) BuildSummary() Summary {
	transform := "Raw"
	if o.Transform == TransformCLR {
		transform = "CLR"
	}
	return Summary{
		TestLabel:       o.Method.Label(),
		CorrectionLabel: o.Correction.Label(),
		Unit:            o.Unit,
		Metric:          o.Metric,
		TransformLabel:  transform,
		BootstrapLabel: fmt.Sprintf("%.0f%% bootstrap CI on %s (%d resamples)",
			o.ConfidenceLevel*100, o.CITarget(), o.Resamples),
	}
}
