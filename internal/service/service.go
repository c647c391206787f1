// Package service exposes the application's use cases to the HTTP
// handlers and the CLI: frequency tables, cohort analyses, subset
// summaries, and the attrition flow.
package service

import (
	"context"

	"immunostat/adapters/store"
	"immunostat/domain/cohort"
	"immunostat/domain/core"
	domstats "immunostat/domain/stats"
	"immunostat/internal"
	apperrors "immunostat/internal/errors"
	"immunostat/stats/engine"
	"immunostat/stats/features"
)

// AnalysisService coordinates the store, the feature layer, and the
// inferential engine.
type AnalysisService struct {
	store    *store.Store
	analyzer *engine.Analyzer
	defaults domstats.AnalysisOptions
	log      *internal.Logger
}

// New creates the service with the given default analysis options.
func New(st *store.Store, analyzer *engine.Analyzer, defaults domstats.AnalysisOptions, log *internal.Logger) *AnalysisService {
	if log == nil {
		log = internal.NewDefaultLogger()
	}
	return &AnalysisService{store: st, analyzer: analyzer, defaults: defaults, log: log}
}

// Defaults returns the configured default analysis options.
func (s *AnalysisService) Defaults() domstats.AnalysisOptions {
	return s.defaults
}

// FrequencyResult pairs a frequency table with the per-sample issues
// encountered while deriving it.
type FrequencyResult struct {
	Rows   []cohort.SampleFrequencyRow `json:"rows"`
	Issues []features.SampleIssue      `json:"issues,omitempty"`
}

// FrequencyTable derives relative frequencies for the filtered cohort.
// Samples with a zero total are reported as issues, never as rows.
func (s *AnalysisService) FrequencyTable(ctx context.Context, filter cohort.Filter) (*FrequencyResult, error) {
	records, err := s.store.FetchCellCounts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NotFound("no cell counts match the filter")
	}
	rows, issues := features.ComputeFrequencies(records)
	return &FrequencyResult{Rows: rows, Issues: issues}, nil
}

// AnalysisResult is one complete run plus its data-quality issues.
type AnalysisResult struct {
	Run    *domstats.AnalysisRun  `json:"run"`
	Issues []features.SampleIssue `json:"issues,omitempty"`
}

// RunAnalysis executes the responder comparison over the filtered
// cohort. Zero-valued option fields fall back to the configured
// defaults.
func (s *AnalysisService) RunAnalysis(ctx context.Context, filter cohort.Filter, opts domstats.AnalysisOptions) (*AnalysisResult, error) {
	opts = s.mergeDefaults(opts)

	records, err := s.store.FetchCellCounts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NotFound("no cell counts match the filter")
	}

	rows, issues := features.ComputeFrequencies(records)
	partition := responderPartition(records)

	run, err := s.analyzer.RunCohortAnalysis(ctx, engine.Request{
		Rows:      rows,
		Partition: partition,
		FilterKey: filter.Key(),
		Options:   opts,
	})
	if err != nil {
		return nil, err
	}
	return &AnalysisResult{Run: run, Issues: issues}, nil
}

// SubsetStats reports the dashboard summary for the filtered cohort.
func (s *AnalysisService) SubsetStats(ctx context.Context, filter cohort.Filter) (*cohort.SubsetStats, error) {
	return s.store.SubsetStats(ctx, filter)
}

// CohortFlow reports the attrition table for the filter.
func (s *AnalysisService) CohortFlow(ctx context.Context, filter cohort.Filter) ([]cohort.FlowStep, error) {
	return s.store.CohortFlow(ctx, filter)
}

// mergeDefaults fills zero-valued fields from the configured defaults so
// callers can override only what they care about.
func (s *AnalysisService) mergeDefaults(opts domstats.AnalysisOptions) domstats.AnalysisOptions {
	d := s.defaults
	if opts.Unit == "" {
		opts.Unit = d.Unit
	}
	if opts.Metric == "" {
		opts.Metric = d.Metric
	}
	if opts.Transform == "" {
		opts.Transform = d.Transform
	}
	if opts.Method == "" {
		opts.Method = d.Method
	}
	if opts.Correction == "" {
		opts.Correction = d.Correction
	}
	if opts.Aggregate == "" {
		opts.Aggregate = d.Aggregate
	}
	if opts.ConfidenceLevel == 0 {
		opts.ConfidenceLevel = d.ConfidenceLevel
	}
	if opts.Resamples == 0 {
		opts.Resamples = d.Resamples
	}
	if opts.RandomSeed == 0 {
		opts.RandomSeed = d.RandomSeed
	}
	return opts
}

// responderPartition labels each subject by its recorded response.
// Subjects without a yes/no endpoint stay unlabeled and are excluded
// from testing.
func responderPartition(records []cohort.CellCountRecord) cohort.GroupPartition {
	labels := make(map[string]cohort.GroupLabel)
	for _, rec := range records {
		switch rec.Response {
		case "yes", "no":
			labels[rec.SubjectID.String()] = cohort.GroupLabel(rec.Response)
		}
	}
	return cohort.NewResponderPartition(labels)
}

// CellTypesIn lists the distinct cell types of a record set in canonical
// order, used by report headers.
func CellTypesIn(records []cohort.CellCountRecord) []core.CellType {
	seen := make(map[core.CellType]bool)
	var out []core.CellType
	for _, ct := range core.DefaultCellTypes() {
		for _, rec := range records {
			if rec.CellType == ct && !seen[ct] {
				seen[ct] = true
				out = append(out, ct)
			}
		}
	}
	return out
}
