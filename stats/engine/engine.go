// Package engine orchestrates a full cohort analysis: unit-of-analysis
// preparation, optional compositional transform, per-cell-type hypothesis
// tests with effect sizes and bootstrap intervals, and the family-wide
// FDR correction. It is the only writer of stats.TestResult values.
package engine

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"immunostat/domain/cohort"
	"immunostat/domain/core"
	domstats "immunostat/domain/stats"
	"immunostat/internal"
	apperrors "immunostat/internal/errors"
	"immunostat/stats/features"
	"immunostat/stats/infer"
)

// Request carries everything one analysis run needs. The frequency table
// and partition are read-only snapshots; the engine never mutates them.
type Request struct {
	Rows      []cohort.SampleFrequencyRow
	Partition cohort.GroupPartition
	// CellTypes restricts the tested family. Empty means every cell type
	// observed in Rows. The FDR family size is always the number of cell
	// types tested in this request, never a global constant.
	CellTypes []core.CellType
	FilterKey string
	Options   domstats.AnalysisOptions
}

// Analyzer runs cohort analyses. Safe for concurrent use: it holds no
// per-run state.
type Analyzer struct {
	log *internal.Logger
}

// NewAnalyzer creates an analyzer logging through the given logger.
func NewAnalyzer(log *internal.Logger) *Analyzer {
	if log == nil {
		log = internal.NewDefaultLogger()
	}
	return &Analyzer{log: log}
}

// unitObs is one observation entering a test: the value for one unit of
// analysis (subject or sample) and one cell type.
type unitObs struct {
	unitID  string
	subject core.SubjectID
	value   float64
}

// RunCohortAnalysis produces one annotated TestResult per requested cell
// type, sorted by ascending raw p-value (ties broken by cell type label),
// with q-values computed across the full tested family. One cell type's
// failure never prevents results for the others: failed cell types appear
// as skipped rows carrying the reason.
func (a *Analyzer) RunCohortAnalysis(ctx context.Context, req Request) (*domstats.AnalysisRun, error) {
	opts := req.Options
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := req.Partition.Validate(); err != nil {
		return nil, err
	}

	obs, cellTypes, err := a.prepareUnits(req)
	if err != nil {
		return nil, err
	}

	results := make([]domstats.TestResult, len(cellTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, ct := range cellTypes {
		i, ct := i, ct
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			// Per-cell seeding keeps each bootstrap stream independent and
			// the whole run reproducible from one configured seed.
			seed := opts.RandomSeed + int64(i)
			results[i] = a.analyzeCellType(ct, obs[ct], req.Partition, opts, seed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	applyCorrection(results, opts.Correction)
	sortResults(results)

	run := &domstats.AnalysisRun{
		ID:         core.NewAnalysisID(),
		CohortHash: core.ComputeCohortHash(req.FilterKey, cellTypes),
		Options:    opts,
		Summary:    opts.BuildSummary(),
		Results:    results,
		ComputedAt: core.Now(),
	}
	a.log.Info("cohort analysis %s: %d cell types, %d tested, unit=%s method=%s",
		run.ID, len(results), run.TestedCount(), opts.Unit, opts.Method)
	return run, nil
}

// prepareUnits turns frequency rows into per-cell-type observation lists
// at the requested unit of analysis, applying the CLR transform when
// configured.
func (a *Analyzer) prepareUnits(req Request) (map[core.CellType][]unitObs, []core.CellType, error) {
	opts := req.Options

	type unitKey struct {
		unitID string
		ct     core.CellType
	}
	grouped := make(map[unitKey][]float64)
	subjects := make(map[string]core.SubjectID)

	for _, row := range req.Rows {
		var unitID string
		if opts.Unit == domstats.UnitSubject {
			unitID = row.SubjectID.String()
		} else {
			unitID = row.SampleID.String()
		}
		subjects[unitID] = row.SubjectID

		value := row.Frequency
		if opts.Metric == domstats.MetricCount {
			value = float64(row.Count)
		}
		grouped[unitKey{unitID: unitID, ct: row.CellType}] = append(
			grouped[unitKey{unitID: unitID, ct: row.CellType}], value)
	}

	values := make(map[string]map[core.CellType]float64)
	cellTypeSet := make(map[core.CellType]struct{})
	for k, vs := range grouped {
		// Sample-level units carry one value; subject-level units collapse
		// repeated samples so they never enter a test independently.
		v := vs[0]
		if len(vs) > 1 {
			v = features.AggregateValues(vs, opts.Aggregate)
		}
		if values[k.unitID] == nil {
			values[k.unitID] = make(map[core.CellType]float64)
		}
		values[k.unitID][k.ct] = v
		cellTypeSet[k.ct] = struct{}{}
	}

	cellTypes := req.CellTypes
	if len(cellTypes) == 0 {
		for ct := range cellTypeSet {
			cellTypes = append(cellTypes, ct)
		}
	}
	sort.Slice(cellTypes, func(i, j int) bool { return cellTypes[i] < cellTypes[j] })

	if opts.Transform == domstats.TransformCLR {
		if err := a.applyCLR(values, cellTypes); err != nil {
			return nil, nil, err
		}
	}

	obs := make(map[core.CellType][]unitObs)
	unitIDs := make([]string, 0, len(values))
	for unitID := range values {
		unitIDs = append(unitIDs, unitID)
	}
	sort.Strings(unitIDs)
	for _, unitID := range unitIDs {
		for ct, v := range values[unitID] {
			obs[ct] = append(obs[ct], unitObs{
				unitID:  unitID,
				subject: subjects[unitID],
				value:   v,
			})
		}
	}
	return obs, cellTypes, nil
}

// applyCLR replaces each unit's values with its centered log-ratio over
// the tested cell types. Cell types a unit never measured enter the
// composition as zero and are lifted by the pseudocount; this mirrors the
// trial's historical treatment of sparse panels.
func (a *Analyzer) applyCLR(values map[string]map[core.CellType]float64, cellTypes []core.CellType) error {
	for unitID, byCell := range values {
		composition := make([]float64, len(cellTypes))
		for i, ct := range cellTypes {
			composition[i] = byCell[ct]
		}
		transformed, err := features.CLRWithPseudocount(composition)
		if err != nil {
			return apperrors.Wrapf(err, "clr transform failed for unit %s", unitID)
		}
		for i, ct := range cellTypes {
			byCell[ct] = transformed[i]
		}
	}
	return nil
}

// analyzeCellType builds one annotated result row. Errors become skip
// annotations, never failures of the whole run.
func (a *Analyzer) analyzeCellType(ct core.CellType, obs []unitObs, partition cohort.GroupPartition, opts domstats.AnalysisOptions, seed int64) domstats.TestResult {
	var groupA, groupB []float64
	for _, o := range obs {
		label, ok := partition.Group(o.subject.String())
		if !ok {
			continue
		}
		if label == partition.GroupA {
			groupA = append(groupA, o.value)
		} else {
			groupB = append(groupB, o.value)
		}
	}

	result := domstats.TestResult{
		CellType: ct,
		NA:       len(groupA),
		NB:       len(groupB),
		PValue:   math.NaN(),
		QValue:   math.NaN(),
	}

	raw, err := infer.CompareGroups(groupA, groupB, opts.Method)
	if err != nil {
		result.Skipped = true
		result.SkipReason = skipCodeFor(err)
		result.SkipDetail = err.Error()
		a.log.Warn("cell type %s skipped: %v", ct, err)
		return result
	}

	result.Statistic = raw.Statistic
	result.PValue = raw.PValue
	result.Effect = raw.Effect
	result.EffectLabel = raw.EffectLabel
	result.MeanA = meanOf(groupA)
	result.MeanB = meanOf(groupB)

	es := infer.Effect(groupA, groupB)
	result.CliffsDelta = es.CliffsDelta
	result.Direction = es.Direction
	result.MedianDiff = es.MedianDiff

	if infer.AllIdentical(groupA, groupB) {
		result.Warnings = append(result.Warnings, domstats.WarningZeroVariance)
	}
	if len(groupA) < 5 || len(groupB) < 5 {
		result.Warnings = append(result.Warnings, domstats.WarningLowN)
	}

	statistic := infer.StatisticFn(infer.MedianDiff)
	if opts.Method == domstats.TestWelchT {
		statistic = infer.MeanDiff
	}
	low, high, ciErr := infer.BootstrapCI(groupA, groupB, statistic, opts.Resamples, opts.ConfidenceLevel, seed)
	result.CI = domstats.ConfidenceInterval{
		Level:     opts.ConfidenceLevel,
		Target:    opts.CITarget(),
		Resamples: opts.Resamples,
	}
	if ciErr != nil {
		// Insufficient data for a meaningful interval; the test result
		// itself still stands.
		result.CI.Valid = false
		a.log.Debug("cell type %s: bootstrap unavailable: %v", ct, ciErr)
	} else {
		result.CI.Low = low
		result.CI.High = high
		result.CI.Valid = true
	}

	return result
}

// applyCorrection computes q-values across the tested family of this run
// and marks significance at q < 0.05.
func applyCorrection(results []domstats.TestResult, method domstats.Correction) {
	tested := make([]int, 0, len(results))
	pvalues := make([]float64, 0, len(results))
	for i := range results {
		if !results[i].Skipped {
			tested = append(tested, i)
			pvalues = append(pvalues, results[i].PValue)
		}
	}
	if len(tested) == 0 {
		return
	}

	qvalues := infer.AdjustPValues(pvalues, method)
	for j, i := range tested {
		results[i].QValue = qvalues[j]
		results[i].Significant = qvalues[j] < 0.05
	}
}

// sortResults orders by ascending raw p-value with cell type label as the
// deterministic tie-break; skipped rows sort last.
func sortResults(results []domstats.TestResult) {
	sort.SliceStable(results, func(i, j int) bool {
		ri, rj := results[i], results[j]
		if ri.Skipped != rj.Skipped {
			return !ri.Skipped
		}
		if ri.Skipped {
			return ri.CellType < rj.CellType
		}
		if ri.PValue != rj.PValue {
			return ri.PValue < rj.PValue
		}
		return ri.CellType < rj.CellType
	})
}

func skipCodeFor(err error) domstats.SkipCode {
	switch apperrors.GetCode(err) {
	case apperrors.CodeUndefinedResult:
		return domstats.SkipUndefinedResult
	case apperrors.CodeInsufficientData:
		return domstats.SkipInsufficientData
	case apperrors.CodeMissingData:
		return domstats.SkipMissingData
	default:
		return domstats.SkipInvalidInput
	}
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
