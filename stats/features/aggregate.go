package features

import (
	"sort"

	mstats "github.com/montanaflynn/stats"

	"immunostat/domain/cohort"
	"immunostat/domain/core"
	domstats "immunostat/domain/stats"
)

// AggregateToSubject collapses the multiset of per-sample frequencies into
// one value per (subject, cell type). This is how repeated measures are
// kept out of the tests: after aggregation each subject contributes at
// most one observation per cell type.
func AggregateToSubject(rows []cohort.SampleFrequencyRow, method domstats.AggregateMethod) []cohort.SubjectAggregateRow {
	type key struct {
		subject core.SubjectID
		ct      core.CellType
	}

	values := make(map[key][]float64)
	order := make([]key, 0)
	for _, row := range rows {
		k := key{subject: row.SubjectID, ct: row.CellType}
		if _, ok := values[k]; !ok {
			order = append(order, k)
		}
		values[k] = append(values[k], row.Frequency)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].subject != order[j].subject {
			return order[i].subject < order[j].subject
		}
		return order[i].ct < order[j].ct
	})

	out := make([]cohort.SubjectAggregateRow, 0, len(order))
	for _, k := range order {
		vs := values[k]
		out = append(out, cohort.SubjectAggregateRow{
			SubjectID: k.subject,
			CellType:  k.ct,
			Value:     reduce(vs, method),
			NSamples:  len(vs),
		})
	}
	return out
}

// AggregateValues reduces an arbitrary value multiset keyed by (unit, cell
// type); the engine uses it when the metric is raw counts rather than
// frequencies.
func AggregateValues(values []float64, method domstats.AggregateMethod) float64 {
	return reduce(values, method)
}

func reduce(values []float64, method domstats.AggregateMethod) float64 {
	if len(values) == 1 {
		return values[0]
	}
	var v float64
	var err error
	switch method {
	case domstats.AggregateMean:
		v, err = mstats.Mean(mstats.Float64Data(values))
	default:
		v, err = mstats.Median(mstats.Float64Data(values))
	}
	if err != nil {
		// Only possible on empty input, which callers never pass.
		return 0
	}
	return v
}
