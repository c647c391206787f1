package infer

import (
	"sort"

	domstats "immunostat/domain/stats"
)

// AdjustPValues applies the selected multiple-comparison correction and
// returns q-values in the same order as the input p-values. The family
// size m is the length of the input: it must be the number of hypotheses
// actually tested together in one analysis scope, recomputed per call.
//
// Benjamini-Hochberg step-up: sort ascending, q_i = p_i * m / rank_i, then
// enforce monotonicity with a running minimum from the largest rank down.
// Guarantees q_i >= p_i and q-values non-decreasing in p-value order.
func AdjustPValues(pvalues []float64, method domstats.Correction) []float64 {
	if method == domstats.CorrectionNone || len(pvalues) == 0 {
		out := make([]float64, len(pvalues))
		copy(out, pvalues)
		return out
	}

	m := len(pvalues)
	type indexed struct {
		orig int
		p    float64
	}
	sorted := make([]indexed, m)
	for i, p := range pvalues {
		sorted[i] = indexed{orig: i, p: p}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].p < sorted[j].p })

	adjusted := make([]float64, m)
	minSoFar := 1.0
	for rank := m - 1; rank >= 0; rank-- {
		q := sorted[rank].p * float64(m) / float64(rank+1)
		if q < minSoFar {
			minSoFar = q
		}
		if minSoFar > 1 {
			adjusted[rank] = 1
		} else {
			adjusted[rank] = minSoFar
		}
	}

	out := make([]float64, m)
	for rank, entry := range sorted {
		out[entry.orig] = adjusted[rank]
	}
	return out
}
