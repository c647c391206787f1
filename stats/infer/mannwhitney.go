// Package infer implements the two-group hypothesis tests, effect sizes,
// bootstrap intervals, and the multiple-comparison correction used by the
// cohort analysis engine. All functions are pure and synchronous; callers
// own parallelism.
package infer

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	domstats "immunostat/domain/stats"
)

// Exact null distribution is used below this group size when the data has
// no ties; larger samples use the tie-corrected normal approximation with
// continuity correction.
const exactThreshold = 8

// mannWhitney performs a two-sided rank-sum test. Valid with unequal group
// sizes and non-normal distributions; requires at least one observation
// per group (enforced by CompareGroups). When every value across both
// groups is identical the statistic is defined but carries no information;
// the p-value is reported as 1 and the caller flags zero variance.
func mannWhitney(a, b []float64) domstats.RawTestResult {
	n1 := len(a)
	n2 := len(b)

	ranks, hasTies := rankCombined(a, b)

	// Rank sum of group A over the combined sample.
	r1 := 0.0
	for i := 0; i < n1; i++ {
		r1 += ranks[i]
	}
	u1 := r1 - float64(n1)*float64(n1+1)/2
	u2 := float64(n1)*float64(n2) - u1

	result := domstats.RawTestResult{
		Method:      domstats.TestMannWhitney,
		Statistic:   u1,
		NA:          n1,
		NB:          n2,
		Effect:      2*u1/(float64(n1)*float64(n2)) - 1, // rank-biserial correlation
		EffectLabel: "rank_biserial",
	}

	if !hasTies && n1 <= exactThreshold && n2 <= exactThreshold {
		result.PValue = exactTwoSidedP(n1, n2, math.Min(u1, u2))
		return result
	}

	result.PValue = normalApproxP(n1, n2, u1, ranks)
	return result
}

// rankCombined assigns midranks over the pooled sample; the first n1
// entries of the returned slice belong to group A.
func rankCombined(a, b []float64) (ranks []float64, hasTies bool) {
	n := len(a) + len(b)
	type obs struct {
		value float64
		index int
	}
	pooled := make([]obs, 0, n)
	for i, v := range a {
		pooled = append(pooled, obs{value: v, index: i})
	}
	for i, v := range b {
		pooled = append(pooled, obs{value: v, index: len(a) + i})
	}
	sort.Slice(pooled, func(i, j int) bool { return pooled[i].value < pooled[j].value })

	ranks = make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && pooled[j].value == pooled[i].value {
			j++
		}
		if j-i > 1 {
			hasTies = true
		}
		// Average rank for the tie block [i, j).
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[pooled[k].index] = avg
		}
		i = j
	}
	return ranks, hasTies
}

// exactTwoSidedP computes the two-sided p-value from the exact null
// distribution of U, counting arrangements by the standard recurrence
// c(i,j,u) = c(i-1,j,u-j) + c(i,j-1,u).
func exactTwoSidedP(n1, n2 int, uMin float64) float64 {
	max := n1 * n2
	// counts[i][j][u]: arrangements of i group-A and j group-B values with
	// statistic u.
	counts := make([][][]float64, n1+1)
	for i := 0; i <= n1; i++ {
		counts[i] = make([][]float64, n2+1)
		for j := 0; j <= n2; j++ {
			counts[i][j] = make([]float64, max+1)
			counts[i][j][0] = 1
		}
	}
	for i := 1; i <= n1; i++ {
		for j := 1; j <= n2; j++ {
			for u := 1; u <= i*j; u++ {
				c := counts[i][j-1][u]
				if u >= j {
					c += counts[i-1][j][u-j]
				}
				counts[i][j][u] = c
			}
		}
	}

	total := 0.0
	cum := 0.0
	limit := int(math.Floor(uMin))
	for u := 0; u <= max; u++ {
		total += counts[n1][n2][u]
		if u <= limit {
			cum += counts[n1][n2][u]
		}
	}

	p := 2 * cum / total
	if p > 1 {
		p = 1
	}
	return p
}

// normalApproxP computes the two-sided p-value under the normal
// approximation with tie correction and continuity correction.
func normalApproxP(n1, n2 int, u1 float64, ranks []float64) float64 {
	n := float64(n1 + n2)
	prod := float64(n1) * float64(n2)
	mu := prod / 2

	tieTerm := tieCorrection(ranks)
	sigma2 := prod / 12 * ((n + 1) - tieTerm/(n*(n-1)))
	if sigma2 <= 0 {
		// Every pooled value identical: the test carries no information.
		return 1
	}
	sigma := math.Sqrt(sigma2)

	diff := u1 - mu
	// Continuity correction shrinks the deviation by half a unit.
	var z float64
	switch {
	case diff > 0:
		z = (diff - 0.5) / sigma
	case diff < 0:
		z = (diff + 0.5) / sigma
	default:
		z = 0
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * normal.Survival(math.Abs(z))
	if p > 1 {
		p = 1
	}
	return p
}

// tieCorrection returns sum(t^3 - t) over tie blocks of the pooled ranks.
func tieCorrection(ranks []float64) float64 {
	blocks := make(map[float64]float64)
	for _, r := range ranks {
		blocks[r]++
	}
	term := 0.0
	for _, t := range blocks {
		if t > 1 {
			term += t*t*t - t
		}
	}
	return term
}

// AllIdentical reports whether every value in both groups equals the
// first; used by callers to flag degenerate (zero-variance) comparisons.
func AllIdentical(a, b []float64) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	var first float64
	if len(a) > 0 {
		first = a[0]
	} else {
		first = b[0]
	}
	for _, v := range a {
		if v != first {
			return false
		}
	}
	for _, v := range b {
		if v != first {
			return false
		}
	}
	return true
}
