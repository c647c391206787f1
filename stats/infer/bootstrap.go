package infer

import (
	"math"
	"math/rand"
	"sort"

	mstats "github.com/montanaflynn/stats"

	"immunostat/internal/errors"
)

// StatisticFn computes the scalar statistic a bootstrap interval covers.
type StatisticFn func(a, b []float64) float64

// MedianDiff is the default bootstrap target for the rank-sum test.
func MedianDiff(a, b []float64) float64 {
	medA, errA := mstats.Median(mstats.Float64Data(a))
	medB, errB := mstats.Median(mstats.Float64Data(b))
	if errA != nil || errB != nil {
		return math.NaN()
	}
	return medA - medB
}

// MeanDiff is the bootstrap target paired with the Welch comparison.
func MeanDiff(a, b []float64) float64 {
	return mean(a) - mean(b)
}

// BootstrapCI resamples both groups independently with replacement
// n times, recomputes statistic on each resample, and returns the
// empirical percentile interval at the given confidence level.
//
// The interval is deterministic per seed: identical inputs and seed always
// produce bit-identical bounds. A group with fewer than two observations
// cannot support a meaningful resample distribution, so the call fails
// with InsufficientData rather than returning a spurious interval.
func BootstrapCI(a, b []float64, statistic StatisticFn, n int, confidence float64, seed int64) (low, high float64, err error) {
	if len(a) < 2 || len(b) < 2 {
		return 0, 0, errors.InsufficientData(
			"bootstrap requires at least two observations per group")
	}
	if n <= 0 {
		return 0, 0, errors.InvalidInput("resample count must be positive")
	}
	if confidence <= 0 || confidence >= 1 {
		return 0, 0, errors.InvalidInput("confidence level must be in (0,1)")
	}

	rng := rand.New(rand.NewSource(seed))
	resampleA := make([]float64, len(a))
	resampleB := make([]float64, len(b))
	boot := make([]float64, n)

	for i := 0; i < n; i++ {
		for j := range resampleA {
			resampleA[j] = a[rng.Intn(len(a))]
		}
		for j := range resampleB {
			resampleB[j] = b[rng.Intn(len(b))]
		}
		boot[i] = statistic(resampleA, resampleB)
	}

	sort.Float64s(boot)
	alpha := (1 - confidence) / 2
	return quantileLinear(boot, alpha), quantileLinear(boot, 1-alpha), nil
}

// quantileLinear is the linear-interpolation empirical quantile over an
// already-sorted slice.
func quantileLinear(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := q * float64(len(sorted)-1)
	i := int(math.Floor(h))
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}
