package infer

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	domstats "immunostat/domain/stats"
)

// welchT performs a two-sided t-test without assuming equal variances,
// with degrees of freedom from the Welch-Satterthwaite equation. Used as
// the sensitivity comparison against the primary rank-sum test.
func welchT(a, b []float64) domstats.RawTestResult {
	n1 := float64(len(a))
	n2 := float64(len(b))

	mean1 := mean(a)
	mean2 := mean(b)
	var1 := sampleVariance(a, mean1)
	var2 := sampleVariance(b, mean2)

	result := domstats.RawTestResult{
		Method:      domstats.TestWelchT,
		NA:          len(a),
		NB:          len(b),
		Effect:      mean1 - mean2,
		EffectLabel: "mean_diff",
	}

	se := math.Sqrt(var1/n1 + var2/n2)
	if se == 0 {
		// Both groups constant. Equal means carry no signal; unequal
		// constant means separate the groups perfectly.
		if mean1 == mean2 {
			result.Statistic = 0
			result.PValue = 1
		} else {
			result.Statistic = math.Inf(sign(mean1 - mean2))
			result.PValue = 0
		}
		return result
	}

	t := (mean1 - mean2) / se
	df := math.Pow(var1/n1+var2/n2, 2) /
		(math.Pow(var1/n1, 2)/(n1-1) + math.Pow(var2/n2, 2)/(n2-1))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	if p > 1 {
		p = 1
	}

	result.Statistic = t
	result.PValue = p
	return result
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleVariance is the unbiased (n-1) variance.
func sampleVariance(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(len(values)-1)
}

func sign(x float64) int {
	if x < 0 {
		return -1
	}
	return 1
}
