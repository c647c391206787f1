package features

import (
	"fmt"
	"math"

	"immunostat/internal/errors"
)

// Pseudocount added to compositions before the log-ratio transform when a
// caller opts in via CLRWithPseudocount. Matches the value the trial's
// analysis has always used.
const Pseudocount = 1e-6

// CLRTransform computes the centered log-ratio of a composition vector:
// log of each component over the geometric mean of all components. The
// result is unconstrained real-valued data suitable for methods that
// assume it.
//
// Any component that is zero or negative makes the log undefined, so the
// call fails with InvalidInput; callers must apply a pseudocount or drop
// zero rows first.
func CLRTransform(composition []float64) ([]float64, error) {
	if len(composition) == 0 {
		return nil, errors.InvalidInput("empty composition vector")
	}

	logSum := 0.0
	for i, v := range composition {
		if v <= 0 {
			return nil, errors.InvalidInput(
				fmt.Sprintf("component %d is %g; log-ratio requires strictly positive values", i, v))
		}
		logSum += math.Log(v)
	}
	logGeoMean := logSum / float64(len(composition))

	out := make([]float64, len(composition))
	for i, v := range composition {
		out[i] = math.Log(v) - logGeoMean
	}
	return out, nil
}

// CLRWithPseudocount shifts every component by Pseudocount before the
// transform so zero components become representable. Absent components
// must already have been zero-filled by the caller.
func CLRWithPseudocount(composition []float64) ([]float64, error) {
	shifted := make([]float64, len(composition))
	for i, v := range composition {
		if v < 0 {
			return nil, errors.InvalidInput(fmt.Sprintf("component %d is negative", i))
		}
		shifted[i] = v + Pseudocount
	}
	return CLRTransform(shifted)
}
