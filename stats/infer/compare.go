package infer

import (
	"fmt"

	domstats "immunostat/domain/stats"
	"immunostat/internal/errors"
)

// CompareGroups runs the selected two-group test. Degenerate inputs are
// signaled as distinguishable error conditions, never as a panic or a
// silent NaN:
//   - an empty group is an UndefinedResult for any method;
//   - Welch additionally needs two observations per group for a variance.
//
// All-identical values across both groups are NOT an error here: the
// statistic is defined, the p-value is reported as non-informative, and
// flagging the degenerate case is the caller's responsibility (see
// AllIdentical).
func CompareGroups(a, b []float64, method domstats.TestMethod) (domstats.RawTestResult, error) {
	if len(a) == 0 || len(b) == 0 {
		return domstats.RawTestResult{}, errors.UndefinedResult(
			fmt.Sprintf("%s requires at least one observation per group (got %d, %d)",
				method, len(a), len(b)))
	}

	switch method {
	case domstats.TestMannWhitney:
		return mannWhitney(a, b), nil
	case domstats.TestWelchT:
		if len(a) < 2 || len(b) < 2 {
			return domstats.RawTestResult{}, errors.UndefinedResult(
				fmt.Sprintf("welch_t requires at least two observations per group (got %d, %d)",
					len(a), len(b)))
		}
		return welchT(a, b), nil
	default:
		return domstats.RawTestResult{}, errors.InvalidInput(
			fmt.Sprintf("unsupported test method %q", method))
	}
}
