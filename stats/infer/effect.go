package infer

import (
	mstats "github.com/montanaflynn/stats"

	domstats "immunostat/domain/stats"
)

// Effect computes the distribution-free effect size for a two-group
// comparison: Cliff's delta over all cross-group pairs, plus the direction
// and magnitude of the median difference.
//
// Cliff's delta = (#pairs a>b - #pairs a<b) / (|A|*|B|), so it is
// antisymmetric: Effect(a,b).CliffsDelta == -Effect(b,a).CliffsDelta.
func Effect(a, b []float64) domstats.EffectSize {
	es := domstats.EffectSize{Direction: domstats.DirectionUndetermined}

	total := len(a) * len(b)
	if total > 0 {
		gt := 0
		lt := 0
		for _, x := range a {
			for _, y := range b {
				switch {
				case x > y:
					gt++
				case x < y:
					lt++
				}
			}
		}
		es.CliffsDelta = float64(gt-lt) / float64(total)
	}

	medA, errA := mstats.Median(mstats.Float64Data(a))
	medB, errB := mstats.Median(mstats.Float64Data(b))
	if errA != nil || errB != nil {
		return es
	}

	es.MedianDiff = medA - medB
	switch {
	case es.MedianDiff > 0:
		es.Direction = domstats.DirectionAHigher
	case es.MedianDiff < 0:
		es.Direction = domstats.DirectionBHigher
	default:
		es.Direction = domstats.DirectionNoDifference
	}
	return es
}
