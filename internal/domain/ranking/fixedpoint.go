package ranking

import "math"

// valueFP is a fixed-point metric value. Ranking compares fixed-point values
// so that float noise from aggregation never splits a tie.
type valueFP int64

// valueScale keeps six decimal places.
const valueScale = 1e6

func toFixedPoint(x float64) valueFP {
	switch {
	case math.IsNaN(x):
		return 0
	case math.IsInf(x, 1):
		return valueFP(math.MaxInt64)
	case math.IsInf(x, -1):
		return valueFP(math.MinInt64)
	}
	scaled := math.Round(x * valueScale)
	if scaled >= math.MaxInt64 {
		return valueFP(math.MaxInt64)
	}
	if scaled <= math.MinInt64 {
		return valueFP(math.MinInt64)
	}
	return valueFP(scaled)
}
