package service

import "math"

// minViewsPerVariant is the floor below which a variant comparison is not
// attempted at all.
const minViewsPerVariant = 30

// significanceThreshold is the confidence a test must reach to complete with
// a winner.
const significanceThreshold = 0.80

// twoProportionZ computes the z statistic for the difference between two
// engagement proportions. Each variant contributes its own variance
// rate*(1-rate)/n, so an undersampled variant widens the combined standard
// error instead of being averaged away. Returns 0 when both variances
// collapse (each proportion 0 or 1).
func twoProportionZ(rateA float64, nA int64, rateB float64, nB int64) float64 {
	if nA <= 0 || nB <= 0 {
		return 0
	}
	varA := rateA * (1 - rateA) / float64(nA)
	varB := rateB * (1 - rateB) / float64(nB)
	se := math.Sqrt(varA + varB)
	if se == 0 {
		return 0
	}
	return math.Abs(rateA-rateB) / se
}

// confidenceForZ maps a z statistic onto coarse confidence tiers. Below the
// lowest tier the score degrades linearly so near-misses still read as
// "almost there" rather than zero.
func confidenceForZ(z float64) float64 {
	switch {
	case z >= 1.96:
		return 0.95
	case z >= 1.645:
		return 0.90
	case z >= 1.282:
		return 0.80
	default:
		return math.Min(0.5, z/1.96*0.95)
	}
}
