// Package numerics implements the analytical core's math primitives: ATR,
// Hurst exponent, GARCH(p,q) fitting/forecasting, stationarity tests, FFT
// cycle detection, Jensen-Shannon divergence, and histogram binning.
//
// Every exported function is pure: no package-level state, all caches are
// structs passed in and returned explicitly instead of held globally,
// as a set of free functions over []float64 inputs.
package numerics

import "math"

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation of xs.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// LogReturns converts a price series into log-returns, one shorter than
// the input.
func LogReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			out[i-1] = 0
			continue
		}
		out[i-1] = math.Log(closes[i] / closes[i-1])
	}
	return out
}

// FiniteCount returns how many entries of xs are finite (not NaN/Inf),
// used by GARCH's garch_min_data gate.
func FiniteCount(xs []float64) int {
	n := 0
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			n++
		}
	}
	return n
}

// AnyNonFinite reports whether any value is NaN or infinite, used by the
// NumericsFatal error path.
func AnyNonFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}
