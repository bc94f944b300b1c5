package numerics

import "math"

// HurstInterpretation is the qualitative label attached to the Hurst
// exponent.
type HurstInterpretation string

const (HurstTrending HurstInterpretation = "trending"
	HurstMeanReverting HurstInterpretation = "mean_reverting"
	HurstRandom HurstInterpretation = "random")

// HurstResult bundles the exponent and its interpretation.
type HurstResult struct {
	Valid bool
	Exponent float64
	Interpretation HurstInterpretation
}

// HurstRS computes the Hurst exponent via rescaled-range (R/S) analysis
// over closes, requiring a window of at least 100 bars.
// hUp/hDn are the trending/mean-reverting thresholds (defaults 0.55/0.45).
func HurstRS(closes []float64, hUp, hDn float64) HurstResult {
	if len(closes) < 100 {
		return HurstResult{Valid: false}
	}
	returns := LogReturns(closes)
	if AnyNonFinite(returns) || len(returns) < 99 {
		return HurstResult{Valid: false}
	}

	// R/S analysis across a geometric ladder of sub-series lengths.
	n := len(returns)
	var lags []int
	for lag := 10; lag <= n/2; lag *= 2 {
		lags = append(lags, lag)
	}
	if len(lags) < 2 {
		return HurstResult{Valid: false}
	}

	var logLags, logRS []float64
	for _, lag := range lags {
		rsAvg := averageRS(returns, lag)
		if rsAvg <= 0 || math.IsNaN(rsAvg) {
			continue
		}
		logLags = append(logLags, math.Log(float64(lag)))
		logRS = append(logRS, math.Log(rsAvg))
	}
	if len(logLags) < 2 {
		return HurstResult{Valid: false}
	}

	h, _ := linearRegressionSlope(logLags, logRS)
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return HurstResult{Valid: false}
	}

	interp := HurstRandom
	switch {
	case h > hUp:
		interp = HurstTrending
	case h < hDn:
		interp = HurstMeanReverting
	}
	return HurstResult{Valid: true, Exponent: h, Interpretation: interp}
}

// averageRS computes the mean rescaled range across non-overlapping
// windows of the given length.
func averageRS(series []float64, length int) float64 {
	if length < 2 {
		return 0
	}
	var sum float64
	count := 0
	for start := 0; start+length <= len(series); start += length {
		window := series[start : start+length]
		m := Mean(window)
		var cum, maxCum, minCum float64
		for i, v := range window {
			cum += v - m
			if i == 0 || cum > maxCum {
				maxCum = cum
			}
			if i == 0 || cum < minCum {
				minCum = cum
			}
		}
		r := maxCum - minCum
		s := StdDev(window)
		if s <= 0 {
			continue
		}
		sum += r / s
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// linearRegressionSlope performs ordinary least squares for y = a + b*x,
// returning the slope b and intercept a.
func linearRegressionSlope(xs, ys []float64) (slope, intercept float64) {
	n := float64(len(xs))
	if n == 0 {
		return math.NaN(), math.NaN()
	}
	mx, my := Mean(xs), Mean(ys)
	var num, den float64
	for i := range xs {
		dx := xs[i] - mx
		num += dx * (ys[i] - my)
		den += dx * dx
	}
	if den == 0 {
		return math.NaN(), math.NaN()
	}
	slope = num / den
	intercept = my - slope*mx
	return slope, intercept
}
