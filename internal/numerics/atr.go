package numerics

import "math"

// atrEpsilon floors ATR to a small positive value so downstream ratios
// (range/ATR, volume/avg) never divide by zero.
const atrEpsilon = 1e-8

// TrueRange computes the true range for bar i against the previous close.
// prevClose should be math.NaN() for the first bar, in which case the
// simple high-low range is used.
func TrueRange(high, low, prevClose float64) float64 {
	if math.IsNaN(prevClose) {
		return high - low
	}
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}

// ATR computes Wilder's smoothed Average True Range over the given window.
// highs/lows/closes must be equal length and chronologically ordered
// oldest-first. Leading bars that precede a full window are back-filled
// with the first computable ATR value, then floored to atrEpsilon.
func ATR(highs, lows, closes []float64, window int) []float64 {
	n := len(highs)
	out := make([]float64, n)
	if n == 0 || window <= 0 {
		return out
	}

	trs := make([]float64, n)
	for i := 0; i < n; i++ {
		prevClose := math.NaN()
		if i > 0 {
			prevClose = closes[i-1]
		}
		trs[i] = TrueRange(highs[i], lows[i], prevClose)
	}

	firstValid := -1
	var atr float64
	for i := 0; i < n; i++ {
		switch {
		case i+1 < window:
			out[i] = math.NaN()
		case i+1 == window:
			var sum float64
			for j := i - window + 1; j <= i; j++ {
				sum += trs[j]
			}
			atr = sum / float64(window)
			out[i] = floorEps(atr)
			firstValid = i
		default:
			atr = (atr*float64(window-1) + trs[i]) / float64(window)
			out[i] = floorEps(atr)
		}
	}

	if firstValid >= 0 {
		bfill := out[firstValid]
		for i := 0; i < firstValid; i++ {
			out[i] = bfill
		}
	} else if n > 0 {
		// Never reached a full window: fall back to a simple mean of
		// whatever true ranges we have, still floored.
		fallback := floorEps(Mean(trs))
		for i := range out {
			out[i] = fallback
		}
	}
	return out
}

// LatestATR is a convenience wrapper returning only the most recent value.
func LatestATR(highs, lows, closes []float64, window int) float64 {
	series := ATR(highs, lows, closes, window)
	if len(series) == 0 {
		return atrEpsilon
	}
	return series[len(series)-1]
}

func floorEps(v float64) float64 {
	if v < atrEpsilon {
		return atrEpsilon
	}
	return v
}
