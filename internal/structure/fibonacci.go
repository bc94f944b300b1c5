package structure

import "github.com/Matswm86/Core/internal/domain"

var fibRatios = []float64{0.236, 0.382, 0.5, 0.618, 0.786}

// activeFibLevel returns the active retracement ratio whose price band
// currently contains price, measured against the most recent confirmed
// swing high/low over `lookback` bars.
func activeFibLevel(bars []domain.Bar, lookback int, atr, bandATRFactor float64) *float64 {
	if len(bars) < lookback || lookback < 2 {
		return nil
	}
	segment := bars[len(bars)-lookback:]
	swingHigh, swingLow := segment[0].High, segment[0].Low
	for _, b := range segment {
		if b.High > swingHigh {
			swingHigh = b.High
		}
		if b.Low < swingLow {
			swingLow = b.Low
		}
	}
	span := swingHigh - swingLow
	if span <= 0 {
		return nil
	}
	price := bars[len(bars)-1].Close
	band := bandATRFactor * atr

	for _, ratio := range fibRatios {
		level := swingHigh - ratio*span
		if price >= level-band && price <= level+band {
			r := ratio
			return &r
		}
	}
	return nil
}

// activeHarmonic checks the four points from recentSwingPivots for a simple
// AB=CD ratio pattern, reporting the pattern name only within
// harmonicTolerance of the canonical ratio.
func activeHarmonic(bars []domain.Bar, tolerance float64) string {
	pivots := recentSwingPivots(bars, 4)
	if len(pivots) < 4 {
		return ""
	}
	a, b, c, d := pivots[0], pivots[1], pivots[2], pivots[3]
	ab := b - a
	cd := d - c
	if ab == 0 {
		return ""
	}
	ratio := cd / ab
	if ratio < 0 {
		ratio = -ratio
	}
	if absFloat(ratio-1.0) <= tolerance {
		return "AB=CD"
	}
	if absFloat(ratio-1.272) <= tolerance {
		return "AB=CD_1.272"
	}
	return ""
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// recentSwingPivots returns the closes of the last `count` bars (nil
// when fewer bars exist) as stand-ins for swing points; no
// pivot-detection pass is run and no high/low alternation is enforced
// (adequate for the harmonic check's coarse ratio test).
func recentSwingPivots(bars []domain.Bar, count int) []float64 {
	if len(bars) < count {
		return nil
	}
	tail := bars[len(bars)-count:]
	out := make([]float64, len(tail))
	for i, b := range tail {
		out[i] = b.Close
	}
	return out
}
