package numerics

import "math"

// CycleResult reports the dominant detected cycle, if any.
type CycleResult struct {
	Found bool
	DominantPeriod float64 // in bars
	Power float64 // normalized spectral power, [0,1]
}

// DetectDominantCycle detrends closes (first-difference), computes the
// power spectrum via a naive DFT, and reports the dominant period when
// its normalized power clears fftDominantCycleThreshold (default 0.1).
func DetectDominantCycle(closes []float64, threshold float64) CycleResult {
	if len(closes) < 16 {
		return CycleResult{Found: false}
	}
	detrended := LogReturns(closes) // differencing detrend
	n := len(detrended)
	if n < 8 {
		return CycleResult{Found: false}
	}

	power := powerSpectrum(detrended)
	// power[k] corresponds to frequency k/n, k in [1, n/2]
	var totalPower float64
	for _, p := range power {
		totalPower += p
	}
	if totalPower <= 0 {
		return CycleResult{Found: false}
	}

	bestIdx := -1
	var bestPower float64
	for k := 1; k < len(power); k++ {
		norm := power[k] / totalPower
		if norm > bestPower {
			bestPower = norm
			bestIdx = k
		}
	}
	if bestIdx < 0 || bestPower < threshold {
		return CycleResult{Found: false, Power: bestPower}
	}

	freq := float64(bestIdx) / float64(n)
	period := 1.0 / freq
	return CycleResult{Found: true, DominantPeriod: period, Power: bestPower}
}

// powerSpectrum computes |DFT(x)|^2 for the non-negative frequencies via
// a direct O(n^2) DFT. Series lengths handled by this kernel (bounded by
// ring sizes of a few hundred bars) keep this tractable without pulling
// in an FFT library dependency; see DESIGN.md.
func powerSpectrum(x []float64) []float64 {
	n := len(x)
	out := make([]float64, n/2+1)
	for k := 0; k <= n/2; k++ {
		var re, im float64
		for t := 0; t < n; t++ {
			theta := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			re += x[t] * math.Cos(theta)
			im += x[t] * math.Sin(theta)
		}
		out[k] = re*re + im*im
	}
	return out
}
