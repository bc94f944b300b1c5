package numerics

import "math"

// StationarityResult bundles ADF and KPSS test outcomes over a close
// series.
type StationarityResult struct {
	Valid bool
	ADFStatistic float64
	ADFPValue float64
	KPSSStatistic float64
	KPSSPValue float64
	IsStationary bool // interpreted against the configured threshold
}

// Stationarity runs a simplified augmented Dickey-Fuller regression and a
// KPSS-style variance-ratio test over closes, requiring at least 20
// points to avoid a degenerate fit.
// pThreshold is the significance level (default 0.05) both tests are
// interpreted against: ADF rejects the unit-root null (stationary) when
// its p-value < threshold; KPSS rejects its stationarity null (so is
// interpreted as non-stationary) when its p-value < threshold. The final
// IsStationary flag requires both tests to agree: ADF p-value below the
// threshold and KPSS p-value at or above it.
func Stationarity(closes []float64, pThreshold float64) StationarityResult {
	if len(closes) < 20 {
		return StationarityResult{Valid: false}
	}

	adfStat, adfP := adfTest(closes)
	kpssStat, kpssP := kpssTest(closes)
	if math.IsNaN(adfStat) || math.IsNaN(kpssStat) {
		return StationarityResult{Valid: false}
	}

	isStationary := adfP < pThreshold && kpssP >= pThreshold
	return StationarityResult{
		Valid: true,
		ADFStatistic: adfStat,
		ADFPValue: adfP,
		KPSSStatistic: kpssStat,
		KPSSPValue: kpssP,
		IsStationary: isStationary,
	}
}

// adfTest runs an unaugmented Dickey-Fuller regression
// delta(y_t) = a + rho*y_{t-1} + e_t and approximates the statistic's
// p-value via piecewise-linear interpolation of the t-statistic between
// the standard asymptotic critical values (-3.43 at 1%, -2.86 at 5%,
// -2.57 at 10%).
func adfTest(y []float64) (stat, pValue float64) {
	n := len(y) - 1
	if n < 3 {
		return math.NaN(), math.NaN()
	}
	lagged := y[:n]
	delta := make([]float64, n)
	for i := 0; i < n; i++ {
		delta[i] = y[i+1] - y[i]
	}

	rho, intercept := linearRegressionSlope(lagged, delta)
	if math.IsNaN(rho) {
		return math.NaN(), math.NaN()
	}

	var ssRes float64
	for i := 0; i < n; i++ {
		pred := intercept + rho*lagged[i]
		resid := delta[i] - pred
		ssRes += resid * resid
	}
	dof := float64(n - 2)
	if dof <= 0 {
		return math.NaN(), math.NaN()
	}
	sigma2 := ssRes / dof
	var sxx float64
	mx := Mean(lagged)
	for _, x := range lagged {
		d := x - mx
		sxx += d * d
	}
	if sxx <= 0 || sigma2 <= 0 {
		return math.NaN(), math.NaN()
	}
	seRho := math.Sqrt(sigma2 / sxx)
	tStat := rho / seRho

	pValue = adfPValueFromStatistic(tStat)
	return tStat, pValue
}

// adfPValueFromStatistic maps a DF t-statistic to an approximate p-value
// using the standard critical points as anchors for piecewise-linear
// interpolation.
func adfPValueFromStatistic(t float64) float64 {
	anchors := []struct{ stat, p float64 }{
		{-4.0, 0.005}, {-3.43, 0.01}, {-2.86, 0.05}, {-2.57, 0.10}, {-1.5, 0.40}, {0.0, 0.80}, {2.0, 0.99},
	}
	if t <= anchors[0].stat {
		return anchors[0].p
	}
	if t >= anchors[len(anchors)-1].stat {
		return anchors[len(anchors)-1].p
	}
	for i := 0; i < len(anchors)-1; i++ {
		a, b := anchors[i], anchors[i+1]
		if t >= a.stat && t <= b.stat {
			frac := (t - a.stat) / (b.stat - a.stat)
			return a.p + frac*(b.p-a.p)
		}
	}
	return 0.5
}

// kpssTest computes a KPSS-style statistic: the ratio of the partial-sum
// variance of residuals from a mean regression to the long-run variance,
// scaled by sample size. Higher statistics indicate non-stationarity.
func kpssTest(y []float64) (stat, pValue float64) {
	n := len(y)
	if n < 3 {
		return math.NaN(), math.NaN()
	}
	m := Mean(y)
	resid := make([]float64, n)
	for i, v := range y {
		resid[i] = v - m
	}

	var cumVar float64
	var cum float64
	for _, r := range resid {
		cum += r
		cumVar += cum * cum
	}
	longRunVar := variance(resid)
	if longRunVar <= 0 {
		return math.NaN(), math.NaN()
	}
	statVal := cumVar / (float64(n) * float64(n) * longRunVar)

	// KPSS critical values at 10/5/2.5/1%: 0.347, 0.463, 0.574, 0.739.
	anchors := []struct{ stat, p float64 }{
		{0.10, 0.90}, {0.347, 0.10}, {0.463, 0.05}, {0.574, 0.025}, {0.739, 0.01}, {1.2, 0.001},
	}
	if statVal <= anchors[0].stat {
		pValue = anchors[0].p
	} else if statVal >= anchors[len(anchors)-1].stat {
		pValue = anchors[len(anchors)-1].p
	} else {
		for i := 0; i < len(anchors)-1; i++ {
			a, b := anchors[i], anchors[i+1]
			if statVal >= a.stat && statVal <= b.stat {
				frac := (statVal - a.stat) / (b.stat - a.stat)
				pValue = a.p + frac*(b.p-a.p)
				break
			}
		}
	}
	return statVal, pValue
}
