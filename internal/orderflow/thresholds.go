package orderflow

import (
	"time"

	"github.com/Matswm86/Core/internal/store"
)

// updatePrior blends a Bayesian {mean,variance} prior with a new batch
// of observations using bayes_update_blend_factor as an exponential
// window weight.
func updatePrior(prior store.BayesianPrior, observations []float64, blendFactor float64) store.BayesianPrior {
	if len(observations) == 0 {
		return prior
	}
	obsMean := meanOf(observations)
	obsVar := varianceOf(observations, obsMean)

	if prior.Variance == 0 && prior.Mean == 0 {
		return store.BayesianPrior{Mean: obsMean, Variance: obsVar}
	}
	return store.BayesianPrior{
		Mean: blendFactor*prior.Mean + (1-blendFactor)*obsMean,
		Variance: blendFactor*prior.Variance + (1-blendFactor)*obsVar,
	}
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func varianceOf(xs []float64, mean float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return ss / float64(len(xs))
}

// updateDynamicThresholds refreshes the slot's dynamic thresholds every
// threshold_update_interval seconds, scaling the delta threshold
// linearly with volatility via volatility_multiplier, preferring the
// GARCH forecast and falling back to ATR.
func updateDynamicThresholds(thresholds store.DynamicThresholds, deltaPrior, imbalancePrior store.BayesianPrior, garchForecast, atr, volatilityMultiplier float64, now time.Time, interval time.Duration) store.DynamicThresholds {
	if !thresholds.LastUpdate.IsZero() && now.Sub(thresholds.LastUpdate) < interval {
		return thresholds
	}
	volBasis := garchForecast
	if volBasis <= 0 {
		volBasis = atr
	}

	return store.DynamicThresholds{
		Delta: deltaPrior.Mean + volatilityMultiplier*volBasis,
		Imbalance: absf(imbalancePrior.Mean) + 0.1,
		Absorption: thresholds.Absorption,
		LastUpdate: now,
		VolBasis: volBasis,
	}
}
