package orderflow

import (
	"context"
	"time"

	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/numerics"
	"github.com/Matswm86/Core/internal/numerics/pool"
	"github.com/Matswm86/Core/internal/store"
)

// Analyzer runs the C4 Order Flow analysis pipeline.
type Analyzer struct {
	cfg Config
	garchCfg numerics.GARCHConfig
	workerPool *pool.Pool // optional; nil means synchronous fit
}

func NewAnalyzer(cfg Config, garchCfg numerics.GARCHConfig, workerPool *pool.Pool) *Analyzer {
	return &Analyzer{cfg: cfg, garchCfg: garchCfg, workerPool: workerPool}
}

type weightedComponent struct {
	name string
	weight float64
	value float64 // in [0,1], signed contribution baked in by caller
}

func composeScore(components []weightedComponent) (float64, map[string]float64) {
	var num, den float64
	breakdown := make(map[string]float64, len(components))
	for _, c := range components {
		breakdown[c.name] = c.value
		if c.weight > 0 {
			num += c.weight * c.value
			den += c.weight
		}
	}
	if den <= 0 {
		return 0, breakdown
	}
	score := num / den * 10
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, breakdown
}

// componentWeight returns cfg's override for name if configured, else def.
func componentWeight(cfg Config, name string, def float64) float64 {
	if w, ok := cfg.ComponentWeights[name]; ok {
		return w
	}
	return def
}

// Analyze runs the full OF pipeline against a slot and a live tick
// snapshot. It returns the Result plus the updated Slot-owned state
// (Wyckoff is MS's concern; here we return the dynamic thresholds,
// priors, and GARCH cache for the caller to persist back onto the Slot
// under the orchestrator's single-writer lock).
func (a *Analyzer) Analyze(slot *store.Slot, tick domain.TickSnapshot, now time.Time, inventory domain.Inventory) (Result, store.DynamicThresholds, store.BayesianPrior, store.BayesianPrior, bool, float64, time.Time) {
	bars := slot.Bars.Snapshot()
	if len(bars) < 20 {
		return invalid("insufficient bar history for order flow analysis"), slot.Thresholds, slot.DeltaPrior, slot.ImbalancePrior, slot.GARCHFitted, slot.GARCHLastForecast, slot.GARCHLastForecastTime
	}

	closes := closesOf(bars)
	highs, lows := make([]float64, len(bars)), make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}
	atr := numerics.LatestATR(highs, lows, closes, a.cfg.ATRWindow)
	avgVolume := averageVolume(bars, a.cfg.VSAVolumeAvgPeriod)

	deltaHistory := slot.DeltaHistory.Snapshot()
	delta := analyzeDelta(bars, deltaHistory, 20)
	bidAsk := analyzeBidAsk(tick, slot.Thresholds.Imbalance)
	absorption := analyzeAbsorption(bars, atr, avgVolume, a.cfg)
	vsaSignal, vsaConfidence := evaluateVSA(bars, atr, a.cfg)
	jsd := flowDivergence(deltaHistory, a.cfg)

	garchForecast, garchFitted, garchFitTime := a.forecastVolatility(slot, closes, now)

	slot.ObserveDelta(delta.Cumulative)
	if bidAsk.Significant {
		slot.ObserveImbalance(bidAsk.Imbalance)
	}
	deltaPrior := updatePrior(slot.DeltaPrior, slot.DeltaObservations(), a.cfg.BayesUpdateBlendFactor)
	imbalancePrior := updatePrior(slot.ImbalancePrior, slot.ImbalanceObservations(), a.cfg.BayesUpdateBlendFactor)
	thresholds := updateDynamicThresholds(slot.Thresholds, deltaPrior, imbalancePrior, garchForecast, atr, a.cfg.VolatilityMultiplier, now, a.cfg.ThresholdUpdateInterval)

	institutionalComponent := 0.0
	if absorption.Detected {
		if absorption.Direction == DirUp {
			institutionalComponent = 1.0
		} else if absorption.Direction == DirDown {
			institutionalComponent = -1.0
		}
	}

	components := []weightedComponent{
		{"delta", componentWeight(a.cfg, "delta", 3.0), signedToUnit(delta.Sign * delta.Strength)},
		{"bid_ask", componentWeight(a.cfg, "bid_ask", 2.0), signedToUnit(boolSign(bidAsk.Significant, bidAsk.Imbalance))},
		{"absorption", componentWeight(a.cfg, "absorption", 2.0), signedToUnit(institutionalComponent)},
		{"vsa", componentWeight(a.cfg, "vsa", 1.5), vsaConfidence},
		{"consistency", componentWeight(a.cfg, "consistency", 1.0), delta.Consistency},
	}
	score, breakdown := composeScore(components)

	inventoryAdj := inventory.AdjustmentComponent()
	score += inventoryAdj * 10
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	direction := deriveDirection(delta, bidAsk, absorption)

	result := Result{
		Valid: true,
		Direction: direction,
		FlowScore: score,
		FlowScoreComponents: breakdown,
		GARCHVolatilityForecast: garchForecast,
		VSASignal: vsaSignal,
		VSAConfidence: vsaConfidence,
		FlowDivergenceScore: jsd.Score,
		FlowDivergenceInterpretation: string(jsd.Band),
		Delta: delta,
		BidAsk: bidAsk,
		Absorption: absorption,
		Inventory: inventoryAdj,
		AnalyzedAt: now,
	}
	return result, thresholds, deltaPrior, imbalancePrior, garchFitted, garchForecast, garchFitTime
}

// forecastVolatility fits/retrieves the GARCH forecast for this slot,
// offloading the fit to the worker pool when configured, and falling
// back to ATR-derived volatility on any failure.
func (a *Analyzer) forecastVolatility(slot *store.Slot, closes []float64, now time.Time) (forecast float64, fitted bool, fitTime time.Time) {
	shouldRefit := slot.GARCHLastFit.IsZero() || now.Sub(slot.GARCHLastFit) >= a.garchCfg.RetrainInterval

	var params *numerics.GARCHParams
	if shouldRefit {
		params = a.fitGARCH(closes, now)
	}

	if params == nil {
		// No fresh fit this call. Between refits the last forecast is
		// reused; a refit that failed or timed out leaves the cache
		// invalid and the caller falls back to ATR-based vol
		// (thresholds.go treats forecast<=0 as "use ATR").
		if !shouldRefit && slot.GARCHFitted {
			return slot.GARCHLastForecast, true, slot.GARCHLastFit
		}
		return 0, false, slot.GARCHLastFit
	}

	returns := numerics.LogReturns(closes)
	if len(returns) == 0 {
		return 0, false, now
	}
	lastPct := returns[len(returns)-1] * 100
	variance, ok := numerics.ForecastVariance(*params, lastPct, lastPct*lastPct)
	if !ok {
		return 0, false, now
	}
	tf := slot.Timeframe
	annualized := numerics.AnnualizedStdDev(variance, tf.BarsPerYear())
	return annualized, true, now
}

// fitGARCH refits the GARCH model, offloading to the worker pool under a
// deadline of RetrainInterval/10 when a pool is configured, falling back
// to a synchronous fit otherwise.
func (a *Analyzer) fitGARCH(closes []float64, now time.Time) *numerics.GARCHParams {
	if a.workerPool == nil {
		return numerics.FitGARCH(closes, a.garchCfg, now)
	}

	deadline := a.garchCfg.RetrainInterval / 10
	if deadline <= 0 {
		deadline = time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	job := func() (interface{}, error) {
		p := numerics.FitGARCH(closes, a.garchCfg, now)
		if p == nil {
			return nil, nil
		}
		return p, nil
	}
	v, err := a.workerPool.Submit(ctx, job)
	if err != nil || v == nil {
		return nil
	}
	params, ok := v.(*numerics.GARCHParams)
	if !ok {
		return nil
	}
	return params
}

func signedToUnit(v float64) float64 {
	// Maps a signed value roughly in [-1,1] to [0,1] for the shared
	// score-composition formula ("raw value v_i in [0,1]").
	u := (v + 1) / 2
	if u < 0 {
		u = 0
	}
	if u > 1 {
		u = 1
	}
	return u
}

func boolSign(significant bool, imbalance float64) float64 {
	if !significant {
		return 0
	}
	if imbalance > 0 {
		return 1
	}
	return -1
}

func deriveDirection(delta DeltaAnalysis, bidAsk BidAskAnalysis, absorption AbsorptionAnalysis) Direction {
	up, down := 0, 0
	tally := func(v float64) {
		if v > 0 {
			up++
		} else if v < 0 {
			down++
		}
	}
	tally(delta.Sign)
	if bidAsk.Significant {
		tally(bidAsk.Imbalance)
	}
	if absorption.Detected {
		if absorption.Direction == DirUp {
			up++
		} else if absorption.Direction == DirDown {
			down++
		}
	}
	switch {
	case up > down:
		return DirUp
	case down > up:
		return DirDown
	default:
		return DirNeutral
	}
}

func closesOf(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
