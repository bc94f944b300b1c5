package orderflow

import (
	"testing"
	"time"

	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/numerics"
	"github.com/Matswm86/Core/internal/store"
)

func seedBars(slot *store.Slot, n int, fn func(i int) domain.Bar) {
	for i := 0; i < n; i++ {
		slot.Bars.Push(fn(i))
	}
}

func baseBar(symbol string, tf domain.Timeframe, t time.Time, open, high, low, close, volume float64) domain.Bar {
	return domain.Bar{
		Symbol: symbol, Timeframe: tf, Timestamp: t,
		Open: open, High: high, Low: low, Close: close, Volume: volume,
	}
}

func TestAnalyzer_InsufficientHistoryIsInvalid(t *testing.T) {
	slot := store.NewSlot("BTC-USD", domain.TF1Hour)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedBars(slot, 5, func(i int) domain.Bar {
		return baseBar(slot.Symbol, slot.Timeframe, base.Add(time.Duration(i)*time.Hour), 100, 101, 99, 100.5, 1000)
	})
	a := NewAnalyzer(DefaultConfig(), numerics.DefaultGARCHConfig(), nil)
	res, _, _, _, _, _, _ := a.Analyze(slot, domain.TickSnapshot{}, time.Now(), domain.Inventory{})
	if res.Valid {
		t.Fatalf("expected invalid result for insufficient bar history")
	}
}

// TestAnalyzer_VSANoSupply covers the down-bar, low-range, low-volume,
// close-above-previous-close NoSupply scenario: range/ATR=0.3,
// vol/avg=0.4, close>prev.close -> VSANoSupply, confidence 0.7.
func TestAnalyzer_VSANoSupply(t *testing.T) {
	slot := store.NewSlot("ETH-USD", domain.TF1Hour)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Build a flat history so ATR stabilizes around 1.0 and average
	// volume stabilizes around 1000.
	seedBars(slot, 30, func(i int) domain.Bar {
		return baseBar(slot.Symbol, slot.Timeframe, base.Add(time.Duration(i)*time.Hour), 100, 100.5, 99.5, 100, 1000)
	})
	// prev bar: close fixed reference point.
	prevTime := base.Add(30 * time.Hour)
	slot.Bars.Push(baseBar(slot.Symbol, slot.Timeframe, prevTime, 100, 100.5, 99.5, 100, 1000))
	// last bar: down bar (close<open), range/ATR=0.3, vol/avg=0.4,
	// close(100.2) > prev.close(100).
	lastTime := base.Add(31 * time.Hour)
	slot.Bars.Push(baseBar(slot.Symbol, slot.Timeframe, lastTime, 100.35, 100.35, 100.05, 100.2, 400))

	cfg := DefaultConfig()
	bars := slot.Bars.Snapshot()
	closes, highs, lows := make([]float64, len(bars)), make([]float64, len(bars)), make([]float64, len(bars))
	for i, b := range bars {
		closes[i], highs[i], lows[i] = b.Close, b.High, b.Low
	}
	atr := numerics.LatestATR(highs, lows, closes, cfg.ATRWindow)
	if atr <= 0 {
		t.Fatalf("expected positive ATR, got %.6f", atr)
	}

	signal, confidence := evaluateVSA(bars, atr, cfg)
	if signal != VSANoSupply {
		t.Fatalf("expected VSANoSupply, got %s (atr=%.6f)", signal, atr)
	}
	if confidence != 0.7 {
		t.Fatalf("expected confidence 0.7, got %.4f", confidence)
	}
}

func TestAnalyzer_GARCHUnavailableFallsBackToATR(t *testing.T) {
	slot := store.NewSlot("BTC-USD", domain.TF1Hour)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 100.0
	seedBars(slot, 200, func(i int) domain.Bar {
		price += 0.1
		return baseBar(slot.Symbol, slot.Timeframe, base.Add(time.Duration(i)*time.Hour), price-0.05, price+0.2, price-0.2, price, 1000)
	})

	garchCfg := numerics.DefaultGARCHConfig() // min_data=252, we only have 200 bars
	a := NewAnalyzer(DefaultConfig(), garchCfg, nil)
	res, _, _, _, garchFitted, forecast, _ := a.Analyze(slot, domain.TickSnapshot{}, time.Now(), domain.Inventory{})
	if !res.Valid {
		t.Fatalf("expected valid result with 200 bars")
	}
	if garchFitted {
		t.Fatalf("expected GARCH fit to fail with only 200 bars against min_data=252")
	}
	if forecast != 0 {
		t.Fatalf("expected null GARCH forecast, got %.6f", forecast)
	}
}

func TestDeriveDirection_MajorityWins(t *testing.T) {
	d := deriveDirection(
		DeltaAnalysis{Sign: 1},
		BidAskAnalysis{Significant: true, Imbalance: 0.5},
		AbsorptionAnalysis{Detected: true, Direction: DirDown},
	)
	if d != DirUp {
		t.Fatalf("expected DirUp on 2-1 majority, got %s", d)
	}
}

func TestComponentWeight_UsesConfiguredOverrideOverDefault(t *testing.T) {
	cfg := DefaultConfig()
	if w := componentWeight(cfg, "delta", 3.0); w != 3.0 {
		t.Fatalf("expected unconfigured component to use the default, got %.2f", w)
	}
	cfg.ComponentWeights = map[string]float64{"delta": 9.0}
	if w := componentWeight(cfg, "delta", 3.0); w != 9.0 {
		t.Fatalf("expected flow_weights override to win over the default, got %.2f", w)
	}
}

// TestAnalyzer_VSASpreadFactorScalesNarrowBandThreshold covers that a
// bar whose spread/ATR sits between the default narrow band (0.5) and a
// tightened one (0.2) only trips NoSupply once vsa_spread_factor is
// lowered to admit it.
func TestAnalyzer_VSASpreadFactorScalesNarrowBandThreshold(t *testing.T) {
	slot := store.NewSlot("ETH-USD", domain.TF1Hour)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seedBars(slot, 30, func(i int) domain.Bar {
		return baseBar(slot.Symbol, slot.Timeframe, base.Add(time.Duration(i)*time.Hour), 100, 100.5, 99.5, 100, 1000)
	})
	slot.Bars.Push(baseBar(slot.Symbol, slot.Timeframe, base.Add(30*time.Hour), 100, 100.5, 99.5, 100, 1000))
	// spread/ATR ~= 0.35: below the default 0.5 narrow band but above a
	// tightened 0.2 one.
	slot.Bars.Push(baseBar(slot.Symbol, slot.Timeframe, base.Add(31*time.Hour), 100.35, 100.35, 100.0, 100.2, 400))

	bars := slot.Bars.Snapshot()
	closes, highs, lows := make([]float64, len(bars)), make([]float64, len(bars)), make([]float64, len(bars))
	for i, b := range bars {
		closes[i], highs[i], lows[i] = b.Close, b.High, b.Low
	}
	cfg := DefaultConfig()
	atr := numerics.LatestATR(highs, lows, closes, cfg.ATRWindow)

	if signal, _ := evaluateVSA(bars, atr, cfg); signal != VSANoSupply {
		t.Fatalf("expected default spread factor 0.5 to admit NoSupply, got %s", signal)
	}

	cfg.VSASpreadFactor = 0.2
	if signal, _ := evaluateVSA(bars, atr, cfg); signal == VSANoSupply {
		t.Fatalf("expected tightened spread factor 0.2 to exclude this bar's wider spread")
	}
}

func TestComposeScore_BoundedAndBreaksDownByName(t *testing.T) {
	score, breakdown := composeScore([]weightedComponent{
		{name: "a", weight: 2, value: 1.0},
		{name: "b", weight: 1, value: 0.0},
	})
	if score < 0 || score > 10 {
		t.Fatalf("score out of bounds: %.4f", score)
	}
	if breakdown["a"] != 1.0 || breakdown["b"] != 0.0 {
		t.Fatalf("unexpected breakdown: %+v", breakdown)
	}
}

func TestUpdatePrior_BlendsTowardObservations(t *testing.T) {
	prior := store.BayesianPrior{Mean: 1.0, Variance: 0.5}
	updated := updatePrior(prior, []float64{2, 2, 2}, 0.5)
	if updated.Mean <= prior.Mean || updated.Mean >= 2.0 {
		t.Fatalf("expected blended mean strictly between prior and observation mean, got %.4f", updated.Mean)
	}
}

func TestUpdatePrior_EmptyObservationsIsNoOp(t *testing.T) {
	prior := store.BayesianPrior{Mean: 1.0, Variance: 0.5}
	updated := updatePrior(prior, nil, 0.5)
	if updated != prior {
		t.Fatalf("expected prior unchanged with no observations, got %+v", updated)
	}
}
