package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matswm86/Core/internal/config"
	"github.com/Matswm86/Core/internal/domain"
)

func testRiskConfig() config.RiskConfig {
	return config.RiskConfig{
		MaxDrawdown: 0.04,
		RiskPerTrade: 0.01,
		MaxTradesPerDay: 10,
		MaxConsecutiveLosses: 5,
		MaxPositionSize: 10,
		MinVolume: 0.01,
		VolumeStep: 0.01,
		MaxCorrelationExposure: 0.3,
		VarConfidenceLevel: 0.99,
		MaxPortfolioVarRatio: 0.05,
		TradeCooldownMinutes: 0,
		LossCooldownMultiplier: 2.0,
	}
}

func testKellyConfig() config.KellyConfig {
	return config.KellyConfig{UseKellySizing: false, KellyFraction: 0.5, MinTradesForKelly: 50}
}

// TestEvaluate_RollingDrawdownSequence covers:
// balance sequence 100000->98000->97000->96500 with peak=100000 gives
// drawdown=0.035 (<0.04, accepts); a further PnL=-600 trade brings
// drawdown to 0.041, which must be rejected.
func TestEvaluate_RollingDrawdownSequence(t *testing.T) {
	state := domain.NewRiskState(100000)
	now := time.Now()

	for _, pnl := range []float64{-2000, -1000, -500} {
		state.RecordTrade("EURUSD", pnl, now)
	}
	// balance is now 96500, peak stays 100000: drawdown = 0.035.
	eval := New(testRiskConfig(), testKellyConfig(), state)
	in := SizingInput{Symbol: "EURUSD", Action: domain.ActionBuy, Entry: 1.085, SL: 1.080, Equity: 96500, RiskLevel: 1.0, PipValue: 10, Now: now}
	result := eval.Evaluate(in)
	if !result.Accepted {
		t.Fatalf("expected drawdown 0.035 to accept, got rejection: %s", result.Reason)
	}

	// A further -600 PnL pushes equity to 95900: drawdown = 0.041 >= 0.04.
	state.RecordTrade("EURUSD", -600, now)
	in.Equity = 95900
	result = eval.Evaluate(in)
	if result.Accepted {
		t.Fatalf("expected drawdown 0.041 to be rejected")
	}
	if !contains(result.Reason, "Max Rolling Drawdown breached") {
		t.Fatalf("expected drawdown rejection reason, got %q", result.Reason)
	}
}

// TestEvaluate_KellyDisabledBelowHistory covers:
// trade_history_count=30 < min_trades_for_kelly=50 forces Fixed
// Fractional sizing even when use_kelly_sizing is true.
func TestEvaluate_KellyDisabledBelowHistory(t *testing.T) {
	state := domain.NewRiskState(100000)
	now := time.Now()
	for i := 0; i < 30; i++ {
		pnl := 100.0
		if i%3 == 0 {
			pnl = -50.0
		}
		state.RecordTrade("EURUSD", pnl, now)
	}

	kelly := testKellyConfig()
	kelly.UseKellySizing = true
	eval := New(testRiskConfig(), kelly, state)

	in := SizingInput{
		Symbol: "EURUSD", Action: domain.ActionBuy, Entry: 1.085, SL: 1.080,
		Equity: state.Snapshot(0).Balance, RiskLevel: 1.0, PipValue: 10, Now: now,
	}
	result := eval.Evaluate(in)
	require.True(t, result.Accepted, "expected sizing to accept, got rejection: %s", result.Reason)
	assert.Equal(t, SizingFixedFractional, result.Signal.SizingMethod, "expected Fixed Fractional sizing below Kelly history threshold")
}

func TestEvaluate_KellyUsedAboveHistory(t *testing.T) {
	state := domain.NewRiskState(100000)
	now := time.Now()
	for i := 0; i < 60; i++ {
		pnl := 150.0
		if i%3 == 0 {
			pnl = -50.0
		}
		state.RecordTrade("EURUSD", pnl, now)
	}

	kelly := testKellyConfig()
	kelly.UseKellySizing = true
	eval := New(testRiskConfig(), kelly, state)

	in := SizingInput{
		Symbol: "EURUSD", Action: domain.ActionBuy, Entry: 1.085, SL: 1.080,
		Equity: state.Snapshot(0).Balance, RiskLevel: 1.0, PipValue: 10, Now: now,
	}
	result := eval.Evaluate(in)
	require.True(t, result.Accepted, "expected sizing to accept, got rejection: %s", result.Reason)
	assert.Equal(t, SizingKelly, result.Signal.SizingMethod, "expected Kelly sizing above history threshold")
}

func TestEvaluate_DailyLossCapRejects(t *testing.T) {
	state := domain.NewRiskState(100000)
	now := time.Now()
	state.RecordTrade("EURUSD", -6000, now)

	cfg := testRiskConfig()
	cfg.MaxDailyLoss = 0.05
	eval := New(cfg, testKellyConfig(), state)

	in := SizingInput{Symbol: "EURUSD", Action: domain.ActionBuy, Entry: 1.085, SL: 1.08, Equity: 94000, RiskLevel: 1.0, PipValue: 10, Now: now}
	result := eval.Evaluate(in)
	if result.Accepted {
		t.Fatalf("expected daily loss cap to reject")
	}
}

func TestEvaluate_CooldownBlocksImmediateRetrade(t *testing.T) {
	state := domain.NewRiskState(100000)
	now := time.Now()
	state.RecordTrade("EURUSD", 100, now)

	cfg := testRiskConfig()
	cfg.TradeCooldownMinutes = 15
	eval := New(cfg, testKellyConfig(), state)

	in := SizingInput{Symbol: "EURUSD", Action: domain.ActionBuy, Entry: 1.085, SL: 1.08, Equity: 100100, RiskLevel: 1.0, PipValue: 10, Now: now.Add(time.Minute)}
	result := eval.Evaluate(in)
	if result.Accepted {
		t.Fatalf("expected trade cooldown to block immediate retrade")
	}
}

func TestEvaluate_LossCooldownLongerThanTradeCooldown(t *testing.T) {
	state := domain.NewRiskState(100000)
	now := time.Now()
	state.RecordTrade("EURUSD", -100, now)

	cfg := testRiskConfig()
	cfg.TradeCooldownMinutes = 15
	cfg.LossCooldownMultiplier = 2.0
	eval := New(cfg, testKellyConfig(), state)

	// 20 minutes elapsed: past the plain 15-minute cooldown, but short of
	// the loss-multiplied 30-minute cooldown.
	in := SizingInput{Symbol: "EURUSD", Action: domain.ActionBuy, Entry: 1.085, SL: 1.08, Equity: 99900, RiskLevel: 1.0, PipValue: 10, Now: now.Add(20 * time.Minute)}
	result := eval.Evaluate(in)
	if result.Accepted {
		t.Fatalf("expected loss-multiplied cooldown to still be active after 20 minutes")
	}
}

func TestSize_FixedFractionalRespectsVolumeStepAndClamp(t *testing.T) {
	state := domain.NewRiskState(10000)
	eval := New(testRiskConfig(), testKellyConfig(), state)
	account := state.Snapshot(10000)

	in := SizingInput{Symbol: "EURUSD", Entry: 1.1000, SL: 1.0990, RiskLevel: 1.0, PipValue: 10}
	signal := eval.size(account, in)

	if signal.SizingMethod != SizingFixedFractional {
		t.Fatalf("expected fixed fractional sizing by default")
	}
	steps := signal.Volume / testRiskConfig().VolumeStep
	if steps != float64(int64(steps+0.5)) {
		t.Fatalf("expected volume %.4f to be a multiple of volume_step", signal.Volume)
	}
	if signal.Volume < testRiskConfig().MinVolume || signal.Volume > testRiskConfig().MaxPositionSize {
		t.Fatalf("expected volume within [min_volume,max_position_size], got %.4f", signal.Volume)
	}
}

func TestCorrelationFactor_ReducesWithExposure(t *testing.T) {
	state := domain.NewRiskState(100000)
	state.OpenPosition(domain.OpenPosition{Symbol: "GBPUSD", Volume: 1, Entry: 1.3, RiskBudget: 20000})
	state.InstallCorrelation(&domain.CorrelationMatrix{
		Symbols: []string{"EURUSD", "GBPUSD"},
		Values:  [][]float64{{1, 0.9}, {0.9, 1}},
	})

	cfg := testRiskConfig()
	cfg.MaxCorrelationExposure = 0.3
	eval := New(cfg, testKellyConfig(), state)
	account := state.Snapshot(100000)

	factor := eval.correlationFactor(account, "EURUSD")
	if factor >= 1.0 {
		t.Fatalf("expected correlated exposure to reduce the factor below 1.0, got %.4f", factor)
	}
	if factor < 0.1 {
		t.Fatalf("expected factor to floor at 0.1, got %.4f", factor)
	}
}

func TestVolatilityFactor_GARCHPreferredOverATR(t *testing.T) {
	eval := New(testRiskConfig(), testKellyConfig(), domain.NewRiskState(1000))
	in := SizingInput{
		GARCHAvailable: true, GARCHForecast: 0.02, HistoricalVolBaseline: 0.01,
		ATR: 0.005, ATRBaseline: 0.01,
	}
	factor := eval.volatilityFactor(in)
	if !approxEqual(factor, 0.5, 1e-9) {
		t.Fatalf("expected GARCH-derived factor 0.5, got %.4f", factor)
	}
}

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
