package composer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/orderflow"
	"github.com/Matswm86/Core/internal/structure"
)

// TestCompose_NoSignalBelowThreshold covers:
// MS uptrend score=6.0, OF up score=6.0 -> combined_score=6.0 < 7.0.
func TestCompose_NoSignalBelowThreshold(t *testing.T) {
	ms := structure.Result{Valid: true, Direction: structure.DirUptrend, StructureScore: 6.0}
	of := orderflow.Result{Valid: true, Direction: orderflow.DirUp, FlowScore: 6.0}

	c := New(DefaultConfig(), nil)
	d := c.Compose(context.Background(), ms, of, 1.0850, 0.0010, time.Now())

	if d.Signal {
		t.Fatalf("expected no signal, got one: %+v", d)
	}
	if d.Reason == "" {
		t.Fatalf("expected a suppression reason")
	}
	wantSubstr := "Score < 7.0"
	if len(d.Reason) < len(wantSubstr) || !contains(d.Reason, wantSubstr) {
		t.Fatalf("expected reason to contain %q, got %q", wantSubstr, d.Reason)
	}
}

// TestCompose_RuleBuyWithZoneBasedSLTP covers scenario 2. The demand and
// supply zones are given distinct low/high edges wider than the buffer,
// so the test also pins down that a BUY reads each zone's Low and never
// its High or midpoint.
func TestCompose_RuleBuyWithZoneBasedSLTP(t *testing.T) {
	demand := structure.ZoneLevel{Low: 1.0800, High: 1.0820}
	supply := structure.ZoneLevel{Low: 1.0900, High: 1.0930}
	ms := structure.Result{
		Valid: true, Direction: structure.DirUptrend, StructureScore: 8.0,
		NearestDemand: &demand, NearestSupply: &supply,
	}
	of := orderflow.Result{Valid: true, Direction: orderflow.DirUp, FlowScore: 8.0}

	cfg := DefaultConfig()
	c := New(cfg, nil)
	d := c.Compose(context.Background(), ms, of, 1.0850, 0.0010, time.Now())

	require.True(t, d.Signal, "expected a BUY signal, got suppression: %s", d.Reason)
	assert.Equal(t, domain.ActionBuy, d.Action)
	assert.InDelta(t, 1.07980, d.SL, 1e-9, "expected SL from demand zone Low, not High or midpoint")
	assert.InDelta(t, 1.0898, d.TP, 1e-9, "expected TP from supply zone Low, not High or midpoint")
	assert.GreaterOrEqual(t, d.ConfidenceModifier, 0.5)
	assert.LessOrEqual(t, d.ConfidenceModifier, 1.2)
}

func TestCompose_RuleSellWithATRFallbackSLTP(t *testing.T) {
	ms := structure.Result{Valid: true, Direction: structure.DirDowntrend, StructureScore: 8.0}
	of := orderflow.Result{Valid: true, Direction: orderflow.DirDown, FlowScore: 8.0}

	cfg := DefaultConfig()
	c := New(cfg, nil)
	entry, atr := 1.0850, 0.0010
	d := c.Compose(context.Background(), ms, of, entry, atr, time.Now())

	require.True(t, d.Signal, "expected a SELL signal, got %+v", d)
	require.Equal(t, domain.ActionSell, d.Action)
	wantSL := entry + cfg.ATRMultipleForSL*atr
	assert.InDelta(t, wantSL, d.SL, 1e-9, "expected ATR-fallback SL")
	assert.Greater(t, d.SL, entry)
	assert.Less(t, d.TP, entry)
}

func TestCompose_InvalidInputsAreSuppressed(t *testing.T) {
	c := New(DefaultConfig(), nil)
	d := c.Compose(context.Background(), structure.Result{Valid: false}, orderflow.Result{Valid: true}, 1.0, 0.001, time.Now())
	if d.Signal {
		t.Fatalf("expected suppression when MS result is invalid")
	}
}

func TestGraphConfluence_AgreementAcrossFactsWins(t *testing.T) {
	ms := structure.Result{Valid: true, Direction: structure.DirUptrend, StructureScore: 8.0, WyckoffPhase: "markup", WyckoffConfidence: 7.0}
	of := orderflow.Result{
		Valid: true, Direction: orderflow.DirUp, FlowScore: 7.0,
		Delta: orderflow.DeltaAnalysis{Sign: 1, Strength: 0.8},
		BidAsk: orderflow.BidAskAnalysis{Significant: true, Imbalance: 0.4},
	}
	cfg := DefaultConfig()
	cfg.Mode = ModeGraphConfluence
	c := New(cfg, nil)
	d := c.Compose(context.Background(), ms, of, 1.0850, 0.0010, time.Now())

	if !d.Signal || d.Action != domain.ActionBuy {
		t.Fatalf("expected a BUY signal from agreeing up-facts, got %+v", d)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
