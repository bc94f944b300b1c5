package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/Matswm86/Core/internal/composer"
	"github.com/Matswm86/Core/internal/config"
	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/logx"
	"github.com/Matswm86/Core/internal/numerics"
	"github.com/Matswm86/Core/internal/numerics/pool"
	"github.com/Matswm86/Core/internal/orderflow"
	"github.com/Matswm86/Core/internal/risk"
	"github.com/Matswm86/Core/internal/store"
	"github.com/Matswm86/Core/internal/structure"
)

// stubExecution is a domain.ExecutionPort test double recording every
// submitted trade.
type stubExecution struct {
	submitted []domain.Trade
	submitErr error
}

func (s *stubExecution) Submit(ctx context.Context, signal domain.Trade) error {
	s.submitted = append(s.submitted, signal)
	return s.submitErr
}
func (s *stubExecution) Modify(ctx context.Context, ticket string, sl, tp *float64) error { return nil }
func (s *stubExecution) Cancel(ctx context.Context, ticket string) error { return nil }
func (s *stubExecution) Positions(ctx context.Context) ([]domain.OpenPosition, error) {
	return nil, nil
}
func (s *stubExecution) AccountStatus(ctx context.Context) (domain.AccountStatus, error) {
	return domain.AccountStatus{}, nil
}

func newTestOrchestrator() (*Orchestrator, *stubExecution) {
	registry := store.NewRegistry()
	msAnalyzer := structure.NewAnalyzer(structure.DefaultConfig())
	workerPool := pool.New(2, time.Second, 5*time.Second)
	ofAnalyzer := orderflow.NewAnalyzer(orderflow.DefaultConfig(), numerics.DefaultGARCHConfig(), workerPool)
	comp := composer.New(composer.DefaultConfig(), nil)
	riskState := domain.NewRiskState(100000)
	riskEval := risk.New(config.RiskConfig{
			MaxDrawdown: 0.04, MaxPositionSize: 10, MinVolume: 0.01, VolumeStep: 0.01,
			MaxPortfolioVarRatio: 0.05, VarConfidenceLevel: 0.99,
		}, config.KellyConfig{MinTradesForKelly: 50}, riskState)
	exec := &stubExecution{}

	cfg := DefaultConfig()
	o := New(cfg, registry, msAnalyzer, ofAnalyzer, comp, riskEval, riskState, exec, nil, logx.ForComponent("orchestrator_test"))
	return o, exec
}

func makeBar(symbol string, ts time.Time, close float64) domain.Bar {
	return domain.Bar{
		Symbol: symbol, Timeframe: domain.TF1Min, Timestamp: ts,
		Open: close, High: close + 0.001, Low: close - 0.001, Close: close, Volume: 100,
	}
}

// TestDispatchBar_InsufficientHistoryIsSuppressedNotSignaled covers the
// cold-start case: with too little bar history, both analyzers report
// Valid=false and dispatchBar must reject without ever reaching the
// composer or risk evaluator.
func TestDispatchBar_InsufficientHistoryIsSuppressedNotSignaled(t *testing.T) {
	o, exec := newTestOrchestrator()
	now := time.Now()

	decision := o.dispatchBar("EURUSD", domain.TF1Min, makeBar("EURUSD", now, 1.0850))
	if decision.Accepted {
		t.Fatalf("expected no signal on cold start, got accepted decision: %+v", decision)
	}
	if len(exec.submitted) != 0 {
		t.Fatalf("expected no trade submission on cold start")
	}
}

// TestDispatchBar_RejectsOutOfOrderEvents covers out-of-order rejection:
// a BAR event with a timestamp <= the last processed one for the same
// (symbol,timeframe) must be rejected before the ring ever sees it.
func TestDispatchBar_RejectsOutOfOrderEvents(t *testing.T) {
	o, _ := newTestOrchestrator()
	now := time.Now()

	first := o.dispatchBar("EURUSD", domain.TF1Min, makeBar("EURUSD", now, 1.0850))
	if first.Reason == "event out of order" {
		t.Fatalf("first bar should not be rejected as out of order")
	}

	stale := o.dispatchBar("EURUSD", domain.TF1Min, makeBar("EURUSD", now, 1.0860))
	if stale.Accepted || stale.Reason != "event out of order" {
		t.Fatalf("expected equal-timestamp bar to be rejected as out of order, got %+v", stale)
	}

	earlier := o.dispatchBar("EURUSD", domain.TF1Min, makeBar("EURUSD", now.Add(-time.Minute), 1.0840))
	if earlier.Accepted || earlier.Reason != "event out of order" {
		t.Fatalf("expected earlier-timestamp bar to be rejected as out of order, got %+v", earlier)
	}
}

// TestDispatchBar_RateLimiterDropsExcessBars covers the per-symbol
// token-bucket limiter applied ahead of slot acquisition.
func TestDispatchBar_RateLimiterDropsExcessBars(t *testing.T) {
	o, _ := newTestOrchestrator()
	o.cfg.RateLimitPerSecond = 1
	o.cfg.RateLimitBurst = 1

	now := time.Now()
	first := o.dispatchBar("EURUSD", domain.TF1Min, makeBar("EURUSD", now, 1.0850))
	if first.Reason == "rate limited" {
		t.Fatalf("first bar within burst should not be rate limited")
	}

	second := o.dispatchBar("EURUSD", domain.TF1Min, makeBar("EURUSD", now.Add(time.Minute), 1.0851))
	if second.Accepted || second.Reason != "rate limited" {
		t.Fatalf("expected second immediate bar to be rate limited, got %+v", second)
	}
}

// TestDispatchBar_PerSymbolSlotsAreIndependent checks that rejecting an
// out-of-order event on one symbol does not affect another.
func TestDispatchBar_PerSymbolSlotsAreIndependent(t *testing.T) {
	o, _ := newTestOrchestrator()
	now := time.Now()

	o.dispatchBar("EURUSD", domain.TF1Min, makeBar("EURUSD", now, 1.0850))
	decision := o.dispatchBar("GBPUSD", domain.TF1Min, makeBar("GBPUSD", now, 1.2650))
	if decision.Reason == "event out of order" {
		t.Fatalf("GBPUSD slot should be independent of EURUSD's lastProcessed state")
	}
}

// TestOnTick_RejectsInvalidTickWithoutCaching covers
// tick validation: a crossed book (bid > ask) must be rejected and never
// cached for the next OnBar's order-flow pass.
func TestOnTick_RejectsInvalidTickWithoutCaching(t *testing.T) {
	o, _ := newTestOrchestrator()
	bad := domain.TickSnapshot{Symbol: "EURUSD", Bid: 1.0860, Ask: 1.0850, Timestamp: time.Now()}
	o.OnTick("EURUSD", bad)

	cached := o.latestTick("EURUSD")
	if cached.Bid != 0 || cached.Ask != 0 {
		t.Fatalf("expected invalid tick not to be cached, got %+v", cached)
	}
}

// TestOnTick_CachesValidTick confirms a well-formed tick is retained for
// the next OnBar dispatch.
func TestOnTick_CachesValidTick(t *testing.T) {
	o, _ := newTestOrchestrator()
	good := domain.TickSnapshot{Symbol: "EURUSD", Bid: 1.0849, Ask: 1.0851, Timestamp: time.Now()}
	o.OnTick("EURUSD", good)

	cached := o.latestTick("EURUSD")
	if cached.Bid != good.Bid || cached.Ask != good.Ask {
		t.Fatalf("expected cached tick to match submission, got %+v", cached)
	}
}

// TestOnFill_RecordsRealizedPnLOnlyWhenFilled covers that only a filled
// fill with a non-nil PnL feeds RiskState.RecordTrade.
func TestOnFill_RecordsRealizedPnLOnlyWhenFilled(t *testing.T) {
	o, _ := newTestOrchestrator()
	before := o.riskState.Snapshot(0).Balance

	pending := domain.Fill{Symbol: "EURUSD", Status: domain.FillPartial}
	o.OnFill(pending)
	if got := o.riskState.Snapshot(0).Balance; got != before {
		t.Fatalf("partial fill must not move balance, got %.2f want %.2f", got, before)
	}

	pnl := 250.0
	o.OnFill(domain.Fill{Symbol: "EURUSD", Status: domain.FillFilled, PnL: &pnl})
	if got := o.riskState.Snapshot(0).Balance; got != before+pnl {
		t.Fatalf("expected balance to increase by realized PnL, got %.2f want %.2f", got, before+pnl)
	}
}
