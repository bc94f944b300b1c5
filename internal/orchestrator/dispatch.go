package orchestrator

import (
	"context"
	"time"

	"github.com/Matswm86/Core/internal/composer"
	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/metrics"
	"github.com/Matswm86/Core/internal/numerics"
	"github.com/Matswm86/Core/internal/risk"
)

// OnTick caches the latest quote for a symbol, consulted by the next
// OnBar dispatch's order-flow pass. It never triggers analysis itself
// (analysis re-runs "on BAR").
func (o *Orchestrator) OnTick(symbol string, tick domain.TickSnapshot) {
	if err := tick.Validate(); err != nil {
		o.log.Warn().Str("symbol", symbol).Err(err).Msg("rejected invalid tick")
		return
	}
	if o.metrics != nil {
		o.metrics.TicksIngested.WithLabelValues(symbol).Inc()
	}
	o.ticksMu.Lock()
	o.ticks[symbol] = tick
	o.ticksMu.Unlock()
}

// latestTick returns the most recently cached tick for symbol, or a zero
// snapshot if none has arrived yet.
func (o *Orchestrator) latestTick(symbol string) domain.TickSnapshot {
	o.ticksMu.RLock()
	defer o.ticksMu.RUnlock()
	return o.ticks[symbol]
}

// OnBar drives the full C3->C4->C5->C6 pipeline for one bar event.
func (o *Orchestrator) OnBar(symbol string, tf domain.Timeframe, bar domain.Bar) {
	decision := o.dispatchBar(symbol, tf, bar)
	if decision.Trade != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := o.execution.Submit(ctx, *decision.Trade); err != nil {
			o.log.Error().Str("symbol", symbol).Err(err).Msg("signal submission failed")
		}
		if o.journal != nil {
			if _, err := o.journal.Append(ctx, *decision.Trade, decision.Checks); err != nil {
				o.log.Error().Str("symbol", symbol).Err(err).Msg("journal append failed")
			}
		}
	}
}

// OnFill applies a closed trade's realized PnL to the risk state so the
// rolling drawdown, win-rate, and Kelly inputs stay current.
func (o *Orchestrator) OnFill(fill domain.Fill) {
	if fill.Status != domain.FillFilled || fill.PnL == nil {
		return
	}
	o.riskState.RecordTrade(fill.Symbol, *fill.PnL, time.Now())
}

// dispatchBar is the testable core of OnBar: it acquires the
// (symbol,timeframe) slot lock, rejects events that arrived out of
// order, re-runs C3/C4 against the frozen ring snapshot, fuses the
// result via C5, and evaluates/sizes it via C6.
func (o *Orchestrator) dispatchBar(symbol string, tf domain.Timeframe, bar domain.Bar) Decision {
	limiter := o.limiterFor(symbol)
	if !limiter.Allow() {
		o.log.Warn().Str("symbol", symbol).Msg("bar dropped by rate limiter")
		return Decision{Symbol: symbol, Timeframe: tf, Accepted: false, Reason: "rate limited"}
	}

	lock := o.lockFor(symbol, tf)
	lock.Lock()
	defer lock.Unlock()

	k := slotKey{symbol, tf}
	o.lastProcessedMu.Lock()
	last, seen := o.lastProcessed[k]
	if seen && !bar.Timestamp.After(last) {
		o.lastProcessedMu.Unlock()
		o.log.Warn().Str("symbol", symbol).Time("bar_ts", bar.Timestamp).Time("last", last).Msg("bar event out of order, rejected")
		o.recordBarRejected(symbol, tf, "out_of_order")
		return Decision{Symbol: symbol, Timeframe: tf, Accepted: false, Reason: "event out of order"}
	}
	o.lastProcessed[k] = bar.Timestamp
	o.lastProcessedMu.Unlock()

	slot := o.registry.Slot(symbol, tf)
	push := slot.Bars.Push(bar)
	if !push.Accepted {
		reason := "bar rejected"
		metricReason := reason
		if push.Err != nil {
			reason = push.Err.Error()
			metricReason = push.Err.Reason
		}
		o.log.Warn().Str("symbol", symbol).Str("reason", reason).Msg("bar rejected by ring")
		o.recordBarRejected(symbol, tf, metricReason)
		return Decision{Symbol: symbol, Timeframe: tf, Accepted: false, Reason: reason}
	}
	if o.metrics != nil {
		o.metrics.BarsIngested.WithLabelValues(symbol, string(tf)).Inc()
	}

	now := bar.Timestamp // deterministic: the event's own timestamp, never wall-clock

	var msTimer, ofTimer *metrics.AnalyzerTimer
	if o.metrics != nil {
		msTimer = o.metrics.StartAnalyzerTimer("market_structure")
	}
	msResult, wyckoffState := o.msAnalyzer.Analyze(slot, now)
	if msTimer != nil {
		msTimer.Stop()
	}
	slot.Wyckoff = wyckoffState

	inventory := o.inventoryFor(symbol)
	if o.metrics != nil {
		ofTimer = o.metrics.StartAnalyzerTimer("order_flow")
	}
	wallStart := time.Now()
	ofResult, thresholds, deltaPrior, imbalancePrior, garchFitted, garchForecast, garchFitTime :=
	o.ofAnalyzer.Analyze(slot, o.latestTick(symbol), now, inventory)
	refit := garchFitTime.Equal(now) && !slot.GARCHLastFit.Equal(now)
	if ofTimer != nil {
		ofTimer.Stop()
	}
	slot.Thresholds = thresholds
	slot.DeltaPrior = deltaPrior
	slot.ImbalancePrior = imbalancePrior
	slot.GARCHFitted = garchFitted
	slot.GARCHLastForecast = garchForecast
	slot.GARCHLastFit = garchFitTime
	slot.GARCHLastForecastTime = garchFitTime
	if o.metrics != nil && refit {
		failureReason := ""
		if !garchFitted {
			failureReason = "did_not_converge"
		}
		o.metrics.RecordGARCHFit(symbol, string(tf), time.Since(wallStart), failureReason)
	}

	if !msResult.Valid || !ofResult.Valid {
		return Decision{Symbol: symbol, Timeframe: tf, Accepted: false, Reason: "analyzer invalid"}
	}

	bars := slot.Bars.Snapshot()
	atr, atrBaseline := atrAndBaseline(bars, o.cfg.ATRWindow)
	decision := o.composer.Compose(context.Background(), msResult, ofResult, bar.Close, atr, now)
	if !decision.Signal {
		if o.metrics != nil {
			o.metrics.SignalsSuppressed.WithLabelValues(symbol, o.cfg.ComposerMode).Inc()
		}
		return Decision{Symbol: symbol, Timeframe: tf, Accepted: false, Reason: decision.Reason}
	}

	sizing := o.riskEval.Evaluate(risk.SizingInput{
			Symbol:                symbol,
			Action:                decision.Action,
			Entry:                 decision.Entry,
			SL:                    decision.SL,
			Equity:                o.currentEquity(),
			ATR:                   atr,
			ATRBaseline:           atrBaseline,
			GARCHForecast:         garchForecast,
			GARCHAvailable:        garchFitted,
			HistoricalVolBaseline: atrBaseline,
			RiskLevel:             decision.ConfidenceModifier,
			PipValue:              o.cfg.PipValue,
			Now:                   now,
		})

	if !sizing.Accepted {
		if o.metrics != nil {
			o.metrics.RiskRejections.WithLabelValues(symbol, rejectedCheckName(sizing)).Inc()
		}
		return Decision{Symbol: symbol, Timeframe: tf, Accepted: false, Reason: sizing.Reason}
	}

	trade := composer.ToTrade(decision, symbol, tf, string(msResult.WyckoffPhase), string(ofResult.VSASignal))
	trade.Volume = sizing.Signal.Volume

	if o.metrics != nil {
		o.metrics.SignalsEmitted.WithLabelValues(symbol, string(trade.Action)).Inc()
		account := o.riskState.Snapshot(0)
		o.metrics.EquityPeak.Set(account.PeakEquity)
		if account.PeakEquity > 0 {
			o.metrics.Drawdown.Set((account.PeakEquity - account.Balance) / account.PeakEquity)
		}
	}

	return Decision{Symbol: symbol, Timeframe: tf, Accepted: true, Trade: &trade, Sizing: sizing.Signal, Checks: sizing.Checks}
}

// rejectedCheckName returns the name of the gate that failed an
// evaluation, for a stable metrics label (sizing.Reason itself carries
// interpolated values like cooldown durations and isn't label-safe).
func rejectedCheckName(eval risk.Evaluation) string {
	for i := len(eval.Checks) - 1; i >= 0; i-- {
		if !eval.Checks[i].Passed {
			return eval.Checks[i].Name
		}
	}
	return "unknown"
}

func (o *Orchestrator) recordBarRejected(symbol string, tf domain.Timeframe, reason string) {
	if o.metrics != nil {
		o.metrics.BarsRejected.WithLabelValues(symbol, string(tf), reason).Inc()
	}
}

// atrAndBaseline recomputes ATR from the slot's current bar snapshot,
// since neither analyzer Result carries it through explicitly (it is an
// internal intermediate of both C3's and C4's pipelines). The baseline
// is the same series' ATR over its full available history, giving the
// risk evaluator's volatility adjustment a stable reference to normalize
// against ("ATR ratio").
func atrAndBaseline(bars []domain.Bar, window int) (atr, baseline float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i], lows[i], closes[i] = b.High, b.Low, b.Close
	}
	atr = numerics.LatestATR(highs, lows, closes, window)
	baseline = numerics.LatestATR(highs, lows, closes, len(bars))
	return atr, baseline
}

func (o *Orchestrator) inventoryFor(symbol string) domain.Inventory {
	account := o.riskState.Snapshot(0)
	position := 0.0
	if p, ok := account.OpenPositions[symbol]; ok {
		position = p.Volume
	}
	return domain.Inventory{
		Symbol:            symbol,
		Position:          position,
		NeutralLevel:      o.cfg.InventoryNeutralLevel,
		MaxPosition:       o.cfg.InventoryMaxPosition,
		RiskAversion:      o.cfg.InventoryRiskAversion,
		MeanReversionRate: o.cfg.InventoryMeanReversionRate,
		LastUpdate:        time.Now(),
	}
}

func (o *Orchestrator) currentEquity() float64 {
	account := o.riskState.Snapshot(0)
	return account.Balance
}
