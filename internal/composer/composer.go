package composer

import (
	"context"
	"time"

	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/orderflow"
	"github.com/Matswm86/Core/internal/structure"
)

// Composer runs the C5 decision pipeline: it fuses an MS and OF result
// into a Decision per the configured Mode, then attaches SL/TP and the
// sizing confidence modifier shared across all three modes.
type Composer struct {
	cfg Config
	predictor domain.PredictorPort // nil unless Mode == ModePredictor
}

func New(cfg Config, predictor domain.PredictorPort) *Composer {
	return &Composer{cfg: cfg, predictor: predictor}
}

// Compose fuses ms and of against the given entry price and ATR,
// returning a Decision. ctx is only consulted in ModePredictor, where
// the predictor call may itself be cancellable.
func (c *Composer) Compose(ctx context.Context, ms structure.Result, of orderflow.Result, entry, atr float64, now time.Time) Decision {
	if !ms.Valid || !of.Valid {
		return suppressed("market structure or order flow analysis invalid", ms, of, 0)
	}

	switch c.cfg.Mode {
	case ModePredictor:
		return c.composePredictor(ctx, ms, of, entry, atr, now)
	case ModeGraphConfluence:
		return c.composeGraphConfluence(ms, of, entry, atr, now)
	default:
		return c.composeRuleBased(ms, of, entry, atr, now)
	}
}

func (c *Composer) composeRuleBased(ms structure.Result, of orderflow.Result, entry, atr float64, now time.Time) Decision {
	combinedScore, agreeUp, agreeDown := ruleBasedFusion(ms, of, c.cfg)
	buyThreshold, sellThreshold := effectiveThresholds(ms, c.cfg)

	var action domain.Action
	switch {
	case agreeUp && combinedScore >= buyThreshold:
		action = domain.ActionBuy
	case agreeDown && combinedScore >= sellThreshold:
		action = domain.ActionSell
	default:
		threshold := buyThreshold
		if agreeDown {
			threshold = sellThreshold
		}
		return suppressed(belowThresholdReason(combinedScore, threshold), ms, of, combinedScore)
	}

	return c.finalize(action, combinedScore, ms, of, entry, atr, now)
}

func (c *Composer) composePredictor(ctx context.Context, ms structure.Result, of orderflow.Result, entry, atr float64, now time.Time) Decision {
	if c.predictor == nil {
		return suppressed("predictor mode selected but no PredictorPort configured", ms, of, 0)
	}
	score, action, _, ok, err := predictorMode(ctx, c.predictor, ms, of, c.cfg)
	if err != nil {
		return suppressed("predictor error: "+err.Error(), ms, of, 0)
	}
	if !ok {
		return suppressed(belowThresholdReason(score, c.cfg.MLProbabilityThreshold*10), ms, of, score)
	}
	return c.finalize(action, score, ms, of, entry, atr, now)
}

func (c *Composer) composeGraphConfluence(ms structure.Result, of orderflow.Result, entry, atr float64, now time.Time) Decision {
	score, direction := graphConfluenceMode(ms, of)
	if direction == 0 {
		return suppressed("graph confluence found no dominant direction", ms, of, score)
	}
	action := domain.ActionBuy
	if direction < 0 {
		action = domain.ActionSell
	}
	return c.finalize(action, score, ms, of, entry, atr, now)
}

func (c *Composer) finalize(action domain.Action, score float64, ms structure.Result, of orderflow.Result, entry, atr float64, now time.Time) Decision {
	sl, tp, slReason, tpReason := constructStopsAndTargets(action, entry, atr, ms.NearestSupply, ms.NearestDemand, c.cfg)
	return Decision{
		Signal: true,
		Action: action,
		CombinedScore: score,
		ConfidenceModifier: confidenceModifier(score),
		Entry: entry,
		SL: sl,
		TP: tp,
		SLReason: slReason,
		TPReason: tpReason,
		MSDirection: ms.Direction,
		MSScore: ms.StructureScore,
		OFDirection: of.Direction,
		OFScore: of.FlowScore,
		NearestSupply: ms.NearestSupply,
		NearestDemand: ms.NearestDemand,
		AnalyzedAt: now,
	}
}

// zoneLow reports a zone's low edge for the audit trail; the exact edge
// used in the SL/TP calculation itself is already spelled out in
// SLReason/TPReason.
func zoneLow(z *structure.ZoneLevel) *float64 {
	if z == nil {
		return nil
	}
	low := z.Low
	return &low
}

// ToTrade assembles the downstream domain.Trade record from an accepted
// Decision, carrying the analyzer outputs into the audit metadata.
func ToTrade(d Decision, symbol string, tf domain.Timeframe, wyckoffPhase, vsaSignal string) domain.Trade {
	return domain.Trade{
		ID: domain.NewTradeID(),
		Symbol: symbol,
		Timeframe: tf,
		Timestamp: d.AnalyzedAt,
		Action: d.Action,
		Entry: d.Entry,
		SL: d.SL,
		TP: d.TP,
		Score: d.CombinedScore,
		ConfidenceModifier: d.ConfidenceModifier,
		Metadata: domain.TradeMetadata{
			MSDirection: string(d.MSDirection),
			MSScore: d.MSScore,
			OFDirection: string(d.OFDirection),
			OFScore: d.OFScore,
			WyckoffPhase: wyckoffPhase,
			NearestSupply: zoneLow(d.NearestSupply),
			NearestDemand: zoneLow(d.NearestDemand),
			VSASignal: vsaSignal,
			SLReason: d.SLReason,
			TPReason: d.TPReason,
		},
	}
}
