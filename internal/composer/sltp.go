package composer

import (
	"fmt"

	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/structure"
)

// constructStopsAndTargets builds SL/TP against supply/demand zones with
// an ATR fallback, shared across all three decision modes.
// nearestSupply/nearestDemand carry each zone's full [Low,High] pair;
// which edge is relevant depends on the action, not the zone alone: a
// BUY reads the low edge of both zones (SL below demand, TP below
// supply), a SELL reads the high edge of both (SL above supply, TP
// above demand).
func constructStopsAndTargets(action domain.Action, entry, atr float64, nearestSupply, nearestDemand *structure.ZoneLevel, cfg Config) (sl, tp float64, slReason, tpReason string) {
	switch action {
	case domain.ActionBuy:
		if nearestDemand != nil {
			sl = nearestDemand.Low - cfg.SLBufferATR*atr
			slReason = fmt.Sprintf("nearest demand zone low %.5f minus sl_buffer_atr*ATR", nearestDemand.Low)
		} else {
			sl = entry - cfg.ATRMultipleForSL*atr
			slReason = "no demand zone available; atr_multiple_for_sl fallback"
		}

		if nearestSupply != nil {
			tp = nearestSupply.Low - cfg.SLBufferATR*atr
			tpReason = fmt.Sprintf("nearest supply zone low %.5f minus sl_buffer_atr*ATR", nearestSupply.Low)
		} else {
			risk := entry - sl
			tp = entry + cfg.RiskRewardRatio*risk
			tpReason = "no supply zone available; risk_reward_ratio fallback"
		}

	case domain.ActionSell:
		if nearestSupply != nil {
			sl = nearestSupply.High + cfg.SLBufferATR*atr
			slReason = fmt.Sprintf("nearest supply zone high %.5f plus sl_buffer_atr*ATR", nearestSupply.High)
		} else {
			sl = entry + cfg.ATRMultipleForSL*atr
			slReason = "no supply zone available; atr_multiple_for_sl fallback"
		}

		if nearestDemand != nil {
			tp = nearestDemand.High + cfg.SLBufferATR*atr
			tpReason = fmt.Sprintf("nearest demand zone high %.5f plus sl_buffer_atr*ATR", nearestDemand.High)
		} else {
			risk := sl - entry
			tp = entry - cfg.RiskRewardRatio*risk
			tpReason = "no demand zone available; risk_reward_ratio fallback"
		}
	}
	return sl, tp, slReason, tpReason
}
