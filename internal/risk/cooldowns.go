package risk

import (
	"fmt"
	"time"
)

// cooldownActive enforces a per-symbol trade cooldown (in minutes),
// multiplied after a loss by LossCooldownMultiplier. The
// daily trade/loss counters it gates are reset at UTC midnight by
// RiskState.RecordTrade; this check only looks at elapsed wall time
// since the symbol's last trade/loss.
func (e *Evaluator) cooldownActive(symbol string, now time.Time) (bool, string) {
	if e.risk.TradeCooldownMinutes <= 0 {
		return false, ""
	}
	cooldown := time.Duration(e.risk.TradeCooldownMinutes) * time.Minute

	if lastLoss, ok := e.state.LastLoss(symbol); ok {
		lossCooldown := cooldown
		if e.risk.LossCooldownMultiplier > 0 {
			lossCooldown = time.Duration(float64(cooldown) * e.risk.LossCooldownMultiplier)
		}
		if elapsed := now.Sub(lastLoss); elapsed < lossCooldown {
			return true, fmt.Sprintf("%s is in post-loss cooldown for %s", symbol, (lossCooldown - elapsed).Round(time.Second))
		}
	}

	if lastTrade, ok := e.state.LastTrade(symbol); ok {
		if elapsed := now.Sub(lastTrade); elapsed < cooldown {
			return true, fmt.Sprintf("%s is in trade cooldown for %s", symbol, (cooldown - elapsed).Round(time.Second))
		}
	}

	return false, ""
}
