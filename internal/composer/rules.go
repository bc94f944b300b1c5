package composer

import (
	"fmt"

	"github.com/Matswm86/Core/internal/orderflow"
	"github.com/Matswm86/Core/internal/structure"
)

// ruleBasedFusion implements mode 1: combined_score =
// structure_weight*ms_score + flow_weight*of_score; emit buy when both
// directions agree up and combined_score >= buy_threshold (symmetric for
// sell), with thresholds raised under a volatile regime.
func ruleBasedFusion(ms structure.Result, of orderflow.Result, cfg Config) (combinedScore float64, agreeUp, agreeDown bool) {
	combinedScore = cfg.StructureWeight*ms.StructureScore + cfg.FlowWeight*of.FlowScore
	if combinedScore < 0 {
		combinedScore = 0
	}
	if combinedScore > 10 {
		combinedScore = 10
	}

	agreeUp = ms.Direction == structure.DirUptrend && of.Direction == orderflow.DirUp
	agreeDown = ms.Direction == structure.DirDowntrend && of.Direction == orderflow.DirDown
	return combinedScore, agreeUp, agreeDown
}

func effectiveThresholds(ms structure.Result, cfg Config) (buy, sell float64) {
	buy, sell = cfg.BuyThreshold, cfg.SellThreshold
	if ms.Regime == "volatile" {
		buy += cfg.VolatileRegimeThresholdBoost
		sell += cfg.VolatileRegimeThresholdBoost
	}
	return buy, sell
}

func belowThresholdReason(combinedScore, threshold float64) string {
	return fmt.Sprintf("Score < %.1f (got %.4f)", threshold, combinedScore)
}
