package composer

import (
	"context"

	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/orderflow"
	"github.com/Matswm86/Core/internal/structure"
)

// predictorFeatures assembles the feature vector a PredictorPort
// consumes, drawn from both analyzers' outputs (mode 2).
func predictorFeatures(ms structure.Result, of orderflow.Result) map[string]float64 {
	return map[string]float64{
		"ms_structure_score": ms.StructureScore,
		"ms_wyckoff_confidence": ms.WyckoffConfidence,
		"ms_hurst_trending": boolToFloat(ms.HurstInterpretation == "trending"),
		"ms_in_demand_zone": boolToFloat(ms.PriceInDemandZone),
		"ms_in_supply_zone": boolToFloat(ms.PriceInSupplyZone),
		"of_flow_score": of.FlowScore,
		"of_delta_strength": of.Delta.Strength,
		"of_bidask_imbalance": of.BidAsk.Imbalance,
		"of_divergence_score": of.FlowDivergenceScore,
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// predictorMode implements mode 2: emit buy if P(up) >
// p_threshold, sell if 1-P(up) > p_threshold; score = 10*max(P, 1-P).
func predictorMode(ctx context.Context, predictor domain.PredictorPort, ms structure.Result, of orderflow.Result, cfg Config) (score float64, action domain.Action, probUp float64, ok bool, err error) {
	probUp, err = predictor.Predict(ctx, predictorFeatures(ms, of))
	if err != nil {
		return 0, "", 0, false, err
	}

	probDown := 1 - probUp
	maxProb := probUp
	if probDown > maxProb {
		maxProb = probDown
	}
	score = 10 * maxProb
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	switch {
	case probUp > cfg.MLProbabilityThreshold:
		return score, domain.ActionBuy, probUp, true, nil
	case probDown > cfg.MLProbabilityThreshold:
		return score, domain.ActionSell, probUp, true, nil
	default:
		return score, "", probUp, false, nil
	}
}
