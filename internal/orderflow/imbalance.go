package orderflow

import "github.com/Matswm86/Core/internal/domain"

// analyzeBidAsk computes (bid_size-ask_size)/(bid_size+ask_size) from the
// tick's depth levels, and whether it clears the dynamic imbalance
// threshold.
func analyzeBidAsk(tick domain.TickSnapshot, imbalanceThreshold float64) BidAskAnalysis {
	var bidSize, askSize float64
	for _, lvl := range tick.Depth {
		switch lvl.Side {
		case domain.SideBid:
			bidSize += lvl.Size
		case domain.SideAsk:
			askSize += lvl.Size
		}
	}
	total := bidSize + askSize
	if total <= 0 {
		return BidAskAnalysis{}
	}
	imbalance := (bidSize - askSize) / total
	return BidAskAnalysis{
		Imbalance: imbalance,
		Significant: absf(imbalance) > imbalanceThreshold,
	}
}

// analyzeAbsorption flags high-volume, small-range bars: range/ATR < 0.5
// and volume > absorption_ratio * avg_volume, inferring direction from
// close-vs-mid.
func analyzeAbsorption(bars []domain.Bar, atr, avgVolume float64, cfg Config) AbsorptionAnalysis {
	if len(bars) == 0 || atr <= 0 {
		return AbsorptionAnalysis{}
	}
	last := bars[len(bars)-1]
	rangeVal := last.High - last.Low
	if rangeVal/atr >= cfg.AbsorptionRangeATRFactor {
		return AbsorptionAnalysis{}
	}
	if avgVolume <= 0 || last.Volume <= cfg.AbsorptionRatio*avgVolume {
		return AbsorptionAnalysis{}
	}
	mid := (last.High + last.Low) / 2
	dir := DirNeutral
	if last.Close > mid {
		dir = DirUp
	} else if last.Close < mid {
		dir = DirDown
	}
	return AbsorptionAnalysis{Detected: true, Direction: dir}
}
