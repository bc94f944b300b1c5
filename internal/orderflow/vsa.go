package orderflow

import "github.com/Matswm86/Core/internal/domain"

// evaluateVSA applies the fixed VSA rule set to the last bar against the
// vsa_volume_avg_period average and ATR. Rules are checked in a fixed
// order; the first matching rule wins (the rule conditions are mutually
// exclusive in practice, since NoDemand and NoSupply require opposite
// bar directions and Upthrust/StoppingVolume require opposite
// close-position bands).
func evaluateVSA(bars []domain.Bar, atr float64, cfg Config) (VSASignal, float64) {
	n := len(bars)
	if n < 2 || atr <= 0 {
		return VSANone, 0
	}
	last := bars[n-1]
	prev := bars[n-2]
	avgVol := averageVolume(bars, cfg.VSAVolumeAvgPeriod)
	if avgVol <= 0 {
		return VSANone, 0
	}

	spread := last.High - last.Low
	spreadATR := spread / atr
	volRatio := last.Volume / avgVol
	closePos := 0.5
	if spread > 0 {
		closePos = (last.Close - last.Low) / spread
	}

	isUpBar := last.Close > last.Open
	isDownBar := last.Close < last.Open

	narrowSpread := cfg.VSASpreadFactor
	wideSpread := 3 * cfg.VSASpreadFactor

	switch {
	case isUpBar && spreadATR < narrowSpread && volRatio < cfg.VSAVolFactorLow && last.Close < prev.Close:
		return VSANoDemand, 0.7
	case isDownBar && spreadATR < narrowSpread && volRatio < cfg.VSAVolFactorLow && last.Close > prev.Close:
		return VSANoSupply, 0.7
	case isUpBar && closePos < 0.33 && volRatio > cfg.VSAVolFactorHigh:
		return VSAUpthrust, 0.6
	case spreadATR > wideSpread && volRatio > cfg.VSAVolFactorHigh && closePos >= 0.33 && closePos <= 0.66:
		return VSAStoppingVolume, 0.65
	default:
		return VSANone, 0
	}
}

func averageVolume(bars []domain.Bar, window int) float64 {
	n := len(bars)
	if n == 0 {
		return 0
	}
	if window > n {
		window = n
	}
	var sum float64
	for _, b := range bars[n-window:] {
		sum += b.Volume
	}
	return sum / float64(window)
}
