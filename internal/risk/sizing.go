package risk

import (
	"math"

	"github.com/Matswm86/Core/internal/domain"
)

// size computes the position volume: Kelly when enabled and enough
// trade history exists, else fixed-fractional. Both paths
// share the correlation/volatility adjustments and the final rounding
// and clamping to [min_volume, max_position_size].
func (e *Evaluator) size(account domain.AccountStatus, in SizingInput) SizedSignal {
	correlationFactor := e.correlationFactor(account, in.Symbol)
	volatilityFactor := e.volatilityFactor(in)
	dynamicFactor := e.dynamicFactor(account)

	var riskPct float64
	var method string
	var kellyFraction float64

	if e.kelly.UseKellySizing && account.TradeHistoryCount >= e.kelly.MinTradesForKelly {
		method = SizingKelly
		w := account.RollingWinRate
		r := account.WinLossRatio()
		fStar := 0.0
		if r > 0 {
			fStar = w - (1-w)/r
		}
		if fStar < 0 {
			fStar = 0
		}
		kellyFraction = e.kelly.KellyFraction * fStar
		if kellyFraction > 1 {
			kellyFraction = 1
		}
		riskPct = kellyFraction * dynamicFactor * in.RiskLevel * correlationFactor * volatilityFactor
	} else {
		method = SizingFixedFractional
		riskPct = e.risk.RiskPerTrade * dynamicFactor * in.RiskLevel * correlationFactor * volatilityFactor
	}

	slDistance := math.Abs(in.Entry - in.SL)
	volume := 0.0
	if slDistance > 0 && in.PipValue > 0 {
		volume = (account.Balance * riskPct) / (slDistance * in.PipValue)
	}
	volume = roundToStep(volume, e.risk.VolumeStep)
	volume = clamp(volume, e.risk.MinVolume, e.risk.MaxPositionSize)

	return SizedSignal{
		Volume: volume,
		SizingMethod: method,
		RiskPct: riskPct,
		KellyFraction: kellyFraction,
	}
}

// correlationFactor computes factor = max(0.1, 1 -
// exposure/max_correlation_exposure), where exposure uses the
// correlation matrix and current open-position risk budgets.
func (e *Evaluator) correlationFactor(account domain.AccountStatus, symbol string) float64 {
	if account.Correlation == nil || e.risk.MaxCorrelationExposure <= 0 {
		return 1.0
	}
	exposure := 0.0
	for otherSymbol, pos := range account.OpenPositions {
		if otherSymbol == symbol {
			continue
		}
		corr := account.Correlation.Pairwise(symbol, otherSymbol)
		exposure += math.Abs(corr) * pos.RiskBudget
	}
	factor := 1 - exposure/(e.risk.MaxCorrelationExposure*account.Balance)
	if factor < 0.1 {
		factor = 0.1
	}
	return factor
}

// volatilityFactor prefers the GARCH forecast, normalized by the
// historical baseline, else falls back to the ATR ratio.
func (e *Evaluator) volatilityFactor(in SizingInput) float64 {
	switch {
	case in.GARCHAvailable && in.GARCHForecast > 0 && in.HistoricalVolBaseline > 0:
		return in.HistoricalVolBaseline / in.GARCHForecast
	case in.ATR > 0 && in.ATRBaseline > 0:
		return in.ATRBaseline / in.ATR
	default:
		return 1.0
	}
}

// dynamicFactor applies LoosenIfFlat multiplicatively: when enabled and
// the account is flat for the day, risk is loosened; otherwise the
// factor is neutral.
func (e *Evaluator) dynamicFactor(account domain.AccountStatus) float64 {
	if e.risk.LoosenIfFlat && account.DailyPnL == 0 {
		return 1.2
	}
	return 1.0
}

func roundToStep(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
