package risk

import (
	"fmt"
	"math"

	"github.com/Matswm86/Core/internal/domain"
)

// runChecks evaluates the ordered gate sequence, collecting every
// check's verdict. It returns the full audit trail plus
// the first rejection reason, if any; callers short-circuit sizing on
// the first failure but still see every check that ran before it.
func (e *Evaluator) runChecks(account domain.AccountStatus, in SizingInput) ([]CheckResult, string) {
	var results []CheckResult
	reject := func(name, msg string) {
		results = append(results, CheckResult{Name: name, Passed: false, Message: msg})
	}
	accept := func(name, msg string) {
		results = append(results, CheckResult{Name: name, Passed: true, Message: msg})
	}

	// 1. Rolling drawdown.
	drawdown := 0.0
	if account.PeakEquity > 0 {
		drawdown = (account.PeakEquity - account.Equity) / account.PeakEquity
	}
	if drawdown >= e.risk.MaxDrawdown {
		reject("rolling_drawdown", fmt.Sprintf("Max Rolling Drawdown breached: %.4f >= %.4f", drawdown, e.risk.MaxDrawdown))
		return results, results[len(results)-1].Message
	}
	accept("rolling_drawdown", fmt.Sprintf("drawdown %.4f < %.4f", drawdown, e.risk.MaxDrawdown))

	// 2. Daily loss / daily profit caps.
	if e.risk.MaxDailyLoss > 0 && account.DailyPnL <= -e.risk.MaxDailyLoss*account.Balance {
		reject("daily_loss_cap", fmt.Sprintf("daily loss %.2f breached cap %.2f", account.DailyPnL, -e.risk.MaxDailyLoss*account.Balance))
		return results, results[len(results)-1].Message
	}
	if e.risk.MaxDailyProfit > 0 && account.DailyPnL >= e.risk.MaxDailyProfit*account.Balance {
		reject("daily_profit_cap", fmt.Sprintf("daily profit %.2f reached cap %.2f, trading halted for the day", account.DailyPnL, e.risk.MaxDailyProfit*account.Balance))
		return results, results[len(results)-1].Message
	}
	accept("daily_pnl_caps", fmt.Sprintf("daily PnL %.2f within caps", account.DailyPnL))

	// 3. Max trades/day, max consecutive losses.
	if e.risk.MaxTradesPerDay > 0 && account.TradesToday >= e.risk.MaxTradesPerDay {
		reject("max_trades_per_day", fmt.Sprintf("trades today %d >= limit %d", account.TradesToday, e.risk.MaxTradesPerDay))
		return results, results[len(results)-1].Message
	}
	if e.risk.MaxConsecutiveLosses > 0 && account.ConsecutiveLosses >= e.risk.MaxConsecutiveLosses {
		reject("max_consecutive_losses", fmt.Sprintf("consecutive losses %d >= limit %d", account.ConsecutiveLosses, e.risk.MaxConsecutiveLosses))
		return results, results[len(results)-1].Message
	}
	accept("trade_frequency", fmt.Sprintf("trades today %d, consecutive losses %d within limits", account.TradesToday, account.ConsecutiveLosses))

	// 4. Portfolio VaR (optional).
	if e.risk.VarEnabled {
		sigma := dailyVolEstimate(in)
		z := normQuantile(e.risk.VarConfidenceLevel)
		varAmount := z * sigma * account.Equity
		varCap := e.risk.MaxPortfolioVarRatio * account.Balance
		if varAmount > varCap {
			reject("portfolio_var", fmt.Sprintf("1-day VaR %.2f at %.2f confidence exceeds cap %.2f", varAmount, e.risk.VarConfidenceLevel, varCap))
			return results, results[len(results)-1].Message
		}
		accept("portfolio_var", fmt.Sprintf("1-day VaR %.2f within cap %.2f", varAmount, varCap))
	}

	// 5. Spread / trading-hours check is delegated to the execution
	// adapter; this evaluator has no opinion on it and omits it from
	// the ordered sequence rather than faking a verdict.

	return results, ""
}

// dailyVolEstimate resolves the volatility figure used for the VaR
// check: the GARCH forecast when available, else ATR as a fraction of
// entry price.
func dailyVolEstimate(in SizingInput) float64 {
	if in.GARCHAvailable && in.GARCHForecast > 0 {
		return in.GARCHForecast
	}
	if in.Entry > 0 {
		return in.ATR / in.Entry
	}
	return 0
}

// normQuantile approximates the standard normal inverse CDF via
// math.Erfinv, the same way the numerics package computes ATR/GARCH
// directly on math rather than an external statistics library.
func normQuantile(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		p = 0.999999
	}
	return math.Sqrt2 * math.Erfinv(2*p-1)
}
