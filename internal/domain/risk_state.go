package domain

import (
	"sync"
	"time"
)

// OpenPosition tracks one live position for correlation/exposure checks.
type OpenPosition struct {
	Symbol string
	Volume float64
	Entry float64
	RiskBudget float64 // capital at risk if stopped out, in account currency
	OpenedAt time.Time
}

// CorrelationMatrix is installed atomically by pointer swap.
type CorrelationMatrix struct {
	Symbols    []string
	Values     [][]float64 // Values[i][j] in [-1,1], symmetric, diag=1
	LastUpdate time.Time
}

func (m *CorrelationMatrix) index(symbol string) int {
	if m == nil {
		return -1
	}
	for i, s := range m.Symbols {
		if s == symbol {
			return i
		}
	}
	return -1
}

// Pairwise returns the correlation between two symbols, or 0 if unknown.
func (m *CorrelationMatrix) Pairwise(a, b string) float64 {
	ia, ib := m.index(a), m.index(b)
	if ia < 0 || ib < 0 || m == nil {
		return 0
	}
	return m.Values[ia][ib]
}

// RiskState is the single-writer, multi-reader account state consulted
// and mutated by the risk evaluator. Mutations serialize through the
// risk evaluator (C6); reads may happen concurrently via RLock.
type RiskState struct {
	mu sync.RWMutex

	CurrentBalance    float64
	PeakEquity        float64
	DailyPnL          float64
	DailyPnLResetAt   time.Time // UTC midnight of the current accounting day
	ConsecutiveLosses int
	TradesToday       int
	OpenPositions     map[string]OpenPosition
	RollingWinRate    float64
	RollingAvgWin     float64 // exponential rolling average winning PnL magnitude
	RollingAvgLoss    float64 // exponential rolling average losing PnL magnitude
	TradeHistoryCount int

	correlation *CorrelationMatrix

	lastTradeBySymbol map[string]time.Time
	lastLossBySymbol  map[string]time.Time
}

func NewRiskState(startingBalance float64) *RiskState {
	return &RiskState{
		CurrentBalance:    startingBalance,
		PeakEquity:        startingBalance,
		DailyPnLResetAt:   dayStartUTC(time.Now()),
		OpenPositions:     make(map[string]OpenPosition),
		lastTradeBySymbol: make(map[string]time.Time),
		lastLossBySymbol:  make(map[string]time.Time),
	}
}

func dayStartUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AccountStatus is a read-only copy of account-level fields for sizing
// and gate checks, taken without holding the lock across the caller's
// logic.
type AccountStatus struct {
	Balance           float64
	Equity            float64
	PeakEquity        float64
	DailyPnL          float64
	ConsecutiveLosses int
	TradesToday       int
	OpenPositions     map[string]OpenPosition
	RollingWinRate    float64
	RollingAvgWin     float64
	RollingAvgLoss    float64
	TradeHistoryCount int
	Correlation       *CorrelationMatrix
}

// WinLossRatio returns the Kelly criterion's R = average win / average
// loss, tracking win and loss magnitudes as separate exponential
// rolling averages rather than conflating them into one series. Returns
// 0 when no losses have been observed yet (R is undefined; callers
// should fail Kelly sizing closed in that case, not treat it as an
// infinite edge).
func (a AccountStatus) WinLossRatio() float64 {
	if a.RollingAvgLoss <= 0 {
		return 0
	}
	return a.RollingAvgWin / a.RollingAvgLoss
}

func (rs *RiskState) Snapshot(equity float64) AccountStatus {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	positions := make(map[string]OpenPosition, len(rs.OpenPositions))
	for k, v := range rs.OpenPositions {
		positions[k] = v
	}
	return AccountStatus{
		Balance: rs.CurrentBalance,
		Equity: equity,
		PeakEquity: rs.PeakEquity,
		DailyPnL: rs.DailyPnL,
		ConsecutiveLosses: rs.ConsecutiveLosses,
		TradesToday: rs.TradesToday,
		OpenPositions: positions,
		RollingWinRate: rs.RollingWinRate,
		RollingAvgWin: rs.RollingAvgWin,
		RollingAvgLoss: rs.RollingAvgLoss,
		TradeHistoryCount: rs.TradeHistoryCount,
		Correlation: rs.correlation,
	}
}

// UpdateEquityPeak advances PeakEquity if equity set a new high;
// peak_equity never decreases on its own.
func (rs *RiskState) UpdateEquityPeak(equity float64) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if equity > rs.PeakEquity {
		rs.PeakEquity = equity
	}
}

// RecordTrade applies a closed trade's PnL to balance, daily PnL, the
// consecutive-loss counter, and rolling win-rate/win-loss-ratio, resetting
// the daily window at UTC midnight first.
func (rs *RiskState) RecordTrade(symbol string, pnl float64, closedAt time.Time) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	today := dayStartUTC(closedAt)
	if today.After(rs.DailyPnLResetAt) {
		rs.DailyPnL = 0
		rs.TradesToday = 0
		rs.DailyPnLResetAt = today
	}

	rs.CurrentBalance += pnl
	rs.DailyPnL += pnl
	rs.TradesToday++
	rs.TradeHistoryCount++

	if pnl < 0 {
		rs.ConsecutiveLosses++
		rs.lastLossBySymbol[symbol] = closedAt
	} else {
		rs.ConsecutiveLosses = 0
	}
	rs.lastTradeBySymbol[symbol] = closedAt

	if rs.CurrentBalance > rs.PeakEquity {
		rs.PeakEquity = rs.CurrentBalance
	}

	// Exponential rolling update of win-rate and win/loss magnitudes.
	const alpha = 0.05
	win := 0.0
	if pnl > 0 {
		win = 1.0
	}
	rs.RollingWinRate = rs.RollingWinRate*(1-alpha) + win*alpha
	switch {
	case pnl > 0:
		rs.RollingAvgWin = rs.RollingAvgWin*(1-alpha) + pnl*alpha
	case pnl < 0:
		rs.RollingAvgLoss = rs.RollingAvgLoss*(1-alpha) + (-pnl)*alpha
	}
}

func (rs *RiskState) OpenPosition(p OpenPosition) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.OpenPositions[p.Symbol] = p
}

func (rs *RiskState) ClosePosition(symbol string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.OpenPositions, symbol)
}

func (rs *RiskState) InstallCorrelation(m *CorrelationMatrix) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.correlation = m
}

func (rs *RiskState) LastTrade(symbol string) (time.Time, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	t, ok := rs.lastTradeBySymbol[symbol]
	return t, ok
}

func (rs *RiskState) LastLoss(symbol string) (time.Time, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	t, ok := rs.lastLossBySymbol[symbol]
	return t, ok
}
