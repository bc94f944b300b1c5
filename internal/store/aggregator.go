package store

import (
	"time"

	"github.com/Matswm86/Core/internal/domain"
)

// TickAggregator rolls ticks into bars for a single (symbol,timeframe):
// a tick whose timestamp reaches the next boundary rolls the current
// bar and starts a new one.
type TickAggregator struct {
	tf domain.Timeframe
	symbol string
	current *building
	nextBoundary time.Time
}

type building struct {
	open, high, low, close, volume float64
	start time.Time
}

func NewTickAggregator(symbol string, tf domain.Timeframe) *TickAggregator {
	return &TickAggregator{symbol: symbol, tf: tf}
}

func (a *TickAggregator) boundaryFor(t time.Time) time.Time {
	step := a.tf.Duration()
	if step <= 0 {
		return t
	}
	return t.Truncate(step).Add(step)
}

// Ingest feeds one tick, returning a completed Bar when the tick rolls
// the aggregation window (nil otherwise).
func (a *TickAggregator) Ingest(tick domain.TickSnapshot) *domain.Bar {
	if a.current == nil {
		a.current = &building{
			open: tick.Last, high: tick.Last, low: tick.Last, close: tick.Last,
			volume: tick.LastVolume, start: a.boundaryFor(tick.Timestamp).Add(-a.tf.Duration()),
		}
		a.nextBoundary = a.boundaryFor(tick.Timestamp)
		return nil
	}

	if tick.Timestamp.Before(a.nextBoundary) {
		a.current.high = max(a.current.high, tick.Last)
		a.current.low = min(a.current.low, tick.Last)
		a.current.close = tick.Last
		a.current.volume += tick.LastVolume
		return nil
	}

	completed := domain.Bar{
		Symbol: a.symbol,
		Timeframe: a.tf,
		Timestamp: a.current.start.Add(a.tf.Duration()),
		Open: a.current.open,
		High: a.current.high,
		Low: a.current.low,
		Close: a.current.close,
		Volume: a.current.volume,
	}

	a.current = &building{
		open: tick.Last, high: tick.Last, low: tick.Last, close: tick.Last,
		volume: tick.LastVolume, start: a.nextBoundary,
	}
	a.nextBoundary = a.boundaryFor(tick.Timestamp)

	return &completed
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
