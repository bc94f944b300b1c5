package store

import (
	"testing"
	"time"

	"github.com/Matswm86/Core/internal/domain"
)

func mkBar(symbol string, ts time.Time, o, h, l, c, v float64) domain.Bar {
	return domain.Bar{Symbol: symbol, Timeframe: domain.TF1Hour, Timestamp: ts, Open: o, High: h, Low: l, Close: c, Volume: v}
}

func TestBarRing_RejectsNonMonotonic(t *testing.T) {
	r := NewBarRing(10)
	base := time.Now()
	res := r.Push(mkBar("BTC", base, 1, 2, 0.5, 1.5, 10))
	if !res.Accepted {
		t.Fatalf("expected first push accepted: %v", res.Err)
	}
	res2 := r.Push(mkBar("BTC", base, 1, 2, 0.5, 1.5, 10))
	if res2.Accepted {
		t.Fatalf("expected equal timestamp rejected")
	}
	res3 := r.Push(mkBar("BTC", base.Add(-time.Minute), 1, 2, 0.5, 1.5, 10))
	if res3.Accepted {
		t.Fatalf("expected earlier timestamp rejected")
	}
}

func TestBarRing_RejectsInvariantViolation(t *testing.T) {
	r := NewBarRing(10)
	bad := mkBar("BTC", time.Now(), 10, 9, 8, 9.5, 1) // high < open
	res := r.Push(bad)
	if res.Accepted {
		t.Fatalf("expected invariant-violating bar rejected")
	}
}

func TestBarRing_EvictsOldestOnOverflow(t *testing.T) {
	r := NewBarRing(3)
	base := time.Now()
	for i := 0; i < 5; i++ {
		res := r.Push(mkBar("BTC", base.Add(time.Duration(i)*time.Hour), 1, 2, 0.5, 1.5, 10))
		if !res.Accepted {
			t.Fatalf("push %d rejected: %v", i, res.Err)
		}
	}
	if r.Len() != 3 {
		t.Fatalf("expected capped length 3, got %d", r.Len())
	}
	snap := r.Snapshot()
	if snap[0].Timestamp != base.Add(2*time.Hour) {
		t.Fatalf("expected oldest surviving bar at index 2, got %v", snap[0].Timestamp)
	}
}

func TestTickAggregator_RollsOnBoundary(t *testing.T) {
	agg := NewTickAggregator("BTC", domain.TF1Hour)
	base := time.Date(2024, 1, 1, 10, 5, 0, 0, time.UTC)

	if bar := agg.Ingest(domain.TickSnapshot{Symbol: "BTC", Timestamp: base, Last: 100, LastVolume: 1}); bar != nil {
		t.Fatalf("first tick should not roll a bar")
	}
	if bar := agg.Ingest(domain.TickSnapshot{Symbol: "BTC", Timestamp: base.Add(10 * time.Minute), Last: 105, LastVolume: 2}); bar != nil {
		t.Fatalf("tick within the same hour should not roll a bar")
	}

	bar := agg.Ingest(domain.TickSnapshot{Symbol: "BTC", Timestamp: base.Add(70 * time.Minute), Last: 102, LastVolume: 3})
	if bar == nil {
		t.Fatalf("expected a completed bar once the boundary is crossed")
	}
	if bar.High != 105 || bar.Low != 100 {
		t.Fatalf("unexpected rolled bar OHLC: %+v", bar)
	}
}
