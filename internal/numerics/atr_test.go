package numerics

import (
	"testing"
	"time"
)

func TestATR_FloorsToEpsilon(t *testing.T) {
	highs := []float64{1, 1, 1, 1, 1}
	lows := []float64{1, 1, 1, 1, 1}
	closes := []float64{1, 1, 1, 1, 1}
	out := ATR(highs, lows, closes, 3)
	for i, v := range out {
		if v < atrEpsilon {
			t.Fatalf("ATR[%d]=%.12f below floor %.e", i, v, atrEpsilon)
		}
	}
}

func TestATR_BackfillsLeadingWindow(t *testing.T) {
	highs := []float64{10, 11, 12, 13, 14, 15}
	lows := []float64{9, 10, 11, 12, 13, 14}
	closes := []float64{9.5, 10.5, 11.5, 12.5, 13.5, 14.5}
	out := ATR(highs, lows, closes, 3)
	if out[0] != out[2] {
		t.Fatalf("expected leading values backfilled to first computed ATR: out[0]=%.6f out[2]=%.6f", out[0], out[2])
	}
}

func TestGARCH_RefusesBelowMinData(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100 + float64(i%5)
	}
	cfg := DefaultGARCHConfig()
	cfg.MinData = 252
	params := FitGARCH(closes, cfg, time.Now())
	if params != nil {
		t.Fatalf("expected nil GARCH fit below garch_min_data")
	}
}
