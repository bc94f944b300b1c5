package numerics

import (
	"math"
	"testing"
)

// randomWalk generates a deterministic pseudo-random walk using a simple
// linear congruential generator so the test has no dependency on
// math/rand's seeding behavior.
func randomWalk(n int) []float64 {
	closes := make([]float64, n)
	closes[0] = 100
	state := uint64(12345)
	for i := 1; i < n; i++ {
		state = state*6364136223846793005 + 1442695040888963407
		u := float64(state>>11) / float64(1<<53)
		step := (u - 0.5) * 0.02
		closes[i] = closes[i-1] * (1 + step)
	}
	return closes
}

func TestHurst_RandomWalkNearHalf(t *testing.T) {
	closes := randomWalk(2000)
	res := HurstRS(closes, 0.55, 0.45)
	if !res.Valid {
		t.Fatalf("expected valid Hurst result for n=2000")
	}
	if math.Abs(res.Exponent-0.5) > 0.15 {
		t.Fatalf("expected Hurst exponent near 0.5 for random walk, got %.4f", res.Exponent)
	}
}

func TestHurst_InsufficientData(t *testing.T) {
	res := HurstRS(make([]float64, 50), 0.55, 0.45)
	if res.Valid {
		t.Fatalf("expected invalid result for n<100")
	}
}

func TestHurst_InterpretationBands(t *testing.T) {
	// A strongly trending series: monotonically increasing closes.
	trending := make([]float64, 300)
	for i := range trending {
		trending[i] = 100 + float64(i)*0.5
	}
	res := HurstRS(trending, 0.55, 0.45)
	if res.Valid && res.Interpretation == HurstMeanReverting {
		t.Fatalf("monotonic trend should not classify as mean-reverting, got %s (H=%.4f)", res.Interpretation, res.Exponent)
	}
}
