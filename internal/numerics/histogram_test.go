package numerics

import (
	"math"
	"testing"
)

func TestHistogramNormalizationLaw(t *testing.T) {
	xs := []float64{1, 2, 2, 3, 3, 3, 4, 5, 5, 6}
	h := BuildHistogram(xs, 0, 7, 7)
	d := h.Densities(1e-10)
	var sum float64
	for _, p := range d {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("expected densities to sum to 1 +/- 1e-9, got %.12f", sum)
	}
}

func TestHistogramEmptySeriesNoVariation(t *testing.T) {
	h := BuildHistogram(nil, 0, 1, 5)
	if !h.NoVariation {
		t.Fatalf("expected NoVariation for empty series")
	}
}

func TestHistogramOverflowGoesToLastBin(t *testing.T) {
	h := BuildHistogram([]float64{100}, 0, 10, 5)
	if h.Counts[len(h.Counts)-1] != 1 {
		t.Fatalf("expected overflow value routed to last bin, got counts=%v", h.Counts)
	}
}

func TestJSD_SelfDivergenceIsZero(t *testing.T) {
	series := make([]float64, 200)
	for i := range series {
		series[i] = float64(i%10) - 5
	}
	res := JensenShannonDivergence(series, 50, 50, 10, 0.1)
	if res.Score > 1e-9 {
		t.Fatalf("JSD(P,P) should be ~0, got %.9f", res.Score)
	}
}

func TestJSD_Symmetric(t *testing.T) {
	p := []float64{0.1, 0.2, 0.3, 0.4}
	q := []float64{0.4, 0.3, 0.2, 0.1}
	pq := jsDivergenceBits(p, q)
	qp := jsDivergenceBits(q, p)
	if math.Abs(pq-qp) > 1e-12 {
		t.Fatalf("JSD(P,Q) should equal JSD(Q,P): %.12f vs %.12f", pq, qp)
	}
}

func TestJSD_BoundedZeroToOne(t *testing.T) {
	p := []float64{0.9, 0.1}
	q := []float64{0.1, 0.9}
	d := jsDivergenceBits(p, q)
	if d < 0 || d > 1.0001 {
		t.Fatalf("JSD distance out of [0,1]: %.6f", d)
	}
}

func TestJSD_DivergenceBands(t *testing.T) {
	// Identical distributions over two windows -> normal band.
	calm := make([]float64, 200)
	for i := range calm {
		calm[i] = float64(i % 3)
	}
	res := JensenShannonDivergence(calm, 50, 50, 5, 0.1)
	if res.Band != JSDNormal {
		t.Fatalf("expected normal band for identical windows, got %s (score=%.4f)", res.Band, res.Score)
	}

	// Sharply different recent window -> diverging or strongly_diverging.
	shifted := make([]float64, 200)
	for i := 0; i < 150; i++ {
		shifted[i] = float64(i % 3)
	}
	for i := 150; i < 200; i++ {
		shifted[i] = 50 + float64(i%3)
	}
	res2 := JensenShannonDivergence(shifted, 50, 100, 5, 0.1)
	if res2.Band == JSDNormal {
		t.Fatalf("expected a diverging band for shifted windows, got normal (score=%.4f)", res2.Score)
	}
}
