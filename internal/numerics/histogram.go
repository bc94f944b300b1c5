package numerics

import "math"

// Histogram is a left-closed, right-open binning of a series, with
// overflow routed to the last bin ("Histogram binning
// tie-break").
type Histogram struct {
	Edges []float64 // length bins+1
	Counts []float64 // length bins
	NoVariation bool
}

// BuildHistogram bins xs into `bins` equal-width buckets over [lo, hi).
// An empty series produces NoVariation=true ("empty series
// -> no_variation").
func BuildHistogram(xs []float64, lo, hi float64, bins int) Histogram {
	if len(xs) == 0 || bins <= 0 || hi <= lo {
		return Histogram{NoVariation: true}
	}
	edges := make([]float64, bins+1)
	width := (hi - lo) / float64(bins)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	counts := make([]float64, bins)
	for _, x := range xs {
		idx := int(math.Floor((x - lo) / width))
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			idx = bins - 1 // overflow -> last bin
		}
		counts[idx]++
	}
	return Histogram{Edges: edges, Counts: counts}
}

// Densities returns the epsilon-smoothed, renormalized probability
// density of the histogram ("Add eps=1e-10, renormalize").
func (h Histogram) Densities(eps float64) []float64 {
	if h.NoVariation || len(h.Counts) == 0 {
		return nil
	}
	out := make([]float64, len(h.Counts))
	var total float64
	for i, c := range h.Counts {
		out[i] = c + eps
		total += out[i]
	}
	if total <= 0 {
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// JSDBand is the qualitative divergence label a JSD score falls into.
type JSDBand string

const (JSDNormal JSDBand = "normal"
	JSDDiverging JSDBand = "diverging"
	JSDStronglyDiverging JSDBand = "strongly_diverging")

// JSDResult bundles the divergence score and its band.
type JSDResult struct {
	Score float64
	Band JSDBand
}

// JensenShannonDivergence computes JSD(P,Q) in base-2 bits, squared to
// produce the divergence score, over two windows of a delta series.
// recent is windowed to wRecent most recent values;
// baseline to wBaseline most recent values preceding that. Bins span the
// baseline window's range with the given bin count.
func JensenShannonDivergence(series []float64, wRecent, wBaseline, bins int, threshold float64) JSDResult {
	if len(series) < wRecent+wBaseline {
		return JSDResult{Score: 0, Band: JSDNormal}
	}
	recent := series[len(series)-wRecent:]
	baselineEnd := len(series) - wRecent
	baseline := series[baselineEnd-wBaseline : baselineEnd]

	lo, hi := rangeOf(baseline)
	if hi <= lo {
		return JSDResult{Score: 0, Band: JSDNormal}
	}

	hRecent := BuildHistogram(recent, lo, hi, bins)
	hBaseline := BuildHistogram(baseline, lo, hi, bins)
	p := hRecent.Densities(1e-10)
	q := hBaseline.Densities(1e-10)
	if p == nil || q == nil {
		return JSDResult{Score: 0, Band: JSDNormal}
	}

	jsDistance := jsDivergenceBits(p, q)
	score := jsDistance * jsDistance

	band := JSDNormal
	switch {
	case score >= 1.5*threshold:
		band = JSDStronglyDiverging
	case score >= threshold:
		band = JSDDiverging
	}
	return JSDResult{Score: score, Band: band}
}

func rangeOf(xs []float64) (lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

// jsDivergenceBits returns the Jensen-Shannon *distance* (sqrt of the
// divergence) in base-2 bits, satisfying JSD(P,P)=0, JSD(P,Q)=JSD(Q,P),
// and 0<=JSD<=1 for equal-length, normalized probability distributions.
func jsDivergenceBits(p, q []float64) float64 {
	m := make([]float64, len(p))
	for i := range p {
		m[i] = 0.5 * (p[i] + q[i])
	}
	div := 0.5*klDivergenceBits(p, m) + 0.5*klDivergenceBits(q, m)
	if div < 0 {
		div = 0
	}
	return math.Sqrt(div)
}

// klDivergenceBits computes KL(p||q) in bits (log base 2).
func klDivergenceBits(p, q []float64) float64 {
	var sum float64
	for i := range p {
		if p[i] <= 0 {
			continue
		}
		sum += p[i] * math.Log2(p[i]/q[i])
	}
	return sum
}
