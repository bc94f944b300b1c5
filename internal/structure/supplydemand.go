package structure

import (
	"sort"

	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/store"
)

// pivot is a detected local extremum.
type pivot struct {
	index int
	price float64
	isHigh bool
}

// findPeaks detects local maxima (isHigh) or minima in `values` whose
// prominence — the drop to the nearest higher neighbor on both sides —
// is at least minProminence.
func findPeaks(values []float64, minProminence float64, isHigh bool) []int {
	n := len(values)
	var out []int
	for i := 1; i < n-1; i++ {
		v := values[i]
		isPeak := (isHigh && v > values[i-1] && v >= values[i+1]) ||
		(!isHigh && v < values[i-1] && v <= values[i+1])
		if !isPeak {
			continue
		}
		prom := prominence(values, i, isHigh)
		if prom >= minProminence {
			out = append(out, i)
		}
	}
	return out
}

// prominence measures how far the candidate stands out from the nearest
// point on each side that would dominate it, scanning outward until a
// higher (for peaks) or lower (for troughs) value is found or an edge is
// reached.
func prominence(values []float64, idx int, isHigh bool) float64 {
	v := values[idx]
	leftExtreme := v
	for i := idx - 1; i >= 0; i-- {
		if isHigh && values[i] > v {
			break
		}
		if !isHigh && values[i] < v {
			break
		}
		if isHigh && values[i] < leftExtreme {
			leftExtreme = values[i]
		}
		if !isHigh && values[i] > leftExtreme {
			leftExtreme = values[i]
		}
	}
	rightExtreme := v
	for i := idx + 1; i < len(values); i++ {
		if isHigh && values[i] > v {
			break
		}
		if !isHigh && values[i] < v {
			break
		}
		if isHigh && values[i] < rightExtreme {
			rightExtreme = values[i]
		}
		if !isHigh && values[i] > rightExtreme {
			rightExtreme = values[i]
		}
	}
	if isHigh {
		drop := v - leftExtreme
		if v-rightExtreme < drop {
			drop = v - rightExtreme
		}
		return drop
	}
	rise := leftExtreme - v
	if rightExtreme-v < rise {
		rise = rightExtreme - v
	}
	return rise
}

// clusterPrices performs a simple 1D density-based clustering (DBSCAN
// over a sorted line): points within eps of a chain of neighbors, with
// at least minSamples members, form one cluster.
func clusterPrices(prices []float64, eps float64, minSamples int) [][]float64 {
	if len(prices) == 0 {
		return nil
	}
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)

	var clusters [][]float64
	var current []float64
	for i, p := range sorted {
		if i == 0 {
			current = []float64{p}
			continue
		}
		if p-sorted[i-1] <= eps {
			current = append(current, p)
		} else {
			if len(current) >= minSamples {
				clusters = append(clusters, current)
			}
			current = []float64{p}
		}
	}
	if len(current) >= minSamples {
		clusters = append(clusters, current)
	}
	return clusters
}

// buildZones clusters the given pivot prices into merged [min,max] zones
// with a strength proportional to cluster membership.
func buildZones(pivots []pivot, eps float64, minSamples int, now domain.Bar) []store.Zone {
	prices := make([]float64, len(pivots))
	for i, p := range pivots {
		prices[i] = p.price
	}
	clusters := clusterPrices(prices, eps, minSamples)

	zones := make([]store.Zone, 0, len(clusters))
	for _, c := range clusters {
		lo, hi := c[0], c[0]
		for _, p := range c {
			if p < lo {
				lo = p
			}
			if p > hi {
				hi = p
			}
		}
		zones = append(zones, store.Zone{
				PriceLow: lo,
				PriceHigh: hi,
				Strength: float64(len(c)),
				LastTouch: now.Timestamp,
			})
	}
	return zones
}

// invalidateZones marks a zone invalidated when price closes beyond
// invalidationATRFactor*ATR through the far edge.
func invalidateZones(zones []store.Zone, closePrice, atr, invalidationATRFactor float64, isSupply bool) []store.Zone {
	out := make([]store.Zone, len(zones))
	for i, z := range zones {
		out[i] = z
		if z.Invalidated {
			continue
		}
		threshold := invalidationATRFactor * atr
		if isSupply {
			if closePrice > z.PriceHigh+threshold {
				out[i].Invalidated = true
			}
		} else {
			if closePrice < z.PriceLow-threshold {
				out[i].Invalidated = true
			}
		}
	}
	return out
}

// detectSupplyDemandZones runs the full pivot-detect -> cluster -> merge
// -> invalidate pipeline for a bar series.
func detectSupplyDemandZones(bars []domain.Bar, atr float64, cfg Config) (supply, demand []store.Zone) {
	if len(bars) < 5 {
		return nil, nil
	}
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}

	minProminence := cfg.SDPivotProminenceATRFactor * atr
	eps := cfg.SDZoneClusterEpsATRFactor * atr

	highIdx := findPeaks(highs, minProminence, true)
	lowIdx := findPeaks(lows, minProminence, false)

	var highPivots, lowPivots []pivot
	for _, i := range highIdx {
		highPivots = append(highPivots, pivot{index: i, price: highs[i], isHigh: true})
	}
	for _, i := range lowIdx {
		lowPivots = append(lowPivots, pivot{index: i, price: lows[i], isHigh: false})
	}

	last := bars[len(bars)-1]
	supply = buildZones(highPivots, eps, 2, last)
	demand = buildZones(lowPivots, eps, 2, last)

	supply = invalidateZones(supply, last.Close, atr, cfg.SDZoneInvalidationATRFactor, true)
	demand = invalidateZones(demand, last.Close, atr, cfg.SDZoneInvalidationATRFactor, false)
	return supply, demand
}

// ZoneLevel carries both boundary prices of a supply/demand zone. Which
// edge is the "relevant" one for SL/TP construction depends on the trade
// action, not on the zone alone, so both are exposed rather than
// collapsing the zone to a single price.
type ZoneLevel struct {
	Low  float64
	High float64
}

// nearestZone returns the closest non-invalidated zone's boundary prices
// (ranked by distance from price to the zone's midpoint) and whether
// price currently sits inside any zone.
func nearestZone(zones []store.Zone, price float64) (nearest *ZoneLevel, inside bool) {
	var best *ZoneLevel
	bestDist := -1.0
	for _, z := range zones {
		if z.Invalidated {
			continue
		}
		if price >= z.PriceLow && price <= z.PriceHigh {
			inside = true
		}
		mid := (z.PriceLow + z.PriceHigh) / 2
		dist := mid - price
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = &ZoneLevel{Low: z.PriceLow, High: z.PriceHigh}
		}
	}
	return best, inside
}
