package structure

import (
	"time"

	"github.com/Matswm86/Core/internal/numerics"
	"github.com/Matswm86/Core/internal/store"
)

// Analyzer runs the C3 Market Structure analysis pipeline against a
// slot's bar ring. It is stateless across calls except for the Wyckoff
// FSM state, which the caller threads through from the owning Slot.
type Analyzer struct {
	cfg Config
}

func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// weightedComponent feeds the shared score-composition pattern:
// score = (sum w_i*v_i)/(sum w_i for w_i>0) * 10.
type weightedComponent struct {
	name string
	weight float64
	value float64 // in [0,1]
}

func composeScore(components []weightedComponent) float64 {
	var num, den float64
	for _, c := range components {
		if c.weight > 0 {
			num += c.weight * c.value
			den += c.weight
		}
	}
	if den <= 0 {
		return 0
	}
	score := num / den * 10
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score
}

// componentWeight returns cfg's override for name if configured, else def.
func componentWeight(cfg Config, name string, def float64) float64 {
	if w, ok := cfg.ComponentWeights[name]; ok {
		return w
	}
	return def
}

// Analyze runs the full MS pipeline. It reads the slot's current Wyckoff
// state from slot.Wyckoff; callers persist the returned state back onto
// the slot.
func (a *Analyzer) Analyze(slot *store.Slot, now time.Time) (Result, store.WyckoffState) {
	bars := slot.Bars.Snapshot()
	if len(bars) < 20 {
		return invalid("insufficient bar history for market structure analysis"), slot.Wyckoff
	}

	closes := closesOf(bars)
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}
	atr := numerics.LatestATR(highs, lows, closes, a.cfg.ATRWindow)

	al := computeAlligator(closes, a.cfg)
	alligatorState := al.State(closes)
	trend := classifyTrend(bars, al, alligatorState)

	supply, demand := detectSupplyDemandZones(bars, atr, a.cfg)
	wyckoffState := evaluateWyckoff(bars, supply, demand, a.cfg, slot.Wyckoff)

	hurst := numerics.HurstRS(closes, a.cfg.HurstUp, a.cfg.HurstDn)
	hurstInterp := string(numerics.HurstRandom)
	if hurst.Valid {
		hurstInterp = string(hurst.Interpretation)
	}

	cycle := numerics.DetectDominantCycle(closes, a.cfg.FFTDominantCycleThreshold)
	var cycleBias *Direction
	if cycle.Found {
		d := cyclePhaseBias(closes, cycle.DominantPeriod)
		cycleBias = &d
	}

	stationarity := numerics.Stationarity(closes, a.cfg.ADFKPSSPValueThreshold)

	wyckoffBias := wyckoffDirectionBias(string(wyckoffState.Phase))
	direction := finalDirection(trend, wyckoffBias, cycleBias)

	last := bars[len(bars)-1]
	nearestSupply, inSupply := nearestZone(supply, last.Close)
	nearestDemand, inDemand := nearestZone(demand, last.Close)

	fibLevel := activeFibLevel(bars, 50, atr, a.cfg.FibBandATRFactor)
	harmonic := activeHarmonic(bars, a.cfg.HarmonicTolerance)

	score := composeScore([]weightedComponent{
			{name: "trend", weight: componentWeight(a.cfg, "trend", 3), value: trendComponentValue(trend)},
			{name: "alligator", weight: componentWeight(a.cfg, "alligator", 2), value: alligatorComponentValue(alligatorState)},
			{name: "wyckoff", weight: componentWeight(a.cfg, "wyckoff", 2), value: wyckoffConfidence(wyckoffState.Score) / 10},
			{name: "hurst", weight: componentWeight(a.cfg, "hurst", 1.5), value: hurstComponentValue(hurst)},
			{name: "zone_proximity", weight: componentWeight(a.cfg, "zone_proximity", 1.5), value: zoneProximityValue(inSupply, inDemand, direction)},
		})

	regime := classifyRegime(hurst, stationarity)

	return Result{
		Valid: true,
		Direction: direction,
		StructureScore: score,
		Regime: regime,
		HurstInterpretation: hurstInterp,
		WyckoffPhase: wyckoffState.Phase,
		WyckoffConfidence: wyckoffConfidence(wyckoffState.Score),
		WyckoffLastEvent: wyckoffState.LastEvent,
		PriceInDemandZone: inDemand,
		PriceInSupplyZone: inSupply,
		NearestSupply: nearestSupply,
		NearestDemand: nearestDemand,
		DominantCyclePeriod: cycle.DominantPeriod,
		IsStationary: stationarity.Valid && stationarity.IsStationary,
		ActiveFibLevel: fibLevel,
		ActiveHarmonic: harmonic,
		AnalyzedAt: now,
	}, wyckoffState
}

func trendComponentValue(d Direction) float64 {
	switch d {
	case DirUptrend, DirDowntrend:
		return 1.0
	default:
		return 0.3
	}
}

func alligatorComponentValue(s AlligatorState) float64 {
	switch s {
	case AlligatorFeedingUp, AlligatorFeedingDown:
		return 1.0
	case AlligatorAwakening:
		return 0.5
	default:
		return 0.1
	}
}

func hurstComponentValue(h numerics.HurstResult) float64 {
	if !h.Valid {
		return 0.3
	}
	switch h.Interpretation {
	case numerics.HurstTrending:
		return 1.0
	case numerics.HurstMeanReverting:
		return 0.6
	default:
		return 0.3
	}
}

func zoneProximityValue(inSupply, inDemand bool, direction Direction) float64 {
	if direction == DirUptrend && inDemand {
		return 1.0
	}
	if direction == DirDowntrend && inSupply {
		return 1.0
	}
	if inSupply || inDemand {
		return 0.5
	}
	return 0.2
}

func classifyRegime(hurst numerics.HurstResult, stat numerics.StationarityResult) string {
	switch {
	case hurst.Valid && hurst.Interpretation == numerics.HurstTrending:
		return "trending"
	case stat.Valid && !stat.IsStationary:
		return "volatile"
	default:
		return "choppy"
	}
}

// cyclePhaseBias estimates whether the dominant cycle currently favors
// up or down by comparing the latest close to the mean of the last
// period's worth of closes.
func cyclePhaseBias(closes []float64, period float64) Direction {
	p := int(period)
	if p < 2 || p > len(closes) {
		return DirSideways
	}
	segment := closes[len(closes)-p:]
	mean := numerics.Mean(segment)
	last := closes[len(closes)-1]
	if last > mean {
		return DirUptrend
	}
	if last < mean {
		return DirDowntrend
	}
	return DirSideways
}
