// Package structure implements the Market Structure analyzer (C3):
// alligator-triplet trend detection, Wyckoff phase FSM, supply/demand
// zone clustering, Fibonacci/harmonic levels, and cycle detection via the
// numerics kernel's FFT. Scoring runs multi-timeframe over a bar slice
// through a typed Config/Result pair, with the phase transitions driven
// by a classify-by-threshold state machine.
package structure

import (
	"time"

	"github.com/Matswm86/Core/internal/store"
)

// Direction is the MS analyzer's directional call.
type Direction string

const (DirUptrend Direction = "uptrend"
	DirDowntrend Direction = "downtrend"
	DirSideways Direction = "sideways")

// AlligatorState is the Williams Alligator's qualitative mouth state.
type AlligatorState string

const (AlligatorSleeping AlligatorState = "sleeping"
	AlligatorAwakening AlligatorState = "awakening"
	AlligatorFeedingUp AlligatorState = "feeding_up"
	AlligatorFeedingDown AlligatorState = "feeding_down")

// Config holds the MS analyzer's tunables.
type Config struct {
	AlligatorJawPeriod int
	AlligatorTeethPeriod int
	AlligatorLipsPeriod int
	AlligatorJawShift int
	AlligatorTeethShift int
	AlligatorLipsShift int

	HurstUp float64 // h_up, default 0.55
	HurstDn float64 // h_dn, default 0.45

	SDPivotProminenceATRFactor float64
	SDZoneClusterEpsATRFactor float64
	SDZoneInvalidationATRFactor float64

	WyckoffVolSpikeFactor float64
	WyckoffPhaseConfThreshold float64 // default 7.0

	FFTDominantCycleThreshold float64 // default 0.1
	ADFKPSSPValueThreshold float64 // default 0.05

	FibBandATRFactor float64 // default 0.15
	HarmonicTolerance float64 // default 0.05

	ATRWindow int // default 14

	// ComponentWeights overrides composeScore's default per-component
	// weight when a component's name is present, keyed by "trend",
	// "alligator", "wyckoff", "hurst", "zone_proximity".
	ComponentWeights map[string]float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		AlligatorJawPeriod: 13, AlligatorTeethPeriod: 8, AlligatorLipsPeriod: 5,
		AlligatorJawShift: 8, AlligatorTeethShift: 5, AlligatorLipsShift: 3,
		HurstUp: 0.55, HurstDn: 0.45,
		SDPivotProminenceATRFactor: 0.5,
		SDZoneClusterEpsATRFactor: 0.75,
		SDZoneInvalidationATRFactor: 1.0,
		WyckoffVolSpikeFactor: 1.5,
		WyckoffPhaseConfThreshold: 7.0,
		FFTDominantCycleThreshold: 0.1,
		ADFKPSSPValueThreshold: 0.05,
		FibBandATRFactor: 0.15,
		HarmonicTolerance: 0.05,
		ATRWindow: 14,
	}
}

// Result is the MS analyzer's complete output.
type Result struct {
	Valid bool
	Reason string

	Direction Direction
	StructureScore float64 // [0,10]
	Regime string
	HurstInterpretation string
	WyckoffPhase store.WyckoffPhase
	WyckoffConfidence float64
	WyckoffLastEvent string
	PriceInDemandZone bool
	PriceInSupplyZone bool
	NearestSupply *ZoneLevel
	NearestDemand *ZoneLevel
	DominantCyclePeriod float64
	IsStationary bool
	ActiveFibLevel *float64
	ActiveHarmonic string

	AnalyzedAt time.Time
}

func invalid(reason string) Result {
	return Result{Valid: false, Reason: reason}
}
