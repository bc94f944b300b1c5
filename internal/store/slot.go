package store

import (
	"time"

	"github.com/Matswm86/Core/internal/domain"
)

const (// DefaultBarLookback is the ring length (500) covering the maximum
	// lookback required across all analyzers.
	DefaultBarLookback = 500
	// DefaultDeltaHistory is the bounded delta history length.
	DefaultDeltaHistory = 1000
	// DefaultBayesObservationCap bounds the Bayesian observation buffer
	// used for the delta/imbalance threshold posteriors.
	DefaultBayesObservationCap = 100)

// DynamicThresholds is the per-slot adaptive threshold state consumed
// by the order-flow analyzer's Bayesian updates.
type DynamicThresholds struct {
	Delta float64
	Imbalance float64
	Absorption float64
	LastUpdate time.Time
	VolBasis float64
}

// BayesianPrior is the {mean, variance} prior over a threshold, updated
// by an exponential blend with observations.
type BayesianPrior struct {
	Mean float64
	Variance float64
}

// WyckoffPhase enumerates the Wyckoff FSM states.
type WyckoffPhase string

const (WyckoffUndefined WyckoffPhase = "undefined"
	WyckoffAccumulation WyckoffPhase = "accumulation"
	WyckoffSpring WyckoffPhase = "spring"
	WyckoffMarkup WyckoffPhase = "markup"
	WyckoffDistribution WyckoffPhase = "distribution"
	WyckoffUpthrust WyckoffPhase = "upthrust"
	WyckoffMarkdown WyckoffPhase = "markdown")

// WyckoffState is the per-slot FSM state.
type WyckoffState struct {
	Phase WyckoffPhase
	LastEvent string
	Score float64
	Detail map[string]float64
}

// Zone is a supply or demand price band.
type Zone struct {
	PriceLow float64
	PriceHigh float64
	Strength float64
	LastTouch time.Time
	Invalidated bool
}

// Slot holds all mutable per-(symbol,timeframe) state, owned exclusively
// by the single analyzer thread serialized through the orchestrator's
// slot lock.
type Slot struct {
	Symbol string
	Timeframe domain.Timeframe

	Bars *BarRing
	DeltaHistory *FloatRing
	VolumeHistory *FloatRing
	SpreadHistory *FloatRing

	Thresholds DynamicThresholds
	DeltaPrior BayesianPrior
	ImbalancePrior BayesianPrior
	deltaObs *FloatRing
	imbalanceObs *FloatRing

	GARCHFitted bool
	GARCHLastFit time.Time
	GARCHLastForecast float64
	GARCHLastForecastTime time.Time

	Wyckoff WyckoffState

	SupplyZones []Zone
	DemandZones []Zone

	FlowBaseline *FloatRing // raw delta history used as the JSD baseline window

	CreatedAt time.Time
}

// NewSlot constructs a Slot with the bounded buffers above, created
// lazily at first observation of a (symbol,timeframe) pair.
func NewSlot(symbol string, tf domain.Timeframe) *Slot {
	return &Slot{
		Symbol: symbol,
		Timeframe: tf,
		Bars: NewBarRing(DefaultBarLookback),
		DeltaHistory: NewFloatRing(DefaultDeltaHistory),
		VolumeHistory: NewFloatRing(DefaultBarLookback),
		SpreadHistory: NewFloatRing(DefaultBarLookback),
		deltaObs: NewFloatRing(DefaultBayesObservationCap),
		imbalanceObs: NewFloatRing(DefaultBayesObservationCap),
		Wyckoff: WyckoffState{Phase: WyckoffUndefined, Detail: make(map[string]float64)},
		CreatedAt: time.Now(),
	}
}

// ObserveDelta records a delta observation into the capped Bayesian
// buffer, for later posterior updates in the order-flow analyzer.
func (s *Slot) ObserveDelta(v float64) { s.deltaObs.Push(v) }

// ObserveImbalance records an imbalance observation.
func (s *Slot) ObserveImbalance(v float64) { s.imbalanceObs.Push(v) }

func (s *Slot) DeltaObservations() []float64 { return s.deltaObs.Snapshot() }
func (s *Slot) ImbalanceObservations() []float64 { return s.imbalanceObs.Snapshot() }
