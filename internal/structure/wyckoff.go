package structure

import (
	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/store"
)

// wyckoffEvent is one confidence-weighted observation feeding the phase
// score.
type wyckoffEvent struct {
	name string
	confidence float64
	phase store.WyckoffPhase
}

// evaluateWyckoff runs the event detectors against the latest bar and
// the detected S/D zones, advancing the FSM state and emitting a new
// `phase` only once the aggregated score clears the configured
// threshold.
func evaluateWyckoff(bars []domain.Bar, supply, demand []store.Zone, cfg Config, prev store.WyckoffState) store.WyckoffState {
	if len(bars) < 20 {
		return prev
	}
	last := bars[len(bars)-1]
	avgVolume := averageVolume(bars, 20)

	var events []wyckoffEvent

	if avgVolume > 0 && last.Volume >= cfg.WyckoffVolSpikeFactor*avgVolume {
		_, inDemand := nearestZone(demand, last.Close)
		_, inSupply := nearestZone(supply, last.Close)
		switch {
		case inDemand && last.Close > last.Open:
			events = append(events, wyckoffEvent{"volume_spike_demand", 3.0, store.WyckoffSpring})
		case inSupply && last.Close < last.Open:
			events = append(events, wyckoffEvent{"volume_spike_supply", 3.0, store.WyckoffUpthrust})
		default:
			events = append(events, wyckoffEvent{"volume_spike", 1.5, prev.Phase})
		}
	}

	priorRange := rangeOfBars(bars, 10)
	if priorRange.high > priorRange.low {
		switch {
		case last.Close > priorRange.high:
			events = append(events, wyckoffEvent{"breakout_up", 2.5, store.WyckoffMarkup})
		case last.Close < priorRange.low:
			events = append(events, wyckoffEvent{"breakdown", 2.5, store.WyckoffMarkdown})
		}
	}

	if _, inDemand := nearestZone(demand, last.Close); inDemand {
		events = append(events, wyckoffEvent{"interaction_demand", 2.0, store.WyckoffAccumulation})
	}
	if _, inSupply := nearestZone(supply, last.Close); inSupply {
		events = append(events, wyckoffEvent{"interaction_supply", 2.0, store.WyckoffDistribution})
	}

	var score float64
	detail := make(map[string]float64)
	phaseVotes := make(map[store.WyckoffPhase]float64)
	for _, e := range events {
		score += e.confidence
		detail[e.name] = e.confidence
		phaseVotes[e.phase] += e.confidence
	}

	state := store.WyckoffState{Phase: prev.Phase, LastEvent: prev.LastEvent, Score: score, Detail: detail}
	if len(events) > 0 {
		state.LastEvent = events[len(events)-1].name
	}

	if score >= cfg.WyckoffPhaseConfThreshold {
		best := prev.Phase
		var bestVotes float64 = -1
		for _, p := range []store.WyckoffPhase{
			store.WyckoffAccumulation, store.WyckoffSpring, store.WyckoffMarkup,
			store.WyckoffDistribution, store.WyckoffUpthrust, store.WyckoffMarkdown,
		} {
			if phaseVotes[p] > bestVotes {
				bestVotes = phaseVotes[p]
				best = p
			}
		}
		state.Phase = best
	}
	return state
}

func averageVolume(bars []domain.Bar, window int) float64 {
	if len(bars) == 0 {
		return 0
	}
	if window > len(bars) {
		window = len(bars)
	}
	var sum float64
	for _, b := range bars[len(bars)-window:] {
		sum += b.Volume
	}
	return sum / float64(window)
}

type hl struct{ high, low float64 }

func rangeOfBars(bars []domain.Bar, window int) hl {
	if len(bars) == 0 {
		return hl{}
	}
	if window > len(bars) {
		window = len(bars)
	}
	segment := bars[len(bars)-window:]
	out := hl{high: segment[0].High, low: segment[0].Low}
	for _, b := range segment {
		if b.High > out.high {
			out.high = b.High
		}
		if b.Low < out.low {
			out.low = b.Low
		}
	}
	return out
}

// wyckoffConfidence normalizes the raw aggregate score to [0,10] for
// reporting alongside structure_score.
func wyckoffConfidence(score float64) float64 {
	const cap = 15.0
	v := score / cap * 10
	if v > 10 {
		v = 10
	}
	return v
}
