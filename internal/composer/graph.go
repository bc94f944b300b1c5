package composer

import (
	"github.com/Matswm86/Core/internal/orderflow"
	"github.com/Matswm86/Core/internal/structure"
)

// fact is a single structured observation fed into the confluence graph:
// a signed direction (+1 up, -1 down, 0 neutral) and a confidence weight
// in [0,1], forming a weighted digraph over structured facts whose
// strongest path's sign and magnitude drives the decision.
type fact struct {
	name string
	direction int
	weight float64
}

// buildFacts derives the confluence graph's nodes from both analyzers'
// outputs, in a fixed order so confluence edges (an earlier fact agrees
// with a later one) are deterministic across runs.
func buildFacts(ms structure.Result, of orderflow.Result) []fact {
	facts := []fact{
		{name: "ms_trend", direction: msDirectionSign(ms.Direction), weight: ms.StructureScore / 10},
		{name: "ms_wyckoff", direction: wyckoffDirectionSign(string(ms.WyckoffPhase)), weight: ms.WyckoffConfidence / 10},
	}
	if of.Delta.Sign != 0 {
		facts = append(facts, fact{name: "of_delta", direction: int(of.Delta.Sign), weight: of.Delta.Strength})
	}
	if of.BidAsk.Significant {
		facts = append(facts, fact{name: "of_bidask", direction: sign(of.BidAsk.Imbalance), weight: absFloat(of.BidAsk.Imbalance)})
	}
	if of.Absorption.Detected {
		facts = append(facts, fact{name: "of_absorption", direction: absorptionDirectionSign(of.Absorption.Direction), weight: 0.6})
	}
	if vsaDir := vsaDirectionSign(of.VSASignal); vsaDir != 0 {
		facts = append(facts, fact{name: "of_vsa", direction: vsaDir, weight: of.VSAConfidence})
	}
	return facts
}

// strongestPath runs a longest-weighted-path search over the confluence
// DAG: facts are taken in declaration order, with an edge fact[j] ->
// fact[i] for every earlier j < i with the same non-zero direction
// (weight = their average, a confluence bonus), and every fact also
// reaches the "up"/"down" sink directly with its own weight. Edges only
// run to a higher index, so the graph is a DAG and a single forward pass
// computes the longest path to each sink.
func strongestPath(facts []fact) (direction int, magnitude float64) {
	if len(facts) == 0 {
		return 0, 0
	}

	bestToUp := make([]float64, len(facts))
	bestToDown := make([]float64, len(facts))
	for i, f := range facts {
		switch f.direction {
		case 1:
			bestToUp[i] = f.weight
		case -1:
			bestToDown[i] = f.weight
		}
		for j := 0; j < i; j++ {
			if facts[j].direction != f.direction || f.direction == 0 {
				continue
			}
			confluence := (facts[j].weight + f.weight) / 2
			switch f.direction {
			case 1:
				if cand := bestToUp[j] + confluence; cand > bestToUp[i] {
					bestToUp[i] = cand
				}
			case -1:
				if cand := bestToDown[j] + confluence; cand > bestToDown[i] {
					bestToDown[i] = cand
				}
			}
		}
	}

	var maxUp, maxDown float64
	for i := range facts {
		if bestToUp[i] > maxUp {
			maxUp = bestToUp[i]
		}
		if bestToDown[i] > maxDown {
			maxDown = bestToDown[i]
		}
	}

	switch {
	case maxUp > maxDown:
		return 1, maxUp
	case maxDown > maxUp:
		return -1, maxDown
	default:
		return 0, 0
	}
}

func msDirectionSign(d structure.Direction) int {
	switch d {
	case structure.DirUptrend:
		return 1
	case structure.DirDowntrend:
		return -1
	default:
		return 0
	}
}

func wyckoffDirectionSign(phase string) int {
	switch phase {
	case "accumulation", "spring", "markup":
		return 1
	case "distribution", "upthrust", "markdown":
		return -1
	default:
		return 0
	}
}

func absorptionDirectionSign(d orderflow.Direction) int {
	switch d {
	case orderflow.DirUp:
		return 1
	case orderflow.DirDown:
		return -1
	default:
		return 0
	}
}

// vsaDirectionSign maps a VSA signal to its implied directional bias:
// NoSupply and StoppingVolume are bullish continuation/reversal tells;
// NoDemand and UpthrustPotential are bearish.
func vsaDirectionSign(signal orderflow.VSASignal) int {
	switch signal {
	case orderflow.VSANoSupply, orderflow.VSAStoppingVolume:
		return 1
	case orderflow.VSANoDemand, orderflow.VSAUpthrust:
		return -1
	default:
		return 0
	}
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// graphConfluenceMode implements mode 3.
func graphConfluenceMode(ms structure.Result, of orderflow.Result) (score float64, direction int) {
	facts := buildFacts(ms, of)
	dir, magnitude := strongestPath(facts)
	score = magnitude * 10
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score, dir
}
