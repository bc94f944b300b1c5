package orderflow

import (
	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/numerics"
)

// barDelta approximates signed trade delta from a bar: sign of
// close-open weighted by volume ("sign of bar's close-open
// weighted by volume").
func barDelta(b domain.Bar) float64 {
	sign := 0.0
	switch {
	case b.Close > b.Open:
		sign = 1
	case b.Close < b.Open:
		sign = -1
	}
	return sign * b.Volume
}

// analyzeDelta computes the delta-analysis sub-result over the trailing
// bars and a bounded delta history ring.
func analyzeDelta(bars []domain.Bar, deltaHistory []float64, consistencyWindow int) DeltaAnalysis {
	if len(bars) == 0 {
		return DeltaAnalysis{}
	}
	if consistencyWindow > len(bars) {
		consistencyWindow = len(bars)
	}
	recent := bars[len(bars)-consistencyWindow:]

	var cumulative float64
	var agree int
	lastSign := 0.0
	if len(deltaHistory) > 0 {
		if deltaHistory[len(deltaHistory)-1] > 0 {
			lastSign = 1
		} else if deltaHistory[len(deltaHistory)-1] < 0 {
			lastSign = -1
		}
	}
	for _, b := range recent {
		d := barDelta(b)
		cumulative += d
		sign := 0.0
		if d > 0 {
			sign = 1
		} else if d < 0 {
			sign = -1
		}
		if lastSign == 0 || sign == lastSign {
			agree++
		}
		if sign != 0 {
			lastSign = sign
		}
	}
	consistency := float64(agree) / float64(len(recent))

	std := numerics.StdDev(deltaHistory)
	strength := 0.0
	if std > 0 {
		strength = absf(cumulative) / std
		if strength > 1 {
			strength = 1
		}
	}

	sign := 0.0
	if cumulative > 0 {
		sign = 1
	} else if cumulative < 0 {
		sign = -1
	}

	return DeltaAnalysis{Sign: sign, Consistency: consistency, Strength: strength, Cumulative: cumulative}
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
