package structure

import "github.com/Matswm86/Core/internal/domain"

// classifyTrend composes alligator alignment, triplet slope, and
// close-vs-MAs into a trend direction.
func classifyTrend(bars []domain.Bar, al AlligatorLines, state AlligatorState) Direction {
	if len(bars) == 0 {
		return DirSideways
	}
	slope := al.Slope(5)
	price := bars[len(bars)-1].Close

	n := len(al.Lips)
	var lips, teeth, jaw float64
	if n > 0 {
		lips, teeth, jaw = al.Lips[n-1], al.Teeth[n-1], al.Jaw[n-1]
	}

	closeAboveMAs := price > lips && price > teeth && price > jaw
	closeBelowMAs := price < lips && price < teeth && price < jaw

	switch state {
	case AlligatorFeedingUp:
		if slope > 0 && closeAboveMAs {
			return DirUptrend
		}
	case AlligatorFeedingDown:
		if slope < 0 && closeBelowMAs {
			return DirDowntrend
		}
	}

	if slope > 0 && closeAboveMAs {
		return DirUptrend
	}
	if slope < 0 && closeBelowMAs {
		return DirDowntrend
	}
	return DirSideways
}

// finalDirection combines trend, Wyckoff phase bias, and cycle phase by
// majority vote.
func finalDirection(trend Direction, wyckoffBias Direction, cycleBias *Direction) Direction {
	votes := map[Direction]int{trend: 1, wyckoffBias: 1}
	if cycleBias != nil {
		votes[*cycleBias]++
	}

	best := DirSideways
	bestCount := -1
	// Deterministic iteration order for byte-identical replay: iterate
	// the fixed candidate set rather than the map directly.
	for _, d := range []Direction{DirUptrend, DirDowntrend, DirSideways} {
		if votes[d] > bestCount {
			bestCount = votes[d]
			best = d
		}
	}
	return best
}

// wyckoffDirectionBias maps a Wyckoff phase to a directional lean.
func wyckoffDirectionBias(phase string) Direction {
	switch phase {
	case "accumulation", "spring", "markup":
		return DirUptrend
	case "distribution", "upthrust", "markdown":
		return DirDowntrend
	default:
		return DirSideways
	}
}
