// Package composer implements the Signal Composer (C5): fusing Market
// Structure and Order Flow outputs into a scored decision via rule-based
// fusion (default), a pluggable predictor, or graph-confluence, and
// constructing SL/TP against supply/demand zones with an ATR fallback.
// A typed Config/Result pair carries weighted-component scoring shared
// with the structure/orderflow analyzers, and an ordered-evaluation-
// with-audit-reasons style powers the multi-mode decision composer,
// which takes an explicit PredictorPort collaborator instead of a
// back-pointer.
package composer

import (
	"time"

	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/orderflow"
	"github.com/Matswm86/Core/internal/structure"
)

// Mode selects which decision strategy Compose uses.
type Mode string

const (ModeRuleBased Mode = "rule_based"
	ModePredictor Mode = "predictor"
	ModeGraphConfluence Mode = "graph_confluence")

// Config holds the composer's tunables.
type Config struct {
	Mode Mode

	StructureWeight float64 // default 0.6
	FlowWeight float64 // default 0.4

	BuyThreshold float64 // default 7.0
	SellThreshold float64 // default 7.0
	MLProbabilityThreshold float64 // default 0.65

	SLBufferATR float64 // default 0.2
	ATRMultipleForSL float64 // default 2.0
	ATRMultipleForTP float64 // default 3.0; not read by SL/TP construction, whose no-zone TP uses RiskRewardRatio
	RiskRewardRatio float64 // default 1.5

	// VolatileRegimeThresholdBoost is added to Buy/SellThreshold when the
	// structure analysis reports a volatile regime.
	VolatileRegimeThresholdBoost float64
}

func DefaultConfig() Config {
	return Config{
		Mode: ModeRuleBased,
		StructureWeight: 0.6,
		FlowWeight: 0.4,
		BuyThreshold: 7.0,
		SellThreshold: 7.0,
		MLProbabilityThreshold: 0.65,
		SLBufferATR: 0.2,
		ATRMultipleForSL: 2.0,
		ATRMultipleForTP: 3.0,
		RiskRewardRatio: 1.5,
		VolatileRegimeThresholdBoost: 1.0,
	}
}

// Decision is the composer's complete output, feeding C6 when non-nil
// signal fields are populated, or carrying a suppression Reason otherwise.
type Decision struct {
	Signal bool
	Reason string

	Action domain.Action
	CombinedScore float64 // [0,10]
	ConfidenceModifier float64 // [0.5,1.2]

	Entry float64
	SL float64
	TP float64

	SLReason string
	TPReason string

	MSDirection structure.Direction
	MSScore float64
	OFDirection orderflow.Direction
	OFScore float64
	NearestSupply *structure.ZoneLevel
	NearestDemand *structure.ZoneLevel

	AnalyzedAt time.Time
}

func suppressed(reason string, ms structure.Result, of orderflow.Result, combinedScore float64) Decision {
	return Decision{
		Signal: false,
		Reason: reason,
		CombinedScore: combinedScore,
		MSDirection: ms.Direction,
		MSScore: ms.StructureScore,
		OFDirection: of.Direction,
		OFScore: of.FlowScore,
	}
}

// confidenceModifier implements sizing modifier:
// clamp(0.5 + 0.7*score/10, 0.5, 1.2).
func confidenceModifier(score float64) float64 {
	m := 0.5 + 0.7*score/10
	if m < 0.5 {
		m = 0.5
	}
	if m > 1.2 {
		m = 1.2
	}
	return m
}
