package orderflow

import "github.com/Matswm86/Core/internal/numerics"

// flowDivergence wraps the numerics kernel's JSD over the slot's delta
// history ("Flow divergence").
func flowDivergence(deltaHistory []float64, cfg Config) numerics.JSDResult {
	return numerics.JensenShannonDivergence(deltaHistory,
		cfg.FlowDivergenceWindow,
		cfg.FlowDivergenceBaselineWindow,
		cfg.FlowDivergenceBins,
		cfg.FlowDivergenceThreshold)
}
