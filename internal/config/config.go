// Package config loads and validates the closed-form YAML configuration
// for the trading engine: typed nested structs with yaml tags, a Load
// that reads and unmarshals, a Validate that accumulates human-readable
// error strings rather than failing on the first problem, and a Default
// constructor. Unknown keys are rejected at load time.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RiskConfig carries the account-level risk guards.
type RiskConfig struct {
	MaxDrawdown            float64 `yaml:"max_drawdown"`
	MaxDailyLoss           float64 `yaml:"max_daily_loss"`
	MaxDailyProfit         float64 `yaml:"max_daily_profit"`
	RiskPerTrade           float64 `yaml:"risk_per_trade"`
	MaxTradesPerDay        int     `yaml:"max_trades_per_day"`
	MaxConsecutiveLosses   int     `yaml:"max_consecutive_losses"`
	MaxPositionSize        float64 `yaml:"max_position_size"`
	MinVolume              float64 `yaml:"min_volume"`
	VolumeStep             float64 `yaml:"volume_step"`
	MaxCorrelationExposure float64 `yaml:"max_correlation_exposure"`

	VarEnabled           bool    `yaml:"var_enabled"`
	VarConfidenceLevel   float64 `yaml:"var_confidence_level"`
	MaxPortfolioVarRatio float64 `yaml:"max_portfolio_var_ratio"`

	LoosenIfFlat bool `yaml:"dynamic_risk_enabled"`

	TradeCooldownMinutes   int     `yaml:"trade_cooldown_minutes"`
	LossCooldownMultiplier float64 `yaml:"loss_cooldown_multiplier"`
}

// GARCHConfig mirrors `garch_{p,q,retrain_interval,min_data,vol_model,dist}`.
type GARCHConfig struct {
	P               int           `yaml:"garch_p"`
	Q               int           `yaml:"garch_q"`
	RetrainInterval time.Duration `yaml:"garch_retrain_interval"`
	MinData         int           `yaml:"garch_min_data"`
	VolModel        string        `yaml:"garch_vol_model"`
	Dist            string        `yaml:"garch_dist"`
}

// FlowDivergenceConfig mirrors `flow_divergence_{...}`.
type FlowDivergenceConfig struct {
	Window         int     `yaml:"flow_divergence_window"`
	BaselineWindow int     `yaml:"flow_divergence_baseline_window"`
	Bins           int     `yaml:"flow_divergence_bins"`
	Threshold      float64 `yaml:"flow_divergence_threshold"`
}

// VSAConfig mirrors `vsa_{...}`.
type VSAConfig struct {
	VolumeAvgPeriod int     `yaml:"vsa_volume_avg_period"`
	VolFactorHigh   float64 `yaml:"vsa_vol_factor_high"`
	VolFactorLow    float64 `yaml:"vsa_vol_factor_low"`
	SpreadFactor    float64 `yaml:"vsa_spread_factor"`
}

// WeightsConfig mirrors `structure_weight`, `flow_weight`,
// and the per-component weight maps.
type WeightsConfig struct {
	StructureWeight  float64            `yaml:"structure_weight"`
	FlowWeight       float64            `yaml:"flow_weight"`
	StructureWeights map[string]float64 `yaml:"structure_weights"`
	FlowWeights      map[string]float64 `yaml:"flow_weights"`
}

// SignalConfig mirrors threshold/SLTP keys.
type SignalConfig struct {
	BuyThreshold           float64 `yaml:"buy_threshold"`
	SellThreshold          float64 `yaml:"sell_threshold"`
	MLProbabilityThreshold float64 `yaml:"ml_probability_threshold"`
	SLBufferATR            float64 `yaml:"sl_buffer_atr"`
	ATRMultipleForSL       float64 `yaml:"atr_multiple_for_sl"`
	ATRMultipleForTP       float64 `yaml:"atr_multiple_for_tp"`
	RiskRewardRatio        float64 `yaml:"risk_reward_ratio"`
}

// KellyConfig mirrors Kelly-sizing keys.
type KellyConfig struct {
	UseKellySizing    bool    `yaml:"use_kelly_sizing"`
	KellyFraction     float64 `yaml:"kelly_fraction"`
	MinTradesForKelly int     `yaml:"min_trades_for_kelly"`
}

// JournalConfig points the audit/replay-determinism journal
// (internal/journal) at a Postgres DSN. An empty DSN disables journaling
// entirely rather than failing closed, since it sits outside the
// signal-production core proper.
type JournalConfig struct {
	DSN          string        `yaml:"dsn"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// MetricsConfig controls the Prometheus HTTP exporter's bind address.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// SnapshotConfig points the warm-restart bar-ring mirror
// (internal/store.SnapshotMirror) at a Redis instance. An empty Addr
// disables mirroring entirely rather than failing closed, matching
// JournalConfig's pattern for an optional collaborator outside the
// signal-production core proper.
type SnapshotConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// Config is the complete closed-form configuration of the engine. Every
// recognized option is an explicit field; anything else fails to load.
type Config struct {
	Timeframes []string `yaml:"timeframes"`

	Risk           RiskConfig           `yaml:"risk"`
	GARCH          GARCHConfig          `yaml:"garch"`
	FlowDivergence FlowDivergenceConfig `yaml:"flow_divergence"`
	VSA            VSAConfig            `yaml:"vsa"`
	Weights        WeightsConfig        `yaml:"weights"`
	Signal         SignalConfig         `yaml:"signal"`
	Kelly          KellyConfig          `yaml:"kelly"`
	Journal        JournalConfig        `yaml:"journal"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	Snapshot       SnapshotConfig       `yaml:"snapshot"`

	GapRepairMaxPerc float64 `yaml:"gap_repair_max_perc"`
}

// Default returns the documented defaults, written out here as literal
// values rather than taken from the component packages' own
// DefaultConfig functions.
func Default() Config {
	return Config{
		Timeframes: []string{"1h"},
		Risk: RiskConfig{
			MaxDrawdown: 0.04, RiskPerTrade: 0.01, MaxTradesPerDay: 10,
			MaxConsecutiveLosses: 5, MaxPositionSize: 10, MinVolume: 0.01,
			VolumeStep: 0.01, MaxCorrelationExposure: 0.3,
			VarConfidenceLevel: 0.99, MaxPortfolioVarRatio: 0.05,
			TradeCooldownMinutes: 15, LossCooldownMultiplier: 2.0,
		},
		GARCH:          GARCHConfig{P: 1, Q: 1, RetrainInterval: 24 * time.Hour, MinData: 252, VolModel: "garch", Dist: "normal"},
		FlowDivergence: FlowDivergenceConfig{Window: 50, BaselineWindow: 200, Bins: 10, Threshold: 0.1},
		VSA:            VSAConfig{VolumeAvgPeriod: 20, VolFactorHigh: 2.0, VolFactorLow: 0.5, SpreadFactor: 0.5},
		Weights:        WeightsConfig{StructureWeight: 0.6, FlowWeight: 0.4},
		Signal: SignalConfig{
			BuyThreshold: 7.0, SellThreshold: 7.0, MLProbabilityThreshold: 0.65,
			SLBufferATR: 0.2, ATRMultipleForSL: 2.0, ATRMultipleForTP: 3.0, RiskRewardRatio: 1.5,
		},
		Kelly:            KellyConfig{KellyFraction: 0.5, MinTradesForKelly: 50},
		Journal:          JournalConfig{QueryTimeout: 5 * time.Second},
		Metrics:          MetricsConfig{ListenAddr: ":9090"},
		Snapshot:         SnapshotConfig{KeyPrefix: "tradecore:bars:", TTL: 7 * 24 * time.Hour},
		GapRepairMaxPerc: 0.5,
	}
}

// Load reads and strictly unmarshals a YAML config file, rejecting any
// key not present in the closed-form struct.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %s", errs[0])
	}
	return &cfg, nil
}

// Validate checks the loaded configuration for internally-consistent,
// safe values, accumulating every problem found rather than stopping at
// the first.
func (c Config) Validate() []string {
	var errs []string

	if len(c.Timeframes) == 0 {
		errs = append(errs, "timeframes: at least one timeframe must be configured")
	}
	if c.Risk.MaxDrawdown <= 0 || c.Risk.MaxDrawdown > 1 {
		errs = append(errs, fmt.Sprintf("risk.max_drawdown %.4f outside (0,1]", c.Risk.MaxDrawdown))
	}
	if c.Risk.RiskPerTrade <= 0 || c.Risk.RiskPerTrade > 1 {
		errs = append(errs, fmt.Sprintf("risk.risk_per_trade %.4f outside (0,1]", c.Risk.RiskPerTrade))
	}
	if c.Risk.VolumeStep <= 0 {
		errs = append(errs, "risk.volume_step must be positive")
	}
	if c.Risk.MaxPositionSize <= c.Risk.MinVolume {
		errs = append(errs, "risk.max_position_size must exceed risk.min_volume")
	}
	if c.GARCH.MinData < 30 {
		errs = append(errs, fmt.Sprintf("garch.min_data %d is too small for a stable fit (< 30)", c.GARCH.MinData))
	}
	if c.GARCH.RetrainInterval <= 0 {
		errs = append(errs, "garch.retrain_interval must be positive")
	}
	if c.FlowDivergence.Bins <= 0 {
		errs = append(errs, "flow_divergence.bins must be positive")
	}
	if c.Weights.StructureWeight < 0 || c.Weights.FlowWeight < 0 {
		errs = append(errs, "weights.structure_weight and weights.flow_weight must be non-negative")
	}
	if c.Weights.StructureWeight+c.Weights.FlowWeight <= 0 {
		errs = append(errs, "weights.structure_weight and weights.flow_weight cannot both be zero")
	}
	if c.Signal.RiskRewardRatio <= 0 {
		errs = append(errs, "signal.risk_reward_ratio must be positive")
	}
	if c.Kelly.MinTradesForKelly <= 0 {
		errs = append(errs, "kelly.min_trades_for_kelly must be positive")
	}
	if c.Kelly.KellyFraction < 0 || c.Kelly.KellyFraction > 1 {
		errs = append(errs, fmt.Sprintf("kelly.kelly_fraction %.4f outside [0,1]", c.Kelly.KellyFraction))
	}
	if c.GapRepairMaxPerc < 0 || c.GapRepairMaxPerc > 1 {
		errs = append(errs, fmt.Sprintf("gap_repair_max_perc %.4f outside [0,1]", c.GapRepairMaxPerc))
	}
	if c.Journal.DSN != "" && c.Journal.QueryTimeout <= 0 {
		errs = append(errs, "journal.query_timeout must be positive when journal.dsn is set")
	}
	if c.Snapshot.Addr != "" && c.Snapshot.TTL <= 0 {
		errs = append(errs, "snapshot.ttl must be positive when snapshot.addr is set")
	}

	return errs
}
