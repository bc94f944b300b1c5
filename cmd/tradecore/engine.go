package main

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Matswm86/Core/internal/composer"
	"github.com/Matswm86/Core/internal/config"
	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/journal"
	"github.com/Matswm86/Core/internal/metrics"
	"github.com/Matswm86/Core/internal/numerics"
	"github.com/Matswm86/Core/internal/numerics/pool"
	"github.com/Matswm86/Core/internal/orchestrator"
	"github.com/Matswm86/Core/internal/orderflow"
	"github.com/Matswm86/Core/internal/risk"
	"github.com/Matswm86/Core/internal/store"
	"github.com/Matswm86/Core/internal/structure"
)

// noopExecution satisfies domain.ExecutionPort when no brokerage adapter
// is configured (the adapter is an out-of-scope external collaborator).
// Submit logs each accepted signal so `run`/`replay` remain observable
// without a live broker; the other methods are silent no-ops.
type noopExecution struct {
	log zerolog.Logger
}

func (e noopExecution) Submit(ctx context.Context, t domain.Trade) error {
	e.log.Info().Str("symbol", t.Symbol).Str("action", string(t.Action)).
	Float64("entry", t.Entry).Float64("sl", t.SL).Float64("tp", t.TP).
	Msg("signal accepted (no execution adapter configured)")
	return nil
}

func (e noopExecution) Modify(ctx context.Context, ticket string, sl, tp *float64) error {
	return nil
}
func (e noopExecution) Cancel(ctx context.Context, ticket string) error { return nil }
func (e noopExecution) Positions(ctx context.Context) ([]domain.OpenPosition, error) {
	return nil, nil
}
func (e noopExecution) AccountStatus(ctx context.Context) (domain.AccountStatus, error) {
	return domain.AccountStatus{}, nil
}

// builtEngine bundles every component the CLI needs a handle on: the
// orchestrator to drive from a feed, the registry for snapshot
// warm-restart, and the raw prometheus registry the metrics server binds.
type builtEngine struct {
	orch         *orchestrator.Orchestrator
	registry     *store.Registry
	promRegistry *prometheus.Registry
	snapshot     *store.SnapshotMirror // nil unless a redis mirror was configured
	journalDB    *sqlx.DB              // nil unless a journal DSN was configured
	timeframes   []domain.Timeframe
}

func newEngine(cfg config.Config, startingBalance float64, logger zerolog.Logger) (*builtEngine, error) {
	timeframes := make([]domain.Timeframe, 0, len(cfg.Timeframes))
	for _, s := range cfg.Timeframes {
		tf := domain.Timeframe(s)
		if !tf.Valid() {
			continue
		}
		timeframes = append(timeframes, tf)
	}

	promReg := prometheus.NewRegistry()
	metricsReg := metrics.NewRegistry(promReg)

	workerPool := pool.New(4, cfg.GARCH.RetrainInterval/10, 30*time.Second)

	garchCfg := numerics.GARCHConfig{
		P: cfg.GARCH.P, Q: cfg.GARCH.Q,
		RetrainInterval: cfg.GARCH.RetrainInterval,
		MinData:         cfg.GARCH.MinData,
	}

	msCfg := structure.DefaultConfig()
	msCfg.FFTDominantCycleThreshold = 0.1
	msCfg.ComponentWeights = cfg.Weights.StructureWeights

	ofCfg := orderflow.DefaultConfig()
	ofCfg.AbsorptionRatio = 2.0
	ofCfg.VSAVolumeAvgPeriod = cfg.VSA.VolumeAvgPeriod
	ofCfg.VSAVolFactorHigh = cfg.VSA.VolFactorHigh
	ofCfg.VSAVolFactorLow = cfg.VSA.VolFactorLow
	ofCfg.VSASpreadFactor = cfg.VSA.SpreadFactor
	ofCfg.FlowDivergenceWindow = cfg.FlowDivergence.Window
	ofCfg.FlowDivergenceBaselineWindow = cfg.FlowDivergence.BaselineWindow
	ofCfg.FlowDivergenceBins = cfg.FlowDivergence.Bins
	ofCfg.FlowDivergenceThreshold = cfg.FlowDivergence.Threshold
	ofCfg.ComponentWeights = cfg.Weights.FlowWeights

	msAnalyzer := structure.NewAnalyzer(msCfg)
	ofAnalyzer := orderflow.NewAnalyzer(ofCfg, garchCfg, workerPool)

	compCfg := composer.DefaultConfig()
	compCfg.StructureWeight = cfg.Weights.StructureWeight
	compCfg.FlowWeight = cfg.Weights.FlowWeight
	compCfg.BuyThreshold = cfg.Signal.BuyThreshold
	compCfg.SellThreshold = cfg.Signal.SellThreshold
	compCfg.MLProbabilityThreshold = cfg.Signal.MLProbabilityThreshold
	compCfg.SLBufferATR = cfg.Signal.SLBufferATR
	compCfg.ATRMultipleForSL = cfg.Signal.ATRMultipleForSL
	compCfg.ATRMultipleForTP = cfg.Signal.ATRMultipleForTP
	compCfg.RiskRewardRatio = cfg.Signal.RiskRewardRatio
	comp := composer.New(compCfg, nil) // no predictor wired by default (rule-based mode)

	riskState := domain.NewRiskState(startingBalance)
	riskEval := risk.New(cfg.Risk, cfg.Kelly, riskState)

	registry := store.NewRegistry()

	orchCfg := orchestrator.DefaultConfig()
	orchCfg.ATRWindow = ofCfg.ATRWindow
	orchCfg.ComposerMode = string(compCfg.Mode)

	orch := orchestrator.New(orchCfg, registry, msAnalyzer, ofAnalyzer, comp, riskEval, riskState,
		noopExecution{log: logger}, metricsReg, logger)

	var snapshot *store.SnapshotMirror
	if cfg.Snapshot.Addr != "" {
		client := store.Dial(cfg.Snapshot.Addr, cfg.Snapshot.Password, cfg.Snapshot.DB)
		snapshot = store.NewSnapshotMirror(client, cfg.Snapshot.KeyPrefix, cfg.Snapshot.TTL)
	}

	var journalDB *sqlx.DB
	if cfg.Journal.DSN != "" {
		db, err := journal.Open(cfg.Journal.DSN)
		if err != nil {
			return nil, err
		}
		journalDB = db
		orch.SetJournal(journal.New(db, cfg.Journal.QueryTimeout))
	}

	return &builtEngine{
		orch:         orch,
		registry:     registry,
		promRegistry: promReg,
		snapshot:     snapshot,
		journalDB:    journalDB,
		timeframes:   timeframes,
	}, nil
}

// restoreSnapshots warm-restarts a known symbol universe's bar rings
// from Redis when a snapshot mirror address is configured. Absent a
// configured mirror this is a no-op — the engine starts cold. Symbols
// are otherwise discovered lazily as bars arrive, so restoring requires
// the operator to know the universe up front; symbols is the same list
// the feed is expected to drive.
func (e *builtEngine) restoreSnapshots(ctx context.Context, symbols []string) error {
	if e.snapshot == nil {
		return nil
	}
	for _, symbol := range symbols {
		for _, tf := range e.timeframes {
			if _, err := e.snapshot.Restore(ctx, e.registry, symbol, tf); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *builtEngine) close() {
	if e.snapshot != nil {
		_ = e.snapshot.Close()
	}
	if e.journalDB != nil {
		_ = e.journalDB.Close()
	}
}
