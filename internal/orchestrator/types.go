// Package orchestrator implements the event router (C7): inbound ticks
// are only cached as the symbol's latest quote, and for each inbound bar
// event it acquires the owning (symbol,timeframe) slot, re-runs the Market Structure and Order Flow analyzers against
// the frozen snapshot, fuses their outputs through the composer, and
// submits any resulting signal to the risk evaluator before forwarding
// an accepted trade or a suppression reason downstream.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Matswm86/Core/internal/composer"
	"github.com/Matswm86/Core/internal/domain"
	"github.com/Matswm86/Core/internal/metrics"
	"github.com/Matswm86/Core/internal/orderflow"
	"github.com/Matswm86/Core/internal/risk"
	"github.com/Matswm86/Core/internal/store"
	"github.com/Matswm86/Core/internal/structure"
	"github.com/rs/zerolog"
)

// Config holds the orchestrator's own tunables: the per-symbol rate
// limit ahead of slot acquisition and the inventory
// mean-reversion defaults applied uniformly across symbols absent any
// per-symbol override.
type Config struct {
	RateLimitPerSecond float64
	RateLimitBurst     int

	ATRWindow int

	InventoryMaxPosition       float64
	InventoryNeutralLevel      float64
	InventoryRiskAversion      float64
	InventoryMeanReversionRate float64

	PipValue float64 // account-currency value of one price unit of SL distance

	// ComposerMode labels the tradecore_signals_suppressed_total metric;
	// it mirrors whichever composer.Mode the caller configured (the
	// orchestrator never reads the composer's own config).
	ComposerMode string
}

func DefaultConfig() Config {
	return Config{
		RateLimitPerSecond:         50,
		RateLimitBurst:             100,
		ATRWindow:                  14,
		InventoryMaxPosition:       10,
		InventoryNeutralLevel:      0,
		InventoryRiskAversion:      0.5,
		InventoryMeanReversionRate: 0.3,
		PipValue:                   10,
		ComposerMode:               "rule_based",
	}
}

// Decision is what the orchestrator hands to the downstream caller once
// an event has been fully routed through C3/C4/C5/C6.
type Decision struct {
	Symbol    string
	Timeframe domain.Timeframe
	Accepted  bool
	Reason    string
	Trade     *domain.Trade
	Sizing    *risk.SizedSignal
	Checks    []risk.CheckResult
}

// Journaler persists an accepted trade plus its full risk-gate trail,
// satisfied by *internal/journal.Journal. Kept as a narrow interface
// here (rather than importing the journal package directly) so the
// orchestrator's tests never need a live Postgres connection — the
// dependency runs orchestrator -> journal, never the reverse.
type Journaler interface {
	Append(ctx context.Context, trade domain.Trade, checks []risk.CheckResult) (int64, error)
}

// Orchestrator implements domain.InboundFeed, serializing at most one
// concurrent evaluation per (symbol,timeframe).
type Orchestrator struct {
	cfg Config

	registry   *store.Registry
	msAnalyzer *structure.Analyzer
	ofAnalyzer *orderflow.Analyzer
	composer   *composer.Composer
	riskEval   *risk.Evaluator
	riskState  *domain.RiskState
	execution  domain.ExecutionPort
	metrics    *metrics.Registry
	journal    Journaler // optional; nil disables journaling

	log zerolog.Logger

	locksMu sync.Mutex
	locks   map[slotKey]*sync.Mutex

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter

	ticksMu sync.RWMutex
	ticks   map[string]domain.TickSnapshot

	lastProcessedMu sync.Mutex
	lastProcessed   map[slotKey]time.Time
}

type slotKey struct {
	symbol string
	tf     domain.Timeframe
}

func New(cfg Config,
	registry *store.Registry,
	msAnalyzer *structure.Analyzer,
	ofAnalyzer *orderflow.Analyzer,
	comp *composer.Composer,
	riskEval *risk.Evaluator,
	riskState *domain.RiskState,
	execution domain.ExecutionPort,
	metricsReg *metrics.Registry,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:           cfg,
		registry:      registry,
		msAnalyzer:    msAnalyzer,
		ofAnalyzer:    ofAnalyzer,
		composer:      comp,
		riskEval:      riskEval,
		riskState:     riskState,
		execution:     execution,
		metrics:       metricsReg,
		log:           logger,
		locks:         make(map[slotKey]*sync.Mutex),
		limiters:      make(map[string]*rate.Limiter),
		ticks:         make(map[string]domain.TickSnapshot),
		lastProcessed: make(map[slotKey]time.Time),
	}
}

var _ domain.InboundFeed = (*Orchestrator)(nil)

// SetJournal installs an optional audit/replay-determinism journal,
// appended to after every accepted trade. Left unset, journaling is
// simply skipped.
func (o *Orchestrator) SetJournal(j Journaler) {
	o.journal = j
}

// lockFor returns the (symbol,timeframe) mutex, creating it on first use.
func (o *Orchestrator) lockFor(symbol string, tf domain.Timeframe) *sync.Mutex {
	k := slotKey{symbol, tf}
	o.locksMu.Lock()
	defer o.locksMu.Unlock()
	l, ok := o.locks[k]
	if !ok {
		l = &sync.Mutex{}
		o.locks[k] = l
	}
	return l
}

// limiterFor returns the per-symbol token-bucket limiter, creating it on
// first use.
func (o *Orchestrator) limiterFor(symbol string) *rate.Limiter {
	o.limitersMu.Lock()
	defer o.limitersMu.Unlock()
	l, ok := o.limiters[symbol]
	if !ok {
		l = rate.NewLimiter(rate.Limit(o.cfg.RateLimitPerSecond), o.cfg.RateLimitBurst)
		o.limiters[symbol] = l
	}
	return l
}
