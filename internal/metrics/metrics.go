// Package metrics exposes the engine's Prometheus instrumentation and
// the HTTP server that serves it: a struct of typed prometheus
// collectors constructed and registered together in one place, a
// timer helper for latency histograms, and an HTTP handler wrapping
// promhttp, covering bar ingestion, signal production, GARCH fit
// latency, and risk-rejection counters.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry holds every Prometheus collector the core exposes.
type Registry struct {
	BarsIngested      *prometheus.CounterVec
	TicksIngested     *prometheus.CounterVec
	BarsRejected      *prometheus.CounterVec
	SignalsEmitted    *prometheus.CounterVec
	SignalsSuppressed *prometheus.CounterVec
	RiskRejections    *prometheus.CounterVec

	GARCHFitDuration *prometheus.HistogramVec
	GARCHFitFailures *prometheus.CounterVec

	AnalyzerDuration *prometheus.HistogramVec

	OpenPositions prometheus.Gauge
	EquityPeak    prometheus.Gauge
	Drawdown      prometheus.Gauge
}

// NewRegistry constructs and registers every collector against the
// provided prometheus.Registerer, so tests can use a private registry
// instead of the global default.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		BarsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_bars_ingested_total",
			Help: "Total bars accepted into a slot's ring.",
		}, []string{"symbol", "timeframe"}),

		TicksIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_ticks_ingested_total",
			Help: "Total ticks processed by the orchestrator.",
		}, []string{"symbol"}),

		BarsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_bars_rejected_total",
			Help: "Bars rejected for non-monotonic timestamps or invariant violations.",
		}, []string{"symbol", "timeframe", "reason"}),

		SignalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_signals_emitted_total",
			Help: "Accepted signals emitted downstream, by action.",
		}, []string{"symbol", "action"}),

		SignalsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_signals_suppressed_total",
			Help: "Signals suppressed below threshold, by composer mode.",
		}, []string{"symbol", "mode"}),

		RiskRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_risk_rejections_total",
			Help: "Signals rejected by the risk evaluator, by reason.",
		}, []string{"symbol", "reason"}),

		GARCHFitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradecore_garch_fit_duration_seconds",
			Help:    "Wall-clock duration of GARCH refits.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"symbol", "timeframe"}),

		GARCHFitFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradecore_garch_fit_failures_total",
			Help: "GARCH refits that failed to converge or exceeded their deadline.",
		}, []string{"symbol", "timeframe", "reason"}),

		AnalyzerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tradecore_analyzer_duration_seconds",
			Help:    "Duration of a single analyzer pass.",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"analyzer"}),

		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradecore_open_positions",
			Help: "Number of currently open positions across all symbols.",
		}),

		EquityPeak: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradecore_equity_peak",
			Help: "Highest observed account equity.",
		}),

		Drawdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradecore_rolling_drawdown",
			Help: "Current rolling drawdown as a fraction of peak equity.",
		}),
	}

	reg.MustRegister(
		r.BarsIngested, r.TicksIngested, r.BarsRejected,
		r.SignalsEmitted, r.SignalsSuppressed, r.RiskRejections,
		r.GARCHFitDuration, r.GARCHFitFailures, r.AnalyzerDuration,
		r.OpenPositions, r.EquityPeak, r.Drawdown,
	)
	return r
}

// AnalyzerTimer times a single analyzer pass and records it on Stop.
type AnalyzerTimer struct {
	registry *Registry
	analyzer string
	start    time.Time
}

// StartAnalyzerTimer begins timing an analyzer invocation.
func (r *Registry) StartAnalyzerTimer(analyzer string) *AnalyzerTimer {
	return &AnalyzerTimer{registry: r, analyzer: analyzer, start: time.Now()}
}

// Stop records the elapsed duration since the timer started.
func (t *AnalyzerTimer) Stop() {
	t.registry.AnalyzerDuration.WithLabelValues(t.analyzer).Observe(time.Since(t.start).Seconds())
}

// RecordGARCHFit records a GARCH refit's duration and, on failure, its reason.
func (r *Registry) RecordGARCHFit(symbol string, tf string, duration time.Duration, failureReason string) {
	r.GARCHFitDuration.WithLabelValues(symbol, tf).Observe(duration.Seconds())
	if failureReason != "" {
		r.GARCHFitFailures.WithLabelValues(symbol, tf, failureReason).Inc()
	}
}

// Server serves /metrics (and a liveness probe) over HTTP via gorilla/mux.
type Server struct {
	registry *prometheus.Registry
	httpSrv  *http.Server
}

// NewServer builds the metrics HTTP server bound to addr, using the
// registry's underlying prometheus.Registry for the /metrics endpoint.
func NewServer(addr string, promReg *prometheus.Registry) *Server {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return &Server{
		registry: promReg,
		httpSrv:  &http.Server{Addr: addr, Handler: router},
	}
}

// Run starts serving until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}
