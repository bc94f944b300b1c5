package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistry_RegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.BarsIngested.WithLabelValues("BTC-USD", "1h").Inc()
	mf, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mf) == 0 {
		t.Fatalf("expected at least one registered metric family")
	}
}

func TestRecordGARCHFit_ObservesDurationAndFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.RecordGARCHFit("BTC-USD", "1h", 0, "non_convergence")

	mf, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found bool
	for _, f := range mf {
		if f.GetName() == "tradecore_garch_fit_failures_total" {
			found = true
			if len(f.Metric) == 0 {
				t.Fatalf("expected at least one failure-counter series")
			}
		}
	}
	if !found {
		t.Fatalf("expected tradecore_garch_fit_failures_total to be registered")
	}
}

func TestAnalyzerTimer_RecordsObservation(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	timer := r.StartAnalyzerTimer("structure")
	timer.Stop()

	mf, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range mf {
		if f.GetName() == "tradecore_analyzer_duration_seconds" {
			if len(f.Metric) != 1 {
				t.Fatalf("expected exactly one histogram series, got %d", len(f.Metric))
			}
			if f.Metric[0].GetHistogram().GetSampleCount() != 1 {
				t.Fatalf("expected one observation recorded")
			}
			return
		}
	}
	t.Fatalf("tradecore_analyzer_duration_seconds not found")
}
