package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeTempConfig(t, `
timeframes: ["1h", "4h"]
risk:
  max_drawdown: 0.05
  risk_per_trade: 0.02
  volume_step: 0.01
  max_position_size: 5
  min_volume: 0.01
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading valid config: %v", err)
	}
	if len(cfg.Timeframes) != 2 {
		t.Fatalf("expected 2 timeframes, got %d", len(cfg.Timeframes))
	}
	if cfg.Risk.MaxDrawdown != 0.05 {
		t.Fatalf("expected overridden max_drawdown, got %.4f", cfg.Risk.MaxDrawdown)
	}
	// Untouched sections should retain the defaults.
	if cfg.GARCH.MinData != 252 {
		t.Fatalf("expected default garch.min_data to survive partial override, got %d", cfg.GARCH.MinData)
	}
}

func TestLoad_RejectsUnknownKey(t *testing.T) {
	path := writeTempConfig(t, `
timeframes: ["1h"]
not_a_real_key: true
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an unrecognized top-level key")
	}
}

func TestValidate_CatchesInvalidDrawdown(t *testing.T) {
	cfg := Default()
	cfg.Risk.MaxDrawdown = 0
	errs := cfg.Validate()
	if len(errs) == 0 {
		t.Fatalf("expected validation errors for zero max_drawdown")
	}
}

func TestValidate_DefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Fatalf("expected default config to validate cleanly, got: %v", errs)
	}
}
