package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
datasets:
  - name: btc
    source: binance
    symbol: BTCUSDT
    shape: ohlcv
  - name: gold
    source: simple
    url: https://example.com/gold?start={start}&end={end}
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Backend != "file" {
		t.Errorf("backend default: %q", cfg.Store.Backend)
	}
	if cfg.Store.OverlapDays != 5 {
		t.Errorf("overlap default: %d", cfg.Store.OverlapDays)
	}
	if cfg.Store.Tiebreak != "first" {
		t.Errorf("tiebreak default: %q", cfg.Store.Tiebreak)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("log level default: %q", cfg.Logging.Level)
	}
	if cfg.Binance.Timeout == 0 {
		t.Errorf("binance timeout default missing")
	}
}

func TestLoadRejectsDuplicateDatasets(t *testing.T) {
	body := `
datasets:
  - name: btc
    source: binance
    symbol: BTCUSDT
  - name: btc
    source: binance
    symbol: BTCUSDT
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected duplicate name error")
	}
}

func TestLoadRejectsSimpleWithoutURL(t *testing.T) {
	body := `
datasets:
  - name: gold
    source: simple
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected missing url error")
	}
}

func TestLoadRejectsUnknownCompositeInput(t *testing.T) {
	body := minimalConfig + `
composite:
  inputs:
    - name: silver
      weight: 1.0
`
	if _, err := Load(writeConfig(t, body)); err == nil {
		t.Fatalf("expected unconfigured composite input error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DIR", "/tmp/divpulse-test")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Dir != "/tmp/divpulse-test" {
		t.Errorf("STORE_DIR not applied: %q", cfg.Store.Dir)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("LOG_LEVEL not applied: %q", cfg.Logging.Level)
	}
}

func TestDatasetLookup(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := cfg.Dataset("btc"); !ok {
		t.Errorf("btc not found")
	}
	if _, ok := cfg.Dataset("ghost"); ok {
		t.Errorf("ghost should not resolve")
	}
}

func TestLoadParsesDurations(t *testing.T) {
	body := minimalConfig + `
scheduler:
  enabled: true
  interval: 90s
cache:
  ttl: 10m
`
	cfg, err := Load(writeConfig(t, body))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scheduler.Interval != 90*time.Second {
		t.Errorf("interval: %v", cfg.Scheduler.Interval)
	}
	if cfg.Cache.TTL != 10*time.Minute {
		t.Errorf("ttl: %v", cfg.Cache.TTL)
	}
}
