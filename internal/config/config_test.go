package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	p := writeConfig(t, `sources:
  - id: sim
    type: simulator
    sensors:
      - {name: temperature, baseline: 65.0, variance: 2.5, unit: "°C"}
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.CycleInterval != DefaultCycleInterval {
		t.Errorf("cycle_interval: got %v, want %v", cfg.Pipeline.CycleInterval, DefaultCycleInterval)
	}
	if cfg.Pipeline.BatchesPerCycle != DefaultBatchesPerCycle {
		t.Errorf("batches_per_cycle: got %d, want %d", cfg.Pipeline.BatchesPerCycle, DefaultBatchesPerCycle)
	}
	if cfg.Pipeline.GroupBy != "sensor" {
		t.Errorf("group_by: got %q, want sensor", cfg.Pipeline.GroupBy)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.Snapshot.TTL != DefaultSnapshotTTL {
		t.Errorf("snapshot.ttl: got %v, want %v", cfg.Server.Snapshot.TTL, DefaultSnapshotTTL)
	}
}

func TestLoad_FullPipeline(t *testing.T) {
	p := writeConfig(t, `pipeline:
  cycle_interval: 10s
  batches_per_cycle: 3
  strict: true
  group_by: sensor
  summary_bucket: 1h
  targets:
    - sensor: temperature
      method: iqr
      threshold: 2.0
    - sensor: pressure
      method: rolling
      window: 7
sources:
  - id: sim
    type: simulator
    seed: 42
    dropout_rate: 0.07
    sensors:
      - {name: temperature, baseline: 65.0, variance: 2.5, unit: "°C"}
      - {name: pressure, baseline: 101.3, variance: 1.2, unit: "kPa"}
server:
  http_port: 9090
  broadcast: 2s
  snapshot:
    ttl: 10m
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pipeline.CycleInterval != 10*time.Second {
		t.Errorf("cycle_interval: got %v, want 10s", cfg.Pipeline.CycleInterval)
	}
	if !cfg.Pipeline.Strict {
		t.Error("strict: got false, want true")
	}
	if cfg.Pipeline.SummaryBucket != time.Hour {
		t.Errorf("summary_bucket: got %v, want 1h", cfg.Pipeline.SummaryBucket)
	}
	if len(cfg.Pipeline.Targets) != 2 {
		t.Fatalf("targets: got %d, want 2", len(cfg.Pipeline.Targets))
	}
	if tgt := cfg.Pipeline.Targets[0]; tgt.Method != "iqr" || tgt.Threshold != 2.0 {
		t.Errorf("target 0: got %+v", tgt)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Seed != 42 {
		t.Errorf("sources: got %+v", cfg.Sources)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("http_port: got %d, want 9090", cfg.Server.HTTPPort)
	}
	if cfg.Server.Snapshot.TTL != 10*time.Minute {
		t.Errorf("snapshot.ttl: got %v, want 10m", cfg.Server.Snapshot.TTL)
	}
}

func TestLoad_AuthDefaults(t *testing.T) {
	p := writeConfig(t, `server:
  auth:
    mode: apikey
    key_env: TEST_PULSE_KEY
`)
	t.Setenv("TEST_PULSE_KEY", "supersecret")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h := cfg.Server.Auth.EffectiveHeader(); h != "x-api-key" {
		t.Errorf("EffectiveHeader: got %q, want x-api-key", h)
	}
	if k := cfg.Server.Auth.Key(); k != "supersecret" {
		t.Errorf("Key(): got %q, want supersecret", k)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown source type", `sources:
  - id: s
    type: modbus
`},
		{"missing source id", `sources:
  - type: simulator
    sensors: [{name: t, baseline: 1, variance: 1, unit: u}]
`},
		{"simulator without sensors", `sources:
  - id: sim
    type: simulator
`},
		{"dropout out of range", `sources:
  - id: sim
    type: simulator
    dropout_rate: 1.5
    sensors: [{name: t, baseline: 1, variance: 1, unit: u}]
`},
		{"prometheus without endpoint", `sources:
  - id: prom
    type: prometheus
    metrics: [{family: f, sensor: s, unit: u}]
`},
		{"prometheus without metrics", `sources:
  - id: prom
    type: prometheus
    endpoint: http://localhost:9100/metrics
`},
		{"unknown detection method", `pipeline:
  targets:
    - sensor: temperature
      method: magic
`},
		{"target without sensor", `pipeline:
  targets:
    - method: zscore
`},
		{"unknown group_by", `pipeline:
  group_by: operator
`},
		{"unknown auth mode", `server:
  auth:
    mode: oauth2
`},
		{"zero ttl", `server:
  snapshot:
    ttl: -1s
`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := writeConfig(t, tc.content)
			if _, err := Load(p); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestWebhookURL_FromEnv(t *testing.T) {
	t.Setenv("TEST_HOOK_URL", "https://hooks.example.com/abc")
	wh := WebhookConfig{Type: "slack", URLEnv: "TEST_HOOK_URL"}
	if got := wh.URL(); got != "https://hooks.example.com/abc" {
		t.Errorf("URL: got %q", got)
	}
	if got := (WebhookConfig{Type: "slack"}).URL(); got != "" {
		t.Errorf("URL without env: got %q, want empty", got)
	}
}
