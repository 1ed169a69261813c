package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultCycleInterval   = 30 * time.Second
	DefaultBatchesPerCycle = 5
	DefaultHTTPPort        = 8080
	DefaultSnapshotTTL     = 5 * time.Minute
	DefaultBroadcastEvery  = 5 * time.Second
)

// Config is the top-level configuration. Fields map 1:1 to
// config.example.yaml.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Sources  []Source       `yaml:"sources"`
	Server   ServerConfig   `yaml:"server"`
}

// PipelineConfig controls the ingest → detect → summarize cycle.
type PipelineConfig struct {
	// CycleInterval is how often a full pipeline cycle runs.
	CycleInterval time.Duration `yaml:"cycle_interval"`

	// BatchesPerCycle is how many batches each source is asked for per cycle.
	BatchesPerCycle int `yaml:"batches_per_cycle"`

	// Strict enables structural row validation during ingestion.
	Strict bool `yaml:"strict"`

	// GroupBy is the summary grouping field: sensor (default), unit, quality.
	GroupBy string `yaml:"group_by"`

	// SummaryBucket is the optional time-bucket width for summaries.
	// Zero disables time bucketing.
	SummaryBucket time.Duration `yaml:"summary_bucket"`

	// Targets lists the measurements to run anomaly detection on.
	Targets []TargetConfig `yaml:"targets"`
}

// TargetConfig selects one sensor for anomaly detection.
type TargetConfig struct {
	// Sensor is the sensor identifier to analyze.
	Sensor string `yaml:"sensor"`

	// Method is one of: zscore | iqr | rolling. Defaults to zscore.
	Method string `yaml:"method"`

	// Threshold is the method sensitivity. Zero selects the method default
	// (3.0 for zscore/rolling, 1.5 for iqr).
	Threshold float64 `yaml:"threshold"`

	// Window is the rolling window size. Zero selects an adaptive size.
	Window int `yaml:"window"`
}

// Source describes one acquisition source.
type Source struct {
	// ID is a unique, human-readable identifier for this source.
	ID string `yaml:"id"`

	// Type is the source type: simulator | prometheus.
	Type string `yaml:"type"`

	// Endpoint is the metrics URL for prometheus sources.
	Endpoint string `yaml:"endpoint"`

	// Metrics maps exposition metric families to sensors (prometheus only).
	Metrics []MetricMapping `yaml:"metrics"`

	// Seed makes simulator output reproducible. Zero seeds from the clock.
	Seed int64 `yaml:"seed"`

	// DropoutRate is the probability (0–1) that a simulator read fails
	// outright, producing a missing batch.
	DropoutRate float64 `yaml:"dropout_rate"`

	// Readings is the number of readings per sensor in one simulated batch.
	Readings int `yaml:"readings"`

	// Interval is the simulated spacing between consecutive readings.
	Interval time.Duration `yaml:"interval"`

	// Sensors lists the simulated sensor profiles.
	Sensors []SensorProfile `yaml:"sensors"`
}

// MetricMapping converts one Prometheus metric family into readings.
type MetricMapping struct {
	// Family is the exposition family name, e.g. "boiler_temperature_celsius".
	Family string `yaml:"family"`

	// Sensor is the sensor identifier the samples are recorded under.
	Sensor string `yaml:"sensor"`

	// Unit is the unit attached to the resulting readings.
	Unit string `yaml:"unit"`
}

// SensorProfile describes one simulated sensor.
type SensorProfile struct {
	Name     string  `yaml:"name"`
	Baseline float64 `yaml:"baseline"`
	Variance float64 `yaml:"variance"`
	Unit     string  `yaml:"unit"`
}

// ServerConfig holds the HTTP serving surface settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API and WebSocket hub listen on.
	HTTPPort int `yaml:"http_port"`

	// Auth configures API authentication.
	Auth AuthConfig `yaml:"auth"`

	// Snapshot controls in-memory snapshot retention.
	Snapshot SnapshotConfig `yaml:"snapshot"`

	// Broadcast is the WebSocket push interval.
	Broadcast time.Duration `yaml:"broadcast"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`
}

// AuthConfig controls client authentication for the REST API.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected
	// API key. Used when Mode == "apikey".
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the key is read from.
	// Defaults to "x-api-key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// SnapshotConfig controls in-memory snapshot retention.
type SnapshotConfig struct {
	// TTL is how long a sensor's snapshot remains in the store after its
	// last update. Default: 5m.
	TTL time.Duration `yaml:"ttl"`
}

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the
	// deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression over a sensor snapshot:
	// "anomaly_rate > 0.05", "null_pct > 10", "health_score < 60",
	// "state == critical".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			CycleInterval:   DefaultCycleInterval,
			BatchesPerCycle: DefaultBatchesPerCycle,
			GroupBy:         "sensor",
		},
		Server: ServerConfig{
			HTTPPort:  DefaultHTTPPort,
			Broadcast: DefaultBroadcastEvery,
			Snapshot:  SnapshotConfig{TTL: DefaultSnapshotTTL},
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Pipeline.CycleInterval <= 0 {
		return fmt.Errorf("pipeline.cycle_interval must be positive")
	}
	if cfg.Pipeline.BatchesPerCycle <= 0 {
		return fmt.Errorf("pipeline.batches_per_cycle must be positive")
	}
	switch cfg.Pipeline.GroupBy {
	case "sensor", "unit", "quality":
	default:
		return fmt.Errorf("pipeline.group_by: unknown field %q", cfg.Pipeline.GroupBy)
	}
	for i, tgt := range cfg.Pipeline.Targets {
		if tgt.Sensor == "" {
			return fmt.Errorf("pipeline.targets[%d]: sensor is required", i)
		}
		switch tgt.Method {
		case "", "zscore", "iqr", "rolling":
		default:
			return fmt.Errorf("pipeline.targets[%d] %q: unknown method %q", i, tgt.Sensor, tgt.Method)
		}
	}
	for i, src := range cfg.Sources {
		if src.ID == "" {
			return fmt.Errorf("sources[%d]: id is required", i)
		}
		switch src.Type {
		case "simulator":
			if len(src.Sensors) == 0 {
				return fmt.Errorf("sources[%d] %q: simulator needs at least one sensor profile", i, src.ID)
			}
			if src.DropoutRate < 0 || src.DropoutRate > 1 {
				return fmt.Errorf("sources[%d] %q: dropout_rate must be within [0, 1]", i, src.ID)
			}
		case "prometheus":
			if src.Endpoint == "" {
				return fmt.Errorf("sources[%d] %q: endpoint is required", i, src.ID)
			}
			if len(src.Metrics) == 0 {
				return fmt.Errorf("sources[%d] %q: prometheus needs at least one metric mapping", i, src.ID)
			}
		default:
			return fmt.Errorf("sources[%d] %q: unknown type %q", i, src.ID, src.Type)
		}
	}
	switch cfg.Server.Auth.Mode {
	case "", "none", "apikey":
	default:
		return fmt.Errorf("server.auth.mode: unknown mode %q", cfg.Server.Auth.Mode)
	}
	if cfg.Server.Snapshot.TTL <= 0 {
		return fmt.Errorf("server.snapshot.ttl must be positive")
	}
	return nil
}
