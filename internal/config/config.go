// Package config loads blescope settings from YAML, environment and defaults.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in backend.kind.
const (
	BackendGoBLE  = "goble"
	BackendTinyGo = "tinygo"
	BackendMock   = "mock"
)

// Config is the top-level application configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Scan    ScanConfig    `yaml:"scan"`
	Connect ConnectConfig `yaml:"connect"`
	Tasks   TasksConfig   `yaml:"tasks"`
	Logger  LoggerConfig  `yaml:"logger"`
	Tracing TracingConfig `yaml:"tracing"`
	Capture CaptureConfig `yaml:"capture"`
}

// BackendConfig selects the BLE stack.
type BackendConfig struct {
	Kind string `yaml:"kind"` // goble, tinygo or mock
	HCI  int    `yaml:"hci"`  // HCI device index, goble only
}

// ScanConfig controls discovery.
type ScanConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// ConnectConfig controls dialing and service discovery.
type ConnectConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// TasksConfig controls the action queue.
type TasksConfig struct {
	QueueDepth int `yaml:"queue_depth"`
}

// CaptureConfig controls where exported GATT snapshots are written.
type CaptureConfig struct {
	Dir string `yaml:"dir"` // empty: $BLESCOPE_CAPTURE_DIR or ~/.blescope/captures
}

// LoggerConfig controls structured logging.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
	Output string `yaml:"output"` // file path, "stderr" or "stdout"
}

// TracingConfig controls OpenTelemetry export.
type TracingConfig struct {
	Exporter    string `yaml:"exporter"` // noop, stdout or otlp
	Endpoint    string `yaml:"endpoint"` // host:port for otlp
	Output      string `yaml:"output"`   // file the stdout exporter writes to
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	kind := BackendTinyGo
	if runtime.GOOS == "linux" {
		kind = BackendGoBLE
	}
	return &Config{
		Backend: BackendConfig{Kind: kind},
		Scan:    ScanConfig{Timeout: 5 * time.Second},
		Connect: ConnectConfig{Timeout: 10 * time.Second},
		Tasks:   TasksConfig{QueueDepth: 4},
		Logger: LoggerConfig{
			Level:  "info",
			Format: "text",
			Output: "blescope.log",
		},
		Tracing: TracingConfig{
			Exporter:    "noop",
			Output:      "blescope-spans.json",
			Insecure:    true,
			ServiceName: "blescope",
		},
	}
}

// Load reads a YAML config file over Defaults, applies env var overrides and
// validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides maps BLESCOPE_* and the standard OTEL_* env vars to
// config fields. Malformed numbers and durations are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BLESCOPE_BACKEND"); v != "" {
		cfg.Backend.Kind = v
	}
	if v := os.Getenv("BLESCOPE_HCI"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.HCI = n
		}
	}
	if v := os.Getenv("BLESCOPE_SCAN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scan.Timeout = d
		}
	}
	if v := os.Getenv("BLESCOPE_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Connect.Timeout = d
		}
	}
	if v := os.Getenv("BLESCOPE_QUEUE_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Tasks.QueueDepth = n
		}
	}
	if v := os.Getenv("BLESCOPE_LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("BLESCOPE_LOG_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("BLESCOPE_LOG_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := os.Getenv("BLESCOPE_TRACING_EXPORTER"); v != "" {
		cfg.Tracing.Exporter = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Tracing.Endpoint = v
		if os.Getenv("BLESCOPE_TRACING_EXPORTER") == "" {
			cfg.Tracing.Exporter = "otlp"
		}
	}
	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		cfg.Tracing.ServiceName = v
	}
}
