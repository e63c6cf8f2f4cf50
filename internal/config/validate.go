package config

import (
	"fmt"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate returns a *ValidationError listing every problem in cfg, or nil.
func Validate(cfg *Config) error {
	ve := &ValidationError{}

	switch cfg.Backend.Kind {
	case BackendGoBLE, BackendTinyGo, BackendMock:
	default:
		ve.Add("backend.kind: unknown backend %q (want goble, tinygo or mock)", cfg.Backend.Kind)
	}
	if cfg.Backend.HCI < 0 {
		ve.Add("backend.hci: must be >= 0, got %d", cfg.Backend.HCI)
	}
	if cfg.Scan.Timeout <= 0 {
		ve.Add("scan.timeout: must be positive, got %s", cfg.Scan.Timeout)
	}
	if cfg.Connect.Timeout <= 0 {
		ve.Add("connect.timeout: must be positive, got %s", cfg.Connect.Timeout)
	}
	if cfg.Tasks.QueueDepth < 1 {
		ve.Add("tasks.queue_depth: must be at least 1, got %d", cfg.Tasks.QueueDepth)
	}

	switch strings.ToLower(cfg.Logger.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		ve.Add("logger.level: unknown level %q", cfg.Logger.Level)
	}
	switch strings.ToLower(cfg.Logger.Format) {
	case "text", "json":
	default:
		ve.Add("logger.format: unknown format %q (want text or json)", cfg.Logger.Format)
	}

	switch cfg.Tracing.Exporter {
	case "", "noop", "stdout":
	case "otlp":
		if cfg.Tracing.Endpoint == "" {
			ve.Add("tracing.endpoint: required when tracing.exporter is otlp")
		}
	default:
		ve.Add("tracing.exporter: unknown exporter %q (want noop, stdout or otlp)", cfg.Tracing.Exporter)
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
