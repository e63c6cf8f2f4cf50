package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, 5*time.Second, cfg.Scan.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Connect.Timeout)
	assert.Equal(t, 4, cfg.Tasks.QueueDepth)
	assert.Equal(t, "blescope.log", cfg.Logger.Output)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Scan, cfg.Scan)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Tasks.QueueDepth)
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blescope.yaml")
	data := `
backend:
  kind: mock
scan:
  timeout: 2s
connect:
  timeout: 15s
tasks:
  queue_depth: 8
logger:
  level: debug
  format: json
capture:
  dir: /tmp/captures
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMock, cfg.Backend.Kind)
	assert.Equal(t, 2*time.Second, cfg.Scan.Timeout)
	assert.Equal(t, 15*time.Second, cfg.Connect.Timeout)
	assert.Equal(t, 8, cfg.Tasks.QueueDepth)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "/tmp/captures", cfg.Capture.Dir)
	// Untouched sections keep their defaults.
	assert.Equal(t, "blescope", cfg.Tracing.ServiceName)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: [nope"), 0o600))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("BLESCOPE_BACKEND", "mock")
	t.Setenv("BLESCOPE_HCI", "1")
	t.Setenv("BLESCOPE_SCAN_TIMEOUT", "3s")
	t.Setenv("BLESCOPE_CONNECT_TIMEOUT", "not-a-duration")
	t.Setenv("BLESCOPE_QUEUE_DEPTH", "2")
	t.Setenv("BLESCOPE_LOG_LEVEL", "warn")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	t.Setenv("OTEL_SERVICE_NAME", "lab")

	cfg := Defaults()
	ApplyEnvOverrides(cfg)

	assert.Equal(t, "mock", cfg.Backend.Kind)
	assert.Equal(t, 1, cfg.Backend.HCI)
	assert.Equal(t, 3*time.Second, cfg.Scan.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Connect.Timeout, "malformed duration is ignored")
	assert.Equal(t, 2, cfg.Tasks.QueueDepth)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "otlp", cfg.Tracing.Exporter)
	assert.Equal(t, "localhost:4318", cfg.Tracing.Endpoint)
	assert.Equal(t, "lab", cfg.Tracing.ServiceName)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Backend.Kind = "bluez"
	cfg.Scan.Timeout = 0
	cfg.Tasks.QueueDepth = 0
	cfg.Logger.Format = "xml"
	cfg.Tracing.Exporter = "otlp"

	err := Validate(cfg)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Errors, 5)
	assert.Contains(t, err.Error(), "backend.kind")
	assert.Contains(t, err.Error(), "tracing.endpoint")
}
