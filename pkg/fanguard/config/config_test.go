package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultCurStatePath, cfg.Hardware.CurState)
	assert.Equal(t, DefaultMaxStatePath, cfg.Hardware.MaxState)
	assert.Equal(t, DefaultTempPath, cfg.Hardware.Temp)
	assert.Equal(t, DefaultCheckInterval, cfg.Loop.CheckInterval)
	assert.Equal(t, DefaultRewriteEvery, cfg.Loop.RewriteEvery)
	assert.Equal(t, DefaultHeartbeatEvery, cfg.Loop.HeartbeatEvery)
	assert.Equal(t, DefaultBurstWrites, cfg.Supervisor.BurstWrites)
	assert.Equal(t, DefaultGracePeriod, cfg.Supervisor.GracePeriod)
	assert.Equal(t, filepath.Join(DefaultRuntimeDir, DefaultPIDFile), cfg.Runtime.PIDPath())
	assert.Equal(t, filepath.Join(DefaultRuntimeDir, DefaultTargetFile), cfg.Runtime.TargetPath())
	assert.Equal(t, filepath.Join(DefaultRuntimeDir, DefaultEventLog), cfg.Runtime.LogPath())
	assert.Empty(t, cfg.Metrics.Textfile)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
hardware:
  cur_state: /tmp/fan/cur_state
runtime:
  dir: /tmp/fanguard-test
  pid_file: /var/run/custom.pid
loop:
  check_interval: 100ms
  rewrite_every: 10
supervisor:
  grace_period: 2s
metrics:
  textfile: /var/lib/node_exporter/fanguard.prom
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/fan/cur_state", cfg.Hardware.CurState)
	assert.Equal(t, DefaultMaxStatePath, cfg.Hardware.MaxState)
	assert.Equal(t, 100*time.Millisecond, cfg.Loop.CheckInterval)
	assert.Equal(t, 10, cfg.Loop.RewriteEvery)
	assert.Equal(t, 2*time.Second, cfg.Supervisor.GracePeriod)
	assert.Equal(t, "/var/run/custom.pid", cfg.Runtime.PIDPath(), "absolute file names are kept")
	assert.Equal(t, "/tmp/fanguard-test/fanguard.target", cfg.Runtime.TargetPath())
	assert.Equal(t, "/var/lib/node_exporter/fanguard.prom", cfg.Metrics.Textfile)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FANGUARD_RUNTIME_DIR", "/tmp/from-env")
	t.Setenv("FANGUARD_LOOP_CHECK_INTERVAL", "300ms")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-env", cfg.Runtime.Dir)
	assert.Equal(t, 300*time.Millisecond, cfg.Loop.CheckInterval)
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loop:\n  rewrite_every: 0\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "rewrite_every")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoggingConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Logging.Rotation.MaxSize = "1MB"
	lc, err := cfg.LoggingConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(1000*1000), lc.Rotation.MaxSize)
	assert.Equal(t, "info", lc.Level)

	cfg.Logging.Rotation.MaxSize = "lots"
	_, err = cfg.LoggingConfig()
	assert.Error(t, err)
}
