package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jamesainslie/fanguard/pkg/fanguard/logging"
)

// HardwareConfig locates the sysfs files of the fan and the thermal zone.
type HardwareConfig struct {
	Dir         string `mapstructure:"dir"`
	CurState    string `mapstructure:"cur_state"`
	MaxState    string `mapstructure:"max_state"`
	Temp        string `mapstructure:"temp"`
	ThermalRoot string `mapstructure:"thermal_root"`
}

// RuntimeConfig locates the coordination files shared by the CLI and the daemon.
type RuntimeConfig struct {
	Dir        string `mapstructure:"dir"`
	PIDFile    string `mapstructure:"pid_file"`
	TargetFile string `mapstructure:"target_file"`
	LogFile    string `mapstructure:"log_file"`
	LockFile   string `mapstructure:"lock_file"`
}

// PIDPath returns the liveness record path.
func (r RuntimeConfig) PIDPath() string { return r.join(r.PIDFile) }

// TargetPath returns the target speed record path.
func (r RuntimeConfig) TargetPath() string { return r.join(r.TargetFile) }

// LogPath returns the event log path.
func (r RuntimeConfig) LogPath() string { return r.join(r.LogFile) }

// LockPath returns the control lock path.
func (r RuntimeConfig) LockPath() string { return r.join(r.LockFile) }

func (r RuntimeConfig) join(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.Dir, name)
}

// LoopConfig tunes the daemon's convergence loop.
type LoopConfig struct {
	CheckInterval  time.Duration `mapstructure:"check_interval"`
	RewriteEvery   int           `mapstructure:"rewrite_every"`
	HeartbeatEvery int           `mapstructure:"heartbeat_every"`
}

// SupervisorConfig tunes start/stop orchestration.
type SupervisorConfig struct {
	BurstWrites    int           `mapstructure:"burst_writes"`
	BurstDelay     time.Duration `mapstructure:"burst_delay"`
	SettleDelay    time.Duration `mapstructure:"settle_delay"`
	VerifyDelay    time.Duration `mapstructure:"verify_delay"`
	GracePeriod    time.Duration `mapstructure:"grace_period"`
	LockTimeout    time.Duration `mapstructure:"lock_timeout"`
	StatusLogLines int           `mapstructure:"status_log_lines"`
}

// DaemonConfig configures how the daemon binary is found.
type DaemonConfig struct {
	BinaryPath string `mapstructure:"binary_path"` // auto-discovered if empty
}

// RotationConfig configures diagnostic log rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures the diagnostic log.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// MetricsConfig configures the Prometheus textfile export of loop counters.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // disabled if empty
}

// Config represents the full fanguard configuration. It deliberately has no
// target speed: that is supplied per invocation.
type Config struct {
	Hardware   HardwareConfig   `mapstructure:"hardware"`
	Runtime    RuntimeConfig    `mapstructure:"runtime"`
	Loop       LoopConfig       `mapstructure:"loop"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Daemon     DaemonConfig     `mapstructure:"daemon"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// Load reads configuration from defaults, an optional YAML file and
// FANGUARD_* environment variables (e.g. FANGUARD_RUNTIME_DIR).
//
// When configFile is empty the file is searched in:
//   - $XDG_CONFIG_HOME/fanguard/config.yaml
//   - /etc/fanguard/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath("/etc/fanguard")
	}

	v.SetEnvPrefix("FANGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("hardware.dir", DefaultHardwareDir)
	v.SetDefault("hardware.cur_state", DefaultCurStatePath)
	v.SetDefault("hardware.max_state", DefaultMaxStatePath)
	v.SetDefault("hardware.temp", DefaultTempPath)
	v.SetDefault("hardware.thermal_root", DefaultThermalRoot)

	v.SetDefault("runtime.dir", DefaultRuntimeDir)
	v.SetDefault("runtime.pid_file", DefaultPIDFile)
	v.SetDefault("runtime.target_file", DefaultTargetFile)
	v.SetDefault("runtime.log_file", DefaultEventLog)
	v.SetDefault("runtime.lock_file", DefaultLockFile)

	v.SetDefault("loop.check_interval", DefaultCheckInterval)
	v.SetDefault("loop.rewrite_every", DefaultRewriteEvery)
	v.SetDefault("loop.heartbeat_every", DefaultHeartbeatEvery)

	v.SetDefault("supervisor.burst_writes", DefaultBurstWrites)
	v.SetDefault("supervisor.burst_delay", DefaultBurstDelay)
	v.SetDefault("supervisor.settle_delay", DefaultSettleDelay)
	v.SetDefault("supervisor.verify_delay", DefaultVerifyDelay)
	v.SetDefault("supervisor.grace_period", DefaultGracePeriod)
	v.SetDefault("supervisor.lock_timeout", DefaultLockTimeout)
	v.SetDefault("supervisor.status_log_lines", DefaultStatusLogLines)

	v.SetDefault("daemon.binary_path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // empty means logging.DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "5MB")
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.daily", false)
	v.SetDefault("logging.components", map[string]string{
		"enforcer":   "info",
		"supervisor": "info",
	})

	v.SetDefault("metrics.textfile", "")
}

// Validate rejects settings the loop or supervisor cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Loop.CheckInterval <= 0:
		return fmt.Errorf("loop.check_interval must be positive, got %s", c.Loop.CheckInterval)
	case c.Loop.RewriteEvery <= 0:
		return fmt.Errorf("loop.rewrite_every must be positive, got %d", c.Loop.RewriteEvery)
	case c.Loop.HeartbeatEvery <= 0:
		return fmt.Errorf("loop.heartbeat_every must be positive, got %d", c.Loop.HeartbeatEvery)
	case c.Supervisor.BurstWrites < 0:
		return fmt.Errorf("supervisor.burst_writes must not be negative, got %d", c.Supervisor.BurstWrites)
	case c.Runtime.Dir == "":
		return errors.New("runtime.dir must be set")
	case c.Hardware.CurState == "":
		return errors.New("hardware.cur_state must be set")
	}
	return nil
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() (logging.Config, error) {
	rotation := logging.DefaultRotationConfig()
	if c.Logging.Rotation.MaxSize != "" {
		size, err := humanize.ParseBytes(c.Logging.Rotation.MaxSize)
		if err != nil {
			return logging.Config{}, fmt.Errorf("invalid logging.rotation.max_size %q: %w", c.Logging.Rotation.MaxSize, err)
		}
		rotation.MaxSize = int64(size)
	}
	rotation.MaxBackups = c.Logging.Rotation.MaxBackups
	rotation.Daily = c.Logging.Rotation.Daily

	return logging.Config{
		Level:      c.Logging.Level,
		Path:       c.Logging.Path,
		Rotation:   rotation,
		Components: c.Logging.Components,
	}, nil
}

// ConfigDir returns $XDG_CONFIG_HOME/fanguard.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, "fanguard")
}
