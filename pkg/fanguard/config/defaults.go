// Package config provides configuration management for fanguard.
package config

import "time"

// Hardware interface defaults for a Raspberry Pi 5 style PWM fan exposed as
// a thermal cooling device.
const (
	// DefaultHardwareDir must exist for fanguard to run at all.
	DefaultHardwareDir = "/sys/class/thermal/cooling_device0"

	// DefaultCurStatePath is the contested fan register.
	DefaultCurStatePath = DefaultHardwareDir + "/cur_state"

	// DefaultMaxStatePath reports the highest accepted fan state.
	DefaultMaxStatePath = DefaultHardwareDir + "/max_state"

	// DefaultTempPath reports the CPU temperature in milli-degrees.
	DefaultTempPath = "/sys/class/thermal/thermal_zone0/temp"

	// DefaultThermalRoot is scanned by `fanguard devices`.
	DefaultThermalRoot = "/sys/class/thermal"
)

// Runtime coordination defaults. The directory is tmpfs-backed so nothing
// survives a reboot.
const (
	DefaultRuntimeDir = "/run/fanguard"
	DefaultPIDFile    = "fanguard.pid"
	DefaultTargetFile = "fanguard.target"
	DefaultEventLog   = "fanguard.log"
	DefaultLockFile   = "fanguard.lock"
)

// Loop and supervisor timing defaults.
const (
	DefaultCheckInterval  = 150 * time.Millisecond
	DefaultRewriteEvery   = 20
	DefaultHeartbeatEvery = 200

	DefaultBurstWrites = 10
	DefaultBurstDelay  = 50 * time.Millisecond
	DefaultSettleDelay = 500 * time.Millisecond
	DefaultVerifyDelay = time.Second
	DefaultGracePeriod = time.Second
	DefaultLockTimeout = 5 * time.Second

	// DefaultStatusLogLines is how many event log lines `--status` shows.
	DefaultStatusLogLines = 5

	// DefaultTailLines is the `--logs` default.
	DefaultTailLines = 30
)

// DaemonBinaryName is the name the supervisor looks for when no binary path
// is configured.
const DaemonBinaryName = "fanguardd"
