package daemon

import (
	"time"
)

// InactiveMessage is reported when no daemon is enforcing a speed.
const InactiveMessage = "inactive, firmware has automatic control"

// Status is a snapshot of the fan and the daemon.
type Status struct {
	Temperature  int `json:"temperature_c" yaml:"temperature_c"`
	CurrentState int `json:"current_state" yaml:"current_state"`
	MaxState     int `json:"max_state" yaml:"max_state"`
	Percent      int `json:"percent" yaml:"percent"`

	Active  bool   `json:"active" yaml:"active"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// Set only while a daemon is active.
	PID     int           `json:"pid,omitempty" yaml:"pid,omitempty"`
	Target  *int          `json:"target,omitempty" yaml:"target,omitempty"`
	Started time.Time     `json:"started,omitempty" yaml:"started,omitempty"`
	Uptime  time.Duration `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	RSS     uint64        `json:"rss_bytes,omitempty" yaml:"rss_bytes,omitempty"`
	Recent  []string      `json:"recent,omitempty" yaml:"recent,omitempty"`
}

// StartResult describes a successful start.
type StartResult struct {
	PID   int
	Speed int
	// Replaced is the PID of a daemon stopped to make way, or 0.
	Replaced int
}

// StopResult describes a stop. Stopping with no daemon is not an error.
type StopResult struct {
	PID        int
	WasRunning bool
	ForcedKill bool
}
