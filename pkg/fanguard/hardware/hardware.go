// Package hardware reads and writes the fan and thermal sysfs interfaces.
//
// Every read degrades to a sentinel or default instead of failing. Firmware
// races are expected and the daemon simply tries again next cycle.
package hardware

import (
	"os"
	"strconv"
	"strings"
)

// Unknown is returned by CurrentState when the fan register cannot be read.
const Unknown = -1

// DefaultMaxState is assumed when max_state is missing or unreadable.
const DefaultMaxState = 4

// Channel is the fan actuator and temperature sensor.
type Channel interface {
	// Temperature returns whole degrees Celsius, or 0 if unreadable.
	Temperature() int
	// CurrentState returns the fan register, or Unknown if unreadable.
	CurrentState() int
	// MaxState returns the highest accepted state, or DefaultMaxState.
	MaxState() int
	// WriteState writes the fan register. Callers may ignore the error.
	WriteState(speed int) error
}

// Paths locates the sysfs files used by Sysfs.
type Paths struct {
	CurState string
	MaxState string
	Temp     string
}

// Sysfs is a Channel over sysfs files. Each call is one synchronous
// read or write; nothing is cached.
type Sysfs struct {
	paths Paths
}

// NewSysfs returns a Channel over the given files.
func NewSysfs(paths Paths) *Sysfs {
	return &Sysfs{paths: paths}
}

// Temperature implements Channel.
func (s *Sysfs) Temperature() int {
	milli, err := readInt(s.paths.Temp)
	if err != nil {
		return 0
	}
	return milli / 1000
}

// CurrentState implements Channel.
func (s *Sysfs) CurrentState() int {
	state, err := readInt(s.paths.CurState)
	if err != nil {
		return Unknown
	}
	return state
}

// MaxState implements Channel.
func (s *Sysfs) MaxState() int {
	maxState, err := readInt(s.paths.MaxState)
	if err != nil || maxState <= 0 {
		return DefaultMaxState
	}
	return maxState
}

// WriteState implements Channel. The file is opened without O_CREATE:
// a missing register is an error, not something to fabricate.
func (s *Sysfs) WriteState(speed int) error {
	f, err := os.OpenFile(s.paths.CurState, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(strconv.Itoa(speed))
	cerr := f.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// Percent converts a state into a percentage of max, clamped to [0, 100].
func Percent(state, maxState int) int {
	if maxState <= 0 || state < 0 {
		return 0
	}
	if state >= maxState {
		return 100
	}
	return state * 100 / maxState
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
