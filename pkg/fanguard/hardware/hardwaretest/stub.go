// Package hardwaretest provides an in-memory hardware.Channel for tests.
package hardwaretest

import (
	"errors"
	"sync"

	"github.com/jamesainslie/fanguard/pkg/fanguard/hardware"
)

// ErrWriteRejected is returned by WriteState while the stub ignores writes.
var ErrWriteRejected = errors.New("hardwaretest: write rejected")

// Stub is a concurrency-safe fan register. Tests act as the firmware by
// calling Force between loop cycles.
type Stub struct {
	mu         sync.Mutex
	state      int
	max        int
	temp       int
	writes     []int
	ignore     bool
	unreadable bool
	afterWrite func(speed int)
}

// New returns a stub at the given state with the given max state.
func New(state, maxState int) *Stub {
	return &Stub{state: state, max: maxState, temp: 50}
}

// Temperature implements hardware.Channel.
func (s *Stub) Temperature() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.temp
}

// CurrentState implements hardware.Channel.
func (s *Stub) CurrentState() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unreadable {
		return hardware.Unknown
	}
	return s.state
}

// MaxState implements hardware.Channel.
func (s *Stub) MaxState() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max
}

// WriteState implements hardware.Channel.
func (s *Stub) WriteState(speed int) error {
	s.mu.Lock()
	s.writes = append(s.writes, speed)
	if s.ignore {
		s.mu.Unlock()
		return ErrWriteRejected
	}
	s.state = speed
	hook := s.afterWrite
	s.mu.Unlock()

	if hook != nil {
		hook(speed)
	}
	return nil
}

// Force sets the register as the firmware would, without counting a write.
func (s *Stub) Force(state int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// SetTemperature sets the reported temperature in degrees.
func (s *Stub) SetTemperature(deg int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temp = deg
}

// IgnoreWrites makes WriteState fail without changing the register.
func (s *Stub) IgnoreWrites(ignore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ignore = ignore
}

// SetUnreadable makes CurrentState return hardware.Unknown.
func (s *Stub) SetUnreadable(unreadable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unreadable = unreadable
}

// OnWrite registers a hook run after every accepted write.
func (s *Stub) OnWrite(fn func(speed int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterWrite = fn
}

// Writes returns a copy of every value passed to WriteState.
func (s *Stub) Writes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.writes))
	copy(out, s.writes)
	return out
}

// WriteCount returns the number of WriteState calls.
func (s *Stub) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

// ResetWrites clears the recorded writes.
func (s *Stub) ResetWrites() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = nil
}

var _ hardware.Channel = (*Stub)(nil)
