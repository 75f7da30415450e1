package daemon

import (
	"errors"
	"fmt"
)

var (
	// ErrNotRunning is returned by operations that need a live daemon.
	ErrNotRunning = errors.New("no fanguard daemon is running")

	// ErrInvalidSpeed is returned for a speed outside [0, max_state].
	ErrInvalidSpeed = errors.New("invalid speed")

	// ErrHardwareMissing is returned when the fan's sysfs directory does not exist.
	ErrHardwareMissing = errors.New("fan hardware interface not found")

	// ErrNotPrivileged is returned when the fan register is not writable.
	ErrNotPrivileged = errors.New("must be run as root")

	// ErrStartVerification is wrapped by every StartError.
	ErrStartVerification = errors.New("daemon failed to start")

	// ErrLockTimeout is returned when another invocation holds the control lock.
	ErrLockTimeout = errors.New("another fanguard command is in progress")
)

// StartError reports a daemon that did not survive startup verification.
// LogTail holds the last event log lines for diagnosis.
type StartError struct {
	PID     int
	Reason  string
	LogTail []string
}

func (e *StartError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("%s: pid %d %s", ErrStartVerification, e.PID, e.Reason)
	}
	return fmt.Sprintf("%s: %s", ErrStartVerification, e.Reason)
}

func (e *StartError) Unwrap() error {
	return ErrStartVerification
}

// InvalidSpeedError formats an out-of-range speed.
func InvalidSpeedError(speed, maxState int) error {
	return fmt.Errorf("%w %d: must be between 0 and %d", ErrInvalidSpeed, speed, maxState)
}
