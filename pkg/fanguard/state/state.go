// Package state holds the runtime records shared by the fanguard CLI and the
// fanguardd daemon: the liveness record (daemon PID), the target speed and
// the event log.
//
// The two processes coordinate only through these records. There is no
// locking: the daemon is the single writer of the liveness record and the
// event log, and a torn target read is reported as absent, which the daemon
// treats as "no change" until the next cycle.
package state

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by TailLog when no event log exists.
var ErrNotFound = errors.New("not found")

// TimeFormat stamps every event log line.
const TimeFormat = "15:04:05"

// Store is the runtime state shared between processes.
type Store interface {
	RecordLiveness(pid int) error
	// ReadLiveness returns the recorded PID. ok is false when the record is
	// missing or unparsable; it says nothing about the process being alive.
	ReadLiveness() (pid int, ok bool)
	ClearLiveness() error

	WriteTarget(speed int) error
	// ReadTarget returns the recorded target. ok is false when the record
	// is missing or unparsable.
	ReadTarget() (speed int, ok bool)
	ClearTarget() error

	// ResetLog truncates the event log and writes a session delimiter.
	ResetLog() error
	// AppendEvent appends one "[HH:MM:SS] message" line.
	AppendEvent(message string) error
	// TailLog returns the last n lines, or all lines if n <= 0.
	TailLog(n int) ([]string, error)
}

// FormatEvent renders one event log line.
func FormatEvent(at time.Time, message string) string {
	return fmt.Sprintf("[%s] %s", at.Format(TimeFormat), message)
}

// SessionDelimiter renders the first line message of a new daemon session.
func SessionDelimiter(session string) string {
	return fmt.Sprintf("===== fanguard session %s =====", session)
}

func lastN(lines []string, n int) []string {
	if n <= 0 || n >= len(lines) {
		out := make([]string, len(lines))
		copy(out, lines)
		return out
	}
	out := make([]string, n)
	copy(out, lines[len(lines)-n:])
	return out
}
