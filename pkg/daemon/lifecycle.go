package daemon

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/process"
	"golang.org/x/sys/unix"
)

// zombieStatus is the process state letter of an exited, unreaped process.
const zombieStatus = "Z"

// ProcessInfo describes a running daemon process.
type ProcessInfo struct {
	Started time.Time
	RSS     uint64
}

// ProcessTable answers liveness questions about PIDs and delivers signals.
type ProcessTable interface {
	// Alive reports whether pid names an existing process.
	Alive(pid int) bool
	// Signal delivers sig to pid.
	Signal(pid int, sig syscall.Signal) error
	// Info returns resource usage for pid.
	Info(pid int) (ProcessInfo, error)
}

// OSProcessTable is the ProcessTable of the running system.
type OSProcessTable struct{}

// Alive implements ProcessTable. A process owned by another user still
// counts as alive; a zombie does not.
func (OSProcessTable) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if err := unix.Kill(pid, 0); err != nil && !errors.Is(err, unix.EPERM) {
		return false
	}
	return !isZombie(pid)
}

// isZombie reports whether pid has exited but not been reaped. Kill(pid, 0)
// still succeeds for such a process.
func isZombie(pid int) bool {
	proc, err := process.NewProcess(int32(pid)) //nolint:gosec // pids fit in int32
	if err != nil {
		return false
	}
	status, err := proc.Status()
	if err != nil {
		return false
	}
	return status == zombieStatus
}

// Signal implements ProcessTable.
func (OSProcessTable) Signal(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	if err := unix.Kill(pid, sig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		return fmt.Errorf("signal %d: %w", pid, err)
	}
	return nil
}

// Info implements ProcessTable.
func (OSProcessTable) Info(pid int) (ProcessInfo, error) {
	proc, err := process.NewProcess(int32(pid)) //nolint:gosec // pids fit in int32
	if err != nil {
		return ProcessInfo{}, fmt.Errorf("inspect process %d: %w", pid, err)
	}

	var info ProcessInfo
	if created, err := proc.CreateTime(); err == nil {
		info.Started = time.UnixMilli(created)
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		info.RSS = mem.RSS
	}
	return info, nil
}

var _ ProcessTable = OSProcessTable{}
