package daemon

import (
	"github.com/jamesainslie/fanguard/pkg/fanguard/logging"
	"github.com/jamesainslie/fanguard/pkg/fanguard/state"
)

// RecoverStaleLiveness returns the PID of the live daemon, if any. A
// liveness record naming a dead process is removed.
func RecoverStaleLiveness(store state.Store, procs ProcessTable) (int, bool) {
	pid, ok := store.ReadLiveness()
	if !ok {
		return 0, false
	}

	if procs.Alive(pid) {
		return pid, true
	}

	log := logging.Get("supervisor")
	log.Warn("cleaning up stale liveness record", "stale_pid", pid)

	if err := store.ClearLiveness(); err != nil {
		log.Warn("failed to remove stale liveness record", "error", err)
	}
	return 0, false
}
