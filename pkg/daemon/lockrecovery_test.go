package daemon_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/fanguard/pkg/daemon"
	"github.com/jamesainslie/fanguard/pkg/fanguard/state"
)

func TestRecoverStaleLiveness_NoRecord(t *testing.T) {
	store := state.NewMemoryStore()

	pid, alive := daemon.RecoverStaleLiveness(store, newFakeProcs())
	assert.False(t, alive)
	assert.Zero(t, pid)
}

func TestRecoverStaleLiveness_ProcessRunning(t *testing.T) {
	store := state.NewMemoryStore()
	procs := newFakeProcs()
	procs.spawn(2024)
	require.NoError(t, store.RecordLiveness(2024))

	pid, alive := daemon.RecoverStaleLiveness(store, procs)
	assert.True(t, alive)
	assert.Equal(t, 2024, pid)

	_, ok := store.ReadLiveness()
	assert.True(t, ok, "a live record is kept")
}

func TestRecoverStaleLiveness_StaleProcess(t *testing.T) {
	store := state.NewMemoryStore()
	require.NoError(t, store.RecordLiveness(999999999))

	_, alive := daemon.RecoverStaleLiveness(store, newFakeProcs())
	assert.False(t, alive)

	_, ok := store.ReadLiveness()
	assert.False(t, ok, "the stale record is removed")
}

func TestOSProcessTable(t *testing.T) {
	procs := daemon.OSProcessTable{}

	assert.True(t, procs.Alive(os.Getpid()))
	assert.False(t, procs.Alive(0))
	assert.False(t, procs.Alive(-1))
	assert.False(t, procs.Alive(999999999))

	info, err := procs.Info(os.Getpid())
	require.NoError(t, err)
	assert.NotZero(t, info.RSS)
	assert.False(t, info.Started.IsZero())

	assert.ErrorIs(t, procs.Signal(999999999, 0), os.ErrProcessDone)
	assert.Error(t, procs.Signal(0, 0))
}
