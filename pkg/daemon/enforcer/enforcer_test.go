package enforcer_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/fanguard/pkg/daemon/enforcer"
	"github.com/jamesainslie/fanguard/pkg/fanguard/hardware/hardwaretest"
	"github.com/jamesainslie/fanguard/pkg/fanguard/state"
)

const testPID = 4242

func newLoop(t *testing.T, hw *hardwaretest.Stub, target int) (*enforcer.Loop, *state.MemoryStore) {
	t.Helper()
	store := state.NewMemoryStore()
	require.NoError(t, store.WriteTarget(target))

	cfg := enforcer.DefaultConfig(testPID)
	cfg.Interval = time.Millisecond
	loop := enforcer.New(hw, store, cfg)
	require.NoError(t, loop.Start())
	return loop, store
}

func countEvents(store *state.MemoryStore, substr string) int {
	n := 0
	for _, line := range store.Events() {
		if strings.Contains(line, substr) {
			n++
		}
	}
	return n
}

func steps(loop *enforcer.Loop, n int) {
	for range n {
		loop.Step()
	}
}

func TestStartRecordsLivenessAndBanner(t *testing.T) {
	hw := hardwaretest.New(0, 4)
	loop, store := newLoop(t, hw, 2)

	assert.Equal(t, enforcer.Running, loop.State())

	pid, ok := store.ReadLiveness()
	require.True(t, ok)
	assert.Equal(t, testPID, pid)

	events := store.Events()
	require.Len(t, events, 2)
	assert.Contains(t, events[0], "===== fanguard session")
	assert.Contains(t, events[1], "daemon started: pid=4242 target=2")
	assert.Equal(t, 1, store.Sessions())
}

func TestStartWithoutTarget(t *testing.T) {
	store := state.NewMemoryStore()
	loop := enforcer.New(hardwaretest.New(1, 4), store, enforcer.DefaultConfig(testPID))

	err := loop.Start()
	require.ErrorIs(t, err, enforcer.ErrNoTarget)

	_, ok := store.ReadLiveness()
	assert.False(t, ok, "liveness is cleared when startup fails")
	assert.Equal(t, 1, countEvents(store, "no target speed recorded"))
	assert.Equal(t, enforcer.Terminated, loop.State())
}

func TestFirmwareOverrideScenario(t *testing.T) {
	hw := hardwaretest.New(1, 4)

	// Pre-write burst as the supervisor does before launching.
	for range 10 {
		require.NoError(t, hw.WriteState(3))
	}
	require.Equal(t, 3, hw.CurrentState())

	loop, store := newLoop(t, hw, 3)
	steps(loop, 5)
	assert.Equal(t, 0, countEvents(store, "firmware override"))

	hw.Force(1)
	steps(loop, 2)

	assert.Equal(t, 3, hw.CurrentState(), "register reconverges within two cycles")
	require.Equal(t, 1, countEvents(store, "firmware override"))
	assert.Equal(t, 1, countEvents(store, "1 -> 3"))
}

func TestOverrideIsEdgeTriggered(t *testing.T) {
	hw := hardwaretest.New(3, 4)
	loop, store := newLoop(t, hw, 3)
	loop.Step()

	hw.IgnoreWrites(true)
	hw.Force(1)
	steps(loop, 50)

	assert.Equal(t, 1, countEvents(store, "firmware override (was 3): 1 -> 3"))
	assert.Equal(t, 50, loop.Stats().Corrections, "every mismatched cycle still writes")

	// A second change of the observed value is a new edge.
	hw.Force(0)
	steps(loop, 10)
	assert.Equal(t, 1, countEvents(store, "firmware override (was 1): 0 -> 3"))
	assert.Equal(t, 2, countEvents(store, "firmware override"))
}

func TestPeriodicRewriteWithoutInterference(t *testing.T) {
	hw := hardwaretest.New(2, 4)
	loop, _ := newLoop(t, hw, 2)

	const cycles = 100
	steps(loop, cycles)

	assert.Equal(t, 0, loop.Stats().Corrections)
	assert.Equal(t, cycles/20, hw.WriteCount(), "cycles 0, 20, 40, 60 and 80 rewrite")
	for _, w := range hw.Writes() {
		assert.Equal(t, 2, w)
	}
}

func TestHeartbeatEveryTwoHundredCycles(t *testing.T) {
	hw := hardwaretest.New(2, 4)
	hw.SetTemperature(61)
	loop, store := newLoop(t, hw, 2)

	steps(loop, 200)
	assert.Equal(t, 0, countEvents(store, "heartbeat"))

	steps(loop, 201)
	var beats []string
	for _, line := range store.Events() {
		if strings.Contains(line, "heartbeat") {
			beats = append(beats, line)
		}
	}
	require.Len(t, beats, 2)
	assert.Contains(t, beats[0], "heartbeat: cycle=200 temp=61C corrections=0")
	assert.Contains(t, beats[1], "heartbeat: cycle=400 temp=61C corrections=0")
}

func TestTargetChangeIsPickedUpNextCycle(t *testing.T) {
	hw := hardwaretest.New(2, 4)
	loop, store := newLoop(t, hw, 2)
	steps(loop, 3)

	hw.IgnoreWrites(true)
	hw.Force(1)
	steps(loop, 3)
	require.Equal(t, 3, loop.Stats().Corrections)
	hw.IgnoreWrites(false)

	require.NoError(t, store.WriteTarget(4))
	loop.Step()

	assert.Equal(t, 4, hw.CurrentState())
	assert.Equal(t, 1, countEvents(store, "target changed: 2 -> 4"))

	stats := loop.Stats()
	assert.Equal(t, 4, stats.Target)
	assert.Equal(t, 1, stats.Corrections, "corrections restart from the new target")
}

func TestTornTargetMeansNoChange(t *testing.T) {
	hw := hardwaretest.New(2, 4)
	loop, store := newLoop(t, hw, 2)

	require.NoError(t, store.ClearTarget())
	steps(loop, 5)

	assert.Equal(t, 2, loop.Stats().Target)
	assert.Equal(t, 0, countEvents(store, "target changed"))
}

func TestUnreadableRegister(t *testing.T) {
	hw := hardwaretest.New(2, 4)
	loop, store := newLoop(t, hw, 2)
	loop.Step()
	hw.ResetWrites()

	hw.SetUnreadable(true)
	steps(loop, 3)
	assert.Equal(t, 3, hw.WriteCount(), "unknown state is corrected blindly")
	assert.Equal(t, 0, countEvents(store, "firmware override"))

	hw.SetUnreadable(false)
	hw.Force(0)
	loop.Step()
	assert.Equal(t, 0, countEvents(store, "firmware override"), "no edge from an unknown observation")
	assert.Equal(t, 2, hw.CurrentState())
}

func TestWriteFailuresAreAbsorbed(t *testing.T) {
	hw := hardwaretest.New(0, 4)
	hw.IgnoreWrites(true)
	loop, _ := newLoop(t, hw, 3)

	assert.NotPanics(t, func() { steps(loop, 25) })
	assert.Equal(t, 25, loop.Stats().Cycle)
	assert.Equal(t, enforcer.Running, loop.State())
}

func TestRunStopsOnCancel(t *testing.T) {
	hw := hardwaretest.New(1, 4)
	store := state.NewMemoryStore()
	require.NoError(t, store.WriteTarget(3))

	cfg := enforcer.DefaultConfig(testPID)
	cfg.Interval = time.Millisecond
	loop := enforcer.New(hw, store, cfg)
	assert.Equal(t, enforcer.Idle, loop.State())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.Eventually(t, func() bool {
		return loop.Stats().Cycle > 5
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, hw.CurrentState())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.Equal(t, enforcer.Terminated, loop.State())
	assert.Equal(t, 1, countEvents(store, "daemon stopping"))

	pid, ok := store.ReadLiveness()
	assert.True(t, ok, "the supervisor clears liveness, not the loop")
	assert.Equal(t, testPID, pid)
}

func TestRunWithoutTarget(t *testing.T) {
	loop := enforcer.New(hardwaretest.New(1, 4), state.NewMemoryStore(), enforcer.DefaultConfig(testPID))
	err := loop.Run(context.Background())
	assert.ErrorIs(t, err, enforcer.ErrNoTarget)
}
