package enforcer

import (
	"os"
	"path/filepath"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/fanguard/pkg/fanguard/hardware/hardwaretest"
	"github.com/jamesainslie/fanguard/pkg/fanguard/state"
)

func TestLoopMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	m := NewMetrics(reg)

	hw := hardwaretest.New(3, 4)
	hw.SetTemperature(55)
	store := state.NewMemoryStore()
	require.NoError(t, store.WriteTarget(3))

	textfile := filepath.Join(t.TempDir(), "fanguard.prom")
	cfg := DefaultConfig(1)
	cfg.HeartbeatEvery = 10
	cfg.Metrics = m
	cfg.MetricsTextfile = textfile

	loop := New(hw, store, cfg)
	require.NoError(t, loop.Start())
	loop.Step()

	hw.IgnoreWrites(true)
	hw.Force(1)
	for range 10 {
		loop.Step()
	}

	assert.InDelta(t, 11, testutil.ToFloat64(m.cycles), 0)
	assert.InDelta(t, 10, testutil.ToFloat64(m.corrections), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.overrides), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.target), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.observed), 0)
	assert.InDelta(t, 55, testutil.ToFloat64(m.temperature), 0)

	// The heartbeat at cycle 10 exported the registry.
	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fanguard_cycles_total")
	assert.Contains(t, string(data), "fanguard_firmware_overrides_total 1")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeCycle(1)
		m.incCorrection()
		m.incOverride()
		m.setTarget(2)
		m.setTemperature(40)
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	assert.Nil(t, m.Registry())
}

func TestMetricsGather(t *testing.T) {
	m := NewMetrics(nil)
	mfs, err := m.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 6)
}
