package hardware_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/fanguard/pkg/fanguard/hardware"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fakeSysfs(t *testing.T) (hardware.Paths, string) {
	t.Helper()
	dir := t.TempDir()
	paths := hardware.Paths{
		CurState: filepath.Join(dir, "cooling_device0", "cur_state"),
		MaxState: filepath.Join(dir, "cooling_device0", "max_state"),
		Temp:     filepath.Join(dir, "thermal_zone0", "temp"),
	}
	writeFile(t, paths.CurState, "1\n")
	writeFile(t, paths.MaxState, "4\n")
	writeFile(t, paths.Temp, "52350\n")
	return paths, dir
}

func TestSysfsReads(t *testing.T) {
	paths, _ := fakeSysfs(t)
	hw := hardware.NewSysfs(paths)

	assert.Equal(t, 52, hw.Temperature())
	assert.Equal(t, 1, hw.CurrentState())
	assert.Equal(t, 4, hw.MaxState())
}

func TestSysfsWriteState(t *testing.T) {
	paths, _ := fakeSysfs(t)
	hw := hardware.NewSysfs(paths)

	require.NoError(t, hw.WriteState(3))
	assert.Equal(t, 3, hw.CurrentState())

	data, err := os.ReadFile(paths.CurState)
	require.NoError(t, err)
	assert.Equal(t, "3", string(data))
}

func TestSysfsDegradesOnFailure(t *testing.T) {
	dir := t.TempDir()
	hw := hardware.NewSysfs(hardware.Paths{
		CurState: filepath.Join(dir, "missing", "cur_state"),
		MaxState: filepath.Join(dir, "missing", "max_state"),
		Temp:     filepath.Join(dir, "missing", "temp"),
	})

	assert.Equal(t, 0, hw.Temperature())
	assert.Equal(t, hardware.Unknown, hw.CurrentState())
	assert.Equal(t, hardware.DefaultMaxState, hw.MaxState())
	assert.Error(t, hw.WriteState(2), "missing register must not be created")

	_, err := os.Stat(filepath.Join(dir, "missing", "cur_state"))
	assert.True(t, os.IsNotExist(err))
}

func TestSysfsGarbageValues(t *testing.T) {
	paths, _ := fakeSysfs(t)
	writeFile(t, paths.CurState, "fast\n")
	writeFile(t, paths.MaxState, "0\n")
	writeFile(t, paths.Temp, "\n")

	hw := hardware.NewSysfs(paths)
	assert.Equal(t, hardware.Unknown, hw.CurrentState())
	assert.Equal(t, hardware.DefaultMaxState, hw.MaxState())
	assert.Equal(t, 0, hw.Temperature())
}

func TestPercent(t *testing.T) {
	tests := []struct {
		state, max, want int
	}{
		{0, 4, 0},
		{1, 4, 25},
		{3, 4, 75},
		{4, 4, 100},
		{9, 4, 100},
		{hardware.Unknown, 4, 0},
		{2, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hardware.Percent(tt.state, tt.max), "Percent(%d, %d)", tt.state, tt.max)
	}
}

func TestDiscover(t *testing.T) {
	_, root := fakeSysfs(t)
	writeFile(t, filepath.Join(root, "cooling_device0", "type"), "pwm-fan\n")
	writeFile(t, filepath.Join(root, "cooling_device10", "type"), "cpufreq-cpu0\n")
	writeFile(t, filepath.Join(root, "cooling_device10", "cur_state"), "0\n")
	writeFile(t, filepath.Join(root, "cooling_device10", "max_state"), "7\n")
	writeFile(t, filepath.Join(root, "cooling_device2", "type"), "processor\n")
	writeFile(t, filepath.Join(root, "thermal_zone0", "type"), "cpu-thermal\n")
	writeFile(t, filepath.Join(root, "unrelated", "type"), "ignored\n")

	devices, err := hardware.Discover(root)
	require.NoError(t, err)
	require.Len(t, devices, 4)

	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"cooling_device0", "cooling_device2", "cooling_device10", "thermal_zone0"}, names)

	fan := devices[0]
	assert.Equal(t, hardware.KindCooling, fan.Kind)
	assert.Equal(t, "pwm-fan", fan.Type)
	assert.Equal(t, 1, fan.Current)
	assert.Equal(t, 4, fan.Max)

	assert.Equal(t, hardware.Unknown, devices[1].Current, "cooling_device2 has no cur_state")

	zone := devices[3]
	assert.Equal(t, hardware.KindThermal, zone.Kind)
	assert.Equal(t, "cpu-thermal", zone.Type)
	assert.Equal(t, 52, zone.Current)
}

func TestDiscoverMissingRoot(t *testing.T) {
	_, err := hardware.Discover(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
