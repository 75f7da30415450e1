package hardware

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// DeviceKind distinguishes fans from sensors in the thermal class.
type DeviceKind string

// Device kinds found under /sys/class/thermal.
const (
	KindCooling DeviceKind = "cooling"
	KindThermal DeviceKind = "thermal"
)

// Device is one entry of the thermal class directory.
type Device struct {
	Name string
	Kind DeviceKind
	Type string // contents of the "type" attribute, e.g. "pwm-fan"
	Path string

	// Current is cur_state for cooling devices and whole degrees for zones.
	Current int
	// Max is max_state for cooling devices, zero for zones.
	Max int
}

// Discover lists cooling devices and thermal zones directly under root.
// Entries are symlinks on real sysfs and are not followed; only their
// attribute files are read.
func Discover(root string) ([]Device, error) {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		devices []Device
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || path == root {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if filepath.Dir(path) != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		dev, ok := inspect(path, d.Name())
		if ok {
			mu.Lock()
			devices = append(devices, dev)
			mu.Unlock()
		}
		if d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Kind != devices[j].Kind {
			return devices[i].Kind < devices[j].Kind
		}
		return naturalLess(devices[i].Name, devices[j].Name)
	})
	return devices, nil
}

func inspect(path, name string) (Device, bool) {
	var dev Device
	switch {
	case strings.HasPrefix(name, "cooling_device"):
		dev = Device{
			Kind:    KindCooling,
			Current: readIntOr(filepath.Join(path, "cur_state"), Unknown),
			Max:     readIntOr(filepath.Join(path, "max_state"), 0),
		}
	case strings.HasPrefix(name, "thermal_zone"):
		dev = Device{
			Kind:    KindThermal,
			Current: readIntOr(filepath.Join(path, "temp"), 0) / 1000,
		}
	default:
		return Device{}, false
	}

	dev.Name = name
	dev.Path = path
	if data, err := os.ReadFile(filepath.Join(path, "type")); err == nil {
		dev.Type = strings.TrimSpace(string(data))
	}
	return dev, true
}

func readIntOr(path string, fallback int) int {
	v, err := readInt(path)
	if err != nil {
		return fallback
	}
	return v
}

// naturalLess orders cooling_device2 before cooling_device10.
func naturalLess(a, b string) bool {
	ta, na := splitTrailingNumber(a)
	tb, nb := splitTrailingNumber(b)
	if ta != tb {
		return ta < tb
	}
	return na < nb
}

func splitTrailingNumber(s string) (string, int) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	n := 0
	for _, c := range s[i:] {
		n = n*10 + int(c-'0')
	}
	return s[:i], n
}
