package enforcer

import (
	"fmt"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes loop counters in Prometheus form. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	reg *prom.Registry

	cycles      prom.Counter
	corrections prom.Counter
	overrides   prom.Counter
	target      prom.Gauge
	observed    prom.Gauge
	temperature prom.Gauge
}

// NewMetrics registers the loop metrics on reg, or on a fresh registry if
// reg is nil.
func NewMetrics(reg *prom.Registry) *Metrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	m := &Metrics{
		reg: reg,
		cycles: prom.NewCounter(prom.CounterOpts{
			Namespace: "fanguard",
			Name:      "cycles_total",
			Help:      "Convergence cycles executed",
		}),
		corrections: prom.NewCounter(prom.CounterOpts{
			Namespace: "fanguard",
			Name:      "corrections_total",
			Help:      "Writes caused by a mismatch between observed and target state",
		}),
		overrides: prom.NewCounter(prom.CounterOpts{
			Namespace: "fanguard",
			Name:      "firmware_overrides_total",
			Help:      "Observed out-of-band changes to the fan register",
		}),
		target: prom.NewGauge(prom.GaugeOpts{
			Namespace: "fanguard",
			Name:      "target_state",
			Help:      "Fan state being enforced",
		}),
		observed: prom.NewGauge(prom.GaugeOpts{
			Namespace: "fanguard",
			Name:      "observed_state",
			Help:      "Fan state read at the last cycle, -1 if unreadable",
		}),
		temperature: prom.NewGauge(prom.GaugeOpts{
			Namespace: "fanguard",
			Name:      "temperature_celsius",
			Help:      "CPU temperature at the last heartbeat",
		}),
	}
	reg.MustRegister(m.cycles, m.corrections, m.overrides, m.target, m.observed, m.temperature)
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prom.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) observeCycle(observed int) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	m.observed.Set(float64(observed))
}

func (m *Metrics) incCorrection() {
	if m == nil {
		return
	}
	m.corrections.Inc()
}

func (m *Metrics) incOverride() {
	if m == nil {
		return
	}
	m.overrides.Inc()
}

func (m *Metrics) setTarget(target int) {
	if m == nil {
		return
	}
	m.target.Set(float64(target))
}

func (m *Metrics) setTemperature(deg int) {
	if m == nil {
		return
	}
	m.temperature.Set(float64(deg))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prom.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
