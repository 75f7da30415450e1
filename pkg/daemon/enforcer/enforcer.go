// Package enforcer implements the convergence loop hosted by fanguardd.
//
// Each cycle the loop re-reads the target record, compares it with the fan
// register and writes the target back on any mismatch. Every RewriteEvery
// cycles it writes the target unconditionally, and every HeartbeatEvery
// cycles it appends a heartbeat to the event log. Hardware I/O failures are
// never fatal: the next cycle retries.
package enforcer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jamesainslie/fanguard/pkg/fanguard/config"
	"github.com/jamesainslie/fanguard/pkg/fanguard/hardware"
	"github.com/jamesainslie/fanguard/pkg/fanguard/logging"
	"github.com/jamesainslie/fanguard/pkg/fanguard/state"
)

// ErrNoTarget is returned by Start when no target speed has been recorded.
var ErrNoTarget = errors.New("no target speed recorded")

// State is the lifecycle state of a Loop.
type State int

// Loop states.
const (
	Idle State = iota
	Running
	Terminated
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Config tunes the loop.
type Config struct {
	Interval       time.Duration
	RewriteEvery   int
	HeartbeatEvery int

	// PID is recorded in the liveness record.
	PID int

	// Metrics is optional.
	Metrics *Metrics
	// MetricsTextfile is rewritten at every heartbeat and on stop when set.
	MetricsTextfile string
}

// DefaultConfig returns the stock timings.
func DefaultConfig(pid int) Config {
	return Config{
		Interval:       config.DefaultCheckInterval,
		RewriteEvery:   config.DefaultRewriteEvery,
		HeartbeatEvery: config.DefaultHeartbeatEvery,
		PID:            pid,
	}
}

// Stats is a snapshot of the loop counters.
type Stats struct {
	Cycle       int
	Corrections int
	Target      int
	Previous    int
}

// Loop is the single writer of the fan register.
type Loop struct {
	hw    hardware.Channel
	store state.Store
	cfg   Config
	log   *logging.Logger

	mu          sync.Mutex
	state       State
	target      int
	previous    int
	cycle       int
	corrections int
}

// New returns an idle loop.
func New(hw hardware.Channel, store state.Store, cfg Config) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = config.DefaultCheckInterval
	}
	if cfg.RewriteEvery <= 0 {
		cfg.RewriteEvery = config.DefaultRewriteEvery
	}
	if cfg.HeartbeatEvery <= 0 {
		cfg.HeartbeatEvery = config.DefaultHeartbeatEvery
	}
	return &Loop{
		hw:    hw,
		store: store,
		cfg:   cfg,
		log:   logging.Get("enforcer"),
	}
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Stats returns a snapshot of the loop counters.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Cycle:       l.cycle,
		Corrections: l.corrections,
		Target:      l.target,
		Previous:    l.previous,
	}
}

// Run starts the loop and cycles until ctx is done. It returns ErrNoTarget
// if the target record is missing at startup, and nil on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.Start(); err != nil {
		return err
	}
	defer l.setState(Terminated)

	for {
		l.Step()

		select {
		case <-ctx.Done():
			l.stop()
			return nil
		case <-time.After(l.cfg.Interval):
		}
	}
}

// Start records liveness, opens a new event log session and loads the
// initial target. On success the loop is Running and Step may be called.
func (l *Loop) Start() error {
	if err := l.store.RecordLiveness(l.cfg.PID); err != nil {
		l.setState(Terminated)
		return fmt.Errorf("record liveness: %w", err)
	}
	if err := l.store.ResetLog(); err != nil {
		l.log.Warn("failed to reset event log", "error", err)
	}

	target, ok := l.store.ReadTarget()
	if !ok {
		l.event(fmt.Sprintf("error: %s, exiting", ErrNoTarget))
		if err := l.store.ClearLiveness(); err != nil {
			l.log.Warn("failed to clear liveness", "error", err)
		}
		l.setState(Terminated)
		return ErrNoTarget
	}

	l.mu.Lock()
	l.target = target
	l.previous = target
	l.cycle = 0
	l.corrections = 0
	l.state = Running
	l.mu.Unlock()

	l.cfg.Metrics.setTarget(target)
	l.event(fmt.Sprintf("daemon started: pid=%d target=%d", l.cfg.PID, target))
	l.log.Info("loop started", "pid", l.cfg.PID, "target", target, "interval", l.cfg.Interval)
	return nil
}

// Step runs one convergence cycle.
func (l *Loop) Step() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if next, ok := l.store.ReadTarget(); ok && next != l.target {
		l.event(fmt.Sprintf("target changed: %d -> %d", l.target, next))
		l.log.Info("target changed", "from", l.target, "to", next)
		l.target = next
		l.corrections = 0
		l.cfg.Metrics.setTarget(next)
	}

	current := l.hw.CurrentState()
	l.cfg.Metrics.observeCycle(current)

	if current != l.target {
		l.write()
		l.corrections++
		l.cfg.Metrics.incCorrection()

		if current != l.previous && current != hardware.Unknown && l.previous != hardware.Unknown {
			l.event(fmt.Sprintf("firmware override (was %d): %d -> %d", l.previous, current, l.target))
			l.cfg.Metrics.incOverride()
		}
	}

	if l.cycle%l.cfg.RewriteEvery == 0 {
		l.write()
	}

	l.previous = current

	if l.cycle > 0 && l.cycle%l.cfg.HeartbeatEvery == 0 {
		temp := l.hw.Temperature()
		l.event(fmt.Sprintf("heartbeat: cycle=%d temp=%dC corrections=%d", l.cycle, temp, l.corrections))
		l.cfg.Metrics.setTemperature(temp)
		l.flushMetrics()
	}

	l.cycle++
}

func (l *Loop) write() {
	if err := l.hw.WriteState(l.target); err != nil {
		l.log.Debug("fan write failed", "target", l.target, "error", err)
	}
}

func (l *Loop) stop() {
	l.mu.Lock()
	stats := Stats{Cycle: l.cycle, Corrections: l.corrections, Target: l.target}
	l.mu.Unlock()

	l.event(fmt.Sprintf("daemon stopping: cycles=%d corrections=%d", stats.Cycle, stats.Corrections))
	l.log.Info("loop stopped", "cycles", stats.Cycle, "corrections", stats.Corrections)
	l.flushMetrics()
}

func (l *Loop) flushMetrics() {
	if err := l.cfg.Metrics.WriteTextfile(l.cfg.MetricsTextfile); err != nil {
		l.log.Warn("failed to export metrics", "error", err)
	}
}

func (l *Loop) event(msg string) {
	if err := l.store.AppendEvent(msg); err != nil {
		l.log.Warn("failed to append event", "error", err, "event", msg)
	}
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = s
}
