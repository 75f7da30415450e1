// Package daemon starts, stops and inspects the fanguardd convergence daemon.
//
// The CLI and the daemon never talk directly. The supervisor writes the
// target record, launches the daemon detached and then verifies through the
// liveness record that it came up. Stopping is SIGTERM, a grace period, then
// SIGKILL; the runtime records are cleared either way.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/jamesainslie/fanguard/pkg/fanguard/config"
	"github.com/jamesainslie/fanguard/pkg/fanguard/hardware"
	"github.com/jamesainslie/fanguard/pkg/fanguard/logging"
	"github.com/jamesainslie/fanguard/pkg/fanguard/state"
)

const stopPollInterval = 50 * time.Millisecond

// Options tunes start and stop orchestration.
type Options struct {
	BurstWrites    int
	BurstDelay     time.Duration
	SettleDelay    time.Duration
	VerifyDelay    time.Duration
	GracePeriod    time.Duration
	StatusLogLines int
}

// DefaultOptions returns the stock timings.
func DefaultOptions() Options {
	return Options{
		BurstWrites:    config.DefaultBurstWrites,
		BurstDelay:     config.DefaultBurstDelay,
		SettleDelay:    config.DefaultSettleDelay,
		VerifyDelay:    config.DefaultVerifyDelay,
		GracePeriod:    config.DefaultGracePeriod,
		StatusLogLines: config.DefaultStatusLogLines,
	}
}

// OptionsFromConfig converts the supervisor config section.
func OptionsFromConfig(cfg config.SupervisorConfig) Options {
	return Options{
		BurstWrites:    cfg.BurstWrites,
		BurstDelay:     cfg.BurstDelay,
		SettleDelay:    cfg.SettleDelay,
		VerifyDelay:    cfg.VerifyDelay,
		GracePeriod:    cfg.GracePeriod,
		StatusLogLines: cfg.StatusLogLines,
	}
}

// Supervisor orchestrates the daemon lifecycle.
type Supervisor struct {
	hw       hardware.Channel
	store    state.Store
	launcher Launcher
	procs    ProcessTable
	opts     Options

	sleep func(time.Duration)
	now   func() time.Time
	self  int
	log   *logging.Logger
}

// NewSupervisor returns a Supervisor over the given collaborators.
func NewSupervisor(hw hardware.Channel, store state.Store, launcher Launcher, procs ProcessTable, opts Options) *Supervisor {
	return &Supervisor{
		hw:       hw,
		store:    store,
		launcher: launcher,
		procs:    procs,
		opts:     opts,
		sleep:    time.Sleep,
		now:      time.Now,
		self:     os.Getpid(),
		log:      logging.Get("supervisor"),
	}
}

// WithSleep replaces the function used for every delay.
func (s *Supervisor) WithSleep(sleep func(time.Duration)) *Supervisor {
	s.sleep = sleep
	return s
}

// WithClock replaces the clock used for uptime.
func (s *Supervisor) WithClock(now func() time.Time) *Supervisor {
	s.now = now
	return s
}

// ValidateSpeed checks speed against the hardware's max state.
func (s *Supervisor) ValidateSpeed(speed int) error {
	maxState := s.hw.MaxState()
	if speed < 0 || speed > maxState {
		return InvalidSpeedError(speed, maxState)
	}
	return nil
}

// Start replaces any running daemon with one enforcing speed.
func (s *Supervisor) Start(ctx context.Context, speed int) (StartResult, error) {
	if err := s.ValidateSpeed(speed); err != nil {
		return StartResult{}, err
	}

	result := StartResult{Speed: speed}

	if pid, alive := RecoverStaleLiveness(s.store, s.procs); alive {
		s.log.Info("replacing running daemon", "pid", pid)
		if _, err := s.Stop(); err != nil {
			return result, fmt.Errorf("stop running daemon: %w", err)
		}
		result.Replaced = pid
		s.sleep(s.opts.SettleDelay)
	}

	if err := s.store.ClearLiveness(); err != nil {
		return result, err
	}
	if err := s.store.ClearTarget(); err != nil {
		return result, err
	}
	if err := s.store.WriteTarget(speed); err != nil {
		return result, fmt.Errorf("record target speed: %w", err)
	}

	s.burst(speed)

	if err := ctx.Err(); err != nil {
		_ = s.store.ClearTarget()
		return result, err
	}

	pid, err := s.launcher.Launch(ctx)
	if err != nil {
		_ = s.store.ClearTarget()
		return result, fmt.Errorf("launch daemon: %w", err)
	}
	result.PID = pid
	s.log.Info("daemon launched", "pid", pid, "target", speed)

	s.sleep(s.opts.VerifyDelay)

	if err := s.verify(pid); err != nil {
		return result, err
	}
	return result, nil
}

// burst writes the target repeatedly so the fan is already at speed when
// the daemon takes over.
func (s *Supervisor) burst(speed int) {
	for i := range s.opts.BurstWrites {
		if err := s.hw.WriteState(speed); err != nil {
			s.log.Debug("burst write failed", "speed", speed, "error", err)
		}
		if i < s.opts.BurstWrites-1 {
			s.sleep(s.opts.BurstDelay)
		}
	}
}

func (s *Supervisor) verify(pid int) error {
	reason := ""
	recorded, ok := s.store.ReadLiveness()
	switch {
	case !s.procs.Alive(pid):
		reason = "exited during startup"
	case !ok:
		reason = "did not record liveness"
	case recorded != pid:
		reason = fmt.Sprintf("liveness names pid %d", recorded)
	default:
		return nil
	}

	s.log.Error("daemon failed verification", "pid", pid, "reason", reason)

	tail, err := s.store.TailLog(s.opts.StatusLogLines)
	if err != nil {
		tail = nil
	}

	if s.procs.Alive(pid) {
		s.terminate(pid)
	}
	_ = s.store.ClearLiveness()
	_ = s.store.ClearTarget()

	return &StartError{PID: pid, Reason: reason, LogTail: tail}
}

// Stop terminates the running daemon, if any, and clears the runtime
// records. It is idempotent.
func (s *Supervisor) Stop() (StopResult, error) {
	var result StopResult

	if pid, alive := RecoverStaleLiveness(s.store, s.procs); alive {
		if pid == s.self {
			return result, fmt.Errorf("refusing to signal current process (pid %d)", pid)
		}
		result.PID = pid
		result.WasRunning = true
		result.ForcedKill = s.terminate(pid)
	}

	if err := s.store.ClearLiveness(); err != nil {
		return result, err
	}
	if err := s.store.ClearTarget(); err != nil {
		return result, err
	}

	if result.WasRunning {
		s.log.Info("daemon stopped", "pid", result.PID, "forced", result.ForcedKill)
	}
	return result, nil
}

// terminate sends SIGTERM, waits up to the grace period and escalates to
// SIGKILL. It reports whether SIGKILL was needed.
func (s *Supervisor) terminate(pid int) bool {
	if err := s.procs.Signal(pid, syscall.SIGTERM); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return false
		}
		s.log.Warn("SIGTERM failed", "pid", pid, "error", err)
	}

	for waited := time.Duration(0); waited < s.opts.GracePeriod; waited += stopPollInterval {
		if !s.procs.Alive(pid) {
			return false
		}
		s.sleep(stopPollInterval)
	}
	if !s.procs.Alive(pid) {
		return false
	}

	s.log.Warn("daemon ignored SIGTERM, sending SIGKILL", "pid", pid)
	if err := s.procs.Signal(pid, syscall.SIGKILL); err != nil && !errors.Is(err, os.ErrProcessDone) {
		s.log.Warn("SIGKILL failed", "pid", pid, "error", err)
	}
	return true
}

// Status reports the fan and, if a daemon is alive, its target and recent
// events. The target record is never read when no daemon is alive.
func (s *Supervisor) Status() Status {
	maxState := s.hw.MaxState()
	current := s.hw.CurrentState()
	st := Status{
		Temperature:  s.hw.Temperature(),
		CurrentState: current,
		MaxState:     maxState,
		Percent:      hardware.Percent(current, maxState),
	}

	pid, alive := RecoverStaleLiveness(s.store, s.procs)
	if !alive {
		st.Message = InactiveMessage
		return st
	}

	st.Active = true
	st.PID = pid
	if target, ok := s.store.ReadTarget(); ok {
		st.Target = &target
	}

	if info, err := s.procs.Info(pid); err == nil {
		st.RSS = info.RSS
		if !info.Started.IsZero() {
			st.Started = info.Started
			st.Uptime = s.now().Sub(info.Started).Truncate(time.Second)
		}
	} else {
		s.log.Debug("process info unavailable", "pid", pid, "error", err)
	}

	if lines, err := s.store.TailLog(s.opts.StatusLogLines); err == nil {
		st.Recent = lines
	}
	return st
}

// SetTarget changes the target of the running daemon without restarting
// it. The daemon applies it within one check interval.
func (s *Supervisor) SetTarget(speed int) (int, error) {
	if err := s.ValidateSpeed(speed); err != nil {
		return 0, err
	}

	pid, alive := RecoverStaleLiveness(s.store, s.procs)
	if !alive {
		return 0, ErrNotRunning
	}
	if err := s.store.WriteTarget(speed); err != nil {
		return pid, fmt.Errorf("record target speed: %w", err)
	}
	s.log.Info("target updated", "pid", pid, "target", speed)
	return pid, nil
}
