package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/fanguard/pkg/daemon"
	"github.com/jamesainslie/fanguard/pkg/fanguard/config"
	"github.com/jamesainslie/fanguard/pkg/fanguard/hardware"
	"github.com/jamesainslie/fanguard/pkg/fanguard/logging"
	"github.com/jamesainslie/fanguard/pkg/fanguard/output"
	"github.com/jamesainslie/fanguard/pkg/fanguard/state"
)

// app holds the collaborators of one CLI invocation.
type app struct {
	cfg   *config.Config
	hw    hardware.Channel
	store *state.FileStore
	sup   *daemon.Supervisor
	lock  *daemon.ControlLock
	log   *logging.Logger
}

// buildApp is replaced in tests to inject a fake launcher or process table.
var buildApp = newApp

func newApp(configFile string) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	logCfg, err := cfg.LoggingConfig()
	if err != nil {
		return nil, err
	}
	if verbose {
		logCfg.ConsoleLevel = "debug"
	}
	if err := logging.Init(logCfg); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "warning: diagnostic log disabled: %v\n", err)
	}

	// Loggers are captured at construction, so everything is built after Init.
	hw := hardware.NewSysfs(hardware.Paths{
		CurState: cfg.Hardware.CurState,
		MaxState: cfg.Hardware.MaxState,
		Temp:     cfg.Hardware.Temp,
	})
	store := state.NewFileStore(state.Paths{
		PID:    cfg.Runtime.PIDPath(),
		Target: cfg.Runtime.TargetPath(),
		Log:    cfg.Runtime.LogPath(),
	})

	var daemonArgs []string
	if configFile != "" {
		daemonArgs = []string{"--config", configFile}
	}
	launcher := daemon.ExecLauncher{Binary: cfg.Daemon.BinaryPath, Args: daemonArgs}

	return &app{
		cfg:   cfg,
		hw:    hw,
		store: store,
		sup:   daemon.NewSupervisor(hw, store, launcher, daemon.OSProcessTable{}, daemon.OptionsFromConfig(cfg.Supervisor)),
		lock:  daemon.NewControlLock(cfg.Runtime.LockPath()),
		log:   logging.Get("cli"),
	}, nil
}

func (a *app) close() {
	_ = logging.Close()
}

// preflight refuses to continue when the fan is absent or not writable.
func (a *app) preflight() error {
	return daemon.CheckEnvironment(a.cfg.Hardware.Dir, a.cfg.Hardware.CurState)
}

// withLock runs fn while holding the control lock.
func (a *app) withLock(ctx context.Context, fn func() error) error {
	if err := a.lock.Acquire(ctx, a.cfg.Supervisor.LockTimeout); err != nil {
		return err
	}
	defer func() {
		if err := a.lock.Release(); err != nil {
			a.log.Warn("failed to release control lock", "error", err)
		}
	}()
	return fn()
}

func (a *app) runSpeed(cmd *cobra.Command, speed int) error {
	// Rejected before the lock or any state is touched.
	if err := a.sup.ValidateSpeed(speed); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result daemon.StartResult
	err := a.withLock(ctx, func() error {
		var err error
		result, err = a.sup.Start(ctx, speed)
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result.Replaced != 0 {
		fmt.Fprintln(out, output.MutedStyle.Render(fmt.Sprintf("Stopped previous daemon (pid %d)", result.Replaced)))
	}
	fmt.Fprintf(out, "%s fan held at %d/%d (pid %d)\n",
		output.SuccessStyle.Render("✓"), result.Speed, a.hw.MaxState(), result.PID)
	return nil
}

func (a *app) runStop(cmd *cobra.Command) error {
	var result daemon.StopResult
	err := a.withLock(cmd.Context(), func() error {
		var err error
		result, err = a.sup.Stop()
		return err
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case !result.WasRunning:
		fmt.Fprintln(out, output.MutedStyle.Render("No daemon running; firmware has automatic control"))
	case result.ForcedKill:
		fmt.Fprintf(out, "%s daemon (pid %d) killed after ignoring SIGTERM; firmware has automatic control\n",
			output.WarningStyle.Render("!"), result.PID)
	default:
		fmt.Fprintf(out, "%s daemon (pid %d) stopped; firmware has automatic control\n",
			output.SuccessStyle.Render("✓"), result.PID)
	}
	return nil
}

func (a *app) runSet(cmd *cobra.Command, speed int) error {
	var pid int
	err := a.withLock(cmd.Context(), func() error {
		var err error
		pid, err = a.sup.SetTarget(speed)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s target of daemon (pid %d) set to %d\n",
		output.SuccessStyle.Render("✓"), pid, speed)
	return nil
}

func (a *app) runStatus(cmd *cobra.Command, formatName string) error {
	f, err := output.Get(formatName)
	if err != nil {
		return err
	}
	st := a.sup.Status()
	var buf bytes.Buffer
	if err := f.Format(&buf, &st); err != nil {
		return fmt.Errorf("format status: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

func (a *app) runLogs(cmd *cobra.Command, n int, follow bool) error {
	if n <= 0 {
		return fmt.Errorf("invalid line count %d: must be positive", n)
	}
	out := cmd.OutOrStdout()

	lines, err := a.store.TailLog(n)
	switch {
	case err == nil:
		for _, line := range lines {
			fmt.Fprintln(out, line)
		}
	case !follow:
		return fmt.Errorf("no event log at %s", a.cfg.Runtime.LogPath())
	}

	if !follow {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = a.store.Follow(ctx, func(line string) {
		fmt.Fprintln(out, output.EventStyle(line).Render(line))
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
