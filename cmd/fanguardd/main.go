// Package main runs the fanguardd convergence daemon. It is launched
// detached by `fanguard --speed` and reads its target from the runtime
// directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/jamesainslie/fanguard/pkg/daemon/enforcer"
	"github.com/jamesainslie/fanguard/pkg/fanguard/config"
	"github.com/jamesainslie/fanguard/pkg/fanguard/hardware"
	"github.com/jamesainslie/fanguard/pkg/fanguard/logging"
	"github.com/jamesainslie/fanguard/pkg/fanguard/state"
)

func main() {
	configFile := pflag.String("config", "", "config file")
	pflag.Parse()

	// A closed terminal must not take the daemon down with it.
	signal.Ignore(syscall.SIGHUP)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	if err := run(ctx, *configFile); err != nil {
		fmt.Fprintf(os.Stderr, "fanguardd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	logCfg, err := cfg.LoggingConfig()
	if err != nil {
		return err
	}
	if err := logging.Init(logCfg); err != nil {
		// The event log still works without the diagnostic log.
		fmt.Fprintf(os.Stderr, "fanguardd: diagnostic log disabled: %v\n", err)
	}
	defer func() { _ = logging.Close() }()

	log := logging.Get("enforcer")

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

	loopCfg := enforcer.Config{
		Interval:        cfg.Loop.CheckInterval,
		RewriteEvery:    cfg.Loop.RewriteEvery,
		HeartbeatEvery:  cfg.Loop.HeartbeatEvery,
		PID:             os.Getpid(),
		MetricsTextfile: cfg.Metrics.Textfile,
	}
	if cfg.Metrics.Textfile != "" {
		loopCfg.Metrics = enforcer.NewMetrics(nil)
	}

	loop := enforcer.New(hw, store, loopCfg)
	log.Info("fanguardd starting", "pid", loopCfg.PID, "interval", loopCfg.Interval)

	err = loop.Run(ctx)
	stats := loop.Stats()
	switch {
	case errors.Is(err, enforcer.ErrNoTarget):
		log.Error("no target speed recorded", "target_file", cfg.Runtime.TargetPath())
		return err
	case err != nil:
		log.Error("loop failed", "error", err)
		return err
	}

	log.Info("fanguardd stopped", "cycles", stats.Cycle, "corrections", stats.Corrections)
	return nil
}
