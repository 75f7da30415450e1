package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/jamesainslie/fanguard/pkg/fanguard/config"
)

// Launcher starts a detached daemon process and returns its PID.
type Launcher interface {
	Launch(ctx context.Context) (int, error)
}

// ExecLauncher runs the fanguardd binary in its own session so that it
// survives the invoking terminal and the CLI process.
type ExecLauncher struct {
	// Binary is the daemon executable. Auto-discovered if empty.
	Binary string
	// Args are passed to the daemon, e.g. --config.
	Args []string
}

// Launch implements Launcher.
func (l ExecLauncher) Launch(_ context.Context) (int, error) {
	binary, err := resolveBinary(l.Binary)
	if err != nil {
		return 0, fmt.Errorf("find %s: %w", config.DaemonBinaryName, err)
	}

	// exec.Command, not CommandContext: the daemon must outlive the caller.
	cmd := exec.Command(binary, l.Args...) //nolint:gosec // binary path is validated
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start daemon: %w", err)
	}

	// Reap the child so an early exit does not linger as a zombie that
	// still answers Kill(pid, 0). The daemon outlives this goroutine when
	// the CLI exits first.
	go func() { _ = cmd.Wait() }()

	return cmd.Process.Pid, nil
}

// resolveBinary finds the daemon binary.
// Priority: configured path > same directory as executable > PATH.
func resolveBinary(configured string) (string, error) {
	if configured != "" {
		if _, err := os.Stat(configured); err != nil {
			return "", fmt.Errorf("configured binary not found: %s", configured)
		}
		return configured, nil
	}

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), config.DaemonBinaryName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(config.DaemonBinaryName); err == nil {
		return path, nil
	}

	return "", errors.New(config.DaemonBinaryName + " not found")
}
