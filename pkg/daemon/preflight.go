package daemon

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// CheckEnvironment verifies that the fan hardware exists and that the
// current user may write its register.
func CheckEnvironment(hardwareDir, curState string) error {
	info, err := os.Stat(hardwareDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrHardwareMissing, hardwareDir)
		}
		return fmt.Errorf("check %s: %w", hardwareDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrHardwareMissing, hardwareDir)
	}

	// AT_EACCESS judges the effective uid, as a write by this process would be.
	if err := unix.Faccessat(unix.AT_FDCWD, curState, unix.W_OK, unix.AT_EACCESS); err != nil {
		if errors.Is(err, unix.ENOENT) {
			return fmt.Errorf("%w: %s", ErrHardwareMissing, curState)
		}
		return ErrNotPrivileged
	}
	return nil
}
