package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// ControlLock serializes mutating CLI invocations. The daemon never takes it.
type ControlLock struct {
	lock *flock.Flock
}

// NewControlLock returns an unlocked lock on path.
func NewControlLock(path string) *ControlLock {
	return &ControlLock{lock: flock.New(path)}
}

// Acquire blocks until the lock is held or timeout elapses.
func (c *ControlLock) Acquire(ctx context.Context, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(c.lock.Path()), 0o755); err != nil {
		return fmt.Errorf("create runtime directory: %w", err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ok, err := c.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrLockTimeout
		}
		return fmt.Errorf("acquire control lock: %w", err)
	}
	if !ok {
		return ErrLockTimeout
	}
	return nil
}

// Release drops the lock. The lock file stays in place.
func (c *ControlLock) Release() error {
	return c.lock.Unlock()
}
