package daemon_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/fanguard/pkg/daemon"
)

func TestControlLockExcludesSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "fanguard.lock")
	ctx := context.Background()

	first := daemon.NewControlLock(path)
	require.NoError(t, first.Acquire(ctx, time.Second))

	second := daemon.NewControlLock(path)
	err := second.Acquire(ctx, 150*time.Millisecond)
	require.ErrorIs(t, err, daemon.ErrLockTimeout)

	require.NoError(t, first.Release())
	require.NoError(t, second.Acquire(ctx, time.Second))
	assert.NoError(t, second.Release())
}
