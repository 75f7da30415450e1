package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTailerRestartsOnNewSessionLargerThanOffset(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(Paths{Log: filepath.Join(dir, "fanguard.log")})

	require.NoError(t, store.ResetLog())
	require.NoError(t, store.AppendEvent("old session"))

	info, err := os.Stat(store.paths.Log)
	require.NoError(t, err)
	tl := &tailer{path: store.paths.Log, offset: info.Size(), file: info}

	// The new session outgrows the old offset before the follower drains.
	require.NoError(t, store.ResetLog())
	for range 10 {
		require.NoError(t, store.AppendEvent("new session event"))
	}

	var got []string
	tl.drain(func(line string) { got = append(got, line) })

	require.Len(t, got, 11)
	assert.Contains(t, got[0], "===== fanguard session")
	for _, line := range got {
		assert.False(t, strings.Contains(line, "old session"))
	}
}

func TestTailerContinuesWithinSession(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(Paths{Log: filepath.Join(dir, "fanguard.log")})
	require.NoError(t, store.ResetLog())

	info, err := os.Stat(store.paths.Log)
	require.NoError(t, err)
	tl := &tailer{path: store.paths.Log, offset: info.Size(), file: info}

	require.NoError(t, store.AppendEvent("one"))
	require.NoError(t, store.AppendEvent("two"))

	var got []string
	tl.drain(func(line string) { got = append(got, line) })
	require.Len(t, got, 2)
	assert.True(t, strings.HasSuffix(got[1], "two"))
}
