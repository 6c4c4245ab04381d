package launcher

// Test Plan:
// 1. A marker that already exists satisfies the wait immediately
// 2. A marker created mid-watch is picked up
// 3. The wait times out cleanly when no marker appears
// 4. Context cancellation wins over the timeout

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touchReadyMarker(t *testing.T, sharedDir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(ReadyMarkerPath(sharedDir), nil, 0o644))
}

func TestWaitReadyMarkerPreexists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	touchReadyMarker(t, dir)
	assert.True(t, IsReady(dir))

	err := WaitReady(context.Background(), dir, 5*time.Second)
	require.NoError(t, err)
}

func TestWaitReadyMarkerAppears(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	assert.False(t, IsReady(dir))

	go func() {
		time.Sleep(100 * time.Millisecond)
		os.WriteFile(ReadyMarkerPath(dir), nil, 0o644)
	}()

	err := WaitReady(context.Background(), dir, 5*time.Second)
	require.NoError(t, err)
}

func TestWaitReadyTimeout(t *testing.T) {
	t.Parallel()

	err := WaitReady(context.Background(), t.TempDir(), 150*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not ready")
}

func TestWaitReadyCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := WaitReady(ctx, t.TempDir(), 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
}
