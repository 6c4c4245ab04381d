package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReadyMarkerName is the file the node writes into the shared directory
// once it is serving, and removes on shutdown.
const ReadyMarkerName = "search.ready"

// ReadyMarkerPath returns the marker location inside the shared directory.
func ReadyMarkerPath(sharedDir string) string {
	return filepath.Join(sharedDir, ReadyMarkerName)
}

// IsReady reports whether the ready marker currently exists.
func IsReady(sharedDir string) bool {
	_, err := os.Stat(ReadyMarkerPath(sharedDir))
	return err == nil
}

// WaitReady blocks until the node publishes its ready marker, the timeout
// elapses, or ctx is done. The directory is watched before the first
// stat, so a marker appearing between the two is not missed.
func WaitReady(ctx context.Context, sharedDir string, timeout time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(sharedDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", sharedDir, err)
	}
	if IsReady(sharedDir) {
		return nil
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("node not ready after %s", timeout)
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if filepath.Base(event.Name) == ReadyMarkerName &&
				event.Op.Has(fsnotify.Create|fsnotify.Write|fsnotify.Chmod) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			return fmt.Errorf("failed watching for readiness: %w", err)
		}
	}
}
