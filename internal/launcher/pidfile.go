package launcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

const pidFileName = "search.pid"

// PidFilePath returns the pid file location inside the shared directory.
func PidFilePath(sharedDir string) string {
	return filepath.Join(sharedDir, pidFileName)
}

// WritePidFile records the node pid. A flock guard on a sibling lock file
// keeps a concurrent reader from seeing a half-written file.
func WritePidFile(sharedDir string, pid int) error {
	if err := os.MkdirAll(sharedDir, 0o755); err != nil {
		return fmt.Errorf("failed to create shared directory: %w", err)
	}
	path := PidFilePath(sharedDir)

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock pid file: %w", err)
	}
	if !locked {
		return fmt.Errorf("pid file %s is held by another process", path)
	}
	defer lock.Unlock()

	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// ReadPidFile returns the recorded node pid.
func ReadPidFile(sharedDir string) (int, error) {
	path := PidFilePath(sharedDir)

	lock := flock.New(path + ".lock")
	locked, err := lock.TryRLock()
	if err != nil {
		return 0, fmt.Errorf("failed to lock pid file: %w", err)
	}
	if !locked {
		return 0, fmt.Errorf("pid file %s is held by another process", path)
	}
	defer lock.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read pid file: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("pid file %s is corrupt: %w", path, err)
	}
	return pid, nil
}

// RemovePidFile deletes the pid file; a missing file is fine.
func RemovePidFile(sharedDir string) error {
	err := os.Remove(PidFilePath(sharedDir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove pid file: %w", err)
	}
	return nil
}
