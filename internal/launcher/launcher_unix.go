//go:build unix

package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// launchAttached replaces the launcher process image with the node. It
// only returns on failure; on success the node takes over this pid and
// the launcher ceases to exist.
func launchAttached(argv []string) error {
	path, err := exec.LookPath(argv[0])
	if err != nil {
		return &ExitError{Code: startFailureCode(err), Err: fmt.Errorf("failed to exec node: %w", err)}
	}
	if err := syscall.Exec(path, argv, os.Environ()); err != nil {
		return &ExitError{Code: startFailureCode(err), Err: fmt.Errorf("failed to exec node: %w", err)}
	}
	return nil
}

// detachSysProcAttr puts the node in a fresh session so it survives the
// launcher's terminal going away.
func detachSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setsid: true,
	}
}
