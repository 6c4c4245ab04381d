//go:build windows

package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

const detachedProcess = 0x00000008

// launchAttached has no process replacement to work with on Windows; the
// node runs in the foreground instead and its exit code is carried back
// in an ExitError.
func launchAttached(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			return &ExitError{Code: exit.ExitCode(), Err: fmt.Errorf("node exited: %w", err)}
		}
		return &ExitError{Code: startFailureCode(err), Err: fmt.Errorf("failed to run node: %w", err)}
	}
	return nil
}

func detachSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP | detachedProcess,
	}
}
