// Package launcher starts the embedded search node process.
//
// A launch parses the options file into an ordered flag list, assembles
// the child argument vector, and starts the node either attached (the
// launcher process image is replaced, so the node inherits its identity
// and exit code) or detached (the node is forked into its own session and
// left running). A detached launch is probed once after a grace period:
// a child that already died is reported as a failure, a live one as
// success. The probe is a best-effort heuristic and cannot see failures
// after the window closes.
//
// There is no cancellation once the child has been started, and no
// retries; the launcher reports once and exits. Ordering is strict:
// options are fully parsed before any process is created.
package launcher

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Launch starts the node in the given mode.
//
// Attached mode does not return on success; see launchAttached for the
// platform contracts. Detached mode returns nil once the child survived
// the grace period, or an ExitError when it could not be started or died
// before the probe.
func Launch(cfg Config, mode Mode) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid launch config: %w", err)
	}

	options, err := ParseOptionsFile(cfg.OptionsPath)
	if err != nil {
		return err
	}
	argv := childArgs(cfg, options)

	if mode == ModeDetached {
		return launchDetached(cfg, argv)
	}
	return launchAttached(argv)
}

// childArgs assembles the child argument vector: command prefix, option
// lines in file order, the supervisor-fixed settings, then the original
// invocation arguments verbatim.
func childArgs(cfg Config, options []string) []string {
	argv := make([]string, 0, len(cfg.Command)+len(options)+len(cfg.Args)+6)
	argv = append(argv, cfg.Command...)
	argv = append(argv, options...)
	argv = append(argv, "--home", cfg.Home, "--conf", cfg.ConfDir)
	if cfg.Dist != "" {
		argv = append(argv, "--dist", cfg.Dist)
	}
	return append(argv, cfg.Args...)
}

func launchDetached(cfg Config, argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)

	// The node must not share the launcher's stdin or its controlling
	// session; stdout and stderr stay inherited until the node's own
	// logging takes over.
	null, err := os.Open(os.DevNull)
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("failed to open %s: %w", os.DevNull, err)}
	}
	defer null.Close()
	cmd.Stdin = null
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = detachSysProcAttr()

	if err := cmd.Start(); err != nil {
		return &ExitError{Code: startFailureCode(err), Err: fmt.Errorf("failed to start node: %w", err)}
	}
	pid := cmd.Process.Pid

	if cfg.SharedDir != "" {
		if err := WritePidFile(cfg.SharedDir, pid); err != nil {
			log.Printf("WARN: %v", err)
		}
	}

	// Reap the child if it dies on our watch; without this a dead child
	// lingers as a zombie and would still look alive to the pid probe.
	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	select {
	case err := <-exited:
		return &ExitError{Code: 1, Err: fmt.Errorf("node exited during the startup window: %s", waitResult(err))}
	case <-time.After(cfg.GracePeriod):
	}

	select {
	case err := <-exited:
		return &ExitError{Code: 1, Err: fmt.Errorf("node exited during the startup window: %s", waitResult(err))}
	default:
	}
	if !Alive(pid) {
		return &ExitError{Code: 1, Err: fmt.Errorf("node pid %d not running after %s", pid, cfg.GracePeriod)}
	}

	log.Printf("node started detached, pid %d", pid)
	return nil
}

func waitResult(err error) string {
	if err == nil {
		return "exit status 0"
	}
	return err.Error()
}

// Alive reports whether pid is a live process. The detached probe and the
// stop/status tooling share it.
func Alive(pid int) bool {
	alive, err := process.PidExists(int32(pid))
	return err == nil && alive
}

// startFailureCode maps an exec or fork failure to the shell convention:
// 127 for a command that does not exist, 126 for one that cannot be
// executed, 1 for everything else.
func startFailureCode(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOENT, syscall.ENOTDIR:
			return 127
		case syscall.EACCES, syscall.EPERM:
			return 126
		}
	}
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return 127
	case errors.Is(err, os.ErrPermission):
		return 126
	}
	return 1
}
