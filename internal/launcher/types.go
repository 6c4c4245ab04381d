package launcher

import (
	"errors"
	"fmt"
	"time"
)

// Mode selects how the node process is started.
type Mode int

const (
	// ModeAttached replaces the launcher process with the node; the node
	// inherits the launcher's identity and exit code.
	ModeAttached Mode = iota

	// ModeDetached forks the node into its own session and leaves it
	// running once the launcher has reported.
	ModeDetached
)

func (m Mode) String() string {
	if m == ModeDetached {
		return "detached"
	}
	return "attached"
}

// DetectMode scans the invocation arguments for the daemonize flag. Only a
// standalone "-d" or "--daemonize" token counts, in any position; a
// substring of a longer token does not.
func DetectMode(args []string) Mode {
	for _, arg := range args {
		if arg == "-d" || arg == "--daemonize" {
			return ModeDetached
		}
	}
	return ModeAttached
}

// Config specifies one launch. It is built once at process entry from the
// loaded properties and passed in whole; the launcher itself never reads
// the environment.
type Config struct {
	// Home is the installation home directory, forwarded to the node.
	Home string

	// ConfDir is the configuration directory, forwarded to the node.
	ConfDir string

	// SharedDir holds the pid file and the ready marker. Normally the
	// node's resolved working directory. Empty skips pid-file handling.
	SharedDir string

	// OptionsPath locates the options file. The file must exist; a launch
	// never proceeds without it.
	OptionsPath string

	// Command is the child argv prefix, normally the spyglass executable
	// followed by "run".
	Command []string

	// Dist is the distribution directory forwarded to the node. Empty
	// omits the flag.
	Dist string

	// GracePeriod is how long a detached launch waits before probing the
	// child. Zero probes immediately.
	GracePeriod time.Duration

	// Args are the original invocation arguments, forwarded verbatim.
	Args []string
}

// Validate checks the fields a launch cannot proceed without.
func (c *Config) Validate() error {
	if c.Home == "" {
		return errors.New("home directory is required")
	}
	if c.ConfDir == "" {
		return errors.New("configuration directory is required")
	}
	if c.OptionsPath == "" {
		return errors.New("options file path is required")
	}
	if len(c.Command) == 0 {
		return errors.New("launch command is required")
	}
	return nil
}

// ExitError is a launch failure carrying the exit code the supervisor
// process reports. Exec and fork failures use the shell convention (127
// command not found, 126 not permitted); a child that died before the
// liveness probe maps to 1.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("launch failed (exit %d): %v", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps a Launch result to the supervisor's exit code: 0 for nil,
// the carried code for an ExitError anywhere in the chain, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return 1
}
