package launcher

// Test Plan:
// 1. DetectMode matches the daemonize flag only as a whole token
// 2. childArgs orders command, options, fixed settings, forwarded args
// 3. Validate rejects configs missing required fields
// 4. ExitCode maps nil, ExitError (wrapped or not) and plain errors
// 5. startFailureCode follows the shell convention (127/126/1)
// 6. Detached launch: a child alive after the grace period reports
//    success and leaves a pid file; one that exits early reports code 1
// 7. Detached start failures carry 127 (missing) and 126 (not executable)
// 8. A missing options file fails before any child is started
//
// The attached path replaces the test process image and is exercised only
// down to the exec boundary here.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		want Mode
	}{
		{"no-args", nil, ModeAttached},
		{"plain-start", []string{"start"}, ModeAttached},
		{"short-flag-first", []string{"-d", "start"}, ModeDetached},
		{"short-flag-last", []string{"start", "-d"}, ModeDetached},
		{"long-flag", []string{"--daemonize"}, ModeDetached},
		{"substring-does-not-match", []string{"--daemonized-thing"}, ModeAttached},
		{"prefix-does-not-match", []string{"-daemonize"}, ModeAttached},
		{"after-double-dash", []string{"--", "-d"}, ModeDetached},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, DetectMode(tc.args))
		})
	}
}

func TestChildArgsOrdering(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Home:    "/srv/app",
		ConfDir: "/srv/app/conf",
		Dist:    "oss",
		Command: []string{"spyglass", "run"},
		Args:    []string{"-d", "start"},
	}
	options := []string{"-Xms512m", "  -Dfile.encoding=UTF-8"}

	assert.Equal(t, []string{
		"spyglass", "run",
		"-Xms512m", "  -Dfile.encoding=UTF-8",
		"--home", "/srv/app",
		"--conf", "/srv/app/conf",
		"--dist", "oss",
		"-d", "start",
	}, childArgs(cfg, options))
}

func TestChildArgsWithoutDist(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Home:    "/srv/app",
		ConfDir: "/srv/app/conf",
		Command: []string{"spyglass", "run"},
	}

	assert.Equal(t, []string{
		"spyglass", "run",
		"--home", "/srv/app",
		"--conf", "/srv/app/conf",
	}, childArgs(cfg, nil))
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		Home:        "/srv/app",
		ConfDir:     "/srv/app/conf",
		OptionsPath: "/srv/app/conf/search.options",
		Command:     []string{"spyglass", "run"},
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing-home", func(c *Config) { c.Home = "" }},
		{"missing-conf", func(c *Config) { c.ConfDir = "" }},
		{"missing-options", func(c *Config) { c.OptionsPath = "" }},
		{"missing-command", func(c *Config) { c.Command = nil }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 127, ExitCode(&ExitError{Code: 127, Err: errors.New("gone")}))
	assert.Equal(t, 126, ExitCode(fmt.Errorf("wrapped: %w", &ExitError{Code: 126, Err: errors.New("denied")})))
	assert.Equal(t, 1, ExitCode(errors.New("anything else")))
}

func TestStartFailureCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want int
	}{
		{"errno-enoent", syscall.ENOENT, 127},
		{"errno-enotdir", syscall.ENOTDIR, 127},
		{"errno-eacces", &fs.PathError{Op: "fork/exec", Path: "/x", Err: syscall.EACCES}, 126},
		{"errno-eperm", syscall.EPERM, 126},
		{"lookpath-not-found", fmt.Errorf("exec: %w", os.ErrNotExist), 127},
		{"permission", fmt.Errorf("exec: %w", os.ErrPermission), 126},
		{"other", errors.New("resource exhausted"), 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, startFailureCode(tc.err))
		})
	}
}

// launchConfig builds a detached-launch config around a scratch options
// file; command is the child argv prefix under test.
func launchConfig(t *testing.T, command []string, grace time.Duration) Config {
	t.Helper()
	dir := t.TempDir()
	optionsPath := filepath.Join(dir, "search.options")
	require.NoError(t, os.WriteFile(optionsPath, []byte("# no options\n"), 0o644))
	return Config{
		Home:        dir,
		ConfDir:     dir,
		SharedDir:   filepath.Join(dir, "shared"),
		OptionsPath: optionsPath,
		Command:     command,
		GracePeriod: grace,
	}
}

func TestDetachedSurvivesGracePeriod(t *testing.T) {
	t.Parallel()

	// Extra argv entries land in the shell's positional parameters and are
	// ignored by the script.
	cfg := launchConfig(t, []string{"sh", "-c", "sleep 30", "spyglass-node"}, 200*time.Millisecond)

	err := Launch(cfg, ModeDetached)
	require.NoError(t, err)

	pid, err := ReadPidFile(cfg.SharedDir)
	require.NoError(t, err)
	assert.True(t, Alive(pid))

	child, err := process.NewProcess(int32(pid))
	require.NoError(t, err)
	require.NoError(t, child.Kill())
}

func TestDetachedChildDiesInWindow(t *testing.T) {
	t.Parallel()

	cfg := launchConfig(t, []string{"sh", "-c", "exit 0", "spyglass-node"}, 2*time.Second)

	start := time.Now()
	err := Launch(cfg, ModeDetached)
	require.Error(t, err)

	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, err.Error(), "exited during the startup window")
	assert.Less(t, time.Since(start), 2*time.Second,
		"a confirmed death short-circuits the grace sleep")
}

func TestDetachedCommandNotFound(t *testing.T) {
	t.Parallel()

	cfg := launchConfig(t, []string{filepath.Join(t.TempDir(), "missing-binary")}, 0)

	err := Launch(cfg, ModeDetached)
	require.Error(t, err)
	assert.Equal(t, 127, ExitCode(err))
}

func TestDetachedCommandNotExecutable(t *testing.T) {
	t.Parallel()

	plain := filepath.Join(t.TempDir(), "not-executable")
	require.NoError(t, os.WriteFile(plain, []byte("#!/bin/sh\n"), 0o644))

	cfg := launchConfig(t, []string{plain}, 0)

	err := Launch(cfg, ModeDetached)
	require.Error(t, err)
	assert.Equal(t, 126, ExitCode(err))
}

func TestLaunchMissingOptionsFile(t *testing.T) {
	t.Parallel()

	cfg := launchConfig(t, []string{"sh", "-c", "sleep 30", "spyglass-node"}, 0)
	cfg.OptionsPath = filepath.Join(t.TempDir(), "absent.options")

	err := Launch(cfg, ModeDetached)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "options file")

	_, err = ReadPidFile(cfg.SharedDir)
	assert.Error(t, err, "no child was started, so no pid was recorded")
}

func TestLaunchInvalidConfig(t *testing.T) {
	t.Parallel()

	err := Launch(Config{}, ModeDetached)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid launch config")
}
