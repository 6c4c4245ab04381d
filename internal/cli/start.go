package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/spyglass/internal/launcher"
	"github.com/mvp-joe/spyglass/internal/props"
	"github.com/mvp-joe/spyglass/internal/search"
)

var startCmd = &cobra.Command{
	Use:   "start [node arguments]",
	Short: "Launch the search node",
	Long: `Launch the search node process.

Settings are resolved from the host properties first; a launch never
starts with an incomplete configuration. The options file is then read
and its lines passed to the node ahead of the supervisor-supplied
--home/--conf flags, with the original arguments forwarded verbatim
last.

A -d or --daemonize token anywhere in the arguments detaches the node
into its own session; spyglass then waits the configured grace period
and exits 0 only if the node is still alive. Without the token the node
replaces the spyglass process and keeps its exit code.`,
	// The argument vector is forwarded to the node verbatim, so cobra must
	// not consume any of it.
	DisableFlagParsing: true,
	RunE:               runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return cmd.Help()
		}
	}

	cfg, p, err := buildLaunchConfig(args)
	if err != nil {
		return err
	}

	mode := launcher.DetectMode(args)
	if err := launcher.Launch(cfg, mode); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(launcher.ExitCode(err))
	}

	// Attached launches never reach this point on success; the process
	// image was replaced.
	if mode == launcher.ModeDetached && p.Has(props.SearchWaitReady) {
		if err := waitForReady(cfg.SharedDir, p.Value(props.SearchWaitReady)); err != nil {
			return err
		}
		fmt.Println("search node is ready")
	}
	return nil
}

// buildLaunchConfig resolves the settings and assembles the launcher
// config from the property set. Resolution runs up front so a missing or
// malformed configuration fails before any process is started.
func buildLaunchConfig(args []string) (launcher.Config, *props.PropertySet, error) {
	confDir := confDirFromArgs(args)
	p, err := props.Load(confDir)
	if err != nil {
		return launcher.Config{}, nil, err
	}

	r := &search.Resolver{Props: p}
	settings, err := r.Resolve()
	if err != nil {
		return launcher.Config{}, nil, err
	}

	grace, err := time.ParseDuration(p.ValueDefault(props.SearchGracePeriod, "5s"))
	if err != nil {
		return launcher.Config{}, nil, fmt.Errorf("failed to parse grace period: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return launcher.Config{}, nil, fmt.Errorf("failed to locate own executable: %w", err)
	}

	cfg := launcher.Config{
		Home:        p.Value(props.PathHome),
		ConfDir:     p.ValueDefault(props.PathConf, confDir),
		SharedDir:   settings.Get(search.KeyPathWork),
		OptionsPath: p.Value(props.SearchOptions),
		Command:     []string{exe, "run"},
		Dist:        p.Value(props.PathDist),
		GracePeriod: grace,
		Args:        args,
	}
	return cfg, p, nil
}

// waitForReady blocks until the node publishes its ready marker or the
// configured duration elapses. The node keeps running either way; a
// timeout only means readiness was not observed in time.
func waitForReady(sharedDir, timeout string) error {
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", props.SearchWaitReady, err)
	}
	if err := launcher.WaitReady(context.Background(), sharedDir, d); err != nil {
		return fmt.Errorf("node did not become ready within %s: %w", d, err)
	}
	return nil
}
