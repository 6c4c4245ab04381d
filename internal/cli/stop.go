package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/spyglass/internal/launcher"
	"github.com/mvp-joe/spyglass/internal/search"
)

var (
	stopForce   bool
	stopTimeout time.Duration
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the search node",
	Long: `Stop a detached search node.

The node's pid is read from the pid file in the working directory and the
node is asked to terminate. The command waits up to --timeout for the
process to exit; with --force the node is killed outright when it ignores
the request.`,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
	stopCmd.Flags().BoolVar(&stopForce, "force", false, "kill the node if it ignores the termination request")
	stopCmd.Flags().DurationVar(&stopTimeout, "timeout", 30*time.Second, "how long to wait for the node to exit")
}

func runStop(cmd *cobra.Command, args []string) error {
	p, err := loadProps()
	if err != nil {
		return err
	}
	sharedDir, err := search.WorkDir(p)
	if err != nil {
		return err
	}

	pid, err := launcher.ReadPidFile(sharedDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Println("search node: not running")
			return nil
		}
		return err
	}
	if !launcher.Alive(pid) {
		fmt.Println("search node: not running (stale pid file)")
		return launcher.RemovePidFile(sharedDir)
	}

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return fmt.Errorf("failed to attach to pid %d: %w", pid, err)
	}
	if err := proc.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate pid %d: %w", pid, err)
	}

	if waitGone(pid, stopTimeout) {
		fmt.Println("search node stopped")
		return launcher.RemovePidFile(sharedDir)
	}

	if !stopForce {
		return fmt.Errorf("search node (pid %d) still running after %s; use --force to kill it", pid, stopTimeout)
	}
	if err := proc.Kill(); err != nil {
		return fmt.Errorf("failed to kill pid %d: %w", pid, err)
	}
	if !waitGone(pid, 5*time.Second) {
		return fmt.Errorf("search node (pid %d) survived SIGKILL", pid)
	}
	fmt.Println("search node killed")
	return launcher.RemovePidFile(sharedDir)
}

// waitGone polls until the pid disappears or the timeout elapses.
func waitGone(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !launcher.Alive(pid) {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return !launcher.Alive(pid)
}
