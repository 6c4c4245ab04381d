package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/spyglass/internal/launcher"
	"github.com/mvp-joe/spyglass/internal/props"
	"github.com/mvp-joe/spyglass/internal/search"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show search node status",
	Long: `Show the status of the search node.

Reports pid-file liveness, whether the node has published its ready
marker, and the identity answered on the transport port when the node is
reachable.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
}

// nodeStatus is the status report, also the JSON output shape.
type nodeStatus struct {
	Running   bool   `json:"running"`
	Pid       int    `json:"pid,omitempty"`
	Ready     bool   `json:"ready"`
	Transport string `json:"transport,omitempty"`
	Cluster   string `json:"cluster,omitempty"`
	Node      string `json:"node,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	p, err := loadProps()
	if err != nil {
		return err
	}
	sharedDir, err := search.WorkDir(p)
	if err != nil {
		return err
	}

	status := collectStatus(p, sharedDir)

	if statusJSON {
		jsonBytes, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(jsonBytes))
		return nil
	}

	if !status.Running {
		fmt.Println("Search node: not running")
		return nil
	}
	fmt.Println("Search node:")
	fmt.Printf("  PID:       %d\n", status.Pid)
	fmt.Printf("  Ready:     %t\n", status.Ready)
	if status.Transport != "" {
		fmt.Printf("  Transport: %s\n", status.Transport)
		fmt.Printf("  Cluster:   %s\n", status.Cluster)
		fmt.Printf("  Node:      %s\n", status.Node)
	} else {
		fmt.Printf("  Transport: unreachable\n")
	}
	return nil
}

func collectStatus(p *props.PropertySet, sharedDir string) nodeStatus {
	var status nodeStatus

	pid, err := launcher.ReadPidFile(sharedDir)
	if err == nil && launcher.Alive(pid) {
		status.Running = true
		status.Pid = pid
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "WARN: %v\n", err)
	}
	status.Ready = launcher.IsReady(sharedDir)

	if status.Running {
		if port, err := p.Int(props.SearchPort); err == nil && port > 0 {
			probeTransport(&status, port)
		}
	}
	return status
}

// probeTransport dials the node's transport port and records the identity
// it answers. An unreachable transport leaves the fields empty; the node
// may still be starting up.
func probeTransport(status *nodeStatus, port int) {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return
	}
	defer conn.Close()

	var answer struct {
		Cluster string `json:"cluster"`
		Node    string `json:"node"`
		Pid     int    `json:"pid"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := json.NewDecoder(conn).Decode(&answer); err != nil {
		return
	}
	status.Transport = addr
	status.Cluster = answer.Cluster
	status.Node = answer.Node
}
