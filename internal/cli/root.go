// Package cli wires the spyglass command tree: start (the launcher), run
// (the node process), stop, status, settings and version. Commands load
// their inputs through internal/props once at entry and hand explicit
// config structs to the packages doing the work.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var confDirFlag string

// rootCmd is the base command when spyglass is called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "spyglass",
	Short: "Spyglass - embedded search node supervisor",
	Long: `Spyglass resolves host application properties into the runtime
settings of an embedded search-engine node and supervises the node
process: launching it attached or detached, probing that a detached
launch survived its startup window, and stopping or inspecting it later.`,
}

// Execute runs the command tree. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&confDirFlag, "conf", "",
		"configuration directory holding spyglass.yml and search.options")
}
