package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/spyglass/internal/search"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Resolve and print the node settings",
	Long: `Resolve the node settings from the host properties and print the
frozen map as sorted key=value lines, one per setting. This is the same
dump the node writes to its log at startup, runnable standalone to check
a configuration without launching anything.`,
	RunE: runSettings,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	p, err := loadProps()
	if err != nil {
		return err
	}
	r := &search.Resolver{Props: p}
	settings, err := r.Resolve()
	if err != nil {
		return err
	}
	fmt.Print(settings.String())
	return nil
}
