// Package endpoint holds the "corral endpoint" command tree.
package endpoint

import "github.com/spf13/cobra"

// Cmd returns the parent "corral endpoint" command.
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "endpoint",
		Short: "Inspect runtime endpoint discovery",
	}

	cmd.AddCommand(discoverCmd())
	return cmd
}
