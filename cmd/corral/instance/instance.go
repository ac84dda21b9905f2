// Package instance holds the "corral instance" command tree: listing and
// the idempotent start/stop lifecycle.
package instance

import "github.com/spf13/cobra"

// Cmd returns the parent "corral instance" command.
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instance",
		Short: "Manage compute instances",
	}

	cmd.AddCommand(listCmd())
	cmd.AddCommand(startCmd())
	cmd.AddCommand(stopCmd())
	return cmd
}
