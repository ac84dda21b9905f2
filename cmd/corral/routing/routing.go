// Package routing holds the "corral routing" command tree: inspecting and
// updating the per-role target map and resolving roles to live endpoints.
package routing

import "github.com/spf13/cobra"

// Cmd returns the parent "corral routing" command.
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routing",
		Short: "Manage per-role compute routing",
	}

	cmd.AddCommand(showCmd())
	cmd.AddCommand(setCmd())
	cmd.AddCommand(targetsCmd())
	cmd.AddCommand(resolveCmd())
	return cmd
}
