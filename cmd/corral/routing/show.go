package routing

import (
	"fmt"

	"corral"
	"corral/cmd/corral/cmdutil"
	"corral/cmd/corral/ui"

	"github.com/spf13/cobra"
)

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the configured per-role targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := cmdutil.OpenEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			routing, err := eng.Routing.LayerRouting(cmd.Context())
			if err != nil {
				return err
			}

			roles := corral.Roles()
			rows := make([][]string, len(roles))
			for i, role := range roles {
				rows[i] = []string{role, ui.Target(routing[role])}
			}
			fmt.Println(ui.Table([]string{"Role", "Target"}, rows))
			return nil
		},
	}
	return cmd
}
