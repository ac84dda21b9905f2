package routing

import (
	"fmt"
	"strings"

	"corral"
	"corral/cmd/corral/cmdutil"
	"corral/cmd/corral/ui"

	"github.com/spf13/cobra"
)

func setCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <role=target> [role=target...]",
		Short: "Pin roles to targets, e.g. thinking=gpu0 output=cpu",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partial, err := parseAssignments(args)
			if err != nil {
				return err
			}

			eng, err := cmdutil.OpenEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			merged, err := eng.Routing.UpdateLayerRouting(cmd.Context(), partial)
			if err != nil {
				return err
			}

			fmt.Println(ui.SuccessMsg("updated routing for %d role(s)", len(partial)))
			roles := corral.Roles()
			rows := make([][]string, len(roles))
			for i, role := range roles {
				rows[i] = []string{role, ui.Target(merged[role])}
			}
			fmt.Println(ui.Table([]string{"Role", "Target"}, rows))
			return nil
		},
	}
	return cmd
}

// parseAssignments turns "role=target" arguments into a partial routing
// map. Duplicate roles are rejected rather than last-wins.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		role, target, ok := strings.Cut(arg, "=")
		role = strings.TrimSpace(role)
		target = strings.TrimSpace(target)
		if !ok || role == "" || target == "" {
			return nil, fmt.Errorf("invalid assignment %q: want role=target", arg)
		}
		if _, dup := out[role]; dup {
			return nil, fmt.Errorf("role %q assigned twice", role)
		}
		out[role] = target
	}
	return out, nil
}
