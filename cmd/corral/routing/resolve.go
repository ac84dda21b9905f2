package routing

import (
	"fmt"

	"corral"
	"corral/cmd/corral/cmdutil"
	"corral/cmd/corral/ui"

	"github.com/spf13/cobra"
)

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [role]",
		Short: "Resolve roles to live endpoints, showing any degradation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := cmdutil.OpenEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			// The discovered base endpoint is the fallback when no managed
			// instance can serve a role.
			def := eng.Discovery.Resolve(cmd.Context(), cmdutil.DefaultEndpoint(eng.Config))

			if len(args) == 1 {
				ep := eng.Router.ResolveRoleEndpoint(cmd.Context(), args[0], def)
				if ep.HardError {
					fmt.Println(ui.ErrorMsg("role %s cannot be served (error %d)", ui.Accent(ep.Role), ep.ErrorCode))
				}
				fmt.Print(ui.KeyValues("",
					ui.KV("role", ep.Role),
					ui.KV("requested", ui.Target(ep.RequestedTarget)),
					ui.KV("effective", ui.Target(ep.EffectiveTarget)),
					ui.KV("endpoint", orDash(ep.Endpoint)),
					ui.KV("source", orDash(ep.Source)),
					ui.KV("fallback", ui.Fallback(ep.FallbackReason)),
				))
				return nil
			}

			rows := make([][]string, 0, len(corral.Roles()))
			for _, role := range corral.Roles() {
				ep := eng.Router.ResolveRoleEndpoint(cmd.Context(), role, def)
				endpoint := orDash(ep.Endpoint)
				if ep.HardError {
					endpoint = ui.ErrorStyle.Render(fmt.Sprintf("unavailable (%d)", ep.ErrorCode))
				}
				rows = append(rows, []string{
					role,
					ui.Target(ep.RequestedTarget),
					ui.Target(ep.EffectiveTarget),
					endpoint,
					orDash(ep.Source),
					ui.Fallback(ep.FallbackReason),
				})
			}
			fmt.Println(ui.Table(
				[]string{"Role", "Requested", "Effective", "Endpoint", "Source", "Fallback"},
				rows,
			))
			return nil
		},
	}
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return ui.Muted("-")
	}
	return s
}
