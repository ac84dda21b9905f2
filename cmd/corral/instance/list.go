package instance

import (
	"fmt"

	"corral/cmd/corral/cmdutil"
	"corral/cmd/corral/ui"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List compute instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := cmdutil.OpenEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			instances, err := eng.Manager.ListInstances(cmd.Context())
			if err != nil {
				return err
			}
			if len(instances) == 0 {
				fmt.Println(ui.Muted("no instances configured"))
				return nil
			}

			rows := make([][]string, len(instances))
			for i, inst := range instances {
				gpu := "-"
				if inst.Capability.GPU {
					gpu = string(inst.Capability.GPUBackend)
					if inst.Capability.GPUName != "" {
						gpu += " " + inst.Capability.GPUName
					}
				}
				rows[i] = []string{
					inst.ID,
					inst.Target,
					ui.Status(inst.Status),
					ui.HealthBadge(inst.Health),
					inst.Endpoint,
					gpu,
				}
			}

			fmt.Println(ui.Table(
				[]string{"Instance", "Target", "Status", "Health", "Endpoint", "GPU"},
				rows,
			))
			return nil
		},
	}
	return cmd
}
