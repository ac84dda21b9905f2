package routing

import (
	"fmt"

	"corral"
	"corral/cmd/corral/cmdutil"
	"corral/cmd/corral/ui"
	"corral/internal/compute"

	"github.com/spf13/cobra"
)

func targetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List the targets roles may be pinned to",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig()
			if err != nil {
				return err
			}

			for _, target := range compute.AllowedTargets(cfg) {
				switch target {
				case corral.TargetAuto:
					fmt.Println(target + " " + ui.Muted("(default: pick the best available instance)"))
				case corral.TargetCPU:
					fmt.Println(target)
				default:
					fmt.Println(ui.Target(target))
				}
			}
			return nil
		},
	}
	return cmd
}
