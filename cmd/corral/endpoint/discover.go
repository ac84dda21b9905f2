package endpoint

import (
	"fmt"

	"corral/cmd/corral/cmdutil"
	"corral/cmd/corral/ui"
	"corral/internal/compute"

	"github.com/spf13/cobra"
)

func discoverCmd() *cobra.Command {
	var def string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Probe for an already-running runtime endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdutil.LoadConfig()
			if err != nil {
				return err
			}
			if def == "" {
				def = cmdutil.DefaultEndpoint(cfg)
			}

			resolved := compute.NewDiscovery(cfg).Resolve(cmd.Context(), def)
			if !cfg.EndpointAutodetect {
				fmt.Println(ui.InfoMsg("autodetect disabled, using %s", ui.Accent(resolved)))
				return nil
			}
			if resolved == def {
				fmt.Println(ui.InfoMsg("using endpoint %s", ui.Accent(resolved)))
				return nil
			}
			fmt.Println(ui.SuccessMsg("discovered runtime at %s", ui.Accent(resolved)))
			return nil
		},
	}

	cmd.Flags().StringVar(&def, "default", "", "Fallback endpoint when nothing answers")
	return cmd
}
