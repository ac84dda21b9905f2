package instance

import (
	"fmt"

	"corral/cmd/corral/cmdutil"
	"corral/cmd/corral/ui"

	"github.com/spf13/cobra"
)

func startCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <instance>",
		Short: "Start a compute instance, creating it on first use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := cmdutil.OpenEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			res, err := eng.Manager.StartInstance(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			inst := res.Instance
			if res.Idempotent {
				fmt.Println(ui.InfoMsg("instance %s already running", ui.Accent(inst.ID)))
			} else {
				fmt.Println(ui.SuccessMsg("started instance %s", ui.Accent(inst.ID)))
			}
			kvs := []ui.Pair{
				ui.KV("container", inst.ContainerName),
				ui.KV("endpoint", inst.Endpoint),
				ui.KV("status", ui.Status(inst.Status)),
				ui.KV("health", ui.HealthBadge(inst.Health)),
			}
			if inst.Capability.GPU {
				gpu := string(inst.Capability.GPUBackend) + " device " + inst.Capability.GPUDeviceID
				if inst.Capability.GPUName != "" {
					gpu += " (" + inst.Capability.GPUName + ")"
				}
				kvs = append(kvs, ui.KV("gpu", gpu))
			}
			fmt.Print(ui.KeyValues("  ", kvs...))
			return nil
		},
	}
	return cmd
}
