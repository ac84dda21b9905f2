package instance

import (
	"fmt"

	"corral/cmd/corral/cmdutil"
	"corral/cmd/corral/ui"

	"github.com/spf13/cobra"
)

func stopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <instance>",
		Short: "Stop a compute instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := cmdutil.OpenEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			res, err := eng.Manager.StopInstance(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if res.Idempotent {
				fmt.Println(ui.InfoMsg("instance %s already stopped", ui.Accent(res.Instance.ID)))
				return nil
			}
			fmt.Println(ui.SuccessMsg("stopped instance %s", ui.Accent(res.Instance.ID)))
			return nil
		},
	}
	return cmd
}
