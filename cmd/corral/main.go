package main

import (
	"fmt"
	"os"

	endpointcmd "corral/cmd/corral/endpoint"
	instancecmd "corral/cmd/corral/instance"
	routingcmd "corral/cmd/corral/routing"
	"corral/cmd/corral/ui"
	"corral/internal/logging"
	"corral/internal/support/buildinfo"

	"github.com/spf13/cobra"
)

func main() {
	var (
		debug bool
		plain bool
	)
	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "corral",
		Short:         "Manage containerized inference backends and their routing",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelWarn
			if debug {
				level = logging.LevelDebug
			}
			if err := logging.Configure(level); err != nil {
				return err
			}
			ui.ConfigureColors(plain)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&plain, "plain", false, "Disable styled output")

	root.AddCommand(instancecmd.Cmd())
	root.AddCommand(routingcmd.Cmd())
	root.AddCommand(endpointcmd.Cmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
