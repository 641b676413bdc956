// wlcompd runs the compositor core against an offscreen output.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "wlcompd",
		Short:        "Headless Wayland compositor core",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")

	root.AddCommand(newRunCommand())
	root.AddCommand(newConfigCommand())

	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
