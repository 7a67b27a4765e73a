package main

import (
	"fmt"
	"os"

	"github.com/aretw0/breadboard/internal/presentation/tui"
	"github.com/aretw0/breadboard/pkg/registry"
	"github.com/spf13/cobra"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the built-in component kinds",
	RunE: func(cmd *cobra.Command, args []string) error {
		md := tui.KindsMarkdown(registry.NewRegistry().List())
		if tui.IsTerminal(os.Stdout) {
			if rendered, err := tui.NewRenderer()(md); err == nil {
				md = rendered
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}
