package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/breadboard"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of breadboard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "breadboard version %s\n", strings.TrimSpace(breadboard.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
