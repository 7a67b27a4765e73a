package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/aretw0/breadboard/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var tableCmd = &cobra.Command{
	Use:   "table <file.lmccircuit>",
	Short: "Print the truth table of a circuit",
	Long:  `Enumerates every assignment of the circuit's inputs and prints the resulting outputs, as a table or as a chronogram.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sim, _, err := newSimulator(cmd)
		if err != nil {
			return err
		}
		defer sim.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		table, err := sim.TruthTableFile(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		rich := tui.IsTerminal(os.Stdout)
		if chrono, _ := cmd.Flags().GetBool("chronogram"); chrono {
			fmt.Fprint(out, tui.Chronogram(table, rich))
			return nil
		}
		md := tui.TableMarkdown(table)
		if rich {
			rendered, err := tui.NewRenderer()(md)
			if err == nil {
				md = rendered
			}
		}
		fmt.Fprint(out, md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.Flags().Bool("chronogram", false, "Print signals over time instead of a table")
	tableCmd.Flags().Int("max-passes", 256, "Stabilization pass budget per slot (overrides the config)")
}
