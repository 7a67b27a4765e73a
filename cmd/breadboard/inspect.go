package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/breadboard/internal/presentation/graph"
	"github.com/aretw0/breadboard/internal/validator"
	"github.com/aretw0/breadboard/pkg/codec"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.lmccircuit>",
	Short: "Decode a circuit document",
	Long: `Prints the JSON inside a circuit document and reports the records that would be dropped on import.
With --mermaid the circuit is rendered as a Mermaid flowchart instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read circuit: %w", err)
		}

		sim, _, err := newSimulator(cmd)
		if err != nil {
			return err
		}
		defer sim.Close()

		g, frag, err := sim.Decode(data)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
			fmt.Fprint(out, graph.GenerateMermaid(g, &graph.Overlay{States: true}))
		} else {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(codec.Marshal(g)); err != nil {
				return err
			}
		}
		for _, k := range frag.Kinds {
			fmt.Fprintf(cmd.ErrOrStderr(), "custom block: %s (%d in, %d out)\n", k.Name, k.Inputs, k.Outputs)
		}
		for _, w := range frag.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
		}
		for _, is := range validator.Lint(g) {
			fmt.Fprintf(cmd.ErrOrStderr(), "lint: %s\n", is)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().Bool("mermaid", false, "Render the circuit as a Mermaid flowchart")
	rootCmd.AddCommand(inspectCmd)
}
