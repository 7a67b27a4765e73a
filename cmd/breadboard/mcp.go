package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/breadboard"
	"github.com/aretw0/breadboard/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server",
	Long: `Exposes the circuit sessions as Model Context Protocol tools.
Speaks over stdin/stdout by default, or over SSE with --sse.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sim, cfg, err := newSimulator(cmd)
		if err != nil {
			return err
		}
		defer sim.Close()

		srv := mcp.NewServer(sim.Sessions, breadboard.Version, mcp.WithLogger(sim.Logger()))
		if sse, _ := cmd.Flags().GetBool("sse"); !sse {
			return srv.ServeStdio()
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ServeSSE(ctx, port)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().Bool("sse", false, "Serve over SSE instead of stdio")
	mcpCmd.Flags().IntP("port", "p", 8080, "Port for SSE mode (overrides the config)")
}
