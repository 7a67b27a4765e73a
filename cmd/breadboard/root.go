package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/breadboard"
	"github.com/aretw0/breadboard/internal/config"
	"github.com/aretw0/breadboard/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "breadboard",
	Short:         "Breadboard is a digital logic circuit simulator",
	Long:          `Breadboard simulates circuits of logic gates, inputs and displays, serves them to an editor and prints their truth tables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides the config)")
}

// loadConfig reads the configuration file and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logging.New(level), nil
}

// newSimulator builds a simulator from the configuration.
func newSimulator(cmd *cobra.Command, opts ...breadboard.Option) (*breadboard.Simulator, config.Config, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, err
	}
	if cmd.Flags().Changed("max-passes") {
		cfg.Engine.MaxPasses, _ = cmd.Flags().GetInt("max-passes")
	}
	opts = append([]breadboard.Option{breadboard.WithLogger(logger)}, opts...)
	sim, err := breadboard.New(cfg, opts...)
	return sim, cfg, err
}
