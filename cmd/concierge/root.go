package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aretw0/concierge/internal/cli"
	"github.com/aretw0/concierge/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "concierge",
	Short: "Concierge fills service forms through conversation",
	Long: `Concierge detects which form a user wants from what they say, asks for
each required field in turn and produces a document once everything is collected.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx := cli.NewSignalContext(context.Background())
	defer ctx.Cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("forms", "", "Directory of form definitions (default: builtin forms)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads the configuration and applies the persistent flags over it.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("forms") {
		cfg.FormsDir, _ = cmd.Flags().GetString("forms")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

// loadApp builds the application for commands that need the engine.
// Logs go to stderr so stdout stays clean for replies and JSON.
func loadApp(cmd *cobra.Command) (*cli.App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := cli.NewLogger(cfg, os.Stderr)
	app, err := cli.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("error initializing concierge: %w", err)
	}
	return app, nil
}
