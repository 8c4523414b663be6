package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier runs a deterministic LLM research pipeline",
	Long: `Espalier turns a topic into a researched summary by running four steps in order:
generate_queries, search_web, extract_findings and generate_summary.
Every run is checkpointed so a failed run can be resumed from its last completed step.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if cli.IsInterrupted(err) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML configuration (default: ./"+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().String("log-level", "", "Override log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("store", "", "Override the snapshot store backend")
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}
	if store, _ := cmd.Flags().GetString("store"); store != "" {
		cfg.Store.Backend = store
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp builds the application, runs fn and closes the app on return.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *cli.App) error, opts ...cli.BuildOption) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := cli.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	ctx := cli.NewSignalContext(cmd.Context())
	defer ctx.Cancel()

	app, err := cli.Build(ctx, cfg, logger, opts...)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cli.CloseTimeout)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			logger.Warn("shutdown incomplete", "err", err)
		}
	}()

	if err := fn(ctx, app); err != nil {
		if sig := ctx.Signal(); sig != nil {
			logger.Info("interrupted", "signal", sig)
		}
		return err
	}
	return nil
}
