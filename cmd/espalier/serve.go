package main

import (
	"context"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves POST /research plus run management, /graph, /metrics and /health.
Requests are validated against the embedded OpenAPI document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			if err := app.Config.RequireCredentials(); err != nil {
				return err
			}
			if addr != "" {
				app.Config.Server.Addr = addr
			}
			return cli.Serve(ctx, app)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides server.addr)")
}
