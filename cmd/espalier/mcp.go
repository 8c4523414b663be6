package main

import (
	"context"
	"log"
	"os"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server on stdio",
	Long: `Exposes the research pipeline to MCP clients as the "research" tool, plus a
"describe_workflow" tool and the espalier://workflow resource.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Stdout carries JSON-RPC.
		log.SetOutput(os.Stderr)
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			if err := app.Config.RequireCredentials(); err != nil {
				return err
			}
			return cli.ServeMCP(app)
		})
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
