package main

import (
	"context"
	"os"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage persisted runs",
	Long:  `List, inspect, remove and resume runs stored in the configured snapshot store.`,
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := outputOptions(cmd)
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.ListRuns(ctx, app, os.Stdout, opts)
		}, cli.StoreOnly())
	},
}

var runsInspectCmd = &cobra.Command{
	Use:   "inspect <request-id>",
	Short: "Show the stored state of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := outputOptions(cmd)
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.InspectRun(ctx, app, args[0], os.Stdout, opts)
		}, cli.StoreOnly())
	},
}

var runsRmCmd = &cobra.Command{
	Use:   "rm <request-id>...",
	Short: "Remove one or more runs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.RemoveRuns(ctx, app, args, os.Stdout)
		}, cli.StoreOnly())
	},
}

var runsResumeCmd = &cobra.Command{
	Use:   "resume <request-id>",
	Short: "Resume a failed run from its last completed step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := outputOptions(cmd)
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			return cli.Resume(ctx, app, args[0], os.Stdout, opts)
		})
	},
}

func outputOptions(cmd *cobra.Command) cli.OutputOptions {
	jsonMode, _ := cmd.Flags().GetBool("json")
	return cli.OutputOptions{JSON: jsonMode}
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsLsCmd, runsInspectCmd, runsRmCmd, runsResumeCmd)
	for _, c := range []*cobra.Command{runsLsCmd, runsInspectCmd, runsResumeCmd} {
		c.Flags().Bool("json", false, "Print JSON instead of Markdown")
	}
}
