package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/aretw0/espalier/internal/cli"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [topic...]",
	Short: "Research a topic and print the report",
	Long: `Runs the research pipeline once. The topic can be given with --topic or as
positional arguments. With --json the report is printed in the same shape as
the HTTP API response.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		if topic == "" {
			topic = strings.Join(args, " ")
		}
		if strings.TrimSpace(topic) == "" {
			return errors.New("a topic is required (--topic or positional argument)")
		}

		jsonMode, _ := cmd.Flags().GetBool("json")
		quiet, _ := cmd.Flags().GetBool("quiet")

		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			if !jsonMode && !quiet {
				tui.PrintBanner(os.Stdout)
			}
			return cli.Research(ctx, app, topic, os.Stdout, cli.OutputOptions{JSON: jsonMode, Quiet: quiet})
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("topic", "t", "", "Topic to research")
	runCmd.Flags().Bool("json", false, "Print the report as JSON")
	runCmd.Flags().BoolP("quiet", "q", false, "Suppress banner and progress messages")
}
