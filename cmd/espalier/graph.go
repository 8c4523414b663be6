package main

import (
	"fmt"

	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/research"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the workflow as a Mermaid diagram",
	Long:  `Prints a Mermaid flowchart of the research steps and the state fields each one writes.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		def, err := research.New(nil, nil).Definition()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def.Steps(), nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
