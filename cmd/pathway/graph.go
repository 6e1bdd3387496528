package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/pathway/internal/presentation/graph"
	"github.com/aretw0/pathway/pkg/adapters/file"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <module-id>",
	Short: "Export the module graph visualization",
	Long:  `Reads a module document and outputs a Mermaid diagram (graph TD) of its nodes and choices.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd, true)
		if err != nil {
			return err
		}

		m, err := file.New(cfg.Modules.Dir, file.WithLogger(logger)).GetModule(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(m, nil))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
