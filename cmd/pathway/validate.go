package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/pathway/pkg/adapters/file"
	"github.com/aretw0/pathway/pkg/graph"
	"github.com/aretw0/pathway/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [module-id...]",
	Short: "Check module documents before publishing",
	Long: `Runs the publish checks on each module document: edges that match node data,
router choices with targets, playable node types, reachability from the start node
and variable defaults that match their declared types.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd, true)
		if err != nil {
			return err
		}
		files := file.New(cfg.Modules.Dir, file.WithLogger(logger))

		ids := args
		if len(ids) == 0 {
			if ids, err = files.ListModules(cmd.Context()); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, id := range ids {
			doc, err := files.Document(cmd.Context(), id)
			if err != nil {
				return err
			}
			problems := graph.ValidateForPublish(doc.Module)
			if err := schema.ValidateDefaults(doc.Variables); err != nil {
				verrs := schema.ValidationErrors(err)
				if len(verrs) == 0 {
					verrs = []error{err}
				}
				for _, verr := range verrs {
					problems = append(problems, graph.ValidationError{Field: "variables", Message: verr.Error()})
				}
			}
			if len(problems) == 0 {
				fmt.Fprintf(out, "%s: ok\n", id)
				continue
			}
			failed++
			fmt.Fprintf(out, "%s: %d problem(s)\n", id, len(problems))
			for _, p := range problems {
				fmt.Fprintf(out, "  - %s\n", p.Error())
			}
		}

		if failed > 0 {
			return errors.New("validation failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
