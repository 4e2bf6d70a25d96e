package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/abemo/causalquestioning"
	"github.com/abemo/causalquestioning/models"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the built-in models and their optimal actions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listModels(cmd.OutOrStdout())
		},
	}
}

func listModels(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tCONTEXT\tOPTIMAL\tREWARD")
	for _, m := range models.All() {
		env, err := bandit.NewEnvironment(m.Variables(), m.Reward)
		if err != nil {
			return errors.Wrapf(err, "model %s", m.Name)
		}

		for _, ctx := range env.Contexts() {
			actions, err := env.OptimalActions(ctx)
			if err != nil {
				return err
			}
			reward, err := env.OptimalReward(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(tw, "%s\t%v\t%s=%v\t%.4f\n", m.Name, ctx, env.ActionVar(), actions, reward)
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	for _, m := range models.All() {
		fmt.Fprintf(w, "\n%s: %s\n", m.Name, m.Description)
	}
	return nil
}
