package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"newsletter-curator/internal/app"
)

func newInterestsCmd(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interests",
		Short: "Manage the interest registry",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all interests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				list, err := a.Interests.List(ctx)
				if err != nil {
					return err
				}
				for _, in := range list {
					fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s\n", in.ID, in.Name)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Create interests listed in a YAML file",
		Long: `Load interests from a YAML file of the form

  interests:
    - name: Artificial Intelligence
      description: Machine learning, LLMs and their applications

Existing names (case-insensitive) are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				n, err := a.Interests.Seed(ctx, args[0])
				if err != nil {
					return fmt.Errorf("seeding interests: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %d interest(s).\n", n)
				return nil
			})
		},
	})
	return cmd
}
