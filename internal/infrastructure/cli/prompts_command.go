package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planflow/planflow/internal/app"
)

func newPromptsCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect prompt templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available prompt operations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			operations, err := container.Prompts.ListOperations()
			if err != nil {
				return err
			}
			if len(operations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no prompt templates found in", container.Config.PromptsDir)
				return nil
			}
			for _, op := range operations {
				fmt.Fprintln(cmd.OutOrStdout(), op)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "versions <operation>",
		Short: "List versions of a prompt operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, err := container.Prompts.ListVersions(args[0])
			if err != nil {
				return err
			}
			for _, v := range versions {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	})

	return cmd
}
