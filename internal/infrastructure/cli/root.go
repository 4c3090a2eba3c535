// Package cli defines the planflow command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/planflow/planflow/internal/app"
)

// NewRootCmd wires the cobra root command.
func NewRootCmd() (*cobra.Command, error) {
	container, err := app.Build()
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:   "planflow",
		Short: "Planning backend for software projects",
		Long:  "planflow manages project charters and release plans, with AI-assisted charter validation and release extraction.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCommand(container))
	root.AddCommand(newDBCommand(container))
	root.AddCommand(newPromptsCommand(container))
	return root, nil
}
