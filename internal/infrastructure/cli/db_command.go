package cli

import (
	_ "embed"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/planflow/planflow/internal/app"
	"github.com/planflow/planflow/internal/domain"
)

//go:embed seed.yaml
var seedFixture []byte

func newDBCommand(container *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the project database",
	}
	cmd.AddCommand(newDBInitCommand(container))
	cmd.AddCommand(newDBResetCommand(container))
	cmd.AddCommand(newDBSeedCommand(container))
	return cmd
}

func newDBInitCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// schema is applied on open; report where it landed
			fmt.Fprintln(cmd.OutOrStdout(), "database ready at", container.Store.Path())
			return nil
		},
	}
}

func newDBResetCommand(container *app.Container) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all data, keeping the schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to reset %s without --yes", container.Store.Path())
			}
			if err := container.Store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database reset")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

type seedRelease struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Version      string   `yaml:"version"`
	ScopeModules []string `yaml:"scope_modules"`
	Goals        []string `yaml:"goals"`
}

type seedProject struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Vision      string         `yaml:"vision"`
	Charter     map[string]any `yaml:"charter"`
	Releases    []seedRelease  `yaml:"releases"`
}

type seedFile struct {
	Projects []seedProject `yaml:"projects"`
}

func newDBSeedCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the demo project fixture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var fixture seedFile
			if err := yaml.Unmarshal(seedFixture, &fixture); err != nil {
				return fmt.Errorf("parse seed fixture: %w", err)
			}
			ctx := cmd.Context()
			for _, sp := range fixture.Projects {
				project := domain.Project{
					Name:        sp.Name,
					Description: sp.Description,
					Vision:      sp.Vision,
					Status:      domain.ProjectInPlanning,
					Charter:     sp.Charter,
				}
				if err := container.Store.CreateProject(ctx, &project); err != nil {
					return err
				}
				for _, sr := range sp.Releases {
					release := domain.Release{
						ProjectID:    project.ID,
						Name:         sr.Name,
						Description:  sr.Description,
						Version:      sr.Version,
						ScopeModules: sr.ScopeModules,
						Goals:        sr.Goals,
						Status:       domain.ReleaseNotStarted,
					}
					if err := container.Store.CreateRelease(ctx, &release); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded project %q with %d releases\n", project.Name, len(sp.Releases))
			}
			return nil
		},
	}
}
