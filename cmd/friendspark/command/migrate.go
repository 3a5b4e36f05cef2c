package command

import (
	"github.com/spf13/cobra"

	"friendspark/config"
	"friendspark/migration"
)

func newMigrateCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return migration.Run(cmd.Context(), cfg.DB.URL(), cfg.Migrations.Source)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations (all of them unless --steps is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return migration.Down(cmd.Context(), cfg.DB.URL(), cfg.Migrations.Source, steps)
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 0, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}
