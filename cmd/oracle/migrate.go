// cmd/oracle/migrate.go
package main

import (
	"github.com/jason-s-yu/oracle/internal/database"
	"github.com/spf13/cobra"
)

func (c *cli) migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, logger, err := c.load()
				if err != nil {
					return err
				}
				return database.RunMigrations(cfg.DatabaseURL(), logger)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, logger, err := c.load()
				if err != nil {
					return err
				}
				return database.RollbackMigration(cfg.DatabaseURL(), logger)
			},
		},
	)
	return cmd
}
