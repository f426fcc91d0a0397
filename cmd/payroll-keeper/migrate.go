package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/decipherlabs/payroll-keeper/storage/postgres"
)

var migrateDirection string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the run ledger database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		if a.cfg.Database.DSN == "" {
			return errors.New("database.dsn is not set")
		}
		return postgres.MigrateDSN(cmd.Context(), a.cfg.Database.DSN, migrateDirection)
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDirection, "direction", "up", "up, down or status")
}
