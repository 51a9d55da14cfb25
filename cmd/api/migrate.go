package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cadence/api/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, logger, db, dialect, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer db.Close()

		if err := store.ApplyMigrations(cmd.Context(), db, dialect); err != nil {
			return err
		}
		logger.Info("migrations applied", zap.String("dialect", string(dialect)))
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back every applied migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, logger, db, dialect, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer logger.Sync()
		defer db.Close()

		if err := store.RollbackMigrations(cmd.Context(), db, dialect); err != nil {
			return err
		}
		logger.Info("migrations rolled back", zap.String("dialect", string(dialect)))
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateDownCmd)
}
