package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cadence/api/internal/config"
	"cadence/api/internal/logging"
	"cadence/api/internal/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "api",
	Short:         "Cadence weekly status report API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (e.g. etc/cadence.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, userCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, builds the logger and opens the database.
func bootstrap(ctx context.Context) (config.Config, *zap.Logger, *sql.DB, store.Dialect, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, nil, "", err
	}
	logger := logging.New(cfg.Log)

	dialect, err := store.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return cfg, logger, nil, "", err
	}
	if dialect == store.DialectSQLite {
		if dir := filepath.Dir(cfg.Database.URL); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return cfg, logger, nil, "", fmt.Errorf("create data dir: %w", err)
			}
		}
	}

	db, dialect, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return cfg, logger, nil, "", fmt.Errorf("database connection failed: %w", err)
	}
	return cfg, logger, db, dialect, nil
}
