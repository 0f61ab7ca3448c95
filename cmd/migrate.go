package main

import (
	"context"
	"database/sql"

	root "emaildomains"
	"emaildomains/internal/config"
	"emaildomains/pkg/logger"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCommand constructs the 'migrate' subcommand that applies history
// database migrations to the latest version using goose.
func migrateCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrates the history database to the latest version",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			strg, closeStrg := getSQLite(ctx, cfg)
			defer closeStrg()

			goose.SetBaseFS(root.Migrations)

			if err := goose.SetDialect("sqlite3"); err != nil {
				logger.Fatal(ctx, "could not set goose dialect to sqlite3", zap.Error(err))
			}
			if err := goose.Up(strg.DB.(*sql.DB), "migrations"); err != nil {
				logger.Fatal(ctx, "could not migrate history database", zap.Error(err))
			}

			logger.Info(ctx, "history database is up to date")
		},
	}

	return cmd
}
