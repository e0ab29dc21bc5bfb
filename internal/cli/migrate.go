package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trivia-battle-service/internal/config"
	"trivia-battle-service/internal/infra/postgres"
	"trivia-battle-service/internal/infra/sqlite"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogger(cfg)
	return runMigrationsWithConfig(ctx, cfg)
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	switch {
	case cfg.Postgres.URL != "":
		db := postgres.Open(cfg.Postgres.URL)
		defer db.Close()
		return postgres.Migrate(ctx, db)
	case cfg.SQLite.Path != "":
		// sqlite.Open migrates on open
		db, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return err
		}
		return db.Close()
	default:
		return fmt.Errorf("neither postgres url nor sqlite path configured")
	}
}
