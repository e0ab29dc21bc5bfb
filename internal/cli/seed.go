package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"trivia-battle-service/internal/config"
	"trivia-battle-service/internal/infra/memory"
	"trivia-battle-service/internal/infra/postgres"
	redisinfra "trivia-battle-service/internal/infra/redis"
	"trivia-battle-service/internal/infra/sqlite"
)

// NewSeedCmd loads questions from a YAML file into the questions table.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the questions table from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "questions YAML (defaults to questions.file)")
	return cmd
}

func runSeed(ctx context.Context, configPath, file string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	if file == "" {
		file = cfg.Questions.File
	}
	if file == "" {
		return fmt.Errorf("no questions file given")
	}
	questions, err := memory.NewFileQuestionLoader(file).LoadQuestions(ctx)
	if err != nil {
		return err
	}

	var db *bun.DB
	switch {
	case cfg.Postgres.URL != "":
		db = postgres.Open(cfg.Postgres.URL)
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return err
		}
	case cfg.SQLite.Path != "":
		if db, err = sqlite.Open(ctx, cfg.SQLite.Path); err != nil {
			return err
		}
	default:
		return fmt.Errorf("neither postgres url nor sqlite path configured")
	}
	defer db.Close()

	n, err := postgres.SeedQuestions(ctx, db, questions)
	if err != nil {
		return err
	}
	logger.Info("questions seeded", "count", n, "file", file)

	if err := invalidateQuestionCache(ctx, cfg, logger); err != nil {
		logger.Warn("drop cached question pool failed", "error", err)
	}
	return nil
}

// invalidateQuestionCache drops the pool cached in Redis so running servers pick up the new rows.
func invalidateQuestionCache(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()
	return redisinfra.NewQuestionRepository(client, nil, 0, logger).Invalidate(ctx)
}
