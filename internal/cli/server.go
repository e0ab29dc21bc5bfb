package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"trivia-battle-service/internal/app"
	"trivia-battle-service/internal/config"
	"trivia-battle-service/internal/domain"
	"trivia-battle-service/internal/infra/memory"
	"trivia-battle-service/internal/infra/postgres"
	redisinfra "trivia-battle-service/internal/infra/redis"
	"trivia-battle-service/internal/infra/sqlite"
	transport "trivia-battle-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the battle server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var (
		db   *bun.DB
		pool *pgxpool.Pool
	)
	switch {
	case cfg.Postgres.URL != "":
		db = postgres.Open(cfg.Postgres.URL)
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	case cfg.SQLite.Path != "":
		if db, err = sqlite.Open(ctx, cfg.SQLite.Path); err != nil {
			return err
		}
	}
	if db != nil {
		defer db.Close()
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	switch {
	case cfg.Questions.File != "":
		loader = memory.NewFileQuestionLoader(cfg.Questions.File)
	case pool != nil:
		loader = postgres.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, loader, config.TTLDuration(cfg.Redis.TTL, questionTTL), logger)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
	}

	var registry app.Registry
	if redisClient != nil {
		registry = redisinfra.NewRegistry(redisClient, cfg.HeartbeatTTL(), logger)
	} else {
		registry = memory.NewRegistry()
	}

	var store app.BattleStore
	if db != nil {
		store = postgres.NewBattleStore(db)
	} else {
		logger.Warn("no database configured; battle history is kept in memory")
		store = memory.NewBattleStore()
	}

	service := app.NewBattleService(registry, questions, store,
		app.WithLogger(logger),
		app.WithOptions(cfg.BattleOptions()),
	)

	var auth *transport.Authenticator
	if cfg.Auth.JWTSecret != "" {
		auth = transport.NewAuthenticator(cfg.Auth.JWTSecret)
	}

	gin.SetMode(gin.ReleaseMode)
	router := transport.NewRouter(
		transport.NewWSHandler(service, auth, logger),
		transport.NewBattleAPI(service),
		logger,
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting battle service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions is the built-in pool used when neither questions.file nor postgres is configured.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "gen-1", Category: "genesis", Book: "Genesis", Difficulty: domain.DifficultyEasy,
			Prompt: "Who built the ark?", Choices: []string{"Moses", "Noah", "Abraham", "David"}, Answer: "Noah",
			Verse: "Genesis 6:14", Explanation: "Noah was told to make an ark of gopher wood."},
		{ID: "gen-2", Category: "genesis", Book: "Genesis", Difficulty: domain.DifficultyEasy,
			Prompt: "On which day did God rest?", Choices: []string{"Fifth", "Sixth", "Seventh", "First"}, Answer: "Seventh",
			Verse: "Genesis 2:2", Explanation: "God rested on the seventh day from all his work."},
		{ID: "gen-3", Category: "genesis", Book: "Genesis", Difficulty: domain.DifficultyMedium,
			Prompt: "Who was sold into slavery by his brothers?", Choices: []string{"Benjamin", "Joseph", "Judah", "Reuben"}, Answer: "Joseph",
			Verse: "Genesis 37:28", Explanation: "Joseph was sold to Ishmaelite traders for twenty pieces of silver."},
		{ID: "gen-4", Category: "genesis", Book: "Genesis", Difficulty: domain.DifficultyMedium,
			Prompt: "What was the name of Abraham's wife?", Choices: []string{"Rebekah", "Rachel", "Sarah", "Leah"}, Answer: "Sarah",
			Verse: "Genesis 17:15", Explanation: "Sarai was renamed Sarah."},
		{ID: "gen-5", Category: "genesis", Book: "Genesis", Difficulty: domain.DifficultyHard,
			Prompt: "How old was Methuselah when he died?", Choices: []string{"969", "950", "930", "912"}, Answer: "969",
			Verse: "Genesis 5:27", Explanation: "Methuselah lived 969 years."},
		{ID: "exo-1", Category: "exodus", Book: "Exodus", Difficulty: domain.DifficultyEasy,
			Prompt: "Who led the Israelites out of Egypt?", Choices: []string{"Joshua", "Aaron", "Moses", "Caleb"}, Answer: "Moses",
			Verse: "Exodus 3:10", Explanation: "God sent Moses to Pharaoh."},
		{ID: "exo-2", Category: "exodus", Book: "Exodus", Difficulty: domain.DifficultyMedium,
			Prompt: "How many plagues struck Egypt?", Choices: []string{"Seven", "Ten", "Twelve", "Five"}, Answer: "Ten",
			Verse: "Exodus 7-12", Explanation: "Ten plagues preceded the exodus."},
		{ID: "exo-3", Category: "exodus", Book: "Exodus", Difficulty: domain.DifficultyHard,
			Prompt: "What did the Israelites call the bread from heaven?", Choices: []string{"Manna", "Matzah", "Shewbread", "Quail"}, Answer: "Manna",
			Verse: "Exodus 16:31", Explanation: "They called it manna."},
	}
}
