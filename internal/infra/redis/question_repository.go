package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-battle-service/internal/domain"
	"trivia-battle-service/internal/infra/memory"
)

// QuestionRepository caches the question pool in Redis and falls back to a loader on cache miss.
// The pool is stored as a single JSON document: SET questions:pool {json} EX ttl
type QuestionRepository struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	key    string
	sf     singleflight.Group
	rnd    *rand.Rand
	logger *slog.Logger
}

// NewQuestionRepository builds the cache. A nil logger means slog.Default().
func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration, logger *slog.Logger) *QuestionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		key:    "questions:pool",
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
	}
}

func (r *QuestionRepository) Pool(ctx context.Context) ([]domain.Question, error) {
	if pool, ok := r.fromCache(ctx); ok {
		return pool, nil
	}

	result, err, _ := r.sf.Do(r.key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if pool, ok := r.fromCache(ctx); ok {
			return pool, nil
		}

		pool, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		if len(pool) == 0 {
			return nil, domain.ErrQuestionsNotFound
		}

		payload, err := json.Marshal(pool)
		if err != nil {
			return nil, err
		}
		if err := r.client.Set(ctx, r.key, payload, r.ttlWithJitter()).Err(); err != nil {
			r.logger.Warn("cache question pool failed", "key", r.key, "error", err)
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate removes the cached pool. The seed command calls it after loading new questions.
func (r *QuestionRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func (r *QuestionRepository) fromCache(ctx context.Context) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("read cached question pool failed", "key", r.key, "error", err)
		}
		return nil, false
	}
	var pool []domain.Question
	if err := json.Unmarshal(raw, &pool); err != nil || len(pool) == 0 {
		return nil, false
	}
	return pool, true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
