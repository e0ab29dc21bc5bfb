package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"trivia-battle-service/internal/domain"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

// BattleService contains the matchmaking and battle use cases.
type BattleService struct {
	queue     *Queue
	registry  Registry
	questions QuestionRepository
	store     BattleStore
	clock     Clock
	opts      Options
	logger    *slog.Logger
	newID     func() string

	rndMu sync.Mutex
	rnd   *rand.Rand
}

type ServiceOption func(*BattleService)

func WithClock(c Clock) ServiceOption {
	return func(s *BattleService) { s.clock = c }
}

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *BattleService) { s.logger = l }
}

func WithOptions(o Options) ServiceOption {
	return func(s *BattleService) { s.opts = o.withDefaults() }
}

// WithIDGenerator overrides uuid battle ids; tests use it for stable ids.
func WithIDGenerator(f func() string) ServiceOption {
	return func(s *BattleService) { s.newID = f }
}

func WithSeed(seed int64) ServiceOption {
	return func(s *BattleService) { s.rnd = rand.New(rand.NewSource(seed)) }
}

func NewBattleService(registry Registry, questions QuestionRepository, store BattleStore, opts ...ServiceOption) *BattleService {
	s := &BattleService{
		queue:     NewQueue(),
		registry:  registry,
		questions: questions,
		store:     store,
		clock:     SystemClock(),
		opts:      DefaultOptions(),
		logger:    slog.Default(),
		newID:     uuid.NewString,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSession builds an inert session for registry implementations and their tests.
// It is never started, has no notifiers and persists nothing.
func NewSession(id string, player1, player2 domain.Player) *Session {
	deps := sessionDeps{
		clock:    SystemClock(),
		store:    nopStore{},
		registry: nopRegistry{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		opts:     DefaultOptions(),
	}
	return newSession(id, "", QueueEntry{Player: player1}, QueueEntry{Player: player2}, nil, deps)
}

// JoinQueue pairs the player with the opponent waiting in category, or queues them.
// It returns the battle id when a match was made and "" when the player is now waiting.
func (s *BattleService) JoinQueue(ctx context.Context, player domain.Player, category string, n Notifier) (string, error) {
	// Preload the pool; pairing cannot proceed without it.
	pool, err := s.questions.Pool(ctx)
	if err != nil {
		return "", fmt.Errorf("load question pool: %w", err)
	}

	entry := QueueEntry{Player: player, Category: category, Notifier: n, EnqueuedAt: s.clock.Now()}
	var session *Session
	matched, err := s.queue.Join(entry, s.inBattle, func(waiting QueueEntry) error {
		sess, err := s.pair(pool, waiting, entry)
		if err != nil {
			return err
		}
		session = sess
		return nil
	})
	if err != nil {
		return "", err
	}

	if !matched {
		s.logger.Debug("player queued", "player_id", player.ID, "category", category)
		n.Notify(domain.Event{Type: domain.EventQueued, Payload: domain.QueuedPayload{
			Category: category,
			Message:  "Waiting for an opponent...",
		}})
		return "", nil
	}

	session.begin()
	return session.ID(), nil
}

func (s *BattleService) pair(pool []domain.Question, waiting, joiner QueueEntry) (*Session, error) {
	s.rndMu.Lock()
	picked, err := SampleQuestions(pool, joiner.Category, s.opts.TotalRounds, s.rnd)
	s.rndMu.Unlock()
	if err != nil {
		return nil, err
	}

	session := newSession(s.newID(), joiner.Category, waiting, joiner, picked, s.sessionDeps())
	if err := s.registry.Register(session); err != nil {
		return nil, err
	}
	s.logger.Info("players matched", "battle_id", session.ID(), "category", joiner.Category,
		"player1_id", waiting.Player.ID, "player2_id", joiner.Player.ID)
	return session, nil
}

func (s *BattleService) sessionDeps() sessionDeps {
	return sessionDeps{
		clock:    s.clock,
		store:    s.store,
		registry: s.registry,
		logger:   s.logger,
		opts:     s.opts,
	}
}

func (s *BattleService) inBattle(playerID string) bool {
	_, ok := s.registry.LookupByPlayer(playerID)
	return ok
}

// LeaveQueue removes the player's waiting entry and acknowledges with queue_left.
func (s *BattleService) LeaveQueue(playerID string, n Notifier) bool {
	if !s.queue.Leave(playerID) {
		return false
	}
	if n != nil {
		n.Notify(domain.Event{Type: domain.EventQueueLeft, Payload: struct{}{}})
	}
	return true
}

// SubmitAnswer routes an answer to the player's live battle.
func (s *BattleService) SubmitAnswer(_ context.Context, playerID, battleID string, answerIndex int) error {
	session, ok := s.registry.Get(battleID)
	if !ok {
		return domain.ErrBattleNotFound
	}
	return session.SubmitAnswer(playerID, answerIndex)
}

// Disconnect cleans up after the connection n of a player closed. Only state registered through n
// is touched: its queue entry goes away and, if n is seated in a live battle, the battle is forfeited.
func (s *BattleService) Disconnect(playerID string, n Notifier) {
	s.queue.LeaveWith(playerID, n)

	battleID, ok := s.registry.LookupByPlayer(playerID)
	if !ok {
		return
	}
	session, ok := s.registry.Get(battleID)
	if !ok {
		return
	}
	s.logger.Debug("connection closed", "battle_id", battleID, "player_id", playerID)
	session.Disconnect(playerID, n)
}

// Heartbeat keeps the player's registry claim alive.
func (s *BattleService) Heartbeat(playerID string) {
	s.registry.Touch(playerID)
}

// Session returns the live session for a battle id.
func (s *BattleService) Session(battleID string) (*Session, bool) {
	return s.registry.Get(battleID)
}

// Waiting returns the player waiting in category, if any.
func (s *BattleService) Waiting(category string) (QueueEntry, bool) {
	return s.queue.Waiting(category)
}

func (s *BattleService) Battle(ctx context.Context, battleID string) (domain.BattleDetails, error) {
	return s.store.GetBattle(ctx, battleID)
}

// History lists a player's most recent battles. limit is clamped to [1, MaxHistoryLimit].
func (s *BattleService) History(ctx context.Context, playerID string, limit int) ([]domain.BattleRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return s.store.ListBattles(ctx, playerID, limit)
}

func (s *BattleService) Stats(ctx context.Context, playerID string) (domain.PlayerStats, error) {
	return s.store.GetPlayerStats(ctx, playerID)
}

type nopStore struct{}

func (nopStore) CreateBattleRecord(context.Context, domain.BattleRecord) error { return nil }
func (nopStore) UpdateBattleRecord(context.Context, domain.BattleRecord) error { return nil }
func (nopStore) SaveRound(context.Context, domain.RoundRecord) error { return nil }
func (nopStore) GetPlayerStats(_ context.Context, id string) (domain.PlayerStats, error) {
	return domain.PlayerStats{PlayerID: id}, nil
}
func (nopStore) UpdatePlayerStats(context.Context, string, domain.StatsDelta) error { return nil }
func (nopStore) GetBattle(context.Context, string) (domain.BattleDetails, error) {
	return domain.BattleDetails{}, domain.ErrRecordNotFound
}
func (nopStore) ListBattles(context.Context, string, int) ([]domain.BattleRecord, error) {
	return nil, nil
}

type nopRegistry struct{}

func (nopRegistry) Register(*Session) error { return nil }
func (nopRegistry) LookupByPlayer(string) (string, bool) { return "", false }
func (nopRegistry) Get(string) (*Session, bool) { return nil, false }
func (nopRegistry) Teardown(string) {}
func (nopRegistry) Touch(string) {}
