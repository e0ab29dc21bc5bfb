package app

import (
	"context"
	"reflect"

	"trivia-battle-service/internal/domain"
)

// Notifier delivers events to one connected player. Implementations must not block.
type Notifier interface {
	Notify(domain.Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(domain.Event)

func (f NotifierFunc) Notify(ev domain.Event) { f(ev) }

// sameNotifier reports whether a and b are the same connection.
// Notifiers of an uncomparable type, such as NotifierFunc, only match when both are nil.
func sameNotifier(a, b Notifier) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !reflect.TypeOf(a).Comparable() {
		return false
	}
	return a == b
}

// Registry maps battle ids and player ids to active sessions (in-memory, Redis, etc).
// Register must fail with domain.ErrAlreadyInBattle if either player already has a battle.
type Registry interface {
	Register(session *Session) error
	LookupByPlayer(playerID string) (string, bool)
	Get(battleID string) (*Session, bool)
	Teardown(battleID string)
	Touch(playerID string)
}

// QuestionRepository supplies the shared, read-only question pool.
type QuestionRepository interface {
	Pool(ctx context.Context) ([]domain.Question, error)
}

// BattleStore is the persistence collaborator for battle outcomes and player stats.
type BattleStore interface {
	CreateBattleRecord(ctx context.Context, record domain.BattleRecord) error
	UpdateBattleRecord(ctx context.Context, record domain.BattleRecord) error
	SaveRound(ctx context.Context, round domain.RoundRecord) error
	GetPlayerStats(ctx context.Context, playerID string) (domain.PlayerStats, error)
	// UpdatePlayerStats applies all fields of delta together or not at all.
	UpdatePlayerStats(ctx context.Context, playerID string, delta domain.StatsDelta) error
	GetBattle(ctx context.Context, battleID string) (domain.BattleDetails, error)
	ListBattles(ctx context.Context, playerID string, limit int) ([]domain.BattleRecord, error)
}
