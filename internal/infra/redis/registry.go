package redis

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-battle-service/internal/app"
	"trivia-battle-service/internal/domain"
)

// claimScript sets both player claims and the battle marker only if neither player is claimed.
// KEYS: player1, player2, battle. ARGV: battle id, ttl ms, player ids.
var claimScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 or redis.call('EXISTS', KEYS[2]) == 1 then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
redis.call('SET', KEYS[2], ARGV[1], 'PX', ARGV[2])
redis.call('SET', KEYS[3], ARGV[3], 'PX', ARGV[2])
return 1
`)

// releaseScript deletes player claims that still point at the battle.
var releaseScript = redis.NewScript(`
for _, key in ipairs(KEYS) do
  if redis.call('GET', key) == ARGV[1] then
    redis.call('DEL', key)
  end
end
return 1
`)

// Registry is a Redis-aware implementation of app.Registry.
// Notes:
//   - Sessions (timers, notifiers) stay in a local map; only this process can drive them.
//   - Redis holds the player claims so a player cannot enter two battles across instances.
//   - Claims expire after ttl unless refreshed by Touch, so a crashed instance frees its players.
type Registry struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*app.Session
	players  map[string]string
}

// DefaultClaimTTL is used when no positive ttl is configured.
const DefaultClaimTTL = 2 * time.Minute

// NewRegistry builds a registry whose claims live for ttl. A nil logger means slog.Default().
func NewRegistry(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Registry {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		client:   client,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[string]*app.Session),
		players:  make(map[string]string),
	}
}

func (r *Registry) Register(session *app.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := session.PlayerIDs()
	for _, id := range ids {
		if _, ok := r.players[id]; ok {
			return domain.ErrAlreadyInBattle
		}
	}

	ctx := context.Background()
	keys := []string{r.playerKey(ids[0]), r.playerKey(ids[1]), r.battleKey(session.ID())}
	claimed, err := claimScript.Run(ctx, r.client, keys, session.ID(), r.ttl.Milliseconds(), strings.Join(ids[:], ",")).Int()
	switch {
	case err != nil:
		// best-effort: fall back to the local claim when Redis is unreachable
		r.logger.Warn("claim players in redis failed", "battle_id", session.ID(), "error", err)
	case claimed == 0:
		return domain.ErrAlreadyInBattle
	}

	r.sessions[session.ID()] = session
	for _, id := range ids {
		r.players[id] = session.ID()
	}
	return nil
}

// LookupByPlayer checks local sessions first, then claims held by other instances.
func (r *Registry) LookupByPlayer(playerID string) (string, bool) {
	r.mu.RLock()
	battleID, ok := r.players[playerID]
	r.mu.RUnlock()
	if ok {
		return battleID, true
	}

	battleID, err := r.client.Get(context.Background(), r.playerKey(playerID)).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("lookup player claim failed", "player_id", playerID, "error", err)
		}
		return "", false
	}
	return battleID, true
}

func (r *Registry) Get(battleID string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[battleID]
	return session, ok
}

func (r *Registry) Teardown(battleID string) {
	r.mu.Lock()
	session, ok := r.sessions[battleID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, battleID)
	ids := session.PlayerIDs()
	for _, id := range ids {
		if r.players[id] == battleID {
			delete(r.players, id)
		}
	}
	r.mu.Unlock()

	ctx := context.Background()
	if err := releaseScript.Run(ctx, r.client, []string{r.playerKey(ids[0]), r.playerKey(ids[1])}, battleID).Err(); err != nil {
		r.logger.Warn("release player claims failed", "battle_id", battleID, "error", err)
	}
	if err := r.client.Del(ctx, r.battleKey(battleID)).Err(); err != nil {
		r.logger.Warn("delete battle marker failed", "battle_id", battleID, "error", err)
	}
}

// Touch refreshes the player's claim and battle marker TTL.
func (r *Registry) Touch(playerID string) {
	r.mu.RLock()
	battleID, ok := r.players[playerID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	ctx := context.Background()
	pipe := r.client.Pipeline()
	pipe.PExpire(ctx, r.playerKey(playerID), r.ttl)
	pipe.PExpire(ctx, r.battleKey(battleID), r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("refresh player claim failed", "player_id", playerID, "error", err)
	}
}

func (r *Registry) playerKey(playerID string) string {
	return "battle:player:" + playerID
}

func (r *Registry) battleKey(battleID string) string {
	return "battle:session:" + battleID
}
