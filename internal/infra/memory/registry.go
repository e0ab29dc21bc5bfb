package memory

import (
	"sync"

	"trivia-battle-service/internal/app"
	"trivia-battle-service/internal/domain"
)

// Registry is an in-memory implementation of app.Registry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
	players  map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
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
	r.sessions[session.ID()] = session
	for _, id := range ids {
		r.players[id] = session.ID()
	}
	return nil
}

func (r *Registry) LookupByPlayer(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	battleID, ok := r.players[playerID]
	return battleID, ok
}

func (r *Registry) Get(battleID string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[battleID]
	return session, ok
}

func (r *Registry) Teardown(battleID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[battleID]
	if !ok {
		return
	}
	delete(r.sessions, battleID)
	for _, id := range session.PlayerIDs() {
		if r.players[id] == battleID {
			delete(r.players, id)
		}
	}
}

// Touch is a no-op; in-process claims live as long as the session.
func (r *Registry) Touch(string) {}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
