package app

import (
	"sync"
	"time"

	"trivia-battle-service/internal/domain"
)

// QueueEntry is a player waiting for an opponent in one category.
type QueueEntry struct {
	Player     domain.Player
	Category   string
	Notifier   Notifier
	EnqueuedAt time.Time
}

// Queue keeps at most one waiting player per category.
type Queue struct {
	mu      sync.Mutex
	waiting map[string]QueueEntry
}

func NewQueue() *Queue {
	return &Queue{waiting: make(map[string]QueueEntry)}
}

// Join pairs entry with the player waiting in the same category, or records it as the new waiter.
// inBattle and pair run under the queue lock so a player cannot be queued and registered at once.
// A player waits in at most one category; joining again replaces the earlier registration.
func (q *Queue) Join(entry QueueEntry, inBattle func(playerID string) bool, pair func(waiting QueueEntry) error) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if inBattle(entry.Player.ID) {
		return false, domain.ErrAlreadyInBattle
	}
	q.removeLocked(entry.Player.ID)

	if waiting, ok := q.waiting[entry.Category]; ok && waiting.Player.ID != entry.Player.ID {
		if err := pair(waiting); err != nil {
			return false, err
		}
		delete(q.waiting, entry.Category)
		return true, nil
	}

	q.waiting[entry.Category] = entry
	return false, nil
}

// Leave removes the player's waiting entry. It reports whether anything was removed.
func (q *Queue) Leave(playerID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(playerID)
}

// LeaveWith removes the player's waiting entry only if it was registered through n.
// A connection closing must not drop an entry another connection of the same player owns.
func (q *Queue) LeaveWith(playerID string, n Notifier) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := false
	for category, entry := range q.waiting {
		if entry.Player.ID == playerID && sameNotifier(entry.Notifier, n) {
			delete(q.waiting, category)
			removed = true
		}
	}
	return removed
}

// Waiting returns the player currently waiting in category.
func (q *Queue) Waiting(category string) (QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	entry, ok := q.waiting[category]
	return entry, ok
}

func (q *Queue) removeLocked(playerID string) bool {
	removed := false
	for category, entry := range q.waiting {
		if entry.Player.ID == playerID {
			delete(q.waiting, category)
			removed = true
		}
	}
	return removed
}
