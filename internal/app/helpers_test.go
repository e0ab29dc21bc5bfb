package app_test

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"trivia-battle-service/internal/app"
	"trivia-battle-service/internal/domain"
	"trivia-battle-service/internal/infra/memory"
)

// manualClock fires timers only when Advance moves time past their deadline.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer

	// ignoreStop makes Stop a no-op so stale deadlines still fire.
	ignoreStop bool
}

type manualTimer struct {
	clock *manualClock
	at    time.Time
	seq   int
	f     func()
	done  bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) app.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), seq: len(c.timers), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done || t.clock.ignoreStop {
		return false
	}
	t.done = true
	return true
}

// Advance moves time forward, firing due timers in deadline order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*manualTimer
		for _, t := range c.timers {
			if !t.done && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at.Equal(due[j].at) {
				return due[i].seq < due[j].seq
			}
			return due[i].at.Before(due[j].at)
		})
		next := due[0]
		next.done = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()
		next.f()
	}
}

// recorder is a Notifier that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Notify(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func (r *recorder) count(eventType string) int {
	n := 0
	for _, typ := range r.types() {
		if typ == eventType {
			n++
		}
	}
	return n
}

func (r *recorder) last(eventType string) (domain.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == eventType {
			return r.events[i], true
		}
	}
	return domain.Event{}, false
}

type harness struct {
	clock    *manualClock
	registry *memory.Registry
	store    *memory.BattleStore
	service  *app.BattleService
}

func newHarness(questions []domain.Question, opts ...app.ServiceOption) *harness {
	h := &harness{
		clock:    newManualClock(),
		registry: memory.NewRegistry(),
		store:    memory.NewBattleStore(),
	}
	base := []app.ServiceOption{
		app.WithClock(h.clock),
		app.WithLogger(discardLogger()),
		app.WithSeed(7),
		app.WithIDGenerator(sequentialIDs()),
	}
	h.service = app.NewBattleService(
		h.registry,
		memory.NewQuestionRepository(memory.NewStaticQuestionLoader(questions), time.Minute),
		h.store,
		append(base, opts...)...,
	)
	return h
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("battle-%d", n)
	}
}

// genesisQuestions returns n medium questions whose correct choice is always index 1.
func genesisQuestions(n int) []domain.Question {
	out := make([]domain.Question, n)
	for i := range out {
		out[i] = domain.Question{
			ID:          fmt.Sprintf("gen-%d", i+1),
			Category:    "genesis",
			Book:        "Genesis",
			Difficulty:  domain.DifficultyMedium,
			Prompt:      fmt.Sprintf("Genesis question %d", i+1),
			Choices:     []string{"A", "B", "C", "D"},
			Answer:      "B",
			Explanation: "Because B.",
		}
	}
	return out
}
