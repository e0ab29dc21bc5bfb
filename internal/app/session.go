package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"trivia-battle-service/internal/domain"
)

type sessionDeps struct {
	clock    Clock
	store    BattleStore
	registry Registry
	logger   *slog.Logger
	opts     Options
}

type seat struct {
	player    domain.Player
	notifier  Notifier
	connected bool

	score    int
	answered bool
	answer   int
	elapsed  time.Duration
	points   int
}

// Session is one live battle between two players. Every transition runs under mu,
// and timers are tagged with their round so a late fire after the round moved on is a no-op.
type Session struct {
	id        string
	category  string
	questions []domain.Question
	startedAt time.Time
	deps      sessionDeps

	mu         sync.Mutex
	status     domain.BattleStatus
	seats      [2]*seat
	round      int
	roundOpen  bool
	roundStart time.Time
	roundLimit time.Duration
	timer      Timer
	winnerID   string
	forfeit    bool
	endedAt    *time.Time
}

// SessionSnapshot is a copy of the session's mutable state.
type SessionSnapshot struct {
	ID        string
	Status    domain.BattleStatus
	Round     int
	RoundOpen bool
	Scores    domain.Scores
	WinnerID  string
	Forfeit   bool
}

func newSession(id, category string, first, second QueueEntry, questions []domain.Question, deps sessionDeps) *Session {
	return &Session{
		id:        id,
		category:  category,
		questions: questions,
		startedAt: deps.clock.Now(),
		deps:      deps,
		status:    domain.BattleWaiting,
		seats: [2]*seat{
			{player: first.Player, notifier: first.Notifier, connected: true, answer: domain.NoAnswer},
			{player: second.Player, notifier: second.Notifier, connected: true, answer: domain.NoAnswer},
		},
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Category() string { return s.category }

// PlayerIDs returns player1 and player2 ids in seat order.
func (s *Session) PlayerIDs() [2]string {
	return [2]string{s.seats[0].player.ID, s.seats[1].player.ID}
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		ID:        s.id,
		Status:    s.status,
		Round:     s.round,
		RoundOpen: s.roundOpen,
		Scores:    s.scoresLocked(),
		WinnerID:  s.winnerID,
		Forfeit:   s.forfeit,
	}
}

// begin persists the new battle, announces the match and schedules round 1 after the presentation delay.
func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.BattleWaiting {
		return
	}
	s.status = domain.BattleActive

	ctx, cancel := context.WithTimeout(context.Background(), s.deps.opts.PersistTimeout)
	if err := s.deps.store.CreateBattleRecord(ctx, s.recordLocked()); err != nil {
		s.deps.logger.Error("create battle record failed", "battle_id", s.id, "error", err)
	}
	cancel()

	s.broadcastLocked(domain.Event{Type: domain.EventMatched, Payload: domain.MatchedPayload{
		BattleID:    s.id,
		Player1:     s.seats[0].player,
		Player2:     s.seats[1].player,
		TotalRounds: len(s.questions),
	}})

	// A player may have dropped between pairing and now.
	for i, st := range s.seats {
		if !st.connected {
			s.leaveLocked(i)
			return
		}
	}

	s.timer = s.deps.clock.AfterFunc(s.deps.opts.PresentationDelay, func() { s.startRound(1) })
}

func (s *Session) startRound(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.BattleActive || s.roundOpen || s.round != n-1 || n > len(s.questions) {
		return
	}

	q := s.questions[n-1]
	s.round = n
	s.roundOpen = true
	for _, st := range s.seats {
		st.answered = false
		st.answer = domain.NoAnswer
		st.elapsed = 0
		st.points = 0
	}
	s.roundStart = s.deps.clock.Now()
	s.roundLimit = TimeLimitFor(q.Difficulty)

	s.broadcastLocked(domain.Event{Type: domain.EventRoundStart, Payload: domain.RoundStartPayload{
		Round:       n,
		TotalRounds: len(s.questions),
		Question:    q.View(),
		TimeLimitMs: s.roundLimit.Milliseconds(),
		Scores:      s.scoresLocked(),
	}})

	s.timer = s.deps.clock.AfterFunc(s.roundLimit+s.deps.opts.RoundGrace, func() { s.roundTimeout(n) })
}

func (s *Session) roundTimeout(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.BattleActive || !s.roundOpen || s.round != n {
		return
	}
	s.deps.logger.Debug("round timed out", "battle_id", s.id, "round", n)
	s.endRoundLocked()
}

// SubmitAnswer records a player's first answer for the open round. Answers outside an open round
// and repeat answers are ignored.
func (s *Session) SubmitAnswer(playerID string, answerIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.BattleActive {
		return domain.ErrBattleInactive
	}
	idx := s.seatIndex(playerID)
	if idx < 0 {
		return domain.ErrNotInBattle
	}
	st := s.seats[idx]
	if !s.roundOpen || st.answered {
		return nil
	}

	q := s.questions[s.round-1]
	elapsed := clampElapsed(s.deps.clock.Now().Sub(s.roundStart), s.roundLimit)
	correct := IsCorrect(q, answerIndex)
	points := CalculatePoints(correct, elapsed, s.roundLimit)

	st.answered = true
	st.answer = answerIndex
	st.elapsed = elapsed
	st.points = points
	st.score += points

	s.notifyLocked(idx, domain.Event{Type: domain.EventAnswerReceived, Payload: domain.AnswerReceivedPayload{
		Correct:   correct,
		Points:    points,
		ElapsedMs: elapsed.Milliseconds(),
	}})
	s.notifyLocked(1-idx, domain.Event{Type: domain.EventOpponentAnswered, Payload: struct{}{}})

	if s.seats[0].answered && s.seats[1].answered {
		s.endRoundLocked()
	}
	return nil
}

func (s *Session) endRoundLocked() {
	s.stopTimerLocked()
	s.roundOpen = false
	n := s.round
	q := s.questions[n-1]
	now := s.deps.clock.Now()

	s.broadcastLocked(domain.Event{Type: domain.EventRoundEnd, Payload: domain.RoundEndPayload{
		Round:              n,
		CorrectAnswerIndex: q.CorrectIndex(),
		CorrectAnswerText:  q.Answer,
		Explanation:        q.Explanation,
		Scores:             s.scoresLocked(),
	}})

	s.persistRoundLocked(q, now)

	if n >= len(s.questions) {
		s.timer = s.deps.clock.AfterFunc(s.deps.opts.RevealDelay, s.finish)
		return
	}
	s.timer = s.deps.clock.AfterFunc(s.deps.opts.RevealDelay, func() { s.startRound(n + 1) })
}

func (s *Session) persistRoundLocked(q domain.Question, endedAt time.Time) {
	p1, p2 := s.seats[0], s.seats[1]
	round := domain.RoundRecord{
		BattleID:      s.id,
		RoundNumber:   s.round,
		QuestionID:    q.ID,
		Player1Answer: p1.answer,
		Player2Answer: p2.answer,
		Player1TimeMs: p1.elapsed.Milliseconds(),
		Player2TimeMs: p2.elapsed.Milliseconds(),
		Player1Points: p1.points,
		Player2Points: p2.points,
		StartedAt:     s.roundStart,
		EndedAt:       endedAt,
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.deps.opts.PersistTimeout)
	defer cancel()
	if err := s.deps.store.SaveRound(ctx, round); err != nil {
		s.deps.logger.Error("save round failed", "battle_id", s.id, "round", s.round, "error", err)
	}
	if err := s.deps.store.UpdateBattleRecord(ctx, s.recordLocked()); err != nil {
		s.deps.logger.Error("update battle record failed", "battle_id", s.id, "error", err)
	}
}

func (s *Session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != domain.BattleActive || s.roundOpen || s.round != len(s.questions) {
		return
	}
	s.settleLocked(false, -1)
}

// Disconnect marks the player gone when n is the connection seated in the battle; closing any
// other connection of the same player is ignored. During a live battle the remaining player wins
// by forfeit; if nobody is left the battle is abandoned.
func (s *Session) Disconnect(playerID string, n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.seatIndex(playerID)
	if idx < 0 || !s.seats[idx].connected || !sameNotifier(s.seats[idx].notifier, n) {
		return
	}
	s.seats[idx].connected = false
	s.seats[idx].notifier = nil

	if s.status != domain.BattleActive {
		return
	}
	s.leaveLocked(idx)
}

func (s *Session) leaveLocked(idx int) {
	s.stopTimerLocked()
	s.roundOpen = false
	other := 1 - idx
	if !s.seats[other].connected {
		s.abandonLocked()
		return
	}
	s.notifyLocked(other, domain.Event{Type: domain.EventOpponentDisconnected, Payload: domain.OpponentDisconnectedPayload{
		PlayerID: s.seats[idx].player.ID,
		Message:  s.seats[idx].player.Name + " left the battle",
	}})
	s.settleLocked(true, other)
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) seatIndex(playerID string) int {
	for i, st := range s.seats {
		if st.player.ID == playerID {
			return i
		}
	}
	return -1
}

func (s *Session) scoresLocked() domain.Scores {
	return domain.Scores{Player1: s.seats[0].score, Player2: s.seats[1].score}
}

func (s *Session) notifyLocked(idx int, ev domain.Event) {
	st := s.seats[idx]
	if !st.connected || st.notifier == nil {
		return
	}
	st.notifier.Notify(ev)
}

func (s *Session) broadcastLocked(ev domain.Event) {
	s.notifyLocked(0, ev)
	s.notifyLocked(1, ev)
}

func (s *Session) recordLocked() domain.BattleRecord {
	ids := make([]string, len(s.questions))
	for i, q := range s.questions {
		ids[i] = q.ID
	}
	return domain.BattleRecord{
		ID:           s.id,
		Category:     s.category,
		Status:       s.status,
		Player1ID:    s.seats[0].player.ID,
		Player2ID:    s.seats[1].player.ID,
		WinnerID:     s.winnerID,
		Player1Score: s.seats[0].score,
		Player2Score: s.seats[1].score,
		CurrentRound: s.round,
		TotalRounds:  len(s.questions),
		QuestionIDs:  ids,
		Forfeit:      s.forfeit,
		StartedAt:    s.startedAt,
		EndedAt:      s.endedAt,
	}
}
