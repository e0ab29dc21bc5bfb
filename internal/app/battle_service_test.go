package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"trivia-battle-service/internal/app"
	"trivia-battle-service/internal/domain"
	"trivia-battle-service/internal/infra/memory"
)

var (
	alice = domain.Player{ID: "u1", Name: "Alice"}
	bob   = domain.Player{ID: "u2", Name: "Bob"}
)

func (h *harness) match(t *testing.T, a, b *recorder) string {
	t.Helper()
	ctx := context.Background()
	id, err := h.service.JoinQueue(ctx, alice, "genesis", a)
	if err != nil || id != "" {
		t.Fatalf("first join should queue, got id=%q err=%v", id, err)
	}
	id, err = h.service.JoinQueue(ctx, bob, "genesis", b)
	if err != nil {
		t.Fatalf("second join failed: %v", err)
	}
	if id == "" {
		t.Fatalf("expected a battle id")
	}
	return id
}

func (h *harness) answer(t *testing.T, player domain.Player, battleID string, idx int) {
	t.Helper()
	if err := h.service.SubmitAnswer(context.Background(), player.ID, battleID, idx); err != nil {
		t.Fatalf("submit for %s: %v", player.ID, err)
	}
}

func TestJoinQueuePairsPlayers(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	a, b := &recorder{}, &recorder{}
	battleID := h.match(t, a, b)

	if got := a.types(); !reflect.DeepEqual(got, []string{domain.EventQueued, domain.EventMatched}) {
		t.Fatalf("unexpected events for first player: %v", got)
	}
	if got := b.types(); !reflect.DeepEqual(got, []string{domain.EventMatched}) {
		t.Fatalf("unexpected events for second player: %v", got)
	}
	ev, _ := b.last(domain.EventMatched)
	matched := ev.Payload.(domain.MatchedPayload)
	if matched.BattleID != battleID || matched.Player1 != alice || matched.Player2 != bob || matched.TotalRounds != 5 {
		t.Fatalf("unexpected matched payload: %+v", matched)
	}
	if _, ok := h.service.Waiting("genesis"); ok {
		t.Fatalf("queue should be empty after pairing")
	}

	h.clock.Advance(2 * time.Second)
	if a.count(domain.EventRoundStart) != 0 {
		t.Fatalf("round must not start before the presentation delay")
	}
	h.clock.Advance(time.Second)
	for _, r := range []*recorder{a, b} {
		ev, ok := r.last(domain.EventRoundStart)
		if !ok {
			t.Fatalf("expected round_start")
		}
		start := ev.Payload.(domain.RoundStartPayload)
		if start.Round != 1 || start.TotalRounds != 5 || start.TimeLimitMs != 20000 {
			t.Fatalf("unexpected round_start: %+v", start)
		}
		if start.Question.Category != "genesis" || len(start.Question.Options) != 4 {
			t.Fatalf("unexpected question view: %+v", start.Question)
		}
	}

	record, err := h.store.GetBattle(context.Background(), battleID)
	if err != nil {
		t.Fatalf("battle record should be persisted: %v", err)
	}
	if record.Status != domain.BattleActive || len(record.QuestionIDs) != 5 {
		t.Fatalf("unexpected record: %+v", record.BattleRecord)
	}
}

func TestAnswerScoringAndEarlyRoundEnd(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	a, b := &recorder{}, &recorder{}
	battleID := h.match(t, a, b)
	h.clock.Advance(3 * time.Second)

	h.clock.Advance(2 * time.Second)
	h.answer(t, alice, battleID, 1)

	ev, ok := a.last(domain.EventAnswerReceived)
	if !ok {
		t.Fatalf("expected answer_received")
	}
	got := ev.Payload.(domain.AnswerReceivedPayload)
	if !got.Correct || got.Points != 550 || got.ElapsedMs != 2000 {
		t.Fatalf("unexpected answer_received: %+v", got)
	}
	if b.count(domain.EventOpponentAnswered) != 1 || b.count(domain.EventAnswerReceived) != 0 {
		t.Fatalf("opponent should only learn that an answer arrived: %v", b.types())
	}

	// Exactly at the limit earns the base only.
	h.clock.Advance(18 * time.Second)
	h.answer(t, bob, battleID, 1)
	ev, _ = b.last(domain.EventAnswerReceived)
	if pts := ev.Payload.(domain.AnswerReceivedPayload).Points; pts != 100 {
		t.Fatalf("expected 100 points at the limit, got %d", pts)
	}

	ev, ok = a.last(domain.EventRoundEnd)
	if !ok {
		t.Fatalf("round should end once both answered")
	}
	end := ev.Payload.(domain.RoundEndPayload)
	if end.Round != 1 || end.CorrectAnswerIndex != 1 || end.CorrectAnswerText != "B" {
		t.Fatalf("unexpected round_end: %+v", end)
	}
	if end.Scores != (domain.Scores{Player1: 550, Player2: 100}) {
		t.Fatalf("unexpected scores: %+v", end.Scores)
	}

	details, err := h.store.GetBattle(context.Background(), battleID)
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if len(details.Rounds) != 1 || details.Rounds[0].Player1Points != 550 || details.Rounds[0].Player2TimeMs != 20000 {
		t.Fatalf("unexpected round record: %+v", details.Rounds)
	}
}

func TestSubmitAnswerIsIdempotent(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	a, b := &recorder{}, &recorder{}
	battleID := h.match(t, a, b)
	h.clock.Advance(3 * time.Second)

	h.answer(t, alice, battleID, 1)
	h.clock.Advance(time.Second)
	h.answer(t, alice, battleID, 0)

	if a.count(domain.EventAnswerReceived) != 1 {
		t.Fatalf("second answer must be ignored, events: %v", a.types())
	}
	session, _ := h.service.Session(battleID)
	if snap := session.Snapshot(); snap.Scores.Player1 != 600 || !snap.RoundOpen {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestRoundTimeoutScoresMissingAnswersAsZero(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	a, b := &recorder{}, &recorder{}
	battleID := h.match(t, a, b)
	h.clock.Advance(3 * time.Second)

	h.clock.Advance(20 * time.Second)
	if a.count(domain.EventRoundEnd) != 0 {
		t.Fatalf("round must stay open through the grace period")
	}
	h.clock.Advance(time.Second)
	ev, ok := b.last(domain.EventRoundEnd)
	if !ok {
		t.Fatalf("expected round_end after timeout")
	}
	if scores := ev.Payload.(domain.RoundEndPayload).Scores; scores != (domain.Scores{}) {
		t.Fatalf("expected zero scores, got %+v", scores)
	}

	// Answers after the round closed are dropped.
	h.answer(t, alice, battleID, 1)
	if a.count(domain.EventAnswerReceived) != 0 {
		t.Fatalf("late answer must be ignored")
	}

	h.clock.Advance(3 * time.Second)
	ev, _ = a.last(domain.EventRoundStart)
	if round := ev.Payload.(domain.RoundStartPayload).Round; round != 2 {
		t.Fatalf("expected round 2 to start, got %d", round)
	}

	details, _ := h.store.GetBattle(context.Background(), battleID)
	if len(details.Rounds) != 1 || details.Rounds[0].Player1Answer != domain.NoAnswer {
		t.Fatalf("expected an unanswered round record, got %+v", details.Rounds)
	}
}

func TestStaleTimerIsIgnored(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	h.clock.ignoreStop = true
	a, b := &recorder{}, &recorder{}
	battleID := h.match(t, a, b)
	h.clock.Advance(3 * time.Second)

	h.clock.Advance(time.Second)
	h.answer(t, alice, battleID, 1)
	h.answer(t, bob, battleID, 1)

	// Round 2 starts at +4s; the round 1 deadline (+21s) must not end it.
	h.clock.Advance(21 * time.Second)
	if n := a.count(domain.EventRoundEnd); n != 1 {
		t.Fatalf("expected exactly one round_end, got %d", n)
	}
	if n := a.count(domain.EventRoundStart); n != 2 {
		t.Fatalf("expected round 2 running, got %d round_start events", n)
	}
	session, _ := h.service.Session(battleID)
	if snap := session.Snapshot(); snap.Round != 2 || !snap.RoundOpen {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestFullBattleSettles(t *testing.T) {
	h := newHarness(genesisQuestions(8))
	a, b := &recorder{}, &recorder{}
	battleID := h.match(t, a, b)
	h.clock.Advance(3 * time.Second)

	for round := 1; round <= 5; round++ {
		h.answer(t, alice, battleID, 1)
		h.answer(t, bob, battleID, 0)
		h.clock.Advance(3 * time.Second)
	}

	ev, ok := a.last(domain.EventComplete)
	if !ok {
		t.Fatalf("expected complete, got %v", a.types())
	}
	complete := ev.Payload.(domain.CompletePayload)
	if complete.Result != domain.ResultPlayer1 || complete.Forfeit {
		t.Fatalf("unexpected result: %+v", complete)
	}
	if !complete.Player1.IsWinner || complete.Player2.IsWinner || complete.FinalScores.Player1 != 3000 {
		t.Fatalf("unexpected complete payload: %+v", complete)
	}
	if b.count(domain.EventComplete) != 1 {
		t.Fatalf("both players must get complete once")
	}

	if _, ok := h.registry.LookupByPlayer(alice.ID); ok {
		t.Fatalf("registry should be torn down")
	}
	if err := h.service.SubmitAnswer(context.Background(), alice.ID, battleID, 1); !errors.Is(err, domain.ErrBattleNotFound) {
		t.Fatalf("expected battle not found after teardown, got %v", err)
	}

	ctx := context.Background()
	winner, _ := h.store.GetPlayerStats(ctx, alice.ID)
	loser, _ := h.store.GetPlayerStats(ctx, bob.ID)
	if winner.BattlesPlayed != 1 || winner.BattlesWon != 1 || winner.TotalScore != 3000 {
		t.Fatalf("unexpected winner stats: %+v", winner)
	}
	if loser.BattlesPlayed != 1 || loser.BattlesWon != 0 || loser.TotalScore != 0 {
		t.Fatalf("unexpected loser stats: %+v", loser)
	}

	details, _ := h.store.GetBattle(ctx, battleID)
	if details.Status != domain.BattleCompleted || details.WinnerID != alice.ID || details.EndedAt == nil || len(details.Rounds) != 5 {
		t.Fatalf("unexpected final record: %+v", details)
	}

	// Players may queue again.
	if id, err := h.service.JoinQueue(ctx, alice, "genesis", a); err != nil || id != "" {
		t.Fatalf("expected to queue again, got id=%q err=%v", id, err)
	}
}

func TestEqualScoresDraw(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	a, b := &recorder{}, &recorder{}
	battleID := h.match(t, a, b)
	h.clock.Advance(3 * time.Second)

	for round := 1; round <= 5; round++ {
		h.answer(t, alice, battleID, 1)
		h.answer(t, bob, battleID, 1)
		h.clock.Advance(3 * time.Second)
	}

	ev, ok := b.last(domain.EventComplete)
	if !ok {
		t.Fatalf("expected complete")
	}
	complete := ev.Payload.(domain.CompletePayload)
	if complete.Result != domain.ResultDraw || complete.Player1.IsWinner || complete.Player2.IsWinner {
		t.Fatalf("expected draw, got %+v", complete)
	}
	stats, _ := h.store.GetPlayerStats(context.Background(), alice.ID)
	if stats.BattlesWon != 0 || stats.BattlesPlayed != 1 {
		t.Fatalf("draw must not count as a win: %+v", stats)
	}
}

func TestDisconnectForfeitsToRemainingPlayer(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	a, b := &recorder{}, &recorder{}
	battleID := h.match(t, a, b)
	h.clock.Advance(3 * time.Second)

	// Bob leads after two rounds.
	for round := 1; round <= 2; round++ {
		h.answer(t, alice, battleID, 0)
		h.answer(t, bob, battleID, 1)
		h.clock.Advance(3 * time.Second)
	}
	bobEvents := len(b.types())

	h.service.Disconnect(bob.ID, b)

	types := a.types()
	if len(types) < 2 || types[len(types)-2] != domain.EventOpponentDisconnected || types[len(types)-1] != domain.EventComplete {
		t.Fatalf("expected opponent_disconnected then complete, got %v", types)
	}
	ev, _ := a.last(domain.EventComplete)
	complete := ev.Payload.(domain.CompletePayload)
	if !complete.Forfeit || complete.Result != domain.ResultPlayer1 || !complete.Player1.IsWinner {
		t.Fatalf("remaining player must win by forfeit: %+v", complete)
	}
	if len(b.types()) != bobEvents {
		t.Fatalf("disconnected player must not receive events")
	}

	// The round 3 deadline was cancelled.
	h.clock.Advance(30 * time.Second)
	if n := a.count(domain.EventRoundEnd); n != 2 {
		t.Fatalf("no round may end after a forfeit, got %d round_end events", n)
	}

	ctx := context.Background()
	winner, _ := h.store.GetPlayerStats(ctx, alice.ID)
	leaver, _ := h.store.GetPlayerStats(ctx, bob.ID)
	if winner.BattlesWon != 1 || leaver.BattlesWon != 0 || leaver.BattlesPlayed != 1 || leaver.TotalScore != 1200 {
		t.Fatalf("unexpected stats: winner=%+v leaver=%+v", winner, leaver)
	}
	details, _ := h.store.GetBattle(ctx, battleID)
	if !details.Forfeit || details.WinnerID != alice.ID {
		t.Fatalf("unexpected record: %+v", details.BattleRecord)
	}
}

func TestDisconnectWhileQueuedLeavesQueue(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	ctx := context.Background()
	a := &recorder{}
	if _, err := h.service.JoinQueue(ctx, alice, "genesis", a); err != nil {
		t.Fatalf("join: %v", err)
	}
	h.service.Disconnect(alice.ID, a)

	b := &recorder{}
	if id, err := h.service.JoinQueue(ctx, bob, "genesis", b); err != nil || id != "" {
		t.Fatalf("expected bob to wait alone, got id=%q err=%v", id, err)
	}
}

func TestDisconnectOfAnotherConnectionIsIgnored(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	a, b := &recorder{}, &recorder{}
	battleID := h.match(t, a, b)
	h.clock.Advance(3 * time.Second)

	// A second tab of Alice closes; her seated connection is still open.
	h.service.Disconnect(alice.ID, &recorder{})

	if n := b.count(domain.EventOpponentDisconnected) + b.count(domain.EventComplete); n != 0 {
		t.Fatalf("battle must go on, bob got %v", b.types())
	}
	session, ok := h.service.Session(battleID)
	if !ok || session.Snapshot().Status != domain.BattleActive {
		t.Fatalf("expected battle still active")
	}
	h.answer(t, alice, battleID, 1)
	if a.count(domain.EventAnswerReceived) != 1 {
		t.Fatalf("seated connection must keep receiving events, got %v", a.types())
	}

	h.service.Disconnect(alice.ID, a)
	ev, ok := b.last(domain.EventComplete)
	if !ok {
		t.Fatalf("closing the seated connection must forfeit")
	}
	disconnected, _ := b.last(domain.EventOpponentDisconnected)
	if p := disconnected.Payload.(domain.OpponentDisconnectedPayload); p.PlayerID != alice.ID {
		t.Fatalf("unexpected opponent_disconnected payload: %+v", p)
	}
	if complete := ev.Payload.(domain.CompletePayload); !complete.Forfeit || complete.Result != domain.ResultPlayer2 {
		t.Fatalf("expected bob to win by forfeit: %+v", complete)
	}
}

func TestDisconnectOfAnotherConnectionKeepsQueueEntry(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	ctx := context.Background()
	a := &recorder{}
	if _, err := h.service.JoinQueue(ctx, alice, "genesis", a); err != nil {
		t.Fatalf("join: %v", err)
	}
	h.service.Disconnect(alice.ID, &recorder{})

	if waiting, ok := h.service.Waiting("genesis"); !ok || waiting.Player != alice {
		t.Fatalf("expected alice still waiting")
	}
}

// droppingRegistry disconnects the listed players right after their battle is registered,
// before the session has started.
type droppingRegistry struct {
	*memory.Registry
	drop map[string]app.Notifier
}

func (r *droppingRegistry) Register(session *app.Session) error {
	if err := r.Registry.Register(session); err != nil {
		return err
	}
	for playerID, n := range r.drop {
		session.Disconnect(playerID, n)
	}
	return nil
}

func newDroppingHarness(drop map[string]app.Notifier) (*harness, *droppingRegistry) {
	h := &harness{
		clock:    newManualClock(),
		registry: memory.NewRegistry(),
		store:    memory.NewBattleStore(),
	}
	registry := &droppingRegistry{Registry: h.registry, drop: drop}
	h.service = app.NewBattleService(
		registry,
		memory.NewQuestionRepository(memory.NewStaticQuestionLoader(genesisQuestions(5)), time.Minute),
		h.store,
		app.WithClock(h.clock),
		app.WithLogger(discardLogger()),
		app.WithSeed(7),
		app.WithIDGenerator(sequentialIDs()),
	)
	return h, registry
}

func TestBothPlayersGoneBeforeStartAbandonsBattle(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	h, _ := newDroppingHarness(map[string]app.Notifier{alice.ID: a, bob.ID: b})
	battleID := h.match(t, a, b)
	ctx := context.Background()

	details, err := h.store.GetBattle(ctx, battleID)
	if err != nil {
		t.Fatalf("get battle: %v", err)
	}
	if details.Status != domain.BattleAbandoned || details.WinnerID != "" || details.EndedAt == nil {
		t.Fatalf("expected abandoned record, got %+v", details.BattleRecord)
	}
	if a.count(domain.EventComplete)+b.count(domain.EventComplete) != 0 {
		t.Fatalf("abandoned battle must not send complete")
	}
	for _, p := range []domain.Player{alice, bob} {
		stats, _ := h.store.GetPlayerStats(ctx, p.ID)
		if stats.BattlesPlayed != 0 || stats.TotalScore != 0 {
			t.Fatalf("abandoned battle must not touch stats: %+v", stats)
		}
	}
	if h.registry.Len() != 0 {
		t.Fatalf("expected registry torn down")
	}

	h.clock.Advance(time.Minute)
	if a.count(domain.EventRoundStart)+b.count(domain.EventRoundStart) != 0 {
		t.Fatalf("no round may start after abandon")
	}
}

func TestPlayerGoneBeforeStartForfeits(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	h, _ := newDroppingHarness(map[string]app.Notifier{bob.ID: b})
	battleID := h.match(t, a, b)

	types := a.types()
	want := []string{domain.EventQueued, domain.EventMatched, domain.EventOpponentDisconnected, domain.EventComplete}
	if !reflect.DeepEqual(types, want) {
		t.Fatalf("unexpected events for alice: %v", types)
	}
	if len(b.types()) != 0 {
		t.Fatalf("disconnected player must not receive events, got %v", b.types())
	}
	ev, _ := a.last(domain.EventComplete)
	if complete := ev.Payload.(domain.CompletePayload); !complete.Forfeit || !complete.Player1.IsWinner {
		t.Fatalf("expected alice to win by forfeit: %+v", complete)
	}
	details, _ := h.store.GetBattle(context.Background(), battleID)
	if details.Status != domain.BattleCompleted || details.WinnerID != alice.ID {
		t.Fatalf("unexpected record: %+v", details.BattleRecord)
	}
	if h.registry.Len() != 0 {
		t.Fatalf("expected registry torn down")
	}
}

func TestJoinQueueRejectsPlayerInBattle(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	a, b := &recorder{}, &recorder{}
	h.match(t, a, b)

	if _, err := h.service.JoinQueue(context.Background(), alice, "exodus", a); !errors.Is(err, domain.ErrAlreadyInBattle) {
		t.Fatalf("expected already in battle, got %v", err)
	}
	if _, ok := h.service.Waiting("exodus"); ok {
		t.Fatalf("rejected player must not be queued")
	}
}

func TestJoinQueueNotEnoughQuestionsKeepsWaiter(t *testing.T) {
	h := newHarness(genesisQuestions(3))
	ctx := context.Background()
	if _, err := h.service.JoinQueue(ctx, alice, "genesis", &recorder{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := h.service.JoinQueue(ctx, bob, "genesis", &recorder{}); !errors.Is(err, domain.ErrNotEnoughQuestions) {
		t.Fatalf("expected not enough questions, got %v", err)
	}
	waiting, ok := h.service.Waiting("genesis")
	if !ok || waiting.Player != alice {
		t.Fatalf("first player should still be waiting, got %+v %v", waiting, ok)
	}
	if _, ok := h.registry.LookupByPlayer(bob.ID); ok {
		t.Fatalf("no battle may be registered")
	}
}

func TestQueueSemantics(t *testing.T) {
	ctx := context.Background()

	t.Run("same player joining twice does not self-match", func(t *testing.T) {
		h := newHarness(genesisQuestions(5))
		a := &recorder{}
		for i := 0; i < 2; i++ {
			if id, err := h.service.JoinQueue(ctx, alice, "genesis", a); err != nil || id != "" {
				t.Fatalf("join %d: id=%q err=%v", i, id, err)
			}
		}
		if a.count(domain.EventQueued) != 2 {
			t.Fatalf("expected two queued acks, got %v", a.types())
		}
	})

	t.Run("leave queue acknowledges", func(t *testing.T) {
		h := newHarness(genesisQuestions(5))
		a := &recorder{}
		_, _ = h.service.JoinQueue(ctx, alice, "genesis", a)
		if !h.service.LeaveQueue(alice.ID, a) {
			t.Fatalf("expected entry removed")
		}
		if a.count(domain.EventQueueLeft) != 1 {
			t.Fatalf("expected queue_left, got %v", a.types())
		}
		if h.service.LeaveQueue(alice.ID, a) {
			t.Fatalf("second leave should be a no-op")
		}
	})

	t.Run("switching category drops the earlier entry", func(t *testing.T) {
		h := newHarness(genesisQuestions(5))
		_, _ = h.service.JoinQueue(ctx, alice, "genesis", &recorder{})
		_, _ = h.service.JoinQueue(ctx, alice, "exodus", &recorder{})
		if id, err := h.service.JoinQueue(ctx, bob, "genesis", &recorder{}); err != nil || id != "" {
			t.Fatalf("bob should not pair with a stale entry, got id=%q err=%v", id, err)
		}
	})
}

func TestSubmitAnswerErrors(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	a, b := &recorder{}, &recorder{}
	battleID := h.match(t, a, b)
	ctx := context.Background()

	if err := h.service.SubmitAnswer(ctx, alice.ID, "nope", 1); !errors.Is(err, domain.ErrBattleNotFound) {
		t.Fatalf("expected battle not found, got %v", err)
	}
	if err := h.service.SubmitAnswer(ctx, "u9", battleID, 1); !errors.Is(err, domain.ErrNotInBattle) {
		t.Fatalf("expected not in battle, got %v", err)
	}
	// Before round 1 opens the answer is ignored.
	if err := h.service.SubmitAnswer(ctx, alice.ID, battleID, 1); err != nil {
		t.Fatalf("expected silent ignore, got %v", err)
	}
	if a.count(domain.EventAnswerReceived) != 0 {
		t.Fatalf("answer before round start must be ignored")
	}
}

func TestStoreFailuresDoNotBlockPlay(t *testing.T) {
	h := newHarness(genesisQuestions(5))
	failing := &failingStore{BattleStore: memory.NewBattleStore()}
	h.service = app.NewBattleService(
		h.registry,
		memory.NewQuestionRepository(memory.NewStaticQuestionLoader(genesisQuestions(5)), time.Minute),
		failing,
		app.WithClock(h.clock),
		app.WithLogger(discardLogger()),
	)
	a, b := &recorder{}, &recorder{}
	battleID := h.match(t, a, b)
	h.clock.Advance(3 * time.Second)

	for round := 1; round <= 5; round++ {
		h.answer(t, alice, battleID, 1)
		h.answer(t, bob, battleID, 0)
		h.clock.Advance(3 * time.Second)
	}
	if a.count(domain.EventComplete) != 1 || b.count(domain.EventComplete) != 1 {
		t.Fatalf("players must still get the result, got %v", a.types())
	}
	if _, ok := h.registry.LookupByPlayer(alice.ID); ok {
		t.Fatalf("registry should be torn down")
	}
}

type failingStore struct {
	*memory.BattleStore
}

var errStoreDown = errors.New("store down")

func (failingStore) CreateBattleRecord(context.Context, domain.BattleRecord) error { return errStoreDown }
func (failingStore) UpdateBattleRecord(context.Context, domain.BattleRecord) error { return errStoreDown }
func (failingStore) SaveRound(context.Context, domain.RoundRecord) error { return errStoreDown }
func (failingStore) UpdatePlayerStats(context.Context, string, domain.StatsDelta) error {
	return errStoreDown
}
