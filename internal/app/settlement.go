package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"trivia-battle-service/internal/domain"
)

// DecideOutcome picks the winning slot. A forfeit always goes to the remaining player (0 or 1);
// otherwise the higher score wins and equal scores are a draw.
func DecideOutcome(player1Score, player2Score int, forfeit bool, remaining int) domain.Result {
	if forfeit {
		if remaining == 0 {
			return domain.ResultPlayer1
		}
		return domain.ResultPlayer2
	}
	switch {
	case player1Score > player2Score:
		return domain.ResultPlayer1
	case player2Score > player1Score:
		return domain.ResultPlayer2
	default:
		return domain.ResultDraw
	}
}

// settleLocked completes the battle: final record, stats for both players, the complete event, teardown.
// Store failures are logged; the players still get their result.
func (s *Session) settleLocked(forfeit bool, remaining int) {
	s.stopTimerLocked()
	s.roundOpen = false

	result := DecideOutcome(s.seats[0].score, s.seats[1].score, forfeit, remaining)
	winner := -1
	switch result {
	case domain.ResultPlayer1:
		winner = 0
	case domain.ResultPlayer2:
		winner = 1
	}

	now := s.deps.clock.Now()
	s.status = domain.BattleCompleted
	s.forfeit = forfeit
	s.endedAt = &now
	if winner >= 0 {
		s.winnerID = s.seats[winner].player.ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.deps.opts.PersistTimeout)
	defer cancel()
	if err := s.deps.store.UpdateBattleRecord(ctx, s.recordLocked()); err != nil {
		s.deps.logger.Error("complete battle record failed", "battle_id", s.id, "error", err)
	}

	var g errgroup.Group
	for i, st := range s.seats {
		delta := domain.StatsDelta{Played: 1, Score: st.score}
		if i == winner {
			delta.Won = 1
		}
		playerID := st.player.ID
		g.Go(func() error {
			if err := s.deps.store.UpdatePlayerStats(ctx, playerID, delta); err != nil {
				s.deps.logger.Error("update player stats failed", "battle_id", s.id, "player_id", playerID, "error", err)
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	results := [2]domain.PlayerResult{}
	for i, st := range s.seats {
		results[i] = domain.PlayerResult{ID: st.player.ID, Name: st.player.Name, Score: st.score, IsWinner: i == winner}
	}
	s.broadcastLocked(domain.Event{Type: domain.EventComplete, Payload: domain.CompletePayload{
		BattleID:    s.id,
		Result:      result,
		Forfeit:     forfeit,
		Player1:     results[0],
		Player2:     results[1],
		FinalScores: s.scoresLocked(),
	}})

	s.deps.logger.Info("battle completed", "battle_id", s.id, "result", result, "forfeit", forfeit,
		"player1_score", s.seats[0].score, "player2_score", s.seats[1].score)
	s.deps.registry.Teardown(s.id)
}

// abandonLocked closes a battle nobody is left to finish. No stats are recorded.
func (s *Session) abandonLocked() {
	now := s.deps.clock.Now()
	s.status = domain.BattleAbandoned
	s.endedAt = &now

	ctx, cancel := context.WithTimeout(context.Background(), s.deps.opts.PersistTimeout)
	defer cancel()
	if err := s.deps.store.UpdateBattleRecord(ctx, s.recordLocked()); err != nil {
		s.deps.logger.Error("abandon battle record failed", "battle_id", s.id, "error", err)
	}
	s.deps.logger.Info("battle abandoned", "battle_id", s.id)
	s.deps.registry.Teardown(s.id)
}
