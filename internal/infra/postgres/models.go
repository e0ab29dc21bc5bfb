package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"trivia-battle-service/internal/domain"
)

type battleRow struct {
	bun.BaseModel `bun:"table:battle_matches,alias:bm"`

	ID           string     `bun:"id,pk"`
	CategoryID   string     `bun:"category_id"`
	Status       string     `bun:"status"`
	Player1ID    string     `bun:"player1_id"`
	Player2ID    string     `bun:"player2_id"`
	WinnerID     string     `bun:"winner_id,nullzero"`
	Player1Score int        `bun:"player1_score"`
	Player2Score int        `bun:"player2_score"`
	CurrentRound int        `bun:"current_round"`
	TotalRounds  int        `bun:"total_rounds"`
	QuestionIDs  []string   `bun:"question_ids"`
	Forfeit      bool       `bun:"forfeit"`
	StartedAt    time.Time  `bun:"started_at"`
	EndedAt      *time.Time `bun:"ended_at"`
}

func newBattleRow(r domain.BattleRecord) *battleRow {
	ids := r.QuestionIDs
	if ids == nil {
		ids = []string{}
	}
	return &battleRow{
		ID:           r.ID,
		CategoryID:   r.Category,
		Status:       string(r.Status),
		Player1ID:    r.Player1ID,
		Player2ID:    r.Player2ID,
		WinnerID:     r.WinnerID,
		Player1Score: r.Player1Score,
		Player2Score: r.Player2Score,
		CurrentRound: r.CurrentRound,
		TotalRounds:  r.TotalRounds,
		QuestionIDs:  ids,
		Forfeit:      r.Forfeit,
		StartedAt:    r.StartedAt.UTC(),
		EndedAt:      utcPtr(r.EndedAt),
	}
}

func (b *battleRow) record() domain.BattleRecord {
	return domain.BattleRecord{
		ID:           b.ID,
		Category:     b.CategoryID,
		Status:       domain.BattleStatus(b.Status),
		Player1ID:    b.Player1ID,
		Player2ID:    b.Player2ID,
		WinnerID:     b.WinnerID,
		Player1Score: b.Player1Score,
		Player2Score: b.Player2Score,
		CurrentRound: b.CurrentRound,
		TotalRounds:  b.TotalRounds,
		QuestionIDs:  b.QuestionIDs,
		Forfeit:      b.Forfeit,
		StartedAt:    b.StartedAt,
		EndedAt:      b.EndedAt,
	}
}

type roundRow struct {
	bun.BaseModel `bun:"table:battle_rounds,alias:br"`

	BattleID      string    `bun:"battle_id,pk"`
	RoundNumber   int       `bun:"round_number,pk"`
	QuestionID    string    `bun:"question_id"`
	Player1Answer int       `bun:"player1_answer"`
	Player2Answer int       `bun:"player2_answer"`
	Player1TimeMs int64     `bun:"player1_time_ms"`
	Player2TimeMs int64     `bun:"player2_time_ms"`
	Player1Points int       `bun:"player1_points"`
	Player2Points int       `bun:"player2_points"`
	StartedAt     time.Time `bun:"started_at"`
	EndedAt       time.Time `bun:"ended_at"`
}

func newRoundRow(r domain.RoundRecord) *roundRow {
	return &roundRow{
		BattleID:      r.BattleID,
		RoundNumber:   r.RoundNumber,
		QuestionID:    r.QuestionID,
		Player1Answer: r.Player1Answer,
		Player2Answer: r.Player2Answer,
		Player1TimeMs: r.Player1TimeMs,
		Player2TimeMs: r.Player2TimeMs,
		Player1Points: r.Player1Points,
		Player2Points: r.Player2Points,
		StartedAt:     r.StartedAt.UTC(),
		EndedAt:       r.EndedAt.UTC(),
	}
}

func (r *roundRow) record() domain.RoundRecord {
	return domain.RoundRecord{
		BattleID:      r.BattleID,
		RoundNumber:   r.RoundNumber,
		QuestionID:    r.QuestionID,
		Player1Answer: r.Player1Answer,
		Player2Answer: r.Player2Answer,
		Player1TimeMs: r.Player1TimeMs,
		Player2TimeMs: r.Player2TimeMs,
		Player1Points: r.Player1Points,
		Player2Points: r.Player2Points,
		StartedAt:     r.StartedAt,
		EndedAt:       r.EndedAt,
	}
}

type statsRow struct {
	bun.BaseModel `bun:"table:player_stats,alias:ps"`

	PlayerID      string    `bun:"player_id,pk"`
	BattlesPlayed int       `bun:"battles_played"`
	BattlesWon    int       `bun:"battles_won"`
	TotalScore    int       `bun:"total_score"`
	UpdatedAt     time.Time `bun:"updated_at"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:q"`

	ID          string   `bun:"id,pk"`
	Category    string   `bun:"category"`
	Book        string   `bun:"book"`
	Difficulty  string   `bun:"difficulty"`
	Question    string   `bun:"question"`
	Choices     []string `bun:"choices"`
	Answer      string   `bun:"answer"`
	Verse       string   `bun:"verse"`
	Explanation string   `bun:"explanation"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
