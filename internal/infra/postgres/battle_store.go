package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"trivia-battle-service/internal/domain"
)

// BattleStore persists battle records, rounds and player stats through bun.
// It runs on any bun dialect the migrations support (Postgres in production, SQLite locally).
type BattleStore struct {
	db    *bun.DB
	clock func() time.Time
}

func NewBattleStore(db *bun.DB) *BattleStore {
	return &BattleStore{db: db, clock: time.Now}
}

func (s *BattleStore) CreateBattleRecord(ctx context.Context, record domain.BattleRecord) error {
	if _, err := s.db.NewInsert().Model(newBattleRow(record)).Exec(ctx); err != nil {
		return fmt.Errorf("insert battle %s: %w", record.ID, err)
	}
	return nil
}

func (s *BattleStore) UpdateBattleRecord(ctx context.Context, record domain.BattleRecord) error {
	res, err := s.db.NewUpdate().Model(newBattleRow(record)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("update battle %s: %w", record.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (s *BattleStore) SaveRound(ctx context.Context, round domain.RoundRecord) error {
	_, err := s.db.NewInsert().
		Model(newRoundRow(round)).
		On("CONFLICT (battle_id, round_number) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert round %d of %s: %w", round.RoundNumber, round.BattleID, err)
	}
	return nil
}

func (s *BattleStore) GetPlayerStats(ctx context.Context, playerID string) (domain.PlayerStats, error) {
	var row statsRow
	err := s.db.NewSelect().Model(&row).Where("player_id = ?", playerID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PlayerStats{PlayerID: playerID}, nil
	}
	if err != nil {
		return domain.PlayerStats{}, fmt.Errorf("select stats for %s: %w", playerID, err)
	}
	return domain.PlayerStats{
		PlayerID:      row.PlayerID,
		BattlesPlayed: row.BattlesPlayed,
		BattlesWon:    row.BattlesWon,
		TotalScore:    row.TotalScore,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

// UpdatePlayerStats upserts the row and applies the increments in one transaction.
func (s *BattleStore) UpdatePlayerStats(ctx context.Context, playerID string, delta domain.StatsDelta) error {
	now := s.clock().UTC()
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		seed := &statsRow{PlayerID: playerID, UpdatedAt: now}
		if _, err := tx.NewInsert().Model(seed).On("CONFLICT (player_id) DO NOTHING").Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewUpdate().
			Model((*statsRow)(nil)).
			Set("battles_played = battles_played + ?", delta.Played).
			Set("battles_won = battles_won + ?", delta.Won).
			Set("total_score = total_score + ?", delta.Score).
			Set("updated_at = ?", now).
			Where("player_id = ?", playerID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("update stats for %s: %w", playerID, err)
	}
	return nil
}

func (s *BattleStore) GetBattle(ctx context.Context, battleID string) (domain.BattleDetails, error) {
	var row battleRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", battleID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BattleDetails{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.BattleDetails{}, fmt.Errorf("select battle %s: %w", battleID, err)
	}

	var rounds []roundRow
	if err := s.db.NewSelect().Model(&rounds).Where("battle_id = ?", battleID).Order("round_number ASC").Scan(ctx); err != nil {
		return domain.BattleDetails{}, fmt.Errorf("select rounds of %s: %w", battleID, err)
	}
	details := domain.BattleDetails{BattleRecord: row.record(), Rounds: make([]domain.RoundRecord, 0, len(rounds))}
	for i := range rounds {
		details.Rounds = append(details.Rounds, rounds[i].record())
	}
	return details, nil
}

func (s *BattleStore) ListBattles(ctx context.Context, playerID string, limit int) ([]domain.BattleRecord, error) {
	var rows []battleRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("player1_id = ? OR player2_id = ?", playerID, playerID).
		Order("started_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list battles for %s: %w", playerID, err)
	}
	out := make([]domain.BattleRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].record())
	}
	return out, nil
}

// SeedQuestions upserts questions into the questions table.
func SeedQuestions(ctx context.Context, db bun.IDB, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		difficulty := string(q.Difficulty)
		if difficulty == "" {
			difficulty = string(domain.DifficultyMedium)
		}
		rows = append(rows, questionRow{
			ID:          q.ID,
			Category:    q.Category,
			Book:        q.Book,
			Difficulty:  difficulty,
			Question:    q.Prompt,
			Choices:     q.Choices,
			Answer:      q.Answer,
			Verse:       q.Verse,
			Explanation: q.Explanation,
		})
	}
	_, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("category = EXCLUDED.category").
		Set("book = EXCLUDED.book").
		Set("difficulty = EXCLUDED.difficulty").
		Set("question = EXCLUDED.question").
		Set("choices = EXCLUDED.choices").
		Set("answer = EXCLUDED.answer").
		Set("verse = EXCLUDED.verse").
		Set("explanation = EXCLUDED.explanation").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed questions: %w", err)
	}
	return len(rows), nil
}
