package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"trivia-battle-service/internal/domain"
)

// BattleStore keeps battle records and player stats in process memory.
type BattleStore struct {
	mu      sync.RWMutex
	clock   func() time.Time
	battles map[string]domain.BattleRecord
	rounds  map[string][]domain.RoundRecord
	stats   map[string]domain.PlayerStats
}

func NewBattleStore() *BattleStore {
	return &BattleStore{
		clock:   time.Now,
		battles: make(map[string]domain.BattleRecord),
		rounds:  make(map[string][]domain.RoundRecord),
		stats:   make(map[string]domain.PlayerStats),
	}
}

func (s *BattleStore) CreateBattleRecord(_ context.Context, record domain.BattleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.battles[record.ID] = cloneRecord(record)
	return nil
}

func (s *BattleStore) UpdateBattleRecord(_ context.Context, record domain.BattleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.battles[record.ID]; !ok {
		return domain.ErrRecordNotFound
	}
	s.battles[record.ID] = cloneRecord(record)
	return nil
}

func (s *BattleStore) SaveRound(_ context.Context, round domain.RoundRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rounds := s.rounds[round.BattleID]
	for i := range rounds {
		if rounds[i].RoundNumber == round.RoundNumber {
			rounds[i] = round
			return nil
		}
	}
	s.rounds[round.BattleID] = append(rounds, round)
	return nil
}

func (s *BattleStore) GetPlayerStats(_ context.Context, playerID string) (domain.PlayerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if stats, ok := s.stats[playerID]; ok {
		return stats, nil
	}
	return domain.PlayerStats{PlayerID: playerID}, nil
}

func (s *BattleStore) UpdatePlayerStats(_ context.Context, playerID string, delta domain.StatsDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats[playerID]
	stats.PlayerID = playerID
	stats.BattlesPlayed += delta.Played
	stats.BattlesWon += delta.Won
	stats.TotalScore += delta.Score
	stats.UpdatedAt = s.clock()
	s.stats[playerID] = stats
	return nil
}

func (s *BattleStore) GetBattle(_ context.Context, battleID string) (domain.BattleDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.battles[battleID]
	if !ok {
		return domain.BattleDetails{}, domain.ErrRecordNotFound
	}
	rounds := make([]domain.RoundRecord, len(s.rounds[battleID]))
	copy(rounds, s.rounds[battleID])
	sort.Slice(rounds, func(i, j int) bool { return rounds[i].RoundNumber < rounds[j].RoundNumber })
	return domain.BattleDetails{BattleRecord: cloneRecord(record), Rounds: rounds}, nil
}

func (s *BattleStore) ListBattles(_ context.Context, playerID string, limit int) ([]domain.BattleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.BattleRecord
	for _, record := range s.battles {
		if record.Player1ID == playerID || record.Player2ID == playerID {
			out = append(out, cloneRecord(record))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cloneRecord(record domain.BattleRecord) domain.BattleRecord {
	ids := make([]string, len(record.QuestionIDs))
	copy(ids, record.QuestionIDs)
	record.QuestionIDs = ids
	if record.EndedAt != nil {
		ended := *record.EndedAt
		record.EndedAt = &ended
	}
	return record
}
