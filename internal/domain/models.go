package domain

import (
	"strings"
	"time"
)

// Player is the identity supplied by the auth collaborator. It is immutable for a battle's lifetime.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Difficulty tiers drive the per-round time limit.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question models a multiple choice question. Answer holds the literal correct choice, not its index.
type Question struct {
	ID          string     `json:"id" yaml:"id"`
	Category    string     `json:"category" yaml:"category"`
	Book        string     `json:"book" yaml:"book"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	Prompt      string     `json:"question" yaml:"question"`
	Choices     []string   `json:"choices" yaml:"choices"`
	Answer      string     `json:"answer" yaml:"answer"`
	Verse       string     `json:"verse" yaml:"verse"`
	Explanation string     `json:"explanation" yaml:"explanation"`
}

// CorrectIndex returns the index of the stored answer within Choices, or -1 if it is missing.
func (q Question) CorrectIndex() int {
	for i, choice := range q.Choices {
		if choice == q.Answer {
			return i
		}
	}
	return -1
}

// Matches reports whether the question belongs to a queue category (by category or book name).
func (q Question) Matches(category string) bool {
	if category == "" {
		return false
	}
	return strings.EqualFold(q.Category, category) || strings.EqualFold(q.Book, category)
}

// BattleStatus is one-way: waiting -> active -> completed (or abandoned when both players vanish).
type BattleStatus string

const (
	BattleWaiting   BattleStatus = "waiting"
	BattleActive    BattleStatus = "active"
	BattleCompleted BattleStatus = "completed"
	BattleAbandoned BattleStatus = "abandoned"
)

// Result names the winning slot of a finished battle.
type Result string

const (
	ResultPlayer1 Result = "player1"
	ResultPlayer2 Result = "player2"
	ResultDraw    Result = "draw"
)

// NoAnswer marks a player who did not submit before the round closed.
const NoAnswer = -1

// BattleRecord is the persisted view of a battle.
type BattleRecord struct {
	ID           string       `json:"id"`
	Category     string       `json:"category"`
	Status       BattleStatus `json:"status"`
	Player1ID    string       `json:"player1Id"`
	Player2ID    string       `json:"player2Id"`
	WinnerID     string       `json:"winnerId,omitempty"`
	Player1Score int          `json:"player1Score"`
	Player2Score int          `json:"player2Score"`
	CurrentRound int          `json:"currentRound"`
	TotalRounds  int          `json:"totalRounds"`
	QuestionIDs  []string     `json:"questionIds"`
	Forfeit      bool         `json:"forfeit"`
	StartedAt    time.Time    `json:"startedAt"`
	EndedAt      *time.Time   `json:"endedAt,omitempty"`
}

// RoundRecord captures one finished round of a battle.
type RoundRecord struct {
	BattleID      string    `json:"battleId"`
	RoundNumber   int       `json:"roundNumber"`
	QuestionID    string    `json:"questionId"`
	Player1Answer int       `json:"player1Answer"`
	Player2Answer int       `json:"player2Answer"`
	Player1TimeMs int64     `json:"player1TimeMs"`
	Player2TimeMs int64     `json:"player2TimeMs"`
	Player1Points int       `json:"player1Points"`
	Player2Points int       `json:"player2Points"`
	StartedAt     time.Time `json:"startedAt"`
	EndedAt       time.Time `json:"endedAt"`
}

// BattleDetails is a battle record with its rounds.
type BattleDetails struct {
	BattleRecord
	Rounds []RoundRecord `json:"rounds"`
}

// PlayerStats aggregates battle outcomes for a player.
type PlayerStats struct {
	PlayerID      string    `json:"playerId"`
	BattlesPlayed int       `json:"battlesPlayed"`
	BattlesWon    int       `json:"battlesWon"`
	TotalScore    int       `json:"totalScore"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// StatsDelta is applied to a player's stats as a single unit.
type StatsDelta struct {
	Played int
	Won    int
	Score  int
}
