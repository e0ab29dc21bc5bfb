package app

import (
	"time"

	"trivia-battle-service/internal/domain"
)

const (
	// CorrectAnswerPoints is the base award for any correct answer.
	CorrectAnswerPoints = 100
	// MaxSpeedBonus is the bonus for an instant correct answer; it decays linearly to 0 at the time limit.
	MaxSpeedBonus = 500
)

// TimeLimitFor maps a difficulty tier to its round time limit. Unknown tiers use the medium limit.
func TimeLimitFor(d domain.Difficulty) time.Duration {
	switch d {
	case domain.DifficultyEasy:
		return 30 * time.Second
	case domain.DifficultyHard:
		return 15 * time.Second
	default:
		return 20 * time.Second
	}
}

// CalculatePoints scores one answer. Elapsed is clamped to [0, limit] and the bonus is floored,
// so a correct answer at exactly the limit earns only the base.
func CalculatePoints(correct bool, elapsed, limit time.Duration) int {
	if !correct {
		return 0
	}
	if limit <= 0 {
		return CorrectAnswerPoints
	}
	elapsed = clampElapsed(elapsed, limit)
	remaining := int64(limit - elapsed)
	bonus := int(int64(MaxSpeedBonus) * remaining / int64(limit))
	if bonus < 0 {
		bonus = 0
	}
	return CorrectAnswerPoints + bonus
}

// IsCorrect compares a submitted choice index with the question's stored answer.
// Out-of-range indexes, including domain.NoAnswer, are never correct.
func IsCorrect(q domain.Question, answerIndex int) bool {
	if answerIndex < 0 || answerIndex >= len(q.Choices) {
		return false
	}
	return answerIndex == q.CorrectIndex()
}

func clampElapsed(elapsed, limit time.Duration) time.Duration {
	if elapsed < 0 {
		return 0
	}
	if elapsed > limit {
		return limit
	}
	return elapsed
}
