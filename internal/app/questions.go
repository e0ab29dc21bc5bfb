package app

import (
	"math/rand"

	"trivia-battle-service/internal/domain"
)

// SampleQuestions draws count questions without replacement. Questions matching category come first,
// topped up from the rest of the pool. The pool itself is never reordered.
func SampleQuestions(pool []domain.Question, category string, count int, rnd *rand.Rand) ([]domain.Question, error) {
	if count <= 0 || len(pool) < count {
		return nil, domain.ErrNotEnoughQuestions
	}

	preferred := make([]int, 0, len(pool))
	rest := make([]int, 0, len(pool))
	for i := range pool {
		if pool[i].Matches(category) {
			preferred = append(preferred, i)
		} else {
			rest = append(rest, i)
		}
	}
	rnd.Shuffle(len(preferred), func(i, j int) { preferred[i], preferred[j] = preferred[j], preferred[i] })
	rnd.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })

	picked := make([]domain.Question, 0, count)
	for _, idx := range append(preferred, rest...) {
		if len(picked) == count {
			break
		}
		picked = append(picked, cloneQuestion(pool[idx]))
	}
	return picked, nil
}

func cloneQuestion(q domain.Question) domain.Question {
	choices := make([]string, len(q.Choices))
	copy(choices, q.Choices)
	q.Choices = choices
	return q
}
