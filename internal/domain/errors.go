package domain

import "errors"

var (
	// ErrAlreadyInBattle is returned when a player in an active battle tries to queue again.
	ErrAlreadyInBattle = errors.New("you're already in a battle")
	// ErrBattleNotFound is returned when an action references an unknown battle id.
	ErrBattleNotFound = errors.New("battle not found")
	// ErrBattleInactive is returned when an action targets a battle that is not active.
	ErrBattleInactive = errors.New("battle is not active")
	// ErrNotInBattle is returned when a player acts on a battle they are not part of.
	ErrNotInBattle = errors.New("player is not part of this battle")
	// ErrNotEnoughQuestions indicates the question pool cannot fill a battle.
	ErrNotEnoughQuestions = errors.New("not enough questions to start a battle")
	// ErrQuestionsNotFound indicates the question pool could not be loaded.
	ErrQuestionsNotFound = errors.New("question pool not found")
	// ErrRecordNotFound is returned by stores when a battle record does not exist.
	ErrRecordNotFound = errors.New("battle record not found")
	// ErrUnauthorized indicates the connecting client has no valid identity.
	ErrUnauthorized = errors.New("unauthorized")
)
