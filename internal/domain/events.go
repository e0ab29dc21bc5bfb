package domain

// Event types delivered to players.
const (
	EventQueued               = "queued"
	EventQueueLeft            = "queue_left"
	EventMatched              = "matched"
	EventRoundStart           = "round_start"
	EventAnswerReceived       = "answer_received"
	EventOpponentAnswered     = "opponent_answered"
	EventRoundEnd             = "round_end"
	EventComplete             = "complete"
	EventOpponentDisconnected = "opponent_disconnected"
	EventError                = "error"
)

// Event is the envelope pushed to a player's connection.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Scores is the cumulative score pair broadcast with round events.
type Scores struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
}

type QueuedPayload struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

type MatchedPayload struct {
	BattleID    string `json:"battleId"`
	Player1     Player `json:"player1"`
	Player2     Player `json:"player2"`
	TotalRounds int    `json:"totalRounds"`
}

// QuestionView is a question without its answer or explanation.
type QuestionView struct {
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	Options    []string   `json:"options"`
	Category   string     `json:"category"`
	Book       string     `json:"book"`
	Verse      string     `json:"verse"`
	Difficulty Difficulty `json:"difficulty"`
}

// View strips the answer and explanation from a question.
func (q Question) View() QuestionView {
	options := make([]string, len(q.Choices))
	copy(options, q.Choices)
	return QuestionView{
		ID:         q.ID,
		Text:       q.Prompt,
		Options:    options,
		Category:   q.Category,
		Book:       q.Book,
		Verse:      q.Verse,
		Difficulty: q.Difficulty,
	}
}

type RoundStartPayload struct {
	Round       int          `json:"round"`
	TotalRounds int          `json:"totalRounds"`
	Question    QuestionView `json:"question"`
	TimeLimitMs int64        `json:"timeLimitMs"`
	Scores      Scores       `json:"scoresSoFar"`
}

type AnswerReceivedPayload struct {
	Correct   bool  `json:"correct"`
	Points    int   `json:"points"`
	ElapsedMs int64 `json:"elapsedMs"`
}

type RoundEndPayload struct {
	Round              int    `json:"round"`
	CorrectAnswerIndex int    `json:"correctAnswerIndex"`
	CorrectAnswerText  string `json:"correctAnswerText"`
	Explanation        string `json:"explanation"`
	Scores             Scores `json:"scoresSoFar"`
}

// PlayerResult is one side of the final battle outcome.
type PlayerResult struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	IsWinner bool   `json:"isWinner"`
}

type CompletePayload struct {
	BattleID    string       `json:"battleId"`
	Result      Result       `json:"result"`
	Forfeit     bool         `json:"forfeit"`
	Player1     PlayerResult `json:"player1"`
	Player2     PlayerResult `json:"player2"`
	FinalScores Scores       `json:"finalScores"`
}

type OpponentDisconnectedPayload struct {
	PlayerID string `json:"playerId"`
	Message  string `json:"message"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewError builds an error event for a rejected action.
func NewError(err error) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: err.Error()}}
}
