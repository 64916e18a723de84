package models

import "time"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QASession tracks one learner's progress against a context passage. The
// history is the only state shared between the question generator and the
// evaluator, so entries must be appended in the order the events occurred.
type QASession struct {
	ID              string
	Context         string
	History         []Message
	CurrentQuestion string
	AttemptCount    int
	MaxAttempts     int
	CreatedAt       time.Time
}

type Evaluation struct {
	Feedback string `json:"feedback"`
	Score    string `json:"score"`
}

const (
	ScorePass             = "pass"
	ScoreNeedsImprovement = "needs_improvement"
)

const (
	StatusCorrect          = "correct"
	StatusNeedsImprovement = "needs_improvement"
	StatusMaxAttempts      = "max_attempts"
)

type StartSessionRequest struct {
	Context string `json:"context"`
}

type StartSessionResponse struct {
	SessionID    string `json:"sessionId"`
	Question     string `json:"question"`
	AttemptCount int    `json:"attemptCount"`
	MaxAttempts  int    `json:"maxAttempts"`
}

type AnswerRequest struct {
	SessionID string `json:"sessionId"`
	Answer    string `json:"answer"`
}

type AnswerResponse struct {
	Status       string `json:"status"`
	Feedback     string `json:"feedback"`
	NextQuestion string `json:"nextQuestion,omitempty"`
	AttemptCount int    `json:"attemptCount"`
	MaxAttempts  int    `json:"maxAttempts"`
}
