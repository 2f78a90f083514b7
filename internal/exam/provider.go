package exam

import "context"

// Question is the engine's view of a bank question: identity plus the single
// correct answer key used for exact-match scoring.
type Question struct {
	ID        string
	AnswerKey string
}

// QuestionProvider resolves a question-set id to its ordered questions.
// Implemented by the question bank; the engine never touches the bank's
// storage directly.
type QuestionProvider interface {
	SetQuestions(ctx context.Context, setID string) ([]Question, error)
}
