package bank

import (
	"context"

	"github.com/peakprep/peakprep-lms/internal/exam"
)

// Provider adapts the bank store to the exam engine's QuestionProvider
// contract. The engine scores by exact match against the first answer key.
type Provider struct {
	store Store
}

func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

func (p *Provider) SetQuestions(ctx context.Context, setID string) ([]exam.Question, error) {
	questions, err := p.store.SetQuestionsFull(ctx, setID)
	if err != nil {
		return nil, err
	}
	out := make([]exam.Question, 0, len(questions))
	for _, q := range questions {
		key := ""
		if len(q.AnswerKey) > 0 {
			key = q.AnswerKey[0]
		}
		out = append(out, exam.Question{ID: q.ID, AnswerKey: key})
	}
	return out, nil
}
