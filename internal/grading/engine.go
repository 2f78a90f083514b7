package grading

import (
	"context"
	"errors"

	"github.com/peakprep/peakprep-lms/internal/bank"
)

// Result is the outcome of grading a single question response.
type Result struct {
	AutoPoints  float64  // points awarded automatically
	MaxPoints   float64  // the question's max points
	NeedsManual bool     // true if teacher review is required
	Feedback    []string // optional notes
}

// Strategy grades a single question.
type Strategy interface {
	Grade(ctx context.Context, q bank.Question, response string) (Result, error)
}

// Grader routes by question type to the correct Strategy. Used by homework
// submission grading; the exam engine scores by exact match on its own.
type Grader interface {
	Grade(ctx context.Context, q bank.Question, response string) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, q bank.Question, response string) (Result, error) {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{MaxPoints: q.Points, NeedsManual: true, Feedback: []string{"no strategy available"}}, nil
	}
	return s.Grade(ctx, q, response)
}

type Option func(*config)

type config struct {
	MaxEditDistance int // for short-word fuzzy matching
}

func WithMaxEditDistance(n int) Option { return func(c *config) { c.MaxEditDistance = n } }

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{MaxEditDistance: 1}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[string]Strategy{
			bank.TypeMCQSingle: exactStrategy{},
			bank.TypeNumeric:   numericStrategy{},
			bank.TypeShortWord: shortWordStrategy{maxEdit: cfg.MaxEditDistance},
			bank.TypeEssay:     essayStrategy{},
		},
	}
}

// --- Strategies ---

type exactStrategy struct{}

func (exactStrategy) Grade(_ context.Context, q bank.Question, response string) (Result, error) {
	res := Result{MaxPoints: q.Points}
	for _, k := range q.AnswerKey {
		if response == k {
			res.AutoPoints = q.Points
			return res, nil
		}
	}
	return res, nil
}

type shortWordStrategy struct{ maxEdit int }

func (s shortWordStrategy) Grade(_ context.Context, q bank.Question, response string) (Result, error) {
	res := Result{MaxPoints: q.Points}
	normResp := normalize(response)
	if normResp == "" {
		return res, errors.New("empty response")
	}

	fuzzyHit := false
	for _, k := range q.AnswerKey {
		nk := normalize(k)
		if nk == normResp {
			res.AutoPoints = q.Points
			return res, nil
		}
		if s.maxEdit > 0 && levenshtein(nk, normResp) <= s.maxEdit {
			fuzzyHit = true
		}
	}
	if fuzzyHit {
		res.AutoPoints = q.Points * 0.5
		res.Feedback = append(res.Feedback, "close match (fuzzy)")
	}
	return res, nil
}

type essayStrategy struct{}

func (essayStrategy) Grade(_ context.Context, q bank.Question, _ string) (Result, error) {
	return Result{MaxPoints: q.Points, NeedsManual: true, Feedback: []string{"manual grading required"}}, nil
}
