package exam

import (
	"context"
	"math"
)

// ScoreConfig holds the linear scaling model. This is an approximation, not
// official SAT equating: no equating table ships with the product, and tests
// assert these exact constants.
type ScoreConfig struct {
	MinSectionScore int     // 200
	MaxSectionScore int     // 800
	Spread          float64 // 600-point spread above the floor
	HarderBonus     float64 // +50 when the section routed harder
	EasierPenalty   float64 // -20 when the section routed easier
}

// DefaultScoreConfig returns the Digital SAT defaults.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		MinSectionScore: 200,
		MaxSectionScore: 800,
		Spread:          600,
		HarderBonus:     50,
		EasierPenalty:   -20,
	}
}

func (c ScoreConfig) difficultyBonus(d Difficulty) float64 {
	switch d {
	case DifficultyHarder:
		return c.HarderBonus
	case DifficultyEasier:
		return c.EasierPenalty
	default:
		return 0
	}
}

// sectionScore maps raw correct/total to the 200..800 scale.
func (c ScoreConfig) sectionScore(correct, total int, d Difficulty) int {
	score := float64(c.MinSectionScore) + c.difficultyBonus(d)
	if total > 0 {
		score = float64(c.MinSectionScore) + float64(correct)/float64(total)*c.Spread + c.difficultyBonus(d)
	}
	n := int(math.Round(score))
	if n < c.MinSectionScore {
		n = c.MinSectionScore
	}
	if n > c.MaxSectionScore {
		n = c.MaxSectionScore
	}
	return n
}

// score computes the final report for a finished attempt: per-section raw
// correct counts over every delivered module, scaled linearly with the
// adaptive difficulty adjustment. Answers referencing question ids the bank
// no longer has are skipped; scoring never fails outright.
func (e *Engine) score(ctx context.Context, bp *Blueprint, a *Attempt) (*ScoreReport, error) {
	rawCorrect := map[SectionKind]int{}
	rawTotal := map[SectionKind]int{}

	for i := range bp.Sections {
		s := &bp.Sections[i]
		for j := range s.Modules {
			m := &s.Modules[j]
			setID := a.ResolvedSetID(m)
			if setID == "" {
				// Adaptive slot the student never reached.
				continue
			}
			questions, err := e.provider.SetQuestions(ctx, setID)
			if err != nil {
				return nil, err
			}
			rawTotal[s.Kind] += len(questions)

			answers := a.ModuleAnswers(m.ID)
			if len(answers) == 0 {
				continue
			}
			keys := make(map[string]string, len(questions))
			for _, q := range questions {
				keys[q.ID] = q.AnswerKey
			}
			for qid, ans := range answers {
				key, ok := keys[qid]
				if !ok {
					// Question removed from the bank since submission.
					continue
				}
				if ans == key {
					rawCorrect[s.Kind]++
				}
			}
		}
	}

	rw := e.scoring.sectionScore(rawCorrect[SectionReadingWriting], rawTotal[SectionReadingWriting], a.SectionDifficulty[SectionReadingWriting])
	ms := e.scoring.sectionScore(rawCorrect[SectionMath], rawTotal[SectionMath], a.SectionDifficulty[SectionMath])

	return &ScoreReport{
		ReadingWriting: rw,
		Math:           ms,
		Total:          rw + ms,
		RawCorrect:     rawCorrect,
		RawTotal:       rawTotal,
	}, nil
}
