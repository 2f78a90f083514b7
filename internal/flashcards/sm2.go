package flashcards

import (
	"sort"
	"time"
)

// Quality grades a recall attempt on the SuperMemo 0..5 scale.
type Quality int

const (
	QualityBlackout          Quality = 0 // no recall at all
	QualityIncorrect         Quality = 1 // wrong, recognized the answer
	QualityIncorrectFamiliar Quality = 2 // wrong, answer felt familiar
	QualityCorrectDifficult  Quality = 3 // right with significant effort
	QualityCorrectHesitation Quality = 4 // right after hesitation
	QualityPerfect           Quality = 5 // instant recall
)

// SM2 implements the SuperMemo-2 scheduling algorithm. Quality 3 and above
// counts as a pass; failures reset the interval to one day without touching
// the repetition count.
type SM2 struct {
	PassThreshold    Quality
	MaxIntervalDays  int
	InitialIntervals []int // interval per early repetition, in days
}

func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:    QualityCorrectDifficult,
		MaxIntervalDays:  365,
		InitialIntervals: []int{0, 1, 2, 3, 7, 10, 15, 20, 30},
	}
}

// Process updates a card's review state in place after a recall attempt.
func (sm *SM2) Process(state *ReviewState, quality Quality, now time.Time) {
	state.LastReviewAt = now.Unix()
	state.LastQuality = int(quality)

	if state.EasinessFactor == 0 {
		state.EasinessFactor = 2.5
	}
	q := float64(quality)
	ef := state.EasinessFactor + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02))
	if ef < 1.3 {
		ef = 1.3
	}
	state.EasinessFactor = ef

	if quality >= sm.PassThreshold {
		state.ConsecutiveRight++
		var next int
		switch {
		case state.Repetitions < len(sm.InitialIntervals):
			next = sm.InitialIntervals[state.Repetitions]
		default:
			next = int(float64(state.IntervalDays) * state.EasinessFactor)
		}
		if next > sm.MaxIntervalDays {
			next = sm.MaxIntervalDays
		}
		state.IntervalDays = next
		state.Repetitions++
	} else {
		// Repetitions are kept; they feed the due-queue ordering.
		state.ConsecutiveRight = 0
		state.IntervalDays = 1
	}

	state.NextReviewAt = now.AddDate(0, 0, state.IntervalDays).Unix()
}

// SortDue orders due cards for study: never-reviewed first, then hardest
// (lowest easiness factor), then earliest due.
func SortDue(due []DueCard) {
	sort.SliceStable(due, func(i, j int) bool {
		a, b := due[i].State, due[j].State
		if (a.Repetitions == 0) != (b.Repetitions == 0) {
			return a.Repetitions == 0
		}
		if a.EasinessFactor != b.EasinessFactor {
			return a.EasinessFactor < b.EasinessFactor
		}
		return a.NextReviewAt < b.NextReviewAt
	})
}
