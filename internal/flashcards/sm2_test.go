package flashcards_test

import (
	"math"
	"testing"
	"time"

	"github.com/peakprep/peakprep-lms/internal/flashcards"
)

var reviewTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestFirstReviewDefaults(t *testing.T) {
	sm := flashcards.NewSM2()
	st := flashcards.ReviewState{UserID: "u1", CardID: "c1"}

	sm.Process(&st, flashcards.QualityPerfect, reviewTime)

	// Fresh card starts at EF 2.5; quality 5 adds 0.1.
	if math.Abs(st.EasinessFactor-2.6) > 1e-9 {
		t.Fatalf("ef = %f, want 2.6", st.EasinessFactor)
	}
	if st.Repetitions != 1 || st.ConsecutiveRight != 1 {
		t.Fatalf("reps=%d consecutive=%d, want 1/1", st.Repetitions, st.ConsecutiveRight)
	}
	if st.IntervalDays != 0 {
		t.Fatalf("interval = %d, want 0 (same-day)", st.IntervalDays)
	}
	if st.NextReviewAt != reviewTime.Unix() {
		t.Fatalf("next review = %d, want %d", st.NextReviewAt, reviewTime.Unix())
	}
}

func TestEarlyIntervalLadder(t *testing.T) {
	sm := flashcards.NewSM2()
	st := flashcards.ReviewState{}
	want := []int{0, 1, 2, 3, 7, 10, 15, 20, 30}
	now := reviewTime
	for i, days := range want {
		sm.Process(&st, flashcards.QualityCorrectHesitation, now)
		if st.IntervalDays != days {
			t.Fatalf("rep %d: interval = %d, want %d", i+1, st.IntervalDays, days)
		}
		now = now.AddDate(0, 0, days)
	}
	// Past the ladder the interval grows by the easiness factor.
	before := st.IntervalDays
	sm.Process(&st, flashcards.QualityCorrectHesitation, now)
	if want := int(float64(before) * st.EasinessFactor); st.IntervalDays != want {
		t.Fatalf("post-ladder interval = %d, want %d", st.IntervalDays, want)
	}
}

func TestFailureResetsIntervalKeepsRepetitions(t *testing.T) {
	sm := flashcards.NewSM2()
	st := flashcards.ReviewState{}
	for i := 0; i < 5; i++ {
		sm.Process(&st, flashcards.QualityPerfect, reviewTime)
	}
	reps := st.Repetitions

	sm.Process(&st, flashcards.QualityIncorrect, reviewTime)
	if st.IntervalDays != 1 {
		t.Fatalf("interval after failure = %d, want 1", st.IntervalDays)
	}
	if st.Repetitions != reps {
		t.Fatalf("repetitions changed on failure: %d -> %d", reps, st.Repetitions)
	}
	if st.ConsecutiveRight != 0 {
		t.Fatalf("consecutive = %d, want 0", st.ConsecutiveRight)
	}
	if st.NextReviewAt != reviewTime.AddDate(0, 0, 1).Unix() {
		t.Fatalf("next review = %d", st.NextReviewAt)
	}
}

func TestEasinessFloor(t *testing.T) {
	sm := flashcards.NewSM2()
	st := flashcards.ReviewState{}
	for i := 0; i < 20; i++ {
		sm.Process(&st, flashcards.QualityBlackout, reviewTime)
	}
	if st.EasinessFactor < 1.3 {
		t.Fatalf("ef = %f, below floor 1.3", st.EasinessFactor)
	}
	if math.Abs(st.EasinessFactor-1.3) > 1e-9 {
		t.Fatalf("ef = %f, want floor 1.3", st.EasinessFactor)
	}
}

func TestIntervalCap(t *testing.T) {
	sm := flashcards.NewSM2()
	st := flashcards.ReviewState{Repetitions: 50, IntervalDays: 300, EasinessFactor: 2.5}
	sm.Process(&st, flashcards.QualityPerfect, reviewTime)
	if st.IntervalDays != sm.MaxIntervalDays {
		t.Fatalf("interval = %d, want cap %d", st.IntervalDays, sm.MaxIntervalDays)
	}
}

func TestSortDueOrdering(t *testing.T) {
	due := []flashcards.DueCard{
		{Card: flashcards.Card{ID: "seen-hard"}, State: flashcards.ReviewState{Repetitions: 3, EasinessFactor: 1.4, NextReviewAt: 100}},
		{Card: flashcards.Card{ID: "seen-easy"}, State: flashcards.ReviewState{Repetitions: 3, EasinessFactor: 2.6, NextReviewAt: 50}},
		{Card: flashcards.Card{ID: "new"}, State: flashcards.ReviewState{}},
		{Card: flashcards.Card{ID: "seen-hard-late"}, State: flashcards.ReviewState{Repetitions: 1, EasinessFactor: 1.4, NextReviewAt: 200}},
	}
	flashcards.SortDue(due)
	want := []string{"new", "seen-hard", "seen-hard-late", "seen-easy"}
	for i, id := range want {
		if due[i].Card.ID != id {
			t.Fatalf("position %d = %s, want %s (order %v)", i, due[i].Card.ID, id, due)
		}
	}
}
