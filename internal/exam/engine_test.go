package exam_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/peakprep/peakprep-lms/internal/exam"
)

/* ---------------- fakes ---------------- */

// fakeProvider serves question sets from a map. Every question's answer key
// is "A" unless overridden.
type fakeProvider struct {
	sets map[string][]exam.Question
	errs map[string]error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sets: map[string][]exam.Question{}, errs: map[string]error{}}
}

func (p *fakeProvider) addSet(id string, n int) {
	qs := make([]exam.Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, exam.Question{ID: fmt.Sprintf("%s-q%d", id, i), AnswerKey: "A"})
	}
	p.sets[id] = qs
}

func (p *fakeProvider) SetQuestions(ctx context.Context, setID string) ([]exam.Question, error) {
	if err := p.errs[setID]; err != nil {
		return nil, err
	}
	qs, ok := p.sets[setID]
	if !ok {
		return nil, exam.ErrQuestionNotFound
	}
	return qs, nil
}

type capturedEvents struct{ events []exam.Event }

func (c *capturedEvents) Publish(ctx context.Context, e exam.Event) error {
	c.events = append(c.events, e)
	return nil
}

// fakeClock starts at a fixed instant and only moves when advanced.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}
func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

/* ---------------- fixtures ---------------- */

func testBlueprint() *exam.Blueprint {
	return exam.NewDigitalSAT("sat1", "Practice Test 1", exam.DigitalSATSets{
		RWBaseline:   "rw-base",
		RWEasier:     "rw-easy",
		RWHarder:     "rw-hard",
		MathBaseline: "math-base",
		MathEasier:   "math-easy",
		MathHarder:   "math-hard",
	})
}

func testProvider() *fakeProvider {
	p := newFakeProvider()
	p.addSet("rw-base", 27)
	p.addSet("rw-easy", 27)
	p.addSet("rw-hard", 27)
	p.addSet("math-base", 22)
	p.addSet("math-easy", 22)
	p.addSet("math-hard", 22)
	return p
}

// answersFor answers the first n questions of a set correctly and the rest
// wrong.
func answersFor(p *fakeProvider, setID string, correct int) map[string]string {
	out := map[string]string{}
	for i, q := range p.sets[setID] {
		if i < correct {
			out[q.ID] = "A"
		} else {
			out[q.ID] = "B"
		}
	}
	return out
}

/* ---------------- tests ---------------- */

func TestStartSetsFirstModule(t *testing.T) {
	clk := newFakeClock()
	eng := exam.New(testProvider(), exam.WithClock(clk.now))
	bp := testBlueprint()
	a := exam.NewAttempt("a1", bp.ID, "u1", clk.now().Unix())

	if err := eng.Start(context.Background(), bp, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	if a.Status != exam.StatusInProgress {
		t.Fatalf("status = %s, want in_progress", a.Status)
	}
	if a.CurrentModule != "sat1-rw-m1" {
		t.Fatalf("current module = %s, want sat1-rw-m1", a.CurrentModule)
	}
	if err := eng.Start(context.Background(), bp, a); !errors.Is(err, exam.ErrAlreadyStarted) {
		t.Fatalf("second start = %v, want ErrAlreadyStarted", err)
	}
}

func TestRemainingTime(t *testing.T) {
	clk := newFakeClock()
	eng := exam.New(testProvider(), exam.WithClock(clk.now))
	bp := testBlueprint()
	a := exam.NewAttempt("a1", bp.ID, "u1", clk.now().Unix())

	if _, err := eng.RemainingTime(bp, a); !errors.Is(err, exam.ErrNotStarted) {
		t.Fatalf("before start: %v, want ErrNotStarted", err)
	}
	if err := eng.Start(context.Background(), bp, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	rem, err := eng.RemainingTime(bp, a)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if rem != exam.DefaultRWModuleSec {
		t.Fatalf("remaining = %d, want %d", rem, exam.DefaultRWModuleSec)
	}
	clk.advance(10 * time.Minute)
	if rem, _ = eng.RemainingTime(bp, a); rem != exam.DefaultRWModuleSec-600 {
		t.Fatalf("after 10m: %d, want %d", rem, exam.DefaultRWModuleSec-600)
	}
	clk.advance(2 * time.Hour)
	if rem, _ = eng.RemainingTime(bp, a); rem != 0 {
		t.Fatalf("expired: %d, want 0", rem)
	}
}

func TestRoutingThresholds(t *testing.T) {
	cases := []struct {
		accuracy float64
		want     exam.Difficulty
	}{
		{0, exam.DifficultyEasier},
		{0.39, exam.DifficultyEasier},
		{0.40, exam.DifficultyEasier},
		{0.69, exam.DifficultyEasier},
		{0.70, exam.DifficultyHarder},
		{20.0 / 27.0, exam.DifficultyHarder}, // 74%
		{1, exam.DifficultyHarder},
	}
	cfg := exam.DefaultRoutingConfig()
	for _, tc := range cases {
		if got := cfg.Route(tc.accuracy); got != tc.want {
			t.Errorf("Route(%.3f) = %s, want %s", tc.accuracy, got, tc.want)
		}
		if got := cfg.Route(tc.accuracy); got == exam.DifficultyBaseline {
			t.Errorf("Route(%.3f) returned baseline", tc.accuracy)
		}
	}
}

func TestSubmitModuleRoutesHarder(t *testing.T) {
	clk := newFakeClock()
	p := testProvider()
	eng := exam.New(p, exam.WithClock(clk.now))
	bp := testBlueprint()
	a := exam.NewAttempt("a1", bp.ID, "u1", clk.now().Unix())
	ctx := context.Background()

	if err := eng.Start(ctx, bp, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.advance(20 * time.Minute)
	// 20/27 correct = 74%.
	if err := eng.SubmitModule(ctx, bp, a, answersFor(p, "rw-base", 20), false); err != nil {
		t.Fatalf("submit m1: %v", err)
	}
	if got := a.SectionDifficulty[exam.SectionReadingWriting]; got != exam.DifficultyHarder {
		t.Fatalf("routed %s, want harder", got)
	}
	if a.CurrentModule != "sat1-rw-m2" {
		t.Fatalf("current module = %s, want sat1-rw-m2", a.CurrentModule)
	}
	if got := a.ModuleSets["sat1-rw-m2"]; got != "rw-hard" {
		t.Fatalf("module set = %s, want rw-hard", got)
	}
	if a.TimeSpentSec["sat1-rw-m1"] != 1200 {
		t.Fatalf("time spent = %d, want 1200", a.TimeSpentSec["sat1-rw-m1"])
	}
}

func TestSubmitModuleRoutesEasierOnNoAnswers(t *testing.T) {
	clk := newFakeClock()
	eng := exam.New(testProvider(), exam.WithClock(clk.now))
	bp := testBlueprint()
	a := exam.NewAttempt("a1", bp.ID, "u1", clk.now().Unix())
	ctx := context.Background()

	if err := eng.Start(ctx, bp, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.SubmitModule(ctx, bp, a, nil, false); err != nil {
		t.Fatalf("submit m1: %v", err)
	}
	if got := a.SectionDifficulty[exam.SectionReadingWriting]; got != exam.DifficultyEasier {
		t.Fatalf("routed %s, want easier", got)
	}
	if got := a.ModuleSets["sat1-rw-m2"]; got != "rw-easy" {
		t.Fatalf("module set = %s, want rw-easy", got)
	}
}

func TestProviderFailureLeavesAttemptUntouched(t *testing.T) {
	clk := newFakeClock()
	p := testProvider()
	p.errs["rw-base"] = errors.New("bank down")
	eng := exam.New(p, exam.WithClock(clk.now))
	bp := testBlueprint()
	a := exam.NewAttempt("a1", bp.ID, "u1", clk.now().Unix())
	ctx := context.Background()

	if err := eng.Start(ctx, bp, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	err := eng.SubmitModule(ctx, bp, a, map[string]string{"rw-base-q0": "A"}, false)
	if err == nil {
		t.Fatal("submit succeeded with broken provider")
	}
	if len(a.CompletedModules) != 0 {
		t.Fatalf("completed modules = %v, want none", a.CompletedModules)
	}
	if len(a.ModuleAnswers("sat1-rw-m1")) != 0 {
		t.Fatal("answers stored despite failed submission")
	}
	if a.CurrentModule != "sat1-rw-m1" {
		t.Fatalf("current module moved to %s", a.CurrentModule)
	}
}

func TestTimeExpiredRejectedUnlessForced(t *testing.T) {
	clk := newFakeClock()
	p := testProvider()
	eng := exam.New(p, exam.WithClock(clk.now))
	bp := testBlueprint()
	a := exam.NewAttempt("a1", bp.ID, "u1", clk.now().Unix())
	ctx := context.Background()

	if err := eng.Start(ctx, bp, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.advance(33 * time.Minute) // past the 32-minute limit
	answers := answersFor(p, "rw-base", 10)
	if err := eng.SubmitModule(ctx, bp, a, answers, false); !errors.Is(err, exam.ErrTimeExpired) {
		t.Fatalf("expired submit = %v, want ErrTimeExpired", err)
	}
	if err := eng.SubmitModule(ctx, bp, a, answers, true); err != nil {
		t.Fatalf("forced submit: %v", err)
	}
	if !a.IsModuleCompleted("sat1-rw-m1") {
		t.Fatal("forced submit did not complete the module")
	}
}

func TestFullAttemptWalk(t *testing.T) {
	clk := newFakeClock()
	p := testProvider()
	sink := &capturedEvents{}
	eng := exam.New(p, exam.WithClock(clk.now), exam.WithEventSink(sink))
	bp := testBlueprint()
	a := exam.NewAttempt("a1", bp.ID, "u1", clk.now().Unix())
	ctx := context.Background()

	if err := eng.Start(ctx, bp, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	// RW module 1: 20/27 -> harder.
	if err := eng.SubmitModule(ctx, bp, a, answersFor(p, "rw-base", 20), false); err != nil {
		t.Fatalf("rw m1: %v", err)
	}
	// RW module 2 (harder set): 15/27.
	if err := eng.SubmitModule(ctx, bp, a, answersFor(p, "rw-hard", 15), false); err != nil {
		t.Fatalf("rw m2: %v", err)
	}
	if a.CurrentModule != "sat1-math-m1" {
		t.Fatalf("after rw: current = %s, want sat1-math-m1", a.CurrentModule)
	}
	// Math module 1: 8/22 (36%) -> easier.
	if err := eng.SubmitModule(ctx, bp, a, answersFor(p, "math-base", 8), false); err != nil {
		t.Fatalf("math m1: %v", err)
	}
	if got := a.SectionDifficulty[exam.SectionMath]; got != exam.DifficultyEasier {
		t.Fatalf("math routed %s, want easier", got)
	}
	// Math module 2 (easier set): 10/22.
	if err := eng.SubmitModule(ctx, bp, a, answersFor(p, "math-easy", 10), false); err != nil {
		t.Fatalf("math m2: %v", err)
	}

	if a.Status != exam.StatusCompleted {
		t.Fatalf("status = %s, want completed", a.Status)
	}
	if a.Scores == nil {
		t.Fatal("no score report")
	}
	// RW: 35/54 correct, harder bonus: 200 + 35/54*600 + 50 = 639.
	if a.Scores.ReadingWriting != 639 {
		t.Fatalf("rw score = %d, want 639", a.Scores.ReadingWriting)
	}
	// Math: 18/44 correct, easier penalty: 200 + 18/44*600 - 20 = 425.
	if a.Scores.Math != 425 {
		t.Fatalf("math score = %d, want 425", a.Scores.Math)
	}
	if a.Scores.Total != 639+425 {
		t.Fatalf("total = %d, want %d", a.Scores.Total, 639+425)
	}
	if got := a.Scores.RawCorrect[exam.SectionReadingWriting]; got != 35 {
		t.Fatalf("rw raw correct = %d, want 35", got)
	}

	// Event trail: started, 4 module completions, completed.
	if len(sink.events) != 6 {
		t.Fatalf("events = %d, want 6", len(sink.events))
	}
	if sink.events[0].Type != exam.EventAttemptStarted {
		t.Fatalf("first event = %s", sink.events[0].Type)
	}
	if ev := sink.events[4]; ev.Type != exam.EventModuleCompleted || ev.ModuleID != "sat1-math-m2" {
		t.Fatalf("fifth event = %+v, want math m2 module.completed", ev)
	}
	if last := sink.events[len(sink.events)-1]; last.Type != exam.EventAttemptCompleted || last.Scores == nil {
		t.Fatalf("last event = %+v", last)
	}

	// Submitting after completion is rejected.
	if err := eng.SubmitModule(ctx, bp, a, nil, false); !errors.Is(err, exam.ErrAlreadyCompleted) {
		t.Fatalf("post-completion submit = %v, want ErrAlreadyCompleted", err)
	}
}

func TestScoreBounds(t *testing.T) {
	cfg := exam.DefaultScoreConfig()
	clk := newFakeClock()
	p := testProvider()
	eng := exam.New(p, exam.WithClock(clk.now), exam.WithScoring(cfg))
	ctx := context.Background()

	// All perfect, both sections harder: clamped at 800 each.
	bp := testBlueprint()
	a := exam.NewAttempt("a1", bp.ID, "u1", clk.now().Unix())
	if err := eng.Start(ctx, bp, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, setID := range []string{"rw-base", "rw-hard", "math-base", "math-hard"} {
		if err := eng.SubmitModule(ctx, bp, a, answersFor(p, setID, len(p.sets[setID])), false); err != nil {
			t.Fatalf("submit %s: %v", setID, err)
		}
	}
	if a.Scores.ReadingWriting != 800 || a.Scores.Math != 800 || a.Scores.Total != 1600 {
		t.Fatalf("perfect scores = %+v, want 800/800/1600", a.Scores)
	}

	// All blank: floor at 200 each even with the easier penalty.
	bp2 := testBlueprint()
	b := exam.NewAttempt("a2", bp2.ID, "u2", clk.now().Unix())
	if err := eng.Start(ctx, bp2, b); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 4; i++ {
		if err := eng.SubmitModule(ctx, bp2, b, nil, false); err != nil {
			t.Fatalf("blank submit %d: %v", i, err)
		}
	}
	if b.Scores.ReadingWriting != 200 || b.Scores.Math != 200 || b.Scores.Total != 400 {
		t.Fatalf("blank scores = %+v, want 200/200/400", b.Scores)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	clk := newFakeClock()
	p := testProvider()
	eng := exam.New(p, exam.WithClock(clk.now))
	bp := testBlueprint()
	a := exam.NewAttempt("a1", bp.ID, "u1", clk.now().Unix())
	ctx := context.Background()

	if err := eng.Complete(ctx, bp, a); !errors.Is(err, exam.ErrNotStarted) {
		t.Fatalf("complete before start = %v, want ErrNotStarted", err)
	}
	if err := eng.Start(ctx, bp, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := eng.Complete(ctx, bp, a); err != nil {
		t.Fatalf("complete: %v", err)
	}
	firstTotal := a.Scores.Total
	submittedAt := a.SubmittedAt
	clk.advance(time.Hour)
	if err := eng.Complete(ctx, bp, a); err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if a.Scores.Total != firstTotal || a.SubmittedAt != submittedAt {
		t.Fatal("second complete changed the attempt")
	}
}

func TestFlagToggle(t *testing.T) {
	clk := newFakeClock()
	eng := exam.New(testProvider(), exam.WithClock(clk.now))
	bp := testBlueprint()
	a := exam.NewAttempt("a1", bp.ID, "u1", clk.now().Unix())

	// No current module: no-op.
	eng.FlagQuestion(a, "rw-base-q0", true)
	if len(a.Flagged) != 0 {
		t.Fatal("flag recorded before start")
	}

	if err := eng.Start(context.Background(), bp, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	eng.FlagQuestion(a, "rw-base-q0", true)
	eng.FlagQuestion(a, "rw-base-q0", true) // repeat, no duplicate
	if !a.IsFlagged("sat1-rw-m1", "rw-base-q0") {
		t.Fatal("question not flagged")
	}
	if len(a.Flagged["sat1-rw-m1"]) != 1 {
		t.Fatalf("flag list = %v", a.Flagged["sat1-rw-m1"])
	}
	eng.FlagQuestion(a, "rw-base-q0", false)
	if a.IsFlagged("sat1-rw-m1", "rw-base-q0") {
		t.Fatal("unflag did not stick")
	}
}

func TestProgress(t *testing.T) {
	clk := newFakeClock()
	p := testProvider()
	eng := exam.New(p, exam.WithClock(clk.now))
	bp := testBlueprint()
	a := exam.NewAttempt("a1", bp.ID, "u1", clk.now().Unix())
	ctx := context.Background()

	if err := eng.Start(ctx, bp, a); err != nil {
		t.Fatalf("start: %v", err)
	}
	pct, err := eng.Progress(ctx, bp, a, "sat1-rw-m1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if pct != 0 {
		t.Fatalf("progress = %f, want 0", pct)
	}
	a.Answers["sat1-rw-m1"] = answersFor(p, "rw-base", 27)
	if pct, _ = eng.Progress(ctx, bp, a, "sat1-rw-m1"); pct != 100 {
		t.Fatalf("progress = %f, want 100", pct)
	}
}

func TestMemoryStoreActiveAttemptUniqueness(t *testing.T) {
	store := exam.NewMemoryAttemptStore()
	ctx := context.Background()

	a := exam.NewAttempt("a1", "sat1", "u1", 0)
	if err := store.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	b := exam.NewAttempt("a2", "sat1", "u1", 0)
	if err := store.Create(ctx, b); !errors.Is(err, exam.ErrActiveAttempt) {
		t.Fatalf("second create = %v, want ErrActiveAttempt", err)
	}
	// Completing the first frees the slot.
	if _, err := store.Mutate(ctx, "a1", func(a *exam.Attempt) error {
		a.Status = exam.StatusCompleted
		return nil
	}); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("create after completion: %v", err)
	}
}

func TestMemoryStoreMutateRollsBackOnError(t *testing.T) {
	store := exam.NewMemoryAttemptStore()
	ctx := context.Background()
	if err := store.Create(ctx, exam.NewAttempt("a1", "sat1", "u1", 0)); err != nil {
		t.Fatalf("create: %v", err)
	}
	boom := errors.New("boom")
	if _, err := store.Mutate(ctx, "a1", func(a *exam.Attempt) error {
		a.Status = exam.StatusInProgress
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("mutate = %v, want boom", err)
	}
	got, err := store.Get(ctx, "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != exam.StatusCreated {
		t.Fatalf("status = %s, want created (failed mutation must not commit)", got.Status)
	}
}
