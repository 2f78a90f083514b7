package exam

import (
	"context"
	"fmt"
	"time"
)

// Engine drives attempts through a blueprint: start, per-module submission
// with adaptive routing, completion and scoring. It holds no attempt state of
// its own; callers load an Attempt, invoke one operation, and persist the
// result. The caller must serialize operations per attempt id (the SQL store's
// Mutate does this with a row lock) — concurrent SubmitModule calls on the
// same attempt are undefined.
type Engine struct {
	provider QuestionProvider
	routing  RoutingConfig
	scoring  ScoreConfig
	sink     EventSink
	now      func() time.Time
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }
func WithRouting(c RoutingConfig) Option    { return func(e *Engine) { e.routing = c } }
func WithScoring(c ScoreConfig) Option      { return func(e *Engine) { e.scoring = c } }
func WithEventSink(s EventSink) Option      { return func(e *Engine) { e.sink = s } }

// New builds an engine over a question provider.
func New(provider QuestionProvider, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		routing:  DefaultRoutingConfig(),
		scoring:  DefaultScoreConfig(),
		sink:     nopSink{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Start moves a created attempt to in_progress on the blueprint's first
// module and starts its timer.
func (e *Engine) Start(ctx context.Context, bp *Blueprint, a *Attempt) error {
	if a.StartedAt != 0 {
		return ErrAlreadyStarted
	}
	a.ensureMaps()
	now := e.now().Unix()
	s, m := bp.FirstModule()
	a.Status = StatusInProgress
	a.StartedAt = now
	a.CurrentSection = s.ID
	a.CurrentModule = m.ID
	a.ModuleStartedAt = now

	_ = e.sink.Publish(ctx, Event{
		Type:        EventAttemptStarted,
		AttemptID:   a.ID,
		BlueprintID: bp.ID,
		UserID:      a.UserID,
		ModuleID:    m.ID,
	})
	return nil
}

// RemainingTime returns the seconds left in the current module, floored at
// zero. Pure read; the engine never enforces the deadline itself — callers
// poll this and decide whether to auto-submit or reject.
func (e *Engine) RemainingTime(bp *Blueprint, a *Attempt) (int, error) {
	if a.StartedAt == 0 {
		return 0, ErrNotStarted
	}
	if a.Status == StatusCompleted || a.CurrentModule == "" {
		return 0, ErrNoCurrentModule
	}
	_, m, ok := bp.ModuleByID(a.CurrentModule)
	if !ok {
		return 0, ErrInvalidModuleTransition
	}
	elapsed := int(e.now().Unix() - a.ModuleStartedAt)
	remaining := m.TimeLimitSec - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// SubmitModule stores answers for the current module, marks it completed and
// advances the attempt: module 1 routes the section's adaptive slot and moves
// into it; module 2 moves to the next section or completes the attempt.
//
// If the module's time limit has elapsed the submission is rejected with
// ErrTimeExpired unless force is set; the gateway forces the submission when
// auto-closing an expired module with whatever answers exist. Either the full
// transition happens or the attempt is left untouched.
func (e *Engine) SubmitModule(ctx context.Context, bp *Blueprint, a *Attempt, answers map[string]string, force bool) error {
	if a.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	if a.Status != StatusInProgress || a.CurrentModule == "" {
		return ErrNoCurrentModule
	}
	s, m, ok := bp.ModuleByID(a.CurrentModule)
	if !ok || a.IsModuleCompleted(m.ID) {
		return ErrInvalidModuleTransition
	}

	now := e.now().Unix()
	elapsed := int(now - a.ModuleStartedAt)
	if elapsed > m.TimeLimitSec && !force {
		return ErrTimeExpired
	}

	if answers == nil {
		answers = map[string]string{}
	}

	// Decide routing before touching the attempt, so a provider failure
	// leaves it unchanged.
	var routed Difficulty
	var routedSet string
	if m.Order == 1 {
		questions, err := e.provider.SetQuestions(ctx, m.QuestionSetID)
		if err != nil {
			return fmt.Errorf("route %s: %w", s.ID, err)
		}
		routed = e.routing.Route(moduleAccuracy(answers, questions))
		next := &s.Modules[1]
		if routed == DifficultyHarder {
			routedSet = next.HarderSetID
		} else {
			routedSet = next.EasierSetID
		}
	}

	a.ensureMaps()
	a.Answers[m.ID] = answers
	a.TimeSpentSec[m.ID] = elapsed
	a.CompletedModules = append(a.CompletedModules, m.ID)

	// Finishing the attempt happens after the module event is published so the
	// log reads module.completed then attempt.completed.
	finish := false
	switch m.Order {
	case 1:
		next := &s.Modules[1]
		a.SectionDifficulty[s.Kind] = routed
		a.ModuleSets[next.ID] = routedSet
		a.CurrentModule = next.ID
		a.ModuleStartedAt = now
	case 2:
		nextSection, ok := bp.SectionByOrder(s.Order + 1)
		if ok {
			a.CurrentSection = nextSection.ID
			a.CurrentModule = nextSection.Modules[0].ID
			a.ModuleStartedAt = now
		} else {
			finish = true
		}
	default:
		return ErrInvalidModuleTransition
	}

	_ = e.sink.Publish(ctx, Event{
		Type:             EventModuleCompleted,
		AttemptID:        a.ID,
		BlueprintID:      bp.ID,
		UserID:           a.UserID,
		ModuleID:         m.ID,
		RoutedDifficulty: routed,
	})
	if finish {
		return e.complete(ctx, bp, a)
	}
	return nil
}

// Complete finalizes an attempt: submit time, scores, completed flag.
// Idempotent; a completed attempt is left untouched.
func (e *Engine) Complete(ctx context.Context, bp *Blueprint, a *Attempt) error {
	if a.Status == StatusCompleted {
		return nil
	}
	if a.StartedAt == 0 {
		return ErrNotStarted
	}
	return e.complete(ctx, bp, a)
}

func (e *Engine) complete(ctx context.Context, bp *Blueprint, a *Attempt) error {
	report, err := e.score(ctx, bp, a)
	if err != nil {
		return err
	}
	a.SubmittedAt = e.now().Unix()
	a.Scores = report
	a.Status = StatusCompleted
	a.CurrentSection = ""
	a.CurrentModule = ""

	_ = e.sink.Publish(ctx, Event{
		Type:        EventAttemptCompleted,
		AttemptID:   a.ID,
		BlueprintID: bp.ID,
		UserID:      a.UserID,
		Scores:      report,
	})
	return nil
}

// FlagQuestion toggles a question's membership in the current module's
// flagged list. No-op when the attempt has no current module.
func (e *Engine) FlagQuestion(a *Attempt, questionID string, flagged bool) {
	if a.Status != StatusInProgress || a.CurrentModule == "" {
		return
	}
	a.ensureMaps()
	list := a.Flagged[a.CurrentModule]
	idx := -1
	for i, id := range list {
		if id == questionID {
			idx = i
			break
		}
	}
	switch {
	case flagged && idx < 0:
		a.Flagged[a.CurrentModule] = append(list, questionID)
	case !flagged && idx >= 0:
		a.Flagged[a.CurrentModule] = append(list[:idx], list[idx+1:]...)
	}
}

// Progress returns the answered percentage for a module, 0 when the module
// has no questions.
func (e *Engine) Progress(ctx context.Context, bp *Blueprint, a *Attempt, moduleID string) (float64, error) {
	_, m, ok := bp.ModuleByID(moduleID)
	if !ok {
		return 0, ErrInvalidModuleTransition
	}
	setID := a.ResolvedSetID(m)
	if setID == "" {
		return 0, nil
	}
	questions, err := e.provider.SetQuestions(ctx, setID)
	if err != nil {
		return 0, err
	}
	if len(questions) == 0 {
		return 0, nil
	}
	return float64(len(a.ModuleAnswers(moduleID))) / float64(len(questions)) * 100, nil
}
