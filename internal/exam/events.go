package exam

import "context"

// Event types emitted by the engine. Listeners (event log, analytics)
// subscribe through EventSink instead of framework signals.
const (
	EventAttemptStarted   = "attempt.started"
	EventModuleCompleted  = "module.completed"
	EventAttemptCompleted = "attempt.completed"
)

type Event struct {
	Type        string `json:"type"`
	AttemptID   string `json:"attempt_id"`
	BlueprintID string `json:"blueprint_id"`
	UserID      string `json:"user_id"`
	ModuleID    string `json:"module_id,omitempty"`

	// Routing outcome, present on module.completed for module-1 submissions.
	RoutedDifficulty Difficulty `json:"routed_difficulty,omitempty"`
	// Final scores, present on attempt.completed.
	Scores *ScoreReport `json:"scores,omitempty"`
}

// EventSink receives engine events. Publishing is best-effort: the engine
// drops sink errors rather than failing student-facing operations.
type EventSink interface {
	Publish(ctx context.Context, e Event) error
}

type nopSink struct{}

func (nopSink) Publish(context.Context, Event) error { return nil }
