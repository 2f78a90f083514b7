package exam

import "errors"

// Engine errors. All are recoverable from the caller's point of view except
// ErrInvalidModuleTransition, which signals a corrupted attempt or blueprint.
var (
	ErrAlreadyStarted          = errors.New("attempt already started")
	ErrNotStarted              = errors.New("attempt not started")
	ErrNoCurrentModule         = errors.New("attempt has no current module")
	ErrAlreadyCompleted        = errors.New("attempt already completed")
	ErrInvalidModuleTransition = errors.New("invalid module transition")
	ErrTimeExpired             = errors.New("module time limit expired")
	ErrQuestionNotFound        = errors.New("question not found")

	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrBlueprintNotFound = errors.New("blueprint not found")
	ErrActiveAttempt     = errors.New("an active attempt already exists for this exam")
	ErrNotCompleted      = errors.New("attempt not completed")
)
