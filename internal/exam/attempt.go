package exam

// Status is the attempt lifecycle phase. Transitions are one-way:
// created -> in_progress -> completed.
type Status string

const (
	StatusCreated    Status = "created"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Attempt is one student's mutable pass through a blueprint. All timestamps
// are unix seconds. Maps are keyed by module id; inner answer maps by
// question id.
type Attempt struct {
	ID          string `json:"id"`
	BlueprintID string `json:"blueprint_id"`
	UserID      string `json:"user_id"`
	Status      Status `json:"status"`

	StartedAt       int64  `json:"started_at,omitempty"`
	SubmittedAt     int64  `json:"submitted_at,omitempty"`
	CurrentSection  string `json:"current_section,omitempty"`
	CurrentModule   string `json:"current_module,omitempty"`
	ModuleStartedAt int64  `json:"module_started_at,omitempty"`

	CompletedModules []string                     `json:"completed_modules"`
	Answers          map[string]map[string]string `json:"answers"`
	TimeSpentSec     map[string]int               `json:"time_spent_sec"`
	Flagged          map[string][]string          `json:"flagged"`

	// Adaptive routing outcome, per section kind, and the concrete question
	// set each adaptive slot resolved to.
	SectionDifficulty map[SectionKind]Difficulty `json:"section_difficulty"`
	ModuleSets        map[string]string          `json:"module_sets"`

	Scores *ScoreReport `json:"scores,omitempty"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// NewAttempt returns an empty attempt in the created state.
func NewAttempt(id, blueprintID, userID string, now int64) *Attempt {
	return &Attempt{
		ID:                id,
		BlueprintID:       blueprintID,
		UserID:            userID,
		Status:            StatusCreated,
		CompletedModules:  []string{},
		Answers:           map[string]map[string]string{},
		TimeSpentSec:      map[string]int{},
		Flagged:           map[string][]string{},
		SectionDifficulty: map[SectionKind]Difficulty{},
		ModuleSets:        map[string]string{},
		CreatedAt:         now,
	}
}

// IsModuleCompleted reports whether the module has been submitted.
func (a *Attempt) IsModuleCompleted(moduleID string) bool {
	for _, id := range a.CompletedModules {
		if id == moduleID {
			return true
		}
	}
	return false
}

// ModuleAnswers returns the stored answers for a module (possibly nil).
func (a *Attempt) ModuleAnswers(moduleID string) map[string]string {
	return a.Answers[moduleID]
}

// ResolvedSetID returns the question set delivered for a module on this
// attempt: the routed variant for adaptive slots, the static binding
// otherwise.
func (a *Attempt) ResolvedSetID(m *Module) string {
	if id, ok := a.ModuleSets[m.ID]; ok && id != "" {
		return id
	}
	return m.QuestionSetID
}

// ModuleDifficulty returns the difficulty the module was (or will be)
// delivered at on this attempt.
func (a *Attempt) ModuleDifficulty(s *Section, m *Module) Difficulty {
	if m.Order == 1 {
		return DifficultyBaseline
	}
	if d, ok := a.SectionDifficulty[s.Kind]; ok {
		return d
	}
	return m.Difficulty
}

// IsFlagged reports whether a question is flagged within a module.
func (a *Attempt) IsFlagged(moduleID, questionID string) bool {
	for _, id := range a.Flagged[moduleID] {
		if id == questionID {
			return true
		}
	}
	return false
}

// ensureMaps backfills nil maps on attempts loaded from storage.
func (a *Attempt) ensureMaps() {
	if a.Answers == nil {
		a.Answers = map[string]map[string]string{}
	}
	if a.TimeSpentSec == nil {
		a.TimeSpentSec = map[string]int{}
	}
	if a.Flagged == nil {
		a.Flagged = map[string][]string{}
	}
	if a.SectionDifficulty == nil {
		a.SectionDifficulty = map[SectionKind]Difficulty{}
	}
	if a.ModuleSets == nil {
		a.ModuleSets = map[string]string{}
	}
}

// ScoreReport is the completed attempt's scaled scores plus the raw counts
// they derive from.
type ScoreReport struct {
	ReadingWriting int `json:"reading_writing"`
	Math           int `json:"math"`
	Total          int `json:"total"`

	RawCorrect map[SectionKind]int `json:"raw_correct"`
	RawTotal   map[SectionKind]int `json:"raw_total"`
}
