package course

type Course struct {
	ID        string `json:"id"`
	Name      string `json:"name" validate:"required"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// Homework binds a question set to a course with a due date.
type Homework struct {
	ID        string `json:"id"`
	CourseID  string `json:"course_id" validate:"required"`
	SetID     string `json:"set_id" validate:"required"`
	Title     string `json:"title" validate:"required"`
	DueAt     int64  `json:"due_at,omitempty"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

const (
	SubmissionSubmitted = "submitted"
	SubmissionGraded    = "graded"
)

// Submission is one student's homework hand-in. Auto-graded on submit;
// NeedsManual flags essay answers awaiting teacher review.
type Submission struct {
	ID          string            `json:"id"`
	HomeworkID  string            `json:"homework_id"`
	UserID      string            `json:"user_id"`
	Answers     map[string]string `json:"answers"` // question id -> response
	Score       float64           `json:"score"`
	MaxScore    float64           `json:"max_score"`
	Status      string            `json:"status"`
	NeedsManual bool              `json:"needs_manual"`
	SubmittedAt int64             `json:"submitted_at"`
	GradedBy    string            `json:"graded_by,omitempty"`
	GradedAt    int64             `json:"graded_at,omitempty"`
}
