package bank

// Question types the product supports. The exam engine scores mcq_single by
// exact match; homework grading also handles numeric, short_word and essay.
const (
	TypeMCQSingle = "mcq_single"
	TypeNumeric   = "numeric"
	TypeShortWord = "short_word"
	TypeEssay     = "essay"
)

type Choice struct {
	ID        string `json:"id,omitempty"`
	LabelHTML string `json:"label_html,omitempty"`
}

type Question struct {
	ID              string   `json:"id"`
	Kind            string   `json:"kind" validate:"required,oneof=reading_writing math"` // section kind
	Type            string   `json:"type" validate:"required,oneof=mcq_single numeric short_word essay"`
	Difficulty      string   `json:"difficulty,omitempty"` // easy|medium|hard, informational
	PromptHTML      string   `json:"prompt_html" validate:"required"`
	Choices         []Choice `json:"choices,omitempty"`
	AnswerKey       []string `json:"answer_key,omitempty"`
	ExplanationHTML string   `json:"explanation_html,omitempty"`
	Points          float64  `json:"points"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// QuestionSet is an ordered list of question ids that blueprints and homework
// bind to.
type QuestionSet struct {
	ID          string   `json:"id"`
	Title       string   `json:"title" validate:"required"`
	Kind        string   `json:"kind" validate:"required,oneof=reading_writing math"`
	QuestionIDs []string `json:"question_ids" validate:"required,min=1"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// ListOpts filters question listings.
type ListOpts struct {
	Kind       string
	Type       string
	Difficulty string
	Q          string // substring match on prompt
	Limit      int
	Offset     int
}
