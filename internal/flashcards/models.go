package flashcards

// Deck is a titled collection of cards owned by a teacher (or a student's
// personal deck).
type Deck struct {
	ID        string `json:"id"`
	Title     string `json:"title" validate:"required"`
	OwnerID   string `json:"owner_id"`
	CourseID  string `json:"course_id,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type Card struct {
	ID        string `json:"id"`
	DeckID    string `json:"deck_id"`
	FrontHTML string `json:"front_html" validate:"required"`
	BackHTML  string `json:"back_html" validate:"required"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// ReviewState is one user's spaced-repetition state for one card.
// Zero value means the card has never been reviewed.
type ReviewState struct {
	UserID string `json:"user_id"`
	CardID string `json:"card_id"`

	EasinessFactor   float64 `json:"easiness_factor"`
	IntervalDays     int     `json:"interval_days"`
	Repetitions      int     `json:"repetitions"`
	ConsecutiveRight int     `json:"consecutive_right"`
	LastQuality      int     `json:"last_quality"`
	LastReviewAt     int64   `json:"last_review_at,omitempty"`
	NextReviewAt     int64   `json:"next_review_at,omitempty"`
}

// DueCard pairs a card with its review state for the study queue.
type DueCard struct {
	Card  Card        `json:"card"`
	State ReviewState `json:"state"`
}
