package flashcards

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrDeckNotFound = errors.New("deck not found")
	ErrCardNotFound = errors.New("card not found")
)

// Store persists decks, cards and per-user review state.
type Store interface {
	PutDeck(ctx context.Context, d Deck) error
	GetDeck(ctx context.Context, id string) (Deck, error)
	ListDecks(ctx context.Context, ownerID, courseID string) ([]Deck, error)
	DeleteDeck(ctx context.Context, id string) error

	PutCard(ctx context.Context, c Card) error
	ListCards(ctx context.Context, deckID string) ([]Card, error)
	DeleteCard(ctx context.Context, id string) error

	GetReviewState(ctx context.Context, userID, cardID string) (ReviewState, error)
	PutReviewState(ctx context.Context, st ReviewState) error
	// DueCards returns cards in the deck the user should study now:
	// never-reviewed cards plus cards whose next review time has passed.
	DueCards(ctx context.Context, userID, deckID string, now time.Time, limit int) ([]DueCard, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutDeck(ctx context.Context, d Deck) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO decks (id, title, owner_id, course_id, created_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, course_id=EXCLUDED.course_id`,
		d.ID, d.Title, d.OwnerID, d.CourseID, time.Now().Unix())
	return err
}

func (s *SQLStore) GetDeck(ctx context.Context, id string) (Deck, error) {
	var d Deck
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, owner_id, course_id, created_at FROM decks WHERE id=$1`, id).
		Scan(&d.ID, &d.Title, &d.OwnerID, &d.CourseID, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Deck{}, ErrDeckNotFound
	}
	return d, err
}

func (s *SQLStore) ListDecks(ctx context.Context, ownerID, courseID string) ([]Deck, error) {
	q := `SELECT id, title, owner_id, course_id, created_at FROM decks WHERE 1=1`
	args := []any{}
	if ownerID != "" {
		args = append(args, ownerID)
		q += ` AND owner_id=$1`
	}
	if courseID != "" {
		args = append(args, courseID)
		if len(args) == 1 {
			q += ` AND course_id=$1`
		} else {
			q += ` AND course_id=$2`
		}
	}
	q += ` ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Deck{}
	for rows.Next() {
		var d Deck
		if err := rows.Scan(&d.ID, &d.Title, &d.OwnerID, &d.CourseID, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteDeck(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDeckNotFound
	}
	return nil
}

func (s *SQLStore) PutCard(ctx context.Context, c Card) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (id, deck_id, front_html, back_html, created_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (id) DO UPDATE SET front_html=EXCLUDED.front_html, back_html=EXCLUDED.back_html`,
		c.ID, c.DeckID, c.FrontHTML, c.BackHTML, time.Now().Unix())
	return err
}

func (s *SQLStore) ListCards(ctx context.Context, deckID string) ([]Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, deck_id, front_html, back_html, created_at FROM cards WHERE deck_id=$1 ORDER BY created_at`, deckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Card{}
	for rows.Next() {
		var c Card
		if err := rows.Scan(&c.ID, &c.DeckID, &c.FrontHTML, &c.BackHTML, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteCard(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCardNotFound
	}
	return nil
}

func (s *SQLStore) GetReviewState(ctx context.Context, userID, cardID string) (ReviewState, error) {
	var st ReviewState
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, card_id, easiness_factor, interval_days, repetitions, consecutive_right, last_quality, last_review_at, next_review_at
		   FROM card_reviews WHERE user_id=$1 AND card_id=$2`, userID, cardID).
		Scan(&st.UserID, &st.CardID, &st.EasinessFactor, &st.IntervalDays, &st.Repetitions,
			&st.ConsecutiveRight, &st.LastQuality, &st.LastReviewAt, &st.NextReviewAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ReviewState{UserID: userID, CardID: cardID}, nil
	}
	return st, err
}

func (s *SQLStore) PutReviewState(ctx context.Context, st ReviewState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO card_reviews (user_id, card_id, easiness_factor, interval_days, repetitions, consecutive_right, last_quality, last_review_at, next_review_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (user_id, card_id) DO UPDATE SET
		   easiness_factor=EXCLUDED.easiness_factor, interval_days=EXCLUDED.interval_days,
		   repetitions=EXCLUDED.repetitions, consecutive_right=EXCLUDED.consecutive_right,
		   last_quality=EXCLUDED.last_quality, last_review_at=EXCLUDED.last_review_at,
		   next_review_at=EXCLUDED.next_review_at`,
		st.UserID, st.CardID, st.EasinessFactor, st.IntervalDays, st.Repetitions,
		st.ConsecutiveRight, st.LastQuality, st.LastReviewAt, st.NextReviewAt)
	return err
}

func (s *SQLStore) DueCards(ctx context.Context, userID, deckID string, now time.Time, limit int) ([]DueCard, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.deck_id, c.front_html, c.back_html, c.created_at,
		        COALESCE(r.easiness_factor, 0), COALESCE(r.interval_days, 0), COALESCE(r.repetitions, 0),
		        COALESCE(r.consecutive_right, 0), COALESCE(r.last_quality, 0),
		        COALESCE(r.last_review_at, 0), COALESCE(r.next_review_at, 0)
		   FROM cards c
		   LEFT JOIN card_reviews r ON r.card_id=c.id AND r.user_id=$1
		  WHERE c.deck_id=$2 AND (r.next_review_at IS NULL OR r.next_review_at<=$3)`,
		userID, deckID, now.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DueCard{}
	for rows.Next() {
		var dc DueCard
		if err := rows.Scan(&dc.Card.ID, &dc.Card.DeckID, &dc.Card.FrontHTML, &dc.Card.BackHTML, &dc.Card.CreatedAt,
			&dc.State.EasinessFactor, &dc.State.IntervalDays, &dc.State.Repetitions,
			&dc.State.ConsecutiveRight, &dc.State.LastQuality,
			&dc.State.LastReviewAt, &dc.State.NextReviewAt); err != nil {
			return nil, err
		}
		dc.State.UserID = userID
		dc.State.CardID = dc.Card.ID
		out = append(out, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	SortDue(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
