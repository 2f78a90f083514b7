package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrSetNotFound      = errors.New("question set not found")
)

// Store is the question bank's persistence surface.
type Store interface {
	PutQuestion(ctx context.Context, q Question) error
	GetQuestion(ctx context.Context, id string) (Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	ListQuestions(ctx context.Context, opts ListOpts) ([]Question, error)

	PutSet(ctx context.Context, set QuestionSet) error
	GetSet(ctx context.Context, id string) (QuestionSet, error)
	ListSets(ctx context.Context, kind string) ([]QuestionSet, error)

	// SetQuestionsFull resolves a set to its questions in order, answer keys
	// included. Callers serving students must strip keys (see Sanitize).
	SetQuestionsFull(ctx context.Context, setID string) ([]Question, error)
}

// Sanitize strips grading-only fields before a question reaches a student.
func Sanitize(q Question) Question {
	q.AnswerKey = nil
	q.ExplanationHTML = ""
	return q
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	cj, err := json.Marshal(q.Choices)
	if err != nil {
		return err
	}
	kj, err := json.Marshal(q.AnswerKey)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO questions (id, kind, qtype, difficulty, prompt_html, choices_json, answer_key_json, explanation_html, points, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO UPDATE SET kind=EXCLUDED.kind, qtype=EXCLUDED.qtype, difficulty=EXCLUDED.difficulty,
		   prompt_html=EXCLUDED.prompt_html, choices_json=EXCLUDED.choices_json,
		   answer_key_json=EXCLUDED.answer_key_json, explanation_html=EXCLUDED.explanation_html, points=EXCLUDED.points`,
		q.ID, q.Kind, q.Type, q.Difficulty, q.PromptHTML, string(cj), string(kj), q.ExplanationHTML, q.Points, time.Now().Unix())
	return err
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	return scanQuestion(s.db.QueryRowContext(ctx,
		`SELECT id, kind, qtype, difficulty, prompt_html, choices_json, answer_key_json, explanation_html, points, created_at
		   FROM questions WHERE id=$1`, id))
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, opts ListOpts) ([]Question, error) {
	q := `SELECT id, kind, qtype, difficulty, prompt_html, choices_json, answer_key_json, explanation_html, points, created_at
	        FROM questions WHERE 1=1`
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		q += " AND " + cond + "$" + strconv.Itoa(n)
		args = append(args, v)
	}
	if opts.Kind != "" {
		add("kind=", opts.Kind)
	}
	if opts.Type != "" {
		add("qtype=", opts.Type)
	}
	if opts.Difficulty != "" {
		add("difficulty=", opts.Difficulty)
	}
	if opts.Q != "" {
		n++
		q += " AND prompt_html LIKE '%' || $" + strconv.Itoa(n) + " || '%'"
		args = append(args, opts.Q)
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	n++
	q += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(n)
	args = append(args, limit)
	n++
	q += " OFFSET $" + strconv.Itoa(n)
	args = append(args, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		qq, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, qq)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutSet(ctx context.Context, set QuestionSet) error {
	idsJSON, err := json.Marshal(set.QuestionIDs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO question_sets (id, title, kind, question_ids_json, created_at)
		 VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, kind=EXCLUDED.kind, question_ids_json=EXCLUDED.question_ids_json`,
		set.ID, set.Title, set.Kind, string(idsJSON), time.Now().Unix())
	return err
}

func (s *SQLStore) GetSet(ctx context.Context, id string) (QuestionSet, error) {
	var set QuestionSet
	var idsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, kind, question_ids_json, created_at FROM question_sets WHERE id=$1`, id).
		Scan(&set.ID, &set.Title, &set.Kind, &idsJSON, &set.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return QuestionSet{}, ErrSetNotFound
	}
	if err != nil {
		return QuestionSet{}, err
	}
	if err := json.Unmarshal([]byte(idsJSON), &set.QuestionIDs); err != nil {
		return QuestionSet{}, err
	}
	return set, nil
}

func (s *SQLStore) ListSets(ctx context.Context, kind string) ([]QuestionSet, error) {
	q := `SELECT id, title, kind, question_ids_json, created_at FROM question_sets`
	args := []any{}
	if kind != "" {
		q += ` WHERE kind=$1`
		args = append(args, kind)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []QuestionSet{}
	for rows.Next() {
		var set QuestionSet
		var idsJSON string
		if err := rows.Scan(&set.ID, &set.Title, &set.Kind, &idsJSON, &set.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(idsJSON), &set.QuestionIDs); err != nil {
			return nil, err
		}
		out = append(out, set)
	}
	return out, rows.Err()
}

// SetQuestionsFull preserves the set's ordering; ids that no longer resolve
// are dropped rather than failing the whole read.
func (s *SQLStore) SetQuestionsFull(ctx context.Context, setID string) ([]Question, error) {
	set, err := s.GetSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	out := make([]Question, 0, len(set.QuestionIDs))
	for _, id := range set.QuestionIDs {
		q, err := s.GetQuestion(ctx, id)
		if errors.Is(err, ErrQuestionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

func scanQuestion(row interface{ Scan(...any) error }) (Question, error) {
	var q Question
	var choicesJSON, keyJSON string
	err := row.Scan(&q.ID, &q.Kind, &q.Type, &q.Difficulty, &q.PromptHTML, &choicesJSON, &keyJSON, &q.ExplanationHTML, &q.Points, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrQuestionNotFound
	}
	if err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal([]byte(choicesJSON), &q.Choices); err != nil {
		q.Choices = nil
	}
	if err := json.Unmarshal([]byte(keyJSON), &q.AnswerKey); err != nil {
		q.AnswerKey = nil
	}
	return q, nil
}
