package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// SQLAttemptStore persists attempts in the attempts table. Structured fields
// live in real columns; the per-module maps are JSON columns, written back
// whole on every mutation.
type SQLAttemptStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLAttemptStore(db *sql.DB, driver string) *SQLAttemptStore {
	return &SQLAttemptStore{db: db, driver: driver}
}

type attemptState struct {
	CompletedModules  []string                     `json:"completed_modules"`
	Answers           map[string]map[string]string `json:"answers"`
	TimeSpentSec      map[string]int               `json:"time_spent_sec"`
	Flagged           map[string][]string          `json:"flagged"`
	SectionDifficulty map[SectionKind]Difficulty   `json:"section_difficulty"`
	ModuleSets        map[string]string            `json:"module_sets"`
	Scores            *ScoreReport                 `json:"scores,omitempty"`
}

func (s *SQLAttemptStore) Create(ctx context.Context, a *Attempt) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM attempts WHERE blueprint_id=$1 AND user_id=$2 AND status!='completed'`,
		a.BlueprintID, a.UserID).Scan(&exists)
	if err == nil {
		return ErrActiveAttempt
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	stateJSON, err := marshalState(a)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO attempts
		   (id, blueprint_id, user_id, status, started_at, submitted_at,
		    current_section, current_module, module_started_at, state_json, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.BlueprintID, a.UserID, string(a.Status), a.StartedAt, a.SubmittedAt,
		a.CurrentSection, a.CurrentModule, a.ModuleStartedAt, stateJSON, time.Now().Unix())
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLAttemptStore) Get(ctx context.Context, id string) (*Attempt, error) {
	return scanAttempt(s.db.QueryRowContext(ctx,
		`SELECT id, blueprint_id, user_id, status, started_at, submitted_at,
		        current_section, current_module, module_started_at, state_json, created_at
		   FROM attempts WHERE id=$1`, id))
}

// Mutate loads the attempt inside a transaction, applies fn and writes the
// row back. Postgres takes a FOR UPDATE row lock; sqlite serializes writers
// at the database level. Either way, concurrent mutations of one attempt are
// applied one at a time, which is what the engine's contract requires.
func (s *SQLAttemptStore) Mutate(ctx context.Context, id string, fn func(a *Attempt) error) (*Attempt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	q := `SELECT id, blueprint_id, user_id, status, started_at, submitted_at,
	             current_section, current_module, module_started_at, state_json, created_at
	        FROM attempts WHERE id=$1`
	if s.driver == "postgres" {
		q += " FOR UPDATE"
	}
	a, err := scanAttempt(tx.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if err := fn(a); err != nil {
		return nil, err
	}
	stateJSON, err := marshalState(a)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE attempts SET status=$1, started_at=$2, submitted_at=$3,
		        current_section=$4, current_module=$5, module_started_at=$6, state_json=$7
		  WHERE id=$8`,
		string(a.Status), a.StartedAt, a.SubmittedAt,
		a.CurrentSection, a.CurrentModule, a.ModuleStartedAt, stateJSON, a.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *SQLAttemptStore) List(ctx context.Context, opts AttemptListOpts) ([]*Attempt, error) {
	q := `SELECT id, blueprint_id, user_id, status, started_at, submitted_at,
	             current_section, current_module, module_started_at, state_json, created_at
	        FROM attempts WHERE 1=1`
	args := []any{}
	n := 0
	add := func(cond string, v any) {
		n++
		q += " AND " + cond + placeholder(n)
		args = append(args, v)
	}
	if opts.BlueprintID != "" {
		add("blueprint_id=", opts.BlueprintID)
	}
	if opts.UserID != "" {
		add("user_id=", opts.UserID)
	}
	if opts.Status != "" {
		add("status=", opts.Status)
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	n++
	q += " ORDER BY created_at DESC LIMIT " + placeholder(n)
	args = append(args, limit)
	n++
	q += " OFFSET " + placeholder(n)
	args = append(args, opts.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func placeholder(n int) string {
	// Both drivers accept $N.
	return "$" + strconv.Itoa(n)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(row rowScanner) (*Attempt, error) {
	var a Attempt
	var status, stateJSON string
	err := row.Scan(&a.ID, &a.BlueprintID, &a.UserID, &status, &a.StartedAt, &a.SubmittedAt,
		&a.CurrentSection, &a.CurrentModule, &a.ModuleStartedAt, &stateJSON, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Status = Status(status)
	var st attemptState
	if err := json.Unmarshal([]byte(stateJSON), &st); err != nil {
		return nil, err
	}
	a.CompletedModules = st.CompletedModules
	a.Answers = st.Answers
	a.TimeSpentSec = st.TimeSpentSec
	a.Flagged = st.Flagged
	a.SectionDifficulty = st.SectionDifficulty
	a.ModuleSets = st.ModuleSets
	a.Scores = st.Scores
	a.ensureMaps()
	if a.CompletedModules == nil {
		a.CompletedModules = []string{}
	}
	return &a, nil
}

func marshalState(a *Attempt) (string, error) {
	buf, err := json.Marshal(attemptState{
		CompletedModules:  a.CompletedModules,
		Answers:           a.Answers,
		TimeSpentSec:      a.TimeSpentSec,
		Flagged:           a.Flagged,
		SectionDifficulty: a.SectionDifficulty,
		ModuleSets:        a.ModuleSets,
		Scores:            a.Scores,
	})
	return string(buf), err
}

// SQLBlueprintStore stores each blueprint as a JSON document plus indexed
// columns, the same shape the gateway loads it back into.
type SQLBlueprintStore struct {
	db *sql.DB
}

func NewSQLBlueprintStore(db *sql.DB) *SQLBlueprintStore {
	return &SQLBlueprintStore{db: db}
}

func (s *SQLBlueprintStore) Put(ctx context.Context, bp *Blueprint) error {
	if err := bp.Validate(); err != nil {
		return err
	}
	buf, err := json.Marshal(bp)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO blueprints (id, title, definition_json, created_at)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, definition_json=EXCLUDED.definition_json`,
		bp.ID, bp.Title, string(buf), time.Now().Unix())
	return err
}

func (s *SQLBlueprintStore) Get(ctx context.Context, id string) (*Blueprint, error) {
	var buf string
	err := s.db.QueryRowContext(ctx, `SELECT definition_json FROM blueprints WHERE id=$1`, id).Scan(&buf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlueprintNotFound
	}
	if err != nil {
		return nil, err
	}
	var bp Blueprint
	if err := json.Unmarshal([]byte(buf), &bp); err != nil {
		return nil, err
	}
	return &bp, nil
}

func (s *SQLBlueprintStore) List(ctx context.Context) ([]*Blueprint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT definition_json FROM blueprints ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*Blueprint{}
	for rows.Next() {
		var buf string
		if err := rows.Scan(&buf); err != nil {
			return nil, err
		}
		var bp Blueprint
		if err := json.Unmarshal([]byte(buf), &bp); err != nil {
			return nil, err
		}
		out = append(out, &bp)
	}
	return out, rows.Err()
}
