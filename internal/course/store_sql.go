package course

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrCourseNotFound     = errors.New("course not found")
	ErrHomeworkNotFound   = errors.New("homework not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadySubmitted   = errors.New("homework already submitted")
	ErrNotEnrolled        = errors.New("student not enrolled in course")
)

// Store persists courses, rosters, homework and submissions.
type Store interface {
	PutCourse(ctx context.Context, c Course) error
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context, teacherID, studentID string) ([]Course, error)
	Enroll(ctx context.Context, courseID, studentID string) error
	Unenroll(ctx context.Context, courseID, studentID string) error
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
	Roster(ctx context.Context, courseID string) ([]string, error)

	PutHomework(ctx context.Context, hw Homework) error
	GetHomework(ctx context.Context, id string) (Homework, error)
	ListHomework(ctx context.Context, courseID string) ([]Homework, error)

	PutSubmission(ctx context.Context, sub Submission) error
	GetSubmission(ctx context.Context, id string) (Submission, error)
	FindSubmission(ctx context.Context, homeworkID, userID string) (Submission, error)
	ListSubmissions(ctx context.Context, homeworkID string) ([]Submission, error)
}

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutCourse(ctx context.Context, c Course) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id, name, created_by, created_at) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name`,
		c.ID, c.Name, c.CreatedBy, time.Now().Unix())
	return err
}

func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	var c Course
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_by, created_at FROM courses WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedBy, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, ErrCourseNotFound
	}
	return c, err
}

func (s *SQLStore) ListCourses(ctx context.Context, teacherID, studentID string) ([]Course, error) {
	q := `SELECT c.id, c.name, c.created_by, c.created_at FROM courses c`
	args := []any{}
	switch {
	case teacherID != "":
		q += ` WHERE c.created_by=$1`
		args = append(args, teacherID)
	case studentID != "":
		q += ` JOIN course_students e ON e.course_id=c.id WHERE e.student_id=$1`
		args = append(args, studentID)
	}
	q += ` ORDER BY c.created_at DESC`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Course{}
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) Enroll(ctx context.Context, courseID, studentID string) error {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO course_students (course_id, student_id, enrolled_at) VALUES ($1,$2,$3)
		 ON CONFLICT (course_id, student_id) DO NOTHING`,
		courseID, studentID, time.Now().Unix())
	return err
}

func (s *SQLStore) Unenroll(ctx context.Context, courseID, studentID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM course_students WHERE course_id=$1 AND student_id=$2`, courseID, studentID)
	return err
}

func (s *SQLStore) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM course_students WHERE course_id=$1 AND student_id=$2`, courseID, studentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLStore) Roster(ctx context.Context, courseID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT student_id FROM course_students WHERE course_id=$1 ORDER BY student_id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutHomework(ctx context.Context, hw Homework) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO homework (id, course_id, set_id, title, due_at, created_by, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (id) DO UPDATE SET set_id=EXCLUDED.set_id, title=EXCLUDED.title, due_at=EXCLUDED.due_at`,
		hw.ID, hw.CourseID, hw.SetID, hw.Title, hw.DueAt, hw.CreatedBy, time.Now().Unix())
	return err
}

func (s *SQLStore) GetHomework(ctx context.Context, id string) (Homework, error) {
	var hw Homework
	err := s.db.QueryRowContext(ctx,
		`SELECT id, course_id, set_id, title, due_at, created_by, created_at FROM homework WHERE id=$1`, id).
		Scan(&hw.ID, &hw.CourseID, &hw.SetID, &hw.Title, &hw.DueAt, &hw.CreatedBy, &hw.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Homework{}, ErrHomeworkNotFound
	}
	return hw, err
}

func (s *SQLStore) ListHomework(ctx context.Context, courseID string) ([]Homework, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, course_id, set_id, title, due_at, created_by, created_at
		   FROM homework WHERE course_id=$1 ORDER BY created_at DESC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Homework{}
	for rows.Next() {
		var hw Homework
		if err := rows.Scan(&hw.ID, &hw.CourseID, &hw.SetID, &hw.Title, &hw.DueAt, &hw.CreatedBy, &hw.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, hw)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutSubmission(ctx context.Context, sub Submission) error {
	aj, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO homework_submissions
		   (id, homework_id, user_id, answers_json, score, max_score, status, needs_manual, submitted_at, graded_by, graded_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT (id) DO UPDATE SET score=EXCLUDED.score, status=EXCLUDED.status,
		   needs_manual=EXCLUDED.needs_manual, graded_by=EXCLUDED.graded_by, graded_at=EXCLUDED.graded_at`,
		sub.ID, sub.HomeworkID, sub.UserID, string(aj), sub.Score, sub.MaxScore,
		sub.Status, sub.NeedsManual, sub.SubmittedAt, sub.GradedBy, sub.GradedAt)
	return err
}

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	return scanSubmission(s.db.QueryRowContext(ctx,
		`SELECT id, homework_id, user_id, answers_json, score, max_score, status, needs_manual, submitted_at, graded_by, graded_at
		   FROM homework_submissions WHERE id=$1`, id))
}

func (s *SQLStore) FindSubmission(ctx context.Context, homeworkID, userID string) (Submission, error) {
	return scanSubmission(s.db.QueryRowContext(ctx,
		`SELECT id, homework_id, user_id, answers_json, score, max_score, status, needs_manual, submitted_at, graded_by, graded_at
		   FROM homework_submissions WHERE homework_id=$1 AND user_id=$2`, homeworkID, userID))
}

func (s *SQLStore) ListSubmissions(ctx context.Context, homeworkID string) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, homework_id, user_id, answers_json, score, max_score, status, needs_manual, submitted_at, graded_by, graded_at
		   FROM homework_submissions WHERE homework_id=$1 ORDER BY submitted_at DESC`, homeworkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanSubmission(row interface{ Scan(...any) error }) (Submission, error) {
	var sub Submission
	var aj string
	err := row.Scan(&sub.ID, &sub.HomeworkID, &sub.UserID, &aj, &sub.Score, &sub.MaxScore,
		&sub.Status, &sub.NeedsManual, &sub.SubmittedAt, &sub.GradedBy, &sub.GradedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrSubmissionNotFound
	}
	if err != nil {
		return Submission{}, err
	}
	if err := json.Unmarshal([]byte(aj), &sub.Answers); err != nil {
		sub.Answers = map[string]string{}
	}
	return sub, nil
}
