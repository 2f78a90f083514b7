package course

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/peakprep/peakprep-lms/internal/bank"
	"github.com/peakprep/peakprep-lms/internal/grading"
)

// Service wraps the store with homework submission and grading flow.
type Service struct {
	store  Store
	bank   bank.Store
	grader grading.Grader
	events EventAppender
	now    func() time.Time
}

// EventAppender receives homework lifecycle events (the event log).
type EventAppender interface {
	Append(ctx context.Context, typ, key string, data any) error
}

const (
	EventHomeworkSubmitted = "homework.submitted"
	EventHomeworkGraded    = "homework.graded"
)

func NewService(store Store, bankStore bank.Store, grader grading.Grader, opts ...ServiceOption) *Service {
	s := &Service{store: store, bank: bankStore, grader: grader, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption { return func(s *Service) { s.now = now } }
func WithEventLog(log EventAppender) ServiceOption { return func(s *Service) { s.events = log } }

func (s *Service) publish(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	// Best-effort, same as the exam engine's sink.
	_ = s.events.Append(ctx, typ, key, data)
}

// SubmitHomework stores a student's answers and auto-grades them against the
// bound question set. One submission per student per homework.
func (s *Service) SubmitHomework(ctx context.Context, homeworkID, userID string, answers map[string]string) (Submission, error) {
	hw, err := s.store.GetHomework(ctx, homeworkID)
	if err != nil {
		return Submission{}, err
	}
	enrolled, err := s.store.IsEnrolled(ctx, hw.CourseID, userID)
	if err != nil {
		return Submission{}, err
	}
	if !enrolled {
		return Submission{}, ErrNotEnrolled
	}
	if _, err := s.store.FindSubmission(ctx, homeworkID, userID); err == nil {
		return Submission{}, ErrAlreadySubmitted
	} else if !errors.Is(err, ErrSubmissionNotFound) {
		return Submission{}, err
	}

	questions, err := s.bank.SetQuestionsFull(ctx, hw.SetID)
	if err != nil {
		return Submission{}, fmt.Errorf("resolve homework set: %w", err)
	}
	if answers == nil {
		answers = map[string]string{}
	}

	sub := Submission{
		ID:          uuid.NewString(),
		HomeworkID:  homeworkID,
		UserID:      userID,
		Answers:     answers,
		Status:      SubmissionSubmitted,
		SubmittedAt: s.now().Unix(),
	}
	for _, q := range questions {
		sub.MaxScore += q.Points
		resp, ok := answers[q.ID]
		if !ok {
			continue
		}
		res, err := s.grader.Grade(ctx, q, resp)
		if err != nil {
			continue
		}
		sub.Score += res.AutoPoints
		if res.NeedsManual {
			sub.NeedsManual = true
		}
	}
	if !sub.NeedsManual {
		sub.Status = SubmissionGraded
	}
	if err := s.store.PutSubmission(ctx, sub); err != nil {
		return Submission{}, err
	}
	s.publish(ctx, EventHomeworkSubmitted, sub.ID, sub)
	return sub, nil
}

// GradeSubmission applies a teacher's manual score override and finalizes
// the submission.
func (s *Service) GradeSubmission(ctx context.Context, submissionID, gradedBy string, score float64) (Submission, error) {
	sub, err := s.store.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	if score < 0 {
		score = 0
	}
	if sub.MaxScore > 0 && score > sub.MaxScore {
		score = sub.MaxScore
	}
	sub.Score = score
	sub.Status = SubmissionGraded
	sub.NeedsManual = false
	sub.GradedBy = gradedBy
	sub.GradedAt = s.now().Unix()
	if err := s.store.PutSubmission(ctx, sub); err != nil {
		return Submission{}, err
	}
	s.publish(ctx, EventHomeworkGraded, sub.ID, sub)
	return sub, nil
}
