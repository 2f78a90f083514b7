package course_test

import (
	"context"
	"errors"
	"testing"

	"github.com/peakprep/peakprep-lms/internal/bank"
	"github.com/peakprep/peakprep-lms/internal/course"
	"github.com/peakprep/peakprep-lms/internal/grading"
)

/* ---------------- fakes ---------------- */

type fakeCourseStore struct {
	courses     map[string]course.Course
	enrolled    map[string]map[string]bool // course id -> student ids
	homework    map[string]course.Homework
	submissions map[string]course.Submission
}

func newFakeCourseStore() *fakeCourseStore {
	return &fakeCourseStore{
		courses:     map[string]course.Course{},
		enrolled:    map[string]map[string]bool{},
		homework:    map[string]course.Homework{},
		submissions: map[string]course.Submission{},
	}
}

func (s *fakeCourseStore) PutCourse(_ context.Context, c course.Course) error {
	s.courses[c.ID] = c
	return nil
}

func (s *fakeCourseStore) GetCourse(_ context.Context, id string) (course.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return course.Course{}, course.ErrCourseNotFound
	}
	return c, nil
}

func (s *fakeCourseStore) ListCourses(_ context.Context, teacherID, studentID string) ([]course.Course, error) {
	return nil, nil
}

func (s *fakeCourseStore) Enroll(_ context.Context, courseID, studentID string) error {
	if s.enrolled[courseID] == nil {
		s.enrolled[courseID] = map[string]bool{}
	}
	s.enrolled[courseID][studentID] = true
	return nil
}

func (s *fakeCourseStore) Unenroll(_ context.Context, courseID, studentID string) error {
	delete(s.enrolled[courseID], studentID)
	return nil
}

func (s *fakeCourseStore) IsEnrolled(_ context.Context, courseID, studentID string) (bool, error) {
	return s.enrolled[courseID][studentID], nil
}

func (s *fakeCourseStore) Roster(_ context.Context, courseID string) ([]string, error) {
	return nil, nil
}

func (s *fakeCourseStore) PutHomework(_ context.Context, hw course.Homework) error {
	s.homework[hw.ID] = hw
	return nil
}

func (s *fakeCourseStore) GetHomework(_ context.Context, id string) (course.Homework, error) {
	hw, ok := s.homework[id]
	if !ok {
		return course.Homework{}, course.ErrHomeworkNotFound
	}
	return hw, nil
}

func (s *fakeCourseStore) ListHomework(_ context.Context, courseID string) ([]course.Homework, error) {
	return nil, nil
}

func (s *fakeCourseStore) PutSubmission(_ context.Context, sub course.Submission) error {
	s.submissions[sub.ID] = sub
	return nil
}

func (s *fakeCourseStore) GetSubmission(_ context.Context, id string) (course.Submission, error) {
	sub, ok := s.submissions[id]
	if !ok {
		return course.Submission{}, course.ErrSubmissionNotFound
	}
	return sub, nil
}

func (s *fakeCourseStore) FindSubmission(_ context.Context, homeworkID, userID string) (course.Submission, error) {
	for _, sub := range s.submissions {
		if sub.HomeworkID == homeworkID && sub.UserID == userID {
			return sub, nil
		}
	}
	return course.Submission{}, course.ErrSubmissionNotFound
}

func (s *fakeCourseStore) ListSubmissions(_ context.Context, homeworkID string) ([]course.Submission, error) {
	return nil, nil
}

// fakeBank serves one fixed set.
type fakeBank struct {
	setID     string
	questions []bank.Question
}

func (b *fakeBank) PutQuestion(context.Context, bank.Question) error { return nil }
func (b *fakeBank) GetQuestion(_ context.Context, id string) (bank.Question, error) {
	for _, q := range b.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return bank.Question{}, bank.ErrQuestionNotFound
}
func (b *fakeBank) DeleteQuestion(context.Context, string) error { return nil }
func (b *fakeBank) ListQuestions(context.Context, bank.ListOpts) ([]bank.Question, error) {
	return b.questions, nil
}
func (b *fakeBank) PutSet(context.Context, bank.QuestionSet) error { return nil }
func (b *fakeBank) GetSet(_ context.Context, id string) (bank.QuestionSet, error) {
	if id != b.setID {
		return bank.QuestionSet{}, bank.ErrSetNotFound
	}
	return bank.QuestionSet{ID: id}, nil
}
func (b *fakeBank) ListSets(context.Context, string) ([]bank.QuestionSet, error) { return nil, nil }
func (b *fakeBank) SetQuestionsFull(_ context.Context, setID string) ([]bank.Question, error) {
	if setID != b.setID {
		return nil, bank.ErrSetNotFound
	}
	return b.questions, nil
}

/* ---------------- tests ---------------- */

func fixture() (*fakeCourseStore, *course.Service) {
	store := newFakeCourseStore()
	store.courses["c1"] = course.Course{ID: "c1", Name: "SAT Prep"}
	store.enrolled["c1"] = map[string]bool{"stu1": true}
	store.homework["hw1"] = course.Homework{ID: "hw1", CourseID: "c1", SetID: "set1", Title: "Week 1"}
	bk := &fakeBank{setID: "set1", questions: []bank.Question{
		{ID: "q1", Type: bank.TypeMCQSingle, AnswerKey: []string{"A"}, Points: 2},
		{ID: "q2", Type: bank.TypeNumeric, AnswerKey: []string{"42"}, Points: 3},
		{ID: "q3", Type: bank.TypeEssay, Points: 5},
	}}
	return store, course.NewService(store, bk, grading.NewDefaultGrader())
}

func TestSubmitHomeworkAutoGrades(t *testing.T) {
	_, svc := fixture()
	sub, err := svc.SubmitHomework(context.Background(), "hw1", "stu1", map[string]string{
		"q1": "A",
		"q2": "41",
		"q3": "An essay about triangles.",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Score != 2 {
		t.Fatalf("score = %f, want 2 (only q1 correct)", sub.Score)
	}
	if sub.MaxScore != 10 {
		t.Fatalf("max = %f, want 10", sub.MaxScore)
	}
	if !sub.NeedsManual || sub.Status != course.SubmissionSubmitted {
		t.Fatalf("essay should keep status submitted: %+v", sub)
	}
}

func TestSubmitHomeworkFullyAutoGraded(t *testing.T) {
	store, svc := fixture()
	// Replace with an essay-free set.
	store.homework["hw2"] = course.Homework{ID: "hw2", CourseID: "c1", SetID: "set1", Title: "Week 2"}
	sub, err := svc.SubmitHomework(context.Background(), "hw2", "stu1", map[string]string{
		"q1": "A",
		"q2": "42",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	// Unanswered essay contributes no points and no manual flag.
	if sub.NeedsManual || sub.Status != course.SubmissionGraded {
		t.Fatalf("want auto-graded: %+v", sub)
	}
	if sub.Score != 5 {
		t.Fatalf("score = %f, want 5", sub.Score)
	}
}

func TestSubmitHomeworkRejectsUnenrolled(t *testing.T) {
	_, svc := fixture()
	_, err := svc.SubmitHomework(context.Background(), "hw1", "outsider", nil)
	if !errors.Is(err, course.ErrNotEnrolled) {
		t.Fatalf("err = %v, want ErrNotEnrolled", err)
	}
}

func TestSubmitHomeworkRejectsDuplicate(t *testing.T) {
	_, svc := fixture()
	if _, err := svc.SubmitHomework(context.Background(), "hw1", "stu1", nil); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := svc.SubmitHomework(context.Background(), "hw1", "stu1", nil)
	if !errors.Is(err, course.ErrAlreadySubmitted) {
		t.Fatalf("second submit = %v, want ErrAlreadySubmitted", err)
	}
}

func TestGradeSubmissionClampsScore(t *testing.T) {
	store, svc := fixture()
	sub, err := svc.SubmitHomework(context.Background(), "hw1", "stu1", map[string]string{"q3": "essay"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	graded, err := svc.GradeSubmission(context.Background(), sub.ID, "teach1", 99)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if graded.Score != sub.MaxScore {
		t.Fatalf("score = %f, want clamped to %f", graded.Score, sub.MaxScore)
	}
	if graded.Status != course.SubmissionGraded || graded.NeedsManual || graded.GradedBy != "teach1" {
		t.Fatalf("graded submission: %+v", graded)
	}
	if store.submissions[sub.ID].Status != course.SubmissionGraded {
		t.Fatal("grade not persisted")
	}
}
