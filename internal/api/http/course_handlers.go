package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmw "github.com/peakprep/peakprep-lms/internal/auth/middleware"
	"github.com/peakprep/peakprep-lms/internal/bank"
	"github.com/peakprep/peakprep-lms/internal/course"
	"github.com/peakprep/peakprep-lms/internal/rbac"
)

// CourseAPI groups course, roster, homework and submission handlers.
type CourseAPI struct {
	Store   course.Store
	Service *course.Service
	Bank    bank.Store
}

func courseErrStatus(err error) int {
	switch {
	case errors.Is(err, course.ErrCourseNotFound),
		errors.Is(err, course.ErrHomeworkNotFound),
		errors.Is(err, course.ErrSubmissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, course.ErrAlreadySubmitted):
		return http.StatusConflict
	case errors.Is(err, course.ErrNotEnrolled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// POST /courses
func (api *CourseAPI) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var c course.Course
	if err := decodeValid(r, &c); err != nil {
		http.Error(w, "bad course: "+err.Error(), http.StatusBadRequest)
		return
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedBy = authmw.SubjectFromContext(r.Context())
	if err := api.Store.PutCourse(r.Context(), c); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// GET /courses — teachers see courses they created, students their enrollments.
func (api *CourseAPI) ListCourses(w http.ResponseWriter, r *http.Request) {
	sub := authmw.SubjectFromContext(r.Context())
	teacherID, studentID := "", ""
	if rbac.NewChecker(nil).Has(rbac.RoleFromContext(r.Context()), "course:edit") {
		teacherID = sub
	} else {
		studentID = sub
	}
	list, err := api.Store.ListCourses(r.Context(), teacherID, studentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /courses/{courseID}
func (api *CourseAPI) GetCourse(w http.ResponseWriter, r *http.Request) {
	c, err := api.Store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, err.Error(), courseErrStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// POST /courses/{courseID}/students {"student_id":"..."}
func (api *CourseAPI) Enroll(w http.ResponseWriter, r *http.Request) {
	var in struct {
		StudentID string `json:"student_id" validate:"required"`
	}
	if err := decodeValid(r, &in); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	courseID := chi.URLParam(r, "courseID")
	if _, err := api.Store.GetCourse(r.Context(), courseID); err != nil {
		http.Error(w, err.Error(), courseErrStatus(err))
		return
	}
	if err := api.Store.Enroll(r.Context(), courseID, in.StudentID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /courses/{courseID}/students/{studentID}
func (api *CourseAPI) Unenroll(w http.ResponseWriter, r *http.Request) {
	err := api.Store.Unenroll(r.Context(), chi.URLParam(r, "courseID"), chi.URLParam(r, "studentID"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /courses/{courseID}/students
func (api *CourseAPI) Roster(w http.ResponseWriter, r *http.Request) {
	ids, err := api.Store.Roster(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"student_ids": ids})
}

// POST /courses/{courseID}/homework
func (api *CourseAPI) AssignHomework(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	var hw course.Homework
	if err := decodeValid(r, &hw); err != nil {
		http.Error(w, "bad homework: "+err.Error(), http.StatusBadRequest)
		return
	}
	hw.CourseID = courseID
	if hw.ID == "" {
		hw.ID = uuid.NewString()
	}
	hw.CreatedBy = authmw.SubjectFromContext(r.Context())
	if _, err := api.Store.GetCourse(r.Context(), courseID); err != nil {
		http.Error(w, err.Error(), courseErrStatus(err))
		return
	}
	if _, err := api.Bank.GetSet(r.Context(), hw.SetID); err != nil {
		http.Error(w, "unknown question set: "+hw.SetID, http.StatusBadRequest)
		return
	}
	if err := api.Store.PutHomework(r.Context(), hw); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, hw)
}

// GET /courses/{courseID}/homework
func (api *CourseAPI) ListHomework(w http.ResponseWriter, r *http.Request) {
	list, err := api.Store.ListHomework(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /homework/{homeworkID} — students get the sanitized question list.
func (api *CourseAPI) GetHomework(w http.ResponseWriter, r *http.Request) {
	hw, err := api.Store.GetHomework(r.Context(), chi.URLParam(r, "homeworkID"))
	if err != nil {
		http.Error(w, err.Error(), courseErrStatus(err))
		return
	}
	questions, err := api.Bank.SetQuestionsFull(r.Context(), hw.SetID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !rbac.NewChecker(nil).Has(rbac.RoleFromContext(r.Context()), "bank:edit") {
		for i := range questions {
			questions[i] = bank.Sanitize(questions[i])
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"homework": hw, "questions": questions})
}

// POST /homework/{homeworkID}/submissions {"answers":{qid:response}}
func (api *CourseAPI) SubmitHomework(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Answers map[string]string `json:"answers"`
	}
	if err := decodeValid(r, &in); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	sub := authmw.SubjectFromContext(r.Context())
	out, err := api.Service.SubmitHomework(r.Context(), chi.URLParam(r, "homeworkID"), sub, in.Answers)
	if err != nil {
		http.Error(w, err.Error(), courseErrStatus(err))
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// GET /homework/{homeworkID}/submissions — teacher view.
func (api *CourseAPI) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	list, err := api.Store.ListSubmissions(r.Context(), chi.URLParam(r, "homeworkID"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /homework/{homeworkID}/submissions/mine
func (api *CourseAPI) MySubmission(w http.ResponseWriter, r *http.Request) {
	sub := authmw.SubjectFromContext(r.Context())
	out, err := api.Store.FindSubmission(r.Context(), chi.URLParam(r, "homeworkID"), sub)
	if err != nil {
		http.Error(w, err.Error(), courseErrStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// POST /submissions/{submissionID}/grade {"score":7.5}
func (api *CourseAPI) GradeSubmission(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Score float64 `json:"score"`
	}
	if err := decodeValid(r, &in); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	grader := authmw.SubjectFromContext(r.Context())
	out, err := api.Service.GradeSubmission(r.Context(), chi.URLParam(r, "submissionID"), grader, in.Score)
	if err != nil {
		http.Error(w, err.Error(), courseErrStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}
