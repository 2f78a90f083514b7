package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/peakprep/peakprep-lms/internal/bank"
	"github.com/peakprep/peakprep-lms/internal/rbac"
)

// POST /questions
func CreateQuestionHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q bank.Question
		if err := decodeValid(r, &q); err != nil {
			http.Error(w, "bad question: "+err.Error(), http.StatusBadRequest)
			return
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.Points <= 0 {
			q.Points = 1
		}
		if err := store.PutQuestion(r.Context(), q); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// GET /questions/{questionID}
// Students get the sanitized view; graders see answer keys.
func GetQuestionHandler(store bank.Store) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := store.GetQuestion(r.Context(), chi.URLParam(r, "questionID"))
		if errors.Is(err, bank.ErrQuestionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !checker.Has(rbac.RoleFromContext(r.Context()), "bank:edit") {
			q = bank.Sanitize(q)
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// GET /questions?kind=math&type=mcq_single&difficulty=hard&q=...
func ListQuestionsHandler(store bank.Store) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		qs := r.URL.Query()
		list, err := store.ListQuestions(r.Context(), bank.ListOpts{
			Kind:       strings.TrimSpace(qs.Get("kind")),
			Type:       strings.TrimSpace(qs.Get("type")),
			Difficulty: strings.TrimSpace(qs.Get("difficulty")),
			Q:          strings.TrimSpace(qs.Get("q")),
			Limit:      parseIntDefault(qs.Get("limit"), 50),
			Offset:     parseIntDefault(qs.Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !checker.Has(rbac.RoleFromContext(r.Context()), "bank:edit") {
			for i := range list {
				list[i] = bank.Sanitize(list[i])
			}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// DELETE /questions/{questionID}
func DeleteQuestionHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID"))
		if errors.Is(err, bank.ErrQuestionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /question-sets
func CreateSetHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var set bank.QuestionSet
		if err := decodeValid(r, &set); err != nil {
			http.Error(w, "bad set: "+err.Error(), http.StatusBadRequest)
			return
		}
		if set.ID == "" {
			set.ID = uuid.NewString()
		}
		// Reject dangling question ids up front.
		for _, qid := range set.QuestionIDs {
			if _, err := store.GetQuestion(r.Context(), qid); err != nil {
				http.Error(w, "unknown question: "+qid, http.StatusBadRequest)
				return
			}
		}
		if err := store.PutSet(r.Context(), set); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, set)
	}
}

// GET /question-sets/{setID}
func GetSetHandler(store bank.Store) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		setID := chi.URLParam(r, "setID")
		set, err := store.GetSet(r.Context(), setID)
		if errors.Is(err, bank.ErrSetNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		questions, err := store.SetQuestionsFull(r.Context(), setID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !checker.Has(rbac.RoleFromContext(r.Context()), "bank:edit") {
			for i := range questions {
				questions[i] = bank.Sanitize(questions[i])
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"set": set, "questions": questions})
	}
}

// GET /question-sets?kind=reading_writing
func ListSetsHandler(store bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListSets(r.Context(), strings.TrimSpace(r.URL.Query().Get("kind")))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
