package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmw "github.com/peakprep/peakprep-lms/internal/auth/middleware"
	"github.com/peakprep/peakprep-lms/internal/exam"
	"github.com/peakprep/peakprep-lms/internal/rbac"
)

// AttemptAPI bundles the engine and its stores for the attempt routes.
type AttemptAPI struct {
	Engine     *exam.Engine
	Attempts   exam.AttemptStore
	Blueprints exam.BlueprintStore
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, exam.ErrAttemptNotFound), errors.Is(err, exam.ErrBlueprintNotFound):
		return http.StatusNotFound
	case errors.Is(err, exam.ErrActiveAttempt):
		return http.StatusConflict
	case errors.Is(err, exam.ErrAlreadyStarted),
		errors.Is(err, exam.ErrAlreadyCompleted),
		errors.Is(err, exam.ErrNotStarted),
		errors.Is(err, exam.ErrNoCurrentModule),
		errors.Is(err, exam.ErrNotCompleted):
		return http.StatusConflict
	case errors.Is(err, exam.ErrTimeExpired):
		return http.StatusRequestTimeout
	case errors.Is(err, exam.ErrInvalidModuleTransition):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// POST /attempts  { "blueprint_id": "..." }
// One non-completed attempt per (blueprint, student); a second create is a 409.
func (api *AttemptAPI) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := authmw.SubjectFromContext(r.Context())
		var req struct {
			BlueprintID string `json:"blueprint_id" validate:"required"`
		}
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if _, err := api.Blueprints.Get(r.Context(), req.BlueprintID); err != nil {
			http.Error(w, err.Error(), errStatus(err))
			return
		}
		a := exam.NewAttempt(uuid.NewString(), req.BlueprintID, sub, 0)
		if err := api.Attempts.Create(r.Context(), a); err != nil {
			http.Error(w, err.Error(), errStatus(err))
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// POST /attempts/{attemptID}/start
func (api *AttemptAPI) Start() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, err := api.mutateOwn(w, r, id, func(bp *exam.Blueprint, a *exam.Attempt) error {
			return api.Engine.Start(r.Context(), bp, a)
		})
		if a == nil || err != nil {
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// POST /attempts/{attemptID}/modules/submit
// { "answers": {"q1":"A", ...}, "flagged": ["q3"] }
// An expired module is auto-closed: the submission is accepted with whatever
// answers arrived, per the timeout policy.
func (api *AttemptAPI) SubmitModule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		var req struct {
			Answers map[string]string `json:"answers"`
			Flagged []string          `json:"flagged"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := api.mutateOwn(w, r, id, func(bp *exam.Blueprint, a *exam.Attempt) error {
			for _, qid := range req.Flagged {
				api.Engine.FlagQuestion(a, qid, true)
			}
			err := api.Engine.SubmitModule(r.Context(), bp, a, req.Answers, false)
			if errors.Is(err, exam.ErrTimeExpired) {
				// Time ran out between the client's countdown and this call;
				// close the module with what we have.
				err = api.Engine.SubmitModule(r.Context(), bp, a, req.Answers, true)
			}
			return err
		})
		if a == nil || err != nil {
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// POST /attempts/{attemptID}/flag  { "question_id": "...", "flagged": true }
func (api *AttemptAPI) Flag() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		var req struct {
			QuestionID string `json:"question_id" validate:"required"`
			Flagged    bool   `json:"flagged"`
		}
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := api.mutateOwn(w, r, id, func(bp *exam.Blueprint, a *exam.Attempt) error {
			api.Engine.FlagQuestion(a, req.QuestionID, req.Flagged)
			return nil
		})
		if a == nil || err != nil {
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /attempts/{attemptID}
// Status view: attempt plus remaining time and current-module progress.
func (api *AttemptAPI) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, bp, ok := api.loadOwn(w, r, id)
		if !ok {
			return
		}
		resp := struct {
			*exam.Attempt
			RemainingSec int     `json:"remaining_sec"`
			ProgressPct  float64 `json:"progress_pct"`
		}{Attempt: a}
		if rem, err := api.Engine.RemainingTime(bp, a); err == nil {
			resp.RemainingSec = rem
		}
		if a.CurrentModule != "" {
			if p, err := api.Engine.Progress(r.Context(), bp, a, a.CurrentModule); err == nil {
				resp.ProgressPct = p
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GET /attempts/{attemptID}/results
func (api *AttemptAPI) Results() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "attemptID")
		a, _, ok := api.loadOwn(w, r, id)
		if !ok {
			return
		}
		if a.Status != exam.StatusCompleted || a.Scores == nil {
			http.Error(w, exam.ErrNotCompleted.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"attempt_id":         a.ID,
			"blueprint_id":       a.BlueprintID,
			"user_id":            a.UserID,
			"submitted_at":       a.SubmittedAt,
			"scores":             a.Scores,
			"section_difficulty": a.SectionDifficulty,
			"time_spent_sec":     a.TimeSpentSec,
		})
	}
}

// GET /attempts?blueprint_id=...&user_id=...&status=...&limit=50&offset=0
// Callers without attempt:view-all are forced to their own attempts.
func (api *AttemptAPI) List() http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := authmw.SubjectFromContext(r.Context())

		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if !checker.Has(role, "attempt:view-all") {
			userID = sub
		}
		list, err := api.Attempts.List(r.Context(), exam.AttemptListOpts{
			BlueprintID: strings.TrimSpace(r.URL.Query().Get("blueprint_id")),
			UserID:      userID,
			Status:      strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:       parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:      parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// loadOwn fetches an attempt and enforces owner-or-viewer access.
func (api *AttemptAPI) loadOwn(w http.ResponseWriter, r *http.Request, id string) (*exam.Attempt, *exam.Blueprint, bool) {
	a, err := api.Attempts.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), errStatus(err))
		return nil, nil, false
	}
	sub := authmw.SubjectFromContext(r.Context())
	role := rbac.RoleFromContext(r.Context())
	if a.UserID != sub && !rbac.NewChecker(nil).Has(role, "attempt:view-all") {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil, nil, false
	}
	bp, err := api.Blueprints.Get(r.Context(), a.BlueprintID)
	if err != nil {
		http.Error(w, err.Error(), errStatus(err))
		return nil, nil, false
	}
	return a, bp, true
}

// mutateOwn runs an engine operation under the store's read-modify-write
// lock, enforcing that only the owner mutates an attempt.
func (api *AttemptAPI) mutateOwn(w http.ResponseWriter, r *http.Request, id string, fn func(bp *exam.Blueprint, a *exam.Attempt) error) (*exam.Attempt, error) {
	sub := authmw.SubjectFromContext(r.Context())
	a, err := api.Attempts.Mutate(r.Context(), id, func(a *exam.Attempt) error {
		if a.UserID != sub {
			return errForbidden
		}
		bp, err := api.Blueprints.Get(r.Context(), a.BlueprintID)
		if err != nil {
			return err
		}
		return fn(bp, a)
	})
	if err != nil {
		if errors.Is(err, errForbidden) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return nil, err
		}
		http.Error(w, err.Error(), errStatus(err))
		return nil, err
	}
	return a, nil
}

var errForbidden = errors.New("forbidden")
