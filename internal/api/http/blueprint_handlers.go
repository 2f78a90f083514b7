package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/peakprep/peakprep-lms/internal/bank"
	"github.com/peakprep/peakprep-lms/internal/exam"
)

// POST /blueprints — full blueprint definition in the body.
func CreateBlueprintHandler(store exam.BlueprintStore, questions bank.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var bp exam.Blueprint
		if err := decodeValid(r, &bp); err != nil {
			http.Error(w, "bad blueprint: "+err.Error(), http.StatusBadRequest)
			return
		}
		if bp.ID == "" {
			bp.ID = uuid.NewString()
		}
		if err := checkBlueprintSets(r, questions, &bp); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.Put(r.Context(), &bp); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, bp)
	}
}

// POST /blueprints/digital-sat — shorthand: name the six sets, get the
// standard two-section shape with default timings.
func CreateDigitalSATHandler(store exam.BlueprintStore, questions bank.Store) http.HandlerFunc {
	type req struct {
		Title string              `json:"title" validate:"required"`
		Sets  exam.DigitalSATSets `json:"sets"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var in req
		if err := decodeValid(r, &in); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		bp := exam.NewDigitalSAT(uuid.NewString(), in.Title, in.Sets)
		if err := checkBlueprintSets(r, questions, bp); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.Put(r.Context(), bp); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusCreated, bp)
	}
}

// GET /blueprints/{blueprintID}
func GetBlueprintHandler(store exam.BlueprintStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, err := store.Get(r.Context(), chi.URLParam(r, "blueprintID"))
		if errors.Is(err, exam.ErrBlueprintNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, bp)
	}
}

// GET /blueprints
func ListBlueprintsHandler(store exam.BlueprintStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// checkBlueprintSets verifies every set a blueprint references exists.
func checkBlueprintSets(r *http.Request, questions bank.Store, bp *exam.Blueprint) error {
	for i := range bp.Sections {
		for j := range bp.Sections[i].Modules {
			m := &bp.Sections[i].Modules[j]
			for _, setID := range []string{m.QuestionSetID, m.EasierSetID, m.HarderSetID} {
				if setID == "" {
					continue
				}
				if _, err := questions.GetSet(r.Context(), setID); err != nil {
					return errors.New("unknown question set: " + setID)
				}
			}
		}
	}
	return nil
}
