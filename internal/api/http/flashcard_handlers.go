package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmw "github.com/peakprep/peakprep-lms/internal/auth/middleware"
	"github.com/peakprep/peakprep-lms/internal/flashcards"
	"github.com/peakprep/peakprep-lms/internal/rbac"
)

// FlashcardAPI groups the deck, card and study-queue handlers.
type FlashcardAPI struct {
	Store   flashcards.Store
	Service *flashcards.Service
}

// POST /decks
func (api *FlashcardAPI) CreateDeck(w http.ResponseWriter, r *http.Request) {
	var d flashcards.Deck
	if err := decodeValid(r, &d); err != nil {
		http.Error(w, "bad deck: "+err.Error(), http.StatusBadRequest)
		return
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.OwnerID = authmw.SubjectFromContext(r.Context())
	if err := api.Store.PutDeck(r.Context(), d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// GET /decks?course_id=...&mine=1
func (api *FlashcardAPI) ListDecks(w http.ResponseWriter, r *http.Request) {
	ownerID := ""
	if r.URL.Query().Get("mine") == "1" {
		ownerID = authmw.SubjectFromContext(r.Context())
	}
	list, err := api.Store.ListDecks(r.Context(), ownerID, r.URL.Query().Get("course_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /decks/{deckID} — deck plus its cards.
func (api *FlashcardAPI) GetDeck(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	d, err := api.Store.GetDeck(r.Context(), deckID)
	if errors.Is(err, flashcards.ErrDeckNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	cards, err := api.Store.ListCards(r.Context(), deckID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deck": d, "cards": cards})
}

// DELETE /decks/{deckID}
func (api *FlashcardAPI) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	if !api.canEditDeck(r, deckID, w) {
		return
	}
	if err := api.Store.DeleteDeck(r.Context(), deckID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /decks/{deckID}/cards
func (api *FlashcardAPI) AddCard(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	if !api.canEditDeck(r, deckID, w) {
		return
	}
	var c flashcards.Card
	if err := decodeValid(r, &c); err != nil {
		http.Error(w, "bad card: "+err.Error(), http.StatusBadRequest)
		return
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.DeckID = deckID
	if err := api.Store.PutCard(r.Context(), c); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// DELETE /decks/{deckID}/cards/{cardID}
func (api *FlashcardAPI) DeleteCard(w http.ResponseWriter, r *http.Request) {
	if !api.canEditDeck(r, chi.URLParam(r, "deckID"), w) {
		return
	}
	if err := api.Store.DeleteCard(r.Context(), chi.URLParam(r, "cardID")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /decks/{deckID}/due?limit=20 — the caller's study queue.
func (api *FlashcardAPI) Due(w http.ResponseWriter, r *http.Request) {
	sub := authmw.SubjectFromContext(r.Context())
	due, err := api.Service.Due(r.Context(), sub, chi.URLParam(r, "deckID"),
		parseIntDefault(r.URL.Query().Get("limit"), 20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, due)
}

// POST /decks/{deckID}/cards/{cardID}/review {"quality":0..5}
func (api *FlashcardAPI) Review(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Quality int `json:"quality"`
	}
	if err := decodeValid(r, &in); err != nil {
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		return
	}
	sub := authmw.SubjectFromContext(r.Context())
	st, err := api.Service.ReviewCard(r.Context(), sub, chi.URLParam(r, "cardID"),
		flashcards.Quality(in.Quality))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// canEditDeck allows the owner or anyone holding flashcards:edit.
func (api *FlashcardAPI) canEditDeck(r *http.Request, deckID string, w http.ResponseWriter) bool {
	d, err := api.Store.GetDeck(r.Context(), deckID)
	if errors.Is(err, flashcards.ErrDeckNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return false
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return false
	}
	sub := authmw.SubjectFromContext(r.Context())
	if d.OwnerID == sub {
		return true
	}
	if rbac.NewChecker(nil).Has(rbac.RoleFromContext(r.Context()), "flashcards:edit") {
		return true
	}
	http.Error(w, "forbidden", http.StatusForbidden)
	return false
}
