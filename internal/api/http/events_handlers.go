package http

import (
	"net/http"
	"strconv"

	"github.com/peakprep/peakprep-lms/internal/events"
)

// GET /events?after=0&limit=100 — tail of the append-only event log.
func EventsHandler(log *events.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		list, err := log.Since(r.Context(), after, parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
