package http

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/peakprep/peakprep-lms/internal/storage"
)

// MountAssets serves the question-asset namespace: figures and audio that
// prompt HTML references by key.
func MountAssets(r chi.Router, bs storage.BlobStore) {
	// POST /assets/questions/{questionID}
	r.Post("/questions/{questionID}", func(w http.ResponseWriter, r *http.Request) {
		questionID := chi.URLParam(r, "questionID")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer f.Close()

		name := filepath.Base(hdr.Filename)
		if name == "" || name == "." {
			name = uuid.NewString()
		}
		key, err := bs.Put("questions/"+questionID+"/"+name, f)
		if err != nil {
			http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"key": key})
	})

	// GET /assets/*  -> the blob at whatever follows /assets/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
		rc, err := bs.Get(key)
		if err != nil {
			http.Error(w, "not found: "+err.Error(), http.StatusNotFound)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(filepath.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}
