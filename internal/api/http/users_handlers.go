package http

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/peakprep/peakprep-lms/internal/auth/middleware"
)

type userRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`               // defaults to "student"
	Password string `json:"password,omitempty"` // plaintext, hashed on ingest
}

// POST /users/bulk — roster import. Accepts a raw JSON array, or a multipart
// file= upload holding either JSON or CSV (id,username,role[,password]).
func BulkUpsertUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			// Sniff JSON vs CSV by the first byte.
			buf := make([]byte, 1)
			if _, err := f.Read(buf); err != nil {
				http.Error(w, "empty file", http.StatusBadRequest)
				return
			}
			if s, ok := f.(io.Seeker); ok {
				_, _ = s.Seek(0, io.SeekStart)
			}
			if buf[0] == '[' || buf[0] == '{' {
				if err := json.NewDecoder(f).Decode(&rows); err != nil {
					http.Error(w, "bad json", http.StatusBadRequest)
					return
				}
			} else {
				rs, err := parseRosterCSV(f)
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), http.StatusBadRequest)
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
				return
			}
		}
		if len(rows) == 0 {
			writeJSON(w, http.StatusOK, map[string]any{"inserted": 0, "updated": 0})
			return
		}

		ins, upd, err := upsertUsers(r.Context(), db, rows)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"inserted": ins, "updated": upd})
	}
}

// GET /users?role=student
func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := r.URL.Query().Get("role")
		var rows *sql.Rows
		var err error
		if role == "" {
			rows, err = db.QueryContext(r.Context(), `SELECT id, username, role FROM users ORDER BY username`)
		} else {
			rows, err = db.QueryContext(r.Context(), `SELECT id, username, role FROM users WHERE role=$1 ORDER BY username`, role)
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := []map[string]string{}
		for rows.Next() {
			var id, u, ro string
			if err := rows.Scan(&id, &u, &ro); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			out = append(out, map[string]string{"id": id, "username": u, "role": ro})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// POST /users/me/password
func ChangePasswordHandler(db *sql.DB) http.HandlerFunc {
	type req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password" validate:"required,min=6"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID := authmw.SubjectFromContext(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var in req
		if err := decodeValid(r, &in); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}

		var storedHash string
		err := db.QueryRowContext(r.Context(), `SELECT password_hash FROM users WHERE id=$1`, userID).Scan(&storedHash)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(in.OldPassword)) != nil {
			http.Error(w, "incorrect old password", http.StatusForbidden)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), 12)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := db.ExecContext(r.Context(), `UPDATE users SET password_hash=$1 WHERE id=$2`, hash, userID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseRosterCSV(r io.Reader) ([]userRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["username"]; !ok {
		return nil, errors.New("missing column: username")
	}
	var rows []userRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := userRow{Username: rec[idx["username"]]}
		if i, ok := idx["id"]; ok {
			row.ID = rec[i]
		}
		if i, ok := idx["role"]; ok {
			row.Role = strings.ToLower(rec[i])
		}
		if i, ok := idx["password"]; ok {
			row.Password = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func upsertUsers(ctx context.Context, db *sql.DB, rows []userRow) (inserted, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	for _, u := range rows {
		if u.Username == "" {
			return inserted, updated, errors.New("row missing username")
		}
		if u.Role == "" {
			u.Role = "student"
		}
		if u.Role != "student" && u.Role != "teacher" && u.Role != "admin" {
			return inserted, updated, errors.New("invalid role: " + u.Role)
		}
		var phash string
		if u.Password != "" {
			b, e := bcrypt.GenerateFromPassword([]byte(u.Password), 12)
			if e != nil {
				return inserted, updated, e
			}
			phash = string(b)
		}

		var existingID string
		err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id=$1 OR username=$2`, u.ID, u.Username).Scan(&existingID)
		switch {
		case err == nil:
			if phash != "" {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2, password_hash=$3 WHERE id=$4`,
					u.Username, u.Role, phash, existingID)
			} else {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, role=$2 WHERE id=$3`,
					u.Username, u.Role, existingID)
			}
			if err != nil {
				return inserted, updated, err
			}
			updated++
		case errors.Is(err, sql.ErrNoRows):
			if phash == "" {
				return inserted, updated, errors.New("password required for new user: " + u.Username)
			}
			if u.ID == "" {
				u.ID = uuid.NewString()
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
				u.ID, u.Username, phash, u.Role, now)
			if err != nil {
				return inserted, updated, err
			}
			inserted++
		default:
			return inserted, updated, err
		}
	}
	return
}
