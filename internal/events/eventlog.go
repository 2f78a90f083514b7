// Package events records engine and homework events in an append-only log.
// Listeners that used to hang off framework signals (analytics, dashboards)
// read from here instead.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/peakprep/peakprep-lms/internal/exam"
)

type Event struct {
	Offset    int64  `json:"offset"`
	Type      string `json:"type"`
	Key       string `json:"key"` // natural key: attempt id, submission id
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type Log struct{ db *sql.DB }

func NewLog(db *sql.DB) *Log { return &Log{db: db} }

func (l *Log) Append(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		typ, key, string(buf), time.Now().Unix())
	return err
}

// Publish implements exam.EventSink.
func (l *Log) Publish(ctx context.Context, e exam.Event) error {
	return l.Append(ctx, e.Type, e.AttemptID, e)
}

// Since returns events after the given offset, oldest first.
func (l *Log) Since(ctx context.Context, offset int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT event_offset, typ, key, data, created_at FROM event_log WHERE event_offset>$1 ORDER BY event_offset LIMIT $2`,
		offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Offset, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
