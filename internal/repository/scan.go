package repository

import (
	"database/sql"
	"encoding/json"
	"time"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const dateLayout = "2006-01-02"

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func toNull(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func dbTime(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
