package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// StartSession records a new session and returns it.
func (db *DB) StartSession(at time.Time, version string, seed uint64) (*Session, error) {
	s := &Session{
		UUID:      uuid.New().String(),
		StartedAt: at.UTC(),
		Version:   version,
		Seed:      seed,
	}
	result, err := db.conn.Exec(
		"INSERT INTO sessions (uuid, started_at, version, seed) VALUES (?, ?, ?, ?)",
		s.UUID, s.StartedAt.Format(timeLayout), s.Version, int64(seed),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	s.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s, nil
}

// EndSession stamps a session's end time.
func (db *DB) EndSession(id int64, at time.Time) error {
	_, err := db.conn.Exec("UPDATE sessions SET ended_at = ? WHERE id = ?", at.UTC().Format(timeLayout), id)
	return err
}

// LatestSession returns the most recent session, or nil if none exist.
func (db *DB) LatestSession() (*Session, error) {
	row := db.conn.QueryRow("SELECT id, uuid, started_at, ended_at, version, seed FROM sessions ORDER BY id DESC LIMIT 1")
	return scanSession(row)
}

// GetSession returns a session by UUID, or nil if it does not exist.
func (db *DB) GetSession(id string) (*Session, error) {
	row := db.conn.QueryRow("SELECT id, uuid, started_at, ended_at, version, seed FROM sessions WHERE uuid = ?", id)
	return scanSession(row)
}

func scanSession(row *sql.Row) (*Session, error) {
	var s Session
	var startedAt string
	var endedAt sql.NullString
	var seed int64
	err := row.Scan(&s.ID, &s.UUID, &startedAt, &endedAt, &s.Version, &seed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Seed = uint64(seed)
	s.StartedAt, _ = time.Parse(timeLayout, startedAt)
	if endedAt.Valid {
		t, _ := time.Parse(timeLayout, endedAt.String)
		s.EndedAt = &t
	}
	return &s, nil
}

// Clear deletes every session and event.
func (db *DB) Clear() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM events"); err != nil {
		return fmt.Errorf("clearing events: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM sessions"); err != nil {
		return fmt.Errorf("clearing sessions: %w", err)
	}
	return tx.Commit()
}
