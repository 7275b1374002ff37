package journal

import (
	"fmt"
	"time"
)

// InsertEvent journals one event under a session.
func (db *DB) InsertEvent(sessionID int64, name string, at time.Time, payload []byte) error {
	_, err := db.conn.Exec(
		"INSERT INTO events (session_id, name, at, payload) VALUES (?, ?, ?, ?)",
		sessionID, name, at.UTC().Format(timeLayout), string(payload),
	)
	if err != nil {
		return fmt.Errorf("inserting %s event: %w", name, err)
	}
	return nil
}

// RecentEvents returns up to limit of the newest events of a session, newest
// first. An empty name matches every event.
func (db *DB) RecentEvents(sessionID int64, name string, limit int) ([]Event, error) {
	query := "SELECT id, session_id, name, at, payload FROM events WHERE session_id = ?"
	args := []any{sessionID}
	if name != "" {
		query += " AND name = ?"
		args = append(args, name)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var at, payload string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Name, &at, &payload); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(timeLayout, at)
		e.Payload = []byte(payload)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Summarize counts a session's events by name, sorted by name.
func (db *DB) Summarize(s *Session) (*Summary, error) {
	rows, err := db.conn.Query(
		`SELECT name, COUNT(*), MIN(at), MAX(at) FROM events
		 WHERE session_id = ? GROUP BY name ORDER BY name`,
		s.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sum := &Summary{Session: *s, Counts: []EventCount{}}
	for rows.Next() {
		var c EventCount
		var first, last string
		if err := rows.Scan(&c.Name, &c.Count, &first, &last); err != nil {
			return nil, err
		}
		c.First, _ = time.Parse(timeLayout, first)
		c.Last, _ = time.Parse(timeLayout, last)
		sum.Total += c.Count
		sum.Counts = append(sum.Counts, c)
	}
	return sum, rows.Err()
}
