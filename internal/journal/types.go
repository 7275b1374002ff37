// Package journal records stream sessions and their published events in a
// local SQLite database.
package journal

import (
	"encoding/json"
	"time"
)

// Session is one run of the stream.
type Session struct {
	ID        int64      `json:"id"`
	UUID      string     `json:"uuid"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Version   string     `json:"version"`
	Seed      uint64     `json:"seed"`
}

// Event is one journaled envelope.
type Event struct {
	ID        int64           `json:"id"`
	SessionID int64           `json:"session_id"`
	Name      string          `json:"name"`
	At        time.Time       `json:"at"`
	Payload   json.RawMessage `json:"payload"`
}

// EventCount is the number of events of one name in a session.
type EventCount struct {
	Name  string    `json:"name"`
	Count int       `json:"count"`
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`
}

// Summary describes one session's journal.
type Summary struct {
	Session Session      `json:"session"`
	Total   int          `json:"total"`
	Counts  []EventCount `json:"counts"`
}
