package sink

import (
	"context"
	"time"

	"github.com/blackwell-systems/lifestream/internal/journal"
)

// Journal writes records to the SQLite journal under one session.
type Journal struct {
	db      *journal.DB
	session *journal.Session
	now     func() time.Time
}

// NewJournal starts a session in db and returns a sink that records into it.
// The caller keeps ownership of db.
func NewJournal(db *journal.DB, started time.Time, version string, seed uint64, now func() time.Time) (*Journal, error) {
	s, err := db.StartSession(started, version, seed)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Journal{db: db, session: s, now: now}, nil
}

// Session returns the session this sink records into.
func (j *Journal) Session() *journal.Session { return j.session }

// Name implements Sink.
func (j *Journal) Name() string { return "journal" }

// Write implements Sink.
func (j *Journal) Write(_ context.Context, r Record) error {
	return j.db.InsertEvent(j.session.ID, r.Name, r.Time, r.Payload)
}

// Close ends the session.
func (j *Journal) Close() error {
	return j.db.EndSession(j.session.ID, j.now())
}
