// Package sink forwards published stream events to external collaborators:
// a Redis stream, an MQTT broker and the local SQLite journal.
package sink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/blackwell-systems/lifestream/internal/events"
)

// Record is an envelope with its payload already encoded, so sinks never
// see live stream data.
type Record struct {
	Name    string          `json:"name"`
	Time    time.Time       `json:"time"`
	Payload json.RawMessage `json:"payload"`
}

// NewRecord encodes an envelope.
func NewRecord(e events.Envelope) (Record, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return Record{}, err
	}
	return Record{Name: e.Name, Time: e.Time, Payload: payload}, nil
}

// Sink receives records. Write may block on I/O; the dispatcher bounds it
// with a timeout.
type Sink interface {
	Name() string
	Write(ctx context.Context, r Record) error
	Close() error
}
