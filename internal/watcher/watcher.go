// Package watcher follows the pattern and prediction topics of a stream,
// detecting notable changes and emitting alerts.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/blackwell-systems/lifestream/internal/events"
	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/predict"
)

const defaultQueue = 64

// WatchState is what the watcher last saw on each topic.
type WatchState struct {
	Timestamp   time.Time
	Patterns    []pattern.Pattern
	Predictions []predict.Prediction
}

// Alert represents a notable event detected by the watcher.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// Watcher compares each published pattern or prediction list against the
// previous state and queues alerts for delivery by Run.
type Watcher struct {
	mu            sync.Mutex
	previous      *WatchState
	lastAlertKeys map[string]bool // dedup: suppress repeated identical alerts

	alertFn func(Alert) // callback for emitting alerts
	queue   chan Alert
	dropped int
}

// New creates a Watcher that delivers alerts to alertFn from Run.
func New(alertFn func(Alert)) *Watcher {
	return &Watcher{
		previous:      &WatchState{},
		lastAlertKeys: make(map[string]bool),
		alertFn:       alertFn,
		queue:         make(chan Alert, defaultQueue),
	}
}

// Attach subscribes to the pattern and prediction events of bus. The
// returned function unsubscribes.
func (w *Watcher) Attach(bus *events.Bus) (detach func()) {
	return bus.SubscribeAll(func(e events.Envelope) {
		switch e.Name {
		case events.Patterns:
			if ps, ok := e.Payload.([]pattern.Pattern); ok {
				w.ObservePatterns(e.Time, ps)
			}
		case events.Predictions:
			if ps, ok := e.Payload.([]predict.Prediction); ok {
				w.ObservePredictions(e.Time, ps)
			}
		}
	})
}

// ObservePatterns records a new pattern list seen at at.
func (w *Watcher) ObservePatterns(at time.Time, ps []pattern.Pattern) {
	w.observe(func(s *WatchState) {
		s.Timestamp = at
		s.Patterns = ps
	})
}

// ObservePredictions records a new prediction list seen at at.
func (w *Watcher) ObservePredictions(at time.Time, ps []predict.Prediction) {
	w.observe(func(s *WatchState) {
		s.Timestamp = at
		s.Predictions = ps
	})
}

func (w *Watcher) observe(update func(*WatchState)) {
	w.mu.Lock()
	curr := *w.previous
	update(&curr)
	alerts := w.check(&curr)
	w.mu.Unlock()

	for _, a := range alerts {
		select {
		case w.queue <- a:
		default:
			w.mu.Lock()
			w.dropped++
			w.mu.Unlock()
		}
	}
}

// Check compares curr against the previous state, updates the previous
// state, and returns any alerts. Identical alerts are suppressed until the
// underlying data changes.
func (w *Watcher) Check(curr *WatchState) []Alert {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.check(curr)
}

func (w *Watcher) check(curr *WatchState) []Alert {
	raw := Compare(w.previous, curr)

	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys

	w.previous = curr
	return alerts
}

// Dropped reports how many alerts were discarded because the queue was full.
func (w *Watcher) Dropped() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

// Drain returns every queued alert without blocking. Callers driving a
// stream on a manual clock use it in place of Run.
func (w *Watcher) Drain() []Alert {
	var alerts []Alert
	for {
		select {
		case a := <-w.queue:
			alerts = append(alerts, a)
		default:
			return alerts
		}
	}
}

// Run delivers queued alerts to the callback. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case a := <-w.queue:
			if w.alertFn != nil {
				w.alertFn(a)
			}
		}
	}
}
