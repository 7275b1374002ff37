package sink

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/lifestream/internal/events"
)

// DefaultWriteTimeout bounds a single sink write.
const DefaultWriteTimeout = 2 * time.Second

// Stats counts dispatcher outcomes.
type Stats struct {
	Queued  int64 `json:"queued"`
	Dropped int64 `json:"dropped"`
	Written int64 `json:"written"`
	Failed  int64 `json:"failed"`
}

// Dispatcher moves records from the stream to every sink over a bounded
// queue. Offer never blocks: when the queue is full the record is dropped
// and counted, so a slow sink cannot stall a tick.
type Dispatcher struct {
	sinks   []Sink
	allow   map[string]bool
	queue   chan Record
	timeout time.Duration
	logger  *zap.Logger

	queued  atomic.Int64
	dropped atomic.Int64
	written atomic.Int64
	failed  atomic.Int64

	mu      sync.Mutex
	failing map[string]bool
}

// NewDispatcher creates a dispatcher forwarding the named events to sinks.
// An empty names list forwards every event.
func NewDispatcher(names []string, buffer int, logger *zap.Logger, sinks ...Sink) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer < 1 {
		buffer = 1
	}
	var allow map[string]bool
	if len(names) > 0 {
		allow = make(map[string]bool, len(names))
		for _, n := range names {
			if !events.Known(n) {
				logger.Warn("sink filter names unknown event", zap.String("event", n))
			}
			allow[n] = true
		}
	}
	return &Dispatcher{
		sinks:   sinks,
		allow:   allow,
		queue:   make(chan Record, buffer),
		timeout: DefaultWriteTimeout,
		logger:  logger,
		failing: make(map[string]bool),
	}
}

// Attach subscribes the dispatcher to every event on bus.
func (d *Dispatcher) Attach(bus *events.Bus) (detach func()) {
	return bus.SubscribeAll(func(e events.Envelope) { d.Offer(e) })
}

// Offer queues e if its name passes the filter. It reports whether the
// record was queued.
func (d *Dispatcher) Offer(e events.Envelope) bool {
	if d.allow != nil && !d.allow[e.Name] {
		return false
	}
	if len(d.sinks) == 0 {
		return false
	}
	r, err := NewRecord(e)
	if err != nil {
		d.logger.Warn("encoding event", zap.String("event", e.Name), zap.Error(err))
		d.dropped.Add(1)
		return false
	}
	select {
	case d.queue <- r:
		d.queued.Add(1)
		return true
	default:
		if d.dropped.Add(1) == 1 {
			d.logger.Warn("sink queue full, dropping events", zap.Int("buffer", cap(d.queue)))
		}
		return false
	}
}

// Run delivers queued records until ctx is done, then flushes what is left
// and closes every sink.
func (d *Dispatcher) Run(ctx context.Context) error {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}
	d.logger.Info("sink dispatcher started", zap.Strings("sinks", names))

	for {
		select {
		case <-ctx.Done():
			d.flush()
			d.close()
			st := d.Stats()
			d.logger.Info("sink dispatcher stopped",
				zap.Int64("written", st.Written),
				zap.Int64("dropped", st.Dropped),
				zap.Int64("failed", st.Failed),
			)
			return nil
		case r := <-d.queue:
			d.deliver(context.Background(), r)
		}
	}
}

func (d *Dispatcher) flush() {
	for {
		select {
		case r := <-d.queue:
			d.deliver(context.Background(), r)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, r Record) {
	for _, s := range d.sinks {
		wctx, cancel := context.WithTimeout(ctx, d.timeout)
		err := s.Write(wctx, r)
		cancel()
		d.track(s.Name(), r.Name, err)
	}
}

// track counts a write and logs only health transitions per sink.
func (d *Dispatcher) track(sinkName, event string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err != nil {
		d.failed.Add(1)
		if !d.failing[sinkName] {
			d.failing[sinkName] = true
			d.logger.Warn("sink write failed", zap.String("sink", sinkName), zap.String("event", event), zap.Error(err))
		}
		return
	}
	d.written.Add(1)
	if d.failing[sinkName] {
		d.failing[sinkName] = false
		d.logger.Info("sink recovered", zap.String("sink", sinkName))
	}
}

func (d *Dispatcher) close() {
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			d.logger.Warn("closing sink", zap.String("sink", s.Name()), zap.Error(err))
		}
	}
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Queued:  d.queued.Load(),
		Dropped: d.dropped.Load(),
		Written: d.written.Load(),
		Failed:  d.failed.Load(),
	}
}
