// Package stream is the running signal engine: one Store, the generators,
// detector, predictor and consolidator that write it, the scheduler that
// drives them and the typed bus that publishes every update.
//
// A Stream is built once at startup and passed to everything that needs it.
// Every write to the store happens inside a tick handler or Ingest, and those
// are serialized, so each slice has exactly one writer at a time.
package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/lifestream/internal/clock"
	"github.com/blackwell-systems/lifestream/internal/events"
	"github.com/blackwell-systems/lifestream/internal/id"
	"github.com/blackwell-systems/lifestream/internal/memory"
	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/predict"
	"github.com/blackwell-systems/lifestream/internal/scheduler"
	"github.com/blackwell-systems/lifestream/internal/signal"
)

// Cadence sets the period of each task. A zero period disables the task.
type Cadence struct {
	Biometrics    time.Duration
	Environmental time.Duration
	Digital       time.Duration
	Emotional     time.Duration
	Patterns      time.Duration
	Predictions   time.Duration
	Memory        time.Duration
}

// DefaultCadence runs biometrics at roughly 60 Hz and the slower tasks at
// their demo periods.
var DefaultCadence = Cadence{
	Biometrics:    16 * time.Millisecond,
	Environmental: time.Second,
	Digital:       500 * time.Millisecond,
	Emotional:     time.Second,
	Patterns:      5 * time.Second,
	Predictions:   10 * time.Second,
	Memory:        30 * time.Second,
}

// Options configures New. Zero values select defaults.
type Options struct {
	Clock          clock.Clock
	Rand           signal.Rand
	Location       *time.Location
	Cadence        *Cadence
	Thresholds     *pattern.Thresholds
	ExtraRules     []pattern.Rule
	MemoryCapacity int
	IngestHold     time.Duration
	IDs            memory.IDSource
	Logger         *zap.Logger
}

type hold struct {
	reading Reading
	until   time.Time
}

// Stream is the engine context object.
type Stream struct {
	store *Store
	bus   *events.Bus
	sched *scheduler.Scheduler
	clock clock.Clock
	loc   *time.Location

	gen          *signal.Generators
	detector     *pattern.Detector
	predictor    *predict.Predictor
	consolidator *memory.Consolidator

	cadence    Cadence
	ingestHold time.Duration
	logger     *zap.Logger

	// tickMu serializes tick handlers and Ingest; it also guards holds and
	// started.
	tickMu  sync.Mutex
	holds   map[Kind]hold
	started bool
}

// New builds a stream. Tasks are not registered until Start or Run.
func New(opts Options) (*Stream, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := opts.Clock
	if c == nil {
		c = clock.Real{}
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	r := opts.Rand
	if r == nil {
		r = signal.NewRand(uint64(c.Now().UnixNano()))
	}
	cadence := DefaultCadence
	if opts.Cadence != nil {
		cadence = *opts.Cadence
	}
	if err := cadence.validate(); err != nil {
		return nil, err
	}
	if opts.IngestHold < 0 {
		return nil, fmt.Errorf("ingest hold must not be negative, got %s", opts.IngestHold)
	}
	th := pattern.DefaultThresholds
	if opts.Thresholds != nil {
		th = *opts.Thresholds
	}
	ids := opts.IDs
	if ids == nil {
		gen, err := id.NewGenerator(1)
		if err != nil {
			return nil, err
		}
		ids = gen
	}

	rules := append(pattern.BuiltinRules(th), opts.ExtraRules...)
	return &Stream{
		store:        NewStore(opts.MemoryCapacity),
		bus:          events.NewBus(),
		sched:        scheduler.New(c, logger.Named("scheduler")),
		clock:        c,
		loc:          loc,
		gen:          signal.NewGenerators(r, loc),
		detector:     pattern.NewDetector(loc, rules...),
		predictor:    predict.New(r, loc),
		consolidator: memory.NewConsolidator(ids),
		cadence:      cadence,
		ingestHold:   opts.IngestHold,
		logger:       logger,
		holds:        make(map[Kind]hold),
	}, nil
}

func (c Cadence) validate() error {
	for name, d := range c.byTask() {
		if d < 0 {
			return fmt.Errorf("cadence %s must not be negative, got %s", name, d)
		}
	}
	return nil
}

func (c Cadence) byTask() map[string]time.Duration {
	return map[string]time.Duration{
		events.Biometrics:    c.Biometrics,
		events.Environmental: c.Environmental,
		events.Digital:       c.Digital,
		events.Emotional:     c.Emotional,
		events.Patterns:      c.Patterns,
		events.Predictions:   c.Predictions,
		events.Memory:        c.Memory,
	}
}

// Bus returns the event bus. Subscribers run inside tick handlers and must
// not block or call back into Ingest.
func (s *Stream) Bus() *events.Bus { return s.bus }

// Store returns the signal store. Only the stream writes to it.
func (s *Stream) Store() *Store { return s.store }

// GetState returns a deep-copied composite snapshot.
func (s *Stream) GetState() State { return s.store.GetState() }

// Now returns the stream clock's current time.
func (s *Stream) Now() time.Time { return s.clock.Now() }

// Location returns the time zone used for hour-of-day logic.
func (s *Stream) Location() *time.Location { return s.loc }

// Scheduler exposes the underlying scheduler for task introspection.
func (s *Stream) Scheduler() *scheduler.Scheduler { return s.sched }

// Start registers every task with a non-zero cadence. Calling it twice is an
// error.
func (s *Stream) Start() error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if s.started {
		return fmt.Errorf("stream already started")
	}

	tasks := []struct {
		name  string
		every time.Duration
		fn    scheduler.Func
	}{
		{events.Biometrics, s.cadence.Biometrics, s.tickBiometrics},
		{events.Environmental, s.cadence.Environmental, s.tickEnvironmental},
		{events.Digital, s.cadence.Digital, s.tickDigital},
		{events.Emotional, s.cadence.Emotional, s.tickEmotional},
		{events.Patterns, s.cadence.Patterns, s.tickPatterns},
		{events.Predictions, s.cadence.Predictions, s.tickPredictions},
		{events.Memory, s.cadence.Memory, s.tickMemory},
	}
	for _, t := range tasks {
		if t.every == 0 {
			s.logger.Debug("task disabled", zap.String("task", t.name))
			continue
		}
		if err := s.sched.Every(t.name, t.every, s.serialized(t.fn)); err != nil {
			return fmt.Errorf("registering %s task: %w", t.name, err)
		}
	}
	s.started = true
	s.logger.Info("stream started", zap.Strings("tasks", s.sched.Tasks()))
	return nil
}

// Run starts the stream if needed and fires tasks until ctx is cancelled or
// Stop is called.
func (s *Stream) Run(ctx context.Context) error {
	if !s.isStarted() {
		if err := s.Start(); err != nil {
			return err
		}
	}
	err := s.sched.Run(ctx)
	s.logger.Info("stream stopped", zap.Int("memories", s.store.MemoryCount()))
	return err
}

// Advance moves a manual clock forward by d, firing every due task at its
// exact time. The stream is started first if needed.
func (s *Stream) Advance(d time.Duration) (int, error) {
	if !s.isStarted() {
		if err := s.Start(); err != nil {
			return 0, err
		}
	}
	return s.sched.Advance(d)
}

// Stop halts every task. The store stays readable.
func (s *Stream) Stop() { s.sched.Stop() }

func (s *Stream) isStarted() bool {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	return s.started
}

func (s *Stream) serialized(fn scheduler.Func) scheduler.Func {
	return func(now time.Time) {
		s.tickMu.Lock()
		defer s.tickMu.Unlock()
		fn(now)
	}
}

// Ingest applies a partial reading to one channel group immediately, holds it
// over generator output for the configured hold, and publishes the slice.
// Unknown kinds and fields fail without touching the store.
func (s *Stream) Ingest(r Reading) error {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	return s.ingest(s.clock.Now(), r)
}

// IngestAfter schedules r to be ingested once after delay. name must be
// unique among scheduled tasks.
func (s *Stream) IngestAfter(name string, delay time.Duration, r Reading) error {
	probe := s.store.Snapshot()
	if err := r.applyTo(&probe); err != nil {
		return err
	}
	return s.sched.After(name, delay, s.serialized(func(now time.Time) {
		if err := s.ingest(now, r); err != nil {
			s.logger.Warn("scheduled ingest failed", zap.String("task", name), zap.Error(err))
		}
	}))
}

func (s *Stream) ingest(now time.Time, r Reading) error {
	snap := s.store.Snapshot()
	if err := r.applyTo(&snap); err != nil {
		return fmt.Errorf("ingesting %s reading: %w", r.Kind, err)
	}

	if s.ingestHold > 0 {
		held := r
		if prev, ok := s.holds[r.Kind]; ok && now.Before(prev.until) {
			held = prev.reading.merge(r)
		}
		s.holds[r.Kind] = hold{reading: held, until: now.Add(s.ingestHold)}
	}

	s.store.update(func(cur *signal.Snapshot) {
		switch r.Kind {
		case KindBiometrics:
			cur.Biometrics = snap.Biometrics
		case KindEnvironmental:
			cur.Environmental = snap.Environmental
		case KindDigital:
			cur.Digital = snap.Digital
		case KindEmotional:
			cur.Emotional = snap.Emotional
		}
	})
	s.publishSlice(now, r.Kind, snap)
	s.logger.Debug("reading ingested", zap.String("kind", string(r.Kind)), zap.Int("fields", len(r.Values)+len(r.Labels)))
	return nil
}

// overlay re-applies an unexpired held reading for kind onto snap.
func (s *Stream) overlay(now time.Time, kind Kind, snap *signal.Snapshot) {
	h, ok := s.holds[kind]
	if !ok {
		return
	}
	if !now.Before(h.until) {
		delete(s.holds, kind)
		return
	}
	if err := h.reading.applyTo(snap); err != nil {
		s.logger.Warn("dropping held reading", zap.String("kind", string(kind)), zap.Error(err))
		delete(s.holds, kind)
	}
}

func (s *Stream) publishSlice(now time.Time, kind Kind, snap signal.Snapshot) {
	switch kind {
	case KindBiometrics:
		s.bus.Biometrics.Publish(now, snap.Biometrics)
	case KindEnvironmental:
		s.bus.Environmental.Publish(now, snap.Environmental)
	case KindDigital:
		s.bus.Digital.Publish(now, snap.Digital)
	case KindEmotional:
		s.bus.Emotional.Publish(now, snap.Emotional)
	}
}

func (s *Stream) tickBiometrics(now time.Time) {
	next := signal.Snapshot{Biometrics: s.gen.Biometrics(now)}
	s.overlay(now, KindBiometrics, &next)
	s.store.update(func(cur *signal.Snapshot) { cur.Biometrics = next.Biometrics })
	s.bus.Biometrics.Publish(now, next.Biometrics)
}

func (s *Stream) tickEnvironmental(now time.Time) {
	prev := s.store.Snapshot()
	next := signal.Snapshot{Environmental: s.gen.Environmental(now, prev.Environmental)}
	s.overlay(now, KindEnvironmental, &next)
	s.store.update(func(cur *signal.Snapshot) { cur.Environmental = next.Environmental })
	s.bus.Environmental.Publish(now, next.Environmental)
}

func (s *Stream) tickDigital(now time.Time) {
	prev := s.store.Snapshot()
	next := signal.Snapshot{Digital: s.gen.Digital(prev.Digital)}
	s.overlay(now, KindDigital, &next)
	s.store.update(func(cur *signal.Snapshot) { cur.Digital = next.Digital })
	s.bus.Digital.Publish(now, next.Digital)
}

func (s *Stream) tickEmotional(now time.Time) {
	prev := s.store.Snapshot()
	next := signal.Snapshot{Emotional: s.gen.Emotional(now, prev)}
	s.overlay(now, KindEmotional, &next)
	s.store.update(func(cur *signal.Snapshot) { cur.Emotional = next.Emotional })
	s.bus.Emotional.Publish(now, next.Emotional)
}

func (s *Stream) tickPatterns(now time.Time) {
	ps := s.detector.Detect(now, s.store.Snapshot())
	s.store.setPatterns(ps)
	s.bus.Patterns.Publish(now, ps)
}

func (s *Stream) tickPredictions(now time.Time) {
	ps := s.predictor.Predict(now, s.store.Snapshot())
	s.store.setPredictions(ps)
	s.bus.Predictions.Publish(now, ps)
}

func (s *Stream) tickMemory(now time.Time) {
	m, ok := s.consolidator.Consolidate(now, s.store.Patterns(), s.store.Snapshot())
	if !ok {
		return
	}
	if old, evicted := s.store.appendMemory(m); evicted {
		s.logger.Debug("memory evicted", zap.Int64("id", old.ID))
	}
	s.bus.Memory.Publish(now, m)
}
