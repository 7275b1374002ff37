// Package scheduler runs independently-timed periodic and one-shot tasks on a
// single logical thread. Each task runs to completion before the next one
// starts, so task handlers never need to lock state they exclusively own.
//
// Under a real clock, Run sleeps until the next due task. Under a
// clock.Manual, Advance fires every task due in the advanced window in
// chronological order, which lets tests replay exact cadences without sleeping.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/blackwell-systems/lifestream/internal/clock"
	"go.uber.org/zap"
)

var (
	// ErrStopped is returned when registering tasks on a stopped scheduler.
	ErrStopped = errors.New("scheduler stopped")

	// ErrDuplicateTask is returned when a task name is already registered.
	ErrDuplicateTask = errors.New("duplicate task name")

	// ErrNotManual is returned by Advance when the scheduler runs on a real clock.
	ErrNotManual = errors.New("advance requires a manual clock")
)

// Func is a task body. now is the time the task was scheduled to fire.
type Func func(now time.Time)

type task struct {
	name     string
	interval time.Duration // zero for one-shot tasks
	next     time.Time
	seq      int
	fn       Func
	fired    int
}

// Scheduler owns a set of named tasks.
type Scheduler struct {
	clock  clock.Clock
	logger *zap.Logger

	mu      sync.Mutex
	tasks   map[string]*task
	seq     int
	stopped bool
	wake    chan struct{}

	// runMu serializes task execution between Run and Advance.
	runMu sync.Mutex
}

// New creates a Scheduler reading time from c.
func New(c clock.Clock, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		clock:  c,
		logger: logger,
		tasks:  make(map[string]*task),
		wake:   make(chan struct{}, 1),
	}
}

// Every registers a repeating task. The first firing happens one interval
// after registration.
func (s *Scheduler) Every(name string, interval time.Duration, fn Func) error {
	if interval <= 0 {
		return fmt.Errorf("task %q: interval must be positive, got %s", name, interval)
	}
	return s.add(name, interval, interval, fn)
}

// After registers a one-shot task that fires once after delay and is then
// removed.
func (s *Scheduler) After(name string, delay time.Duration, fn Func) error {
	if delay < 0 {
		return fmt.Errorf("task %q: delay must not be negative, got %s", name, delay)
	}
	return s.add(name, 0, delay, fn)
}

func (s *Scheduler) add(name string, interval, first time.Duration, fn Func) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if _, exists := s.tasks[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, name)
	}

	s.seq++
	s.tasks[name] = &task{
		name:     name,
		interval: interval,
		next:     s.clock.Now().Add(first),
		seq:      s.seq,
		fn:       fn,
	}
	s.signal()
	return nil
}

// Cancel removes a task. It reports whether the task existed.
func (s *Scheduler) Cancel(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[name]; !ok {
		return false
	}
	delete(s.tasks, name)
	s.signal()
	return true
}

// Stop cancels every task. A stopped scheduler accepts no new tasks and Run
// returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	s.tasks = make(map[string]*task)
	s.signal()
}

// Stopped reports whether Stop has been called.
func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Tasks returns the names of the registered tasks, sorted.
func (s *Scheduler) Tasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks))
	for name := range s.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fired returns how many times the named task has fired. Cancelled and
// completed one-shot tasks report zero.
func (s *Scheduler) Fired(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[name]; ok {
		return t.fired
	}
	return 0
}

// signal wakes Run after the task set changed. Caller holds s.mu.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// popDue removes the earliest task due at or before limit from the schedule,
// re-arms it if periodic, and returns it with its scheduled fire time. Ties
// resolve in registration order. When skipMissed is set, a periodic task that
// fell behind limit is re-armed one interval past limit instead of replaying
// every missed tick.
func (s *Scheduler) popDue(limit time.Time, skipMissed bool) (*task, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due *task
	for _, t := range s.tasks {
		if t.next.After(limit) {
			continue
		}
		if due == nil || t.next.Before(due.next) || (t.next.Equal(due.next) && t.seq < due.seq) {
			due = t
		}
	}
	if due == nil {
		return nil, time.Time{}, false
	}

	firedAt := due.next
	due.fired++
	if due.interval == 0 {
		delete(s.tasks, due.name)
	} else {
		due.next = due.next.Add(due.interval)
		if skipMissed && !due.next.After(limit) {
			due.next = limit.Add(due.interval)
		}
	}
	return due, firedAt, true
}

// nextDue returns the earliest scheduled fire time.
func (s *Scheduler) nextDue() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next time.Time
	found := false
	for _, t := range s.tasks {
		if !found || t.next.Before(next) {
			next = t.next
			found = true
		}
	}
	return next, found
}

// Advance moves a manual clock forward by d, firing every task that comes due
// on the way at its exact scheduled time. It returns the number of firings.
func (s *Scheduler) Advance(d time.Duration) (int, error) {
	m, ok := s.clock.(*clock.Manual)
	if !ok {
		return 0, ErrNotManual
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	target := m.Now().Add(d)
	fired := 0
	for {
		t, at, ok := s.popDue(target, false)
		if !ok {
			break
		}
		m.Set(at)
		t.fn(at)
		fired++
	}
	m.Set(target)
	return fired, nil
}

// Run fires tasks as they come due until ctx is cancelled or Stop is called.
// Ticks missed because a handler overran are dropped, as with time.Ticker.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Debug("scheduler started", zap.Strings("tasks", s.Tasks()))

	for {
		if s.Stopped() {
			return nil
		}

		var timerC <-chan time.Time
		var timer *time.Timer
		if next, ok := s.nextDue(); ok {
			wait := next.Sub(s.clock.Now())
			if wait < 0 {
				wait = 0
			}
			timer = time.NewTimer(wait)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			s.Stop()
			return ctx.Err()
		case <-s.wake:
			if timer != nil {
				timer.Stop()
			}
		case <-timerC:
			s.fireDue(s.clock.Now())
		}
	}
}

func (s *Scheduler) fireDue(now time.Time) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	for {
		t, at, ok := s.popDue(now, true)
		if !ok {
			return
		}
		t.fn(at)
	}
}
