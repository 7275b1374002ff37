// Package events provides typed publish/subscribe topics. Each Topic carries a
// single payload type, so subscribers register against a concrete contract
// instead of a string-keyed event name.
package events

import (
	"sort"
	"sync"
	"time"
)

// Envelope is the untyped form of a published event, used by consumers that
// handle every topic uniformly (sinks, the SSE endpoint).
type Envelope struct {
	Name    string    `json:"name"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload"`

	// clone copies Payload for each fan-out subscriber. nil means the
	// payload holds no shared memory.
	clone func(any) any
}

// Topic is a named stream of T values.
type Topic[T any] struct {
	name    string
	mu      sync.RWMutex
	nextID  int
	subs    map[int]func(T)
	forward func(Envelope)
	clone   func(T) T
}

// NewTopic creates an empty topic. forward, if non-nil, receives every
// published value as an Envelope after the typed subscribers ran. clone, if
// non-nil, deep-copies a value; every subscriber then gets its own copy.
func NewTopic[T any](name string, forward func(Envelope), clone func(T) T) *Topic[T] {
	return &Topic[T]{
		name:    name,
		subs:    make(map[int]func(T)),
		forward: forward,
		clone:   clone,
	}
}

// Name returns the topic name.
func (t *Topic[T]) Name() string { return t.name }

// Subscribe registers fn and returns a function that removes it.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs, id)
			t.mu.Unlock()
		})
	}
}

// Publish delivers a copy of v to every subscriber synchronously, in
// subscription order. Subscribers must not block: they run inside the
// publisher's tick.
func (t *Topic[T]) Publish(at time.Time, v T) {
	t.mu.RLock()
	fns := ordered(t.subs)
	t.mu.RUnlock()

	for _, fn := range fns {
		fn(t.copy(v))
	}
	if t.forward == nil {
		return
	}
	e := Envelope{Name: t.name, Time: at, Payload: t.copy(v)}
	if t.clone != nil {
		e.clone = func(p any) any { return t.clone(p.(T)) }
	}
	t.forward(e)
}

func (t *Topic[T]) copy(v T) T {
	if t.clone == nil {
		return v
	}
	return t.clone(v)
}

// ordered returns the subscribers of subs sorted by subscription id.
func ordered[F any](subs map[int]F) []F {
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]F, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, subs[id])
	}
	return fns
}

// Subscribers returns the number of registered subscribers.
func (t *Topic[T]) Subscribers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Fanout distributes Envelopes from every topic to untyped subscribers.
type Fanout struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Envelope)
}

// NewFanout creates an empty Fanout.
func NewFanout() *Fanout {
	return &Fanout{subs: make(map[int]func(Envelope))}
}

// Subscribe registers fn for every envelope and returns a function that
// removes it.
func (f *Fanout) Subscribe(fn func(Envelope)) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish delivers e to every subscriber, in subscription order. Envelopes
// forwarded by a Topic with a clone function carry a fresh payload copy to
// each subscriber.
func (f *Fanout) Publish(e Envelope) {
	f.mu.RLock()
	fns := ordered(f.subs)
	f.mu.RUnlock()

	for _, fn := range fns {
		out := e
		if e.clone != nil {
			out.Payload = e.clone(e.Payload)
		}
		fn(out)
	}
}
