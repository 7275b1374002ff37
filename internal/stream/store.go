package stream

import (
	"sync"

	"github.com/blackwell-systems/lifestream/internal/memory"
	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/predict"
	"github.com/blackwell-systems/lifestream/internal/signal"
)

// State is a point-in-time, deep-copied view of the whole store.
type State struct {
	signal.Snapshot
	Patterns    []pattern.Pattern    `json:"patterns"`
	Predictions []predict.Prediction `json:"predictions"`
	Memories    []memory.Memory      `json:"memories"`
}

// Store holds the four channel groups and the pattern, prediction and memory
// lists. Writes come only from the stream's tick handlers; readers on any
// goroutine get copies.
type Store struct {
	mu          sync.RWMutex
	snap        signal.Snapshot
	patterns    []pattern.Pattern
	predictions []predict.Prediction
	memories    *memory.Log
}

// NewStore creates a store at the default snapshot with an empty memory log
// of the given capacity.
func NewStore(capacity int) *Store {
	return &Store{
		snap:        signal.DefaultSnapshot(),
		patterns:    []pattern.Pattern{},
		predictions: []predict.Prediction{},
		memories:    memory.NewLog(capacity),
	}
}

// GetState returns a deep copy of everything in the store.
func (s *Store) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Snapshot:    s.snap.Clone(),
		Patterns:    copyPatterns(s.patterns),
		Predictions: copyPredictions(s.predictions),
		Memories:    s.memories.All(),
	}
}

// Snapshot returns a deep copy of the four channel groups.
func (s *Store) Snapshot() signal.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Patterns returns a copy of the current pattern list.
func (s *Store) Patterns() []pattern.Pattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPatterns(s.patterns)
}

// Predictions returns a copy of the current prediction list.
func (s *Store) Predictions() []predict.Prediction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyPredictions(s.predictions)
}

// Memories returns up to n of the newest memories, oldest first. n <= 0
// returns all.
func (s *Store) Memories(n int) []memory.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memories.Last(n)
}

// MemoryCount returns the current memory log length.
func (s *Store) MemoryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memories.Len()
}

func (s *Store) update(fn func(snap *signal.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
}

func (s *Store) setPatterns(ps []pattern.Pattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns = copyPatterns(ps)
}

func (s *Store) setPredictions(ps []predict.Prediction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predictions = copyPredictions(ps)
}

func (s *Store) appendMemory(m memory.Memory) (evicted memory.Memory, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memories.Append(m)
}

func copyPatterns(ps []pattern.Pattern) []pattern.Pattern {
	out := make([]pattern.Pattern, len(ps))
	copy(out, ps)
	return out
}

func copyPredictions(ps []predict.Prediction) []predict.Prediction {
	out := make([]predict.Prediction, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}
