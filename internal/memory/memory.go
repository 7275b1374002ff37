// Package memory consolidates pattern-bearing moments into a bounded,
// first-in-first-out history log.
package memory

import (
	"time"

	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/signal"
)

// DefaultCapacity is the log size used when none is configured.
const DefaultCapacity = 100

// Memory is one consolidated moment.
type Memory struct {
	ID           int64             `json:"id"`
	Timestamp    time.Time         `json:"timestamp"`
	Patterns     []pattern.Pattern `json:"patterns"`
	Biometrics   signal.Biometrics `json:"biometrics"`
	Emotional    signal.Emotional  `json:"emotional"`
	Significance float64           `json:"significance"`
}

// Clone returns a copy that shares no slices with m.
func (m Memory) Clone() Memory {
	out := m
	out.Patterns = append([]pattern.Pattern(nil), m.Patterns...)
	return out
}

// Significance scores a moment: 0.5 base, +0.3 when flow_state is present,
// +0.2 when stress is extreme (above 0.7 or below 0.2), capped at 1.
func Significance(patterns []pattern.Pattern, stress float64) float64 {
	s := 0.5
	if pattern.Has(patterns, pattern.FlowState) {
		s += 0.3
	}
	if stress > 0.7 || stress < 0.2 {
		s += 0.2
	}
	return min(1, s)
}

// IDSource issues unique, time-ordered memory ids.
type IDSource interface {
	New() int64
}

// Consolidator turns the current patterns and snapshot into a Memory.
type Consolidator struct {
	ids IDSource
}

// NewConsolidator creates a consolidator drawing ids from ids.
func NewConsolidator(ids IDSource) *Consolidator {
	return &Consolidator{ids: ids}
}

// Consolidate builds a memory from patterns and snap. It returns false, and
// no id is consumed, when patterns is empty.
func (c *Consolidator) Consolidate(now time.Time, patterns []pattern.Pattern, snap signal.Snapshot) (Memory, bool) {
	if len(patterns) == 0 {
		return Memory{}, false
	}
	return Memory{
		ID:           c.ids.New(),
		Timestamp:    now,
		Patterns:     append([]pattern.Pattern(nil), patterns...),
		Biometrics:   snap.Biometrics,
		Emotional:    snap.Emotional,
		Significance: Significance(patterns, snap.Emotional.Stress),
	}, true
}
