package events

import (
	"github.com/blackwell-systems/lifestream/internal/memory"
	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/predict"
	"github.com/blackwell-systems/lifestream/internal/signal"
)

// Event names, one per topic.
const (
	Biometrics    = "biometrics"
	Environmental = "environmental"
	Digital       = "digital"
	Emotional     = "emotional"
	Patterns      = "patterns"
	Predictions   = "predictions"
	Memory        = "memory"
)

// Names lists every event name in publication-cadence order.
var Names = []string{Biometrics, Environmental, Digital, Emotional, Patterns, Predictions, Memory}

// Bus owns one typed topic per event plus a fan-out of every envelope.
type Bus struct {
	Biometrics    *Topic[signal.Biometrics]
	Environmental *Topic[signal.Environmental]
	Digital       *Topic[signal.Digital]
	Emotional     *Topic[signal.Emotional]
	Patterns      *Topic[[]pattern.Pattern]
	Predictions   *Topic[[]predict.Prediction]
	Memory        *Topic[memory.Memory]

	all *Fanout
}

// NewBus creates a bus with every topic forwarding to the fan-out.
func NewBus() *Bus {
	all := NewFanout()
	return &Bus{
		Biometrics:    NewTopic[signal.Biometrics](Biometrics, all.Publish, nil),
		Environmental: NewTopic[signal.Environmental](Environmental, all.Publish, nil),
		Digital:       NewTopic(Digital, all.Publish, signal.Digital.Clone),
		Emotional:     NewTopic[signal.Emotional](Emotional, all.Publish, nil),
		Patterns:      NewTopic(Patterns, all.Publish, clonePatterns),
		Predictions:   NewTopic(Predictions, all.Publish, clonePredictions),
		Memory:        NewTopic(Memory, all.Publish, memory.Memory.Clone),
		all:           all,
	}
}

// SubscribeAll registers fn for every event on every topic.
func (b *Bus) SubscribeAll(fn func(Envelope)) (unsubscribe func()) {
	return b.all.Subscribe(fn)
}

func clonePatterns(ps []pattern.Pattern) []pattern.Pattern {
	out := make([]pattern.Pattern, len(ps))
	copy(out, ps)
	return out
}

func clonePredictions(ps []predict.Prediction) []predict.Prediction {
	out := make([]predict.Prediction, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

// Known reports whether name is an event name.
func Known(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}
