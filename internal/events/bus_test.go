package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/signal"
)

var at = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestTopic_DeliversInSubscriptionOrder(t *testing.T) {
	topic := NewTopic[int]("n", nil, nil)
	var got []string
	for _, name := range []string{"a", "b", "c"} {
		topic.Subscribe(func(v int) { got = append(got, name) })
	}
	topic.Publish(at, 1)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestTopic_Unsubscribe(t *testing.T) {
	topic := NewTopic[int]("n", nil, nil)
	calls := 0
	unsub := topic.Subscribe(func(int) { calls++ })
	topic.Publish(at, 1)
	unsub()
	unsub()
	topic.Publish(at, 2)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, topic.Subscribers())
}

func TestTopic_ForwardsEnvelope(t *testing.T) {
	var env Envelope
	topic := NewTopic[string]("greeting", func(e Envelope) { env = e }, nil)
	topic.Publish(at, "hi")

	assert.Equal(t, "greeting", env.Name)
	assert.True(t, env.Time.Equal(at))
	assert.Equal(t, "hi", env.Payload)
}

func TestBus_FanoutSeesEveryTopic(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	var names []string
	b.SubscribeAll(func(e Envelope) {
		mu.Lock()
		names = append(names, e.Name)
		mu.Unlock()
	})

	var typed signal.Biometrics
	b.Biometrics.Subscribe(func(v signal.Biometrics) { typed = v })

	b.Biometrics.Publish(at, signal.Biometrics{HeartRate: 88})
	b.Patterns.Publish(at, []pattern.Pattern{})

	require.Equal(t, []string{Biometrics, Patterns}, names)
	assert.Equal(t, 88, typed.HeartRate)
}

func TestTopic_SubscribersGetOwnCopies(t *testing.T) {
	topic := NewTopic("list", nil, func(v []int) []int { return append([]int(nil), v...) })
	var second []int
	topic.Subscribe(func(v []int) { v[0] = -1 })
	topic.Subscribe(func(v []int) { second = v })

	orig := []int{1, 2}
	topic.Publish(at, orig)

	assert.Equal(t, []int{1, 2}, second)
	assert.Equal(t, []int{1, 2}, orig)
}

func TestBus_MutatingSubscriberDoesNotLeak(t *testing.T) {
	b := NewBus()
	b.Digital.Subscribe(func(d signal.Digital) { d.AppUsage["tampered"] = 1 })
	b.SubscribeAll(func(e Envelope) {
		if d, ok := e.Payload.(signal.Digital); ok {
			d.AppUsage["tampered"] = 2
		}
	})
	var seen []map[string]float64
	b.SubscribeAll(func(e Envelope) {
		if d, ok := e.Payload.(signal.Digital); ok {
			seen = append(seen, d.AppUsage)
		}
	})
	b.Patterns.Subscribe(func(ps []pattern.Pattern) { ps[0].Confidence = 0 })
	var patterns []pattern.Pattern
	b.Patterns.Subscribe(func(ps []pattern.Pattern) { patterns = ps })

	usage := map[string]float64{"terminal": 0.5}
	b.Digital.Publish(at, signal.Digital{AppUsage: usage})
	b.Patterns.Publish(at, []pattern.Pattern{{Type: pattern.FlowState, Confidence: 0.92}})

	require.Len(t, seen, 1)
	assert.Equal(t, map[string]float64{"terminal": 0.5}, seen[0])
	assert.Equal(t, map[string]float64{"terminal": 0.5}, usage)
	require.Len(t, patterns, 1)
	assert.Equal(t, 0.92, patterns[0].Confidence)
}

func TestFanout_DeliversInSubscriptionOrder(t *testing.T) {
	f := NewFanout()
	var got []int
	for i := range 20 {
		f.Subscribe(func(Envelope) { got = append(got, i) })
	}
	f.Publish(Envelope{Name: "n", Time: at})

	want := make([]int, 20)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, got)
}

func TestKnown(t *testing.T) {
	for _, n := range Names {
		assert.True(t, Known(n), n)
	}
	assert.False(t, Known("heartbeat"))
}
