package stream

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/lifestream/internal/clock"
	"github.com/blackwell-systems/lifestream/internal/events"
	"github.com/blackwell-systems/lifestream/internal/memory"
	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/predict"
	"github.com/blackwell-systems/lifestream/internal/signal"
)

var start = time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

type seqIDs struct{ n int64 }

func (s *seqIDs) New() int64 {
	s.n++
	return s.n
}

func newTestStream(t *testing.T, mutate func(*Options)) (*Stream, *clock.Manual) {
	t.Helper()
	mc := clock.NewManual(start)
	opts := Options{
		Clock:    mc,
		Rand:     signal.NewRand(1),
		Location: time.UTC,
		IDs:      &seqIDs{},
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s, mc
}

// neverMatch makes every built-in rule unreachable.
func neverMatch() *pattern.Thresholds {
	th := pattern.DefaultThresholds
	th.StressHeartRate = 1000
	th.FlowFocus = 2
	th.FatigueEnergy = -1
	th.CreativeAlpha = 2
	return &th
}

func TestGetState_StableWithoutTicks(t *testing.T) {
	s, _ := newTestStream(t, nil)
	_, err := s.Advance(3 * time.Second)
	require.NoError(t, err)

	a := s.GetState()
	b := s.GetState()
	assert.Equal(t, a, b)
}

func TestGetState_IsACopy(t *testing.T) {
	s, _ := newTestStream(t, nil)
	st := s.GetState()
	st.Digital.AppUsage["editor"] = 99
	st.Patterns = append(st.Patterns, pattern.Pattern{Type: pattern.Fatigue})

	again := s.GetState()
	assert.NotContains(t, again.Digital.AppUsage, "editor")
	assert.Empty(t, again.Patterns)
}

func TestTick_ChangesOnlyItsSlice(t *testing.T) {
	tests := []struct {
		name  string
		tick  func(s *Stream, now time.Time)
		check func(t *testing.T, before, after State)
	}{
		{"biometrics", (*Stream).tickBiometrics, func(t *testing.T, before, after State) {
			assert.Equal(t, before.Environmental, after.Environmental)
			assert.Equal(t, before.Digital, after.Digital)
			assert.Equal(t, before.Emotional, after.Emotional)
		}},
		{"environmental", (*Stream).tickEnvironmental, func(t *testing.T, before, after State) {
			assert.Equal(t, before.Biometrics, after.Biometrics)
			assert.Equal(t, before.Digital, after.Digital)
			assert.Equal(t, before.Emotional, after.Emotional)
			assert.NotEqual(t, before.Environmental, after.Environmental)
		}},
		{"digital", (*Stream).tickDigital, func(t *testing.T, before, after State) {
			assert.Equal(t, before.Biometrics, after.Biometrics)
			assert.Equal(t, before.Environmental, after.Environmental)
			assert.Equal(t, before.Emotional, after.Emotional)
			assert.Equal(t, before.Digital.ScreenTime+0.5, after.Digital.ScreenTime)
		}},
		{"emotional", (*Stream).tickEmotional, func(t *testing.T, before, after State) {
			assert.Equal(t, before.Biometrics, after.Biometrics)
			assert.Equal(t, before.Environmental, after.Environmental)
			assert.Equal(t, before.Digital, after.Digital)
		}},
		{"predictions", (*Stream).tickPredictions, func(t *testing.T, before, after State) {
			assert.Equal(t, before.Snapshot, after.Snapshot)
			assert.Equal(t, before.Patterns, after.Patterns)
			assert.Len(t, after.Predictions, 4)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStream(t, nil)
			before := s.GetState()
			tt.tick(s, start.Add(time.Second))
			tt.check(t, before, s.GetState())
		})
	}
}

func TestAdvance_CadenceCounts(t *testing.T) {
	s, _ := newTestStream(t, nil)
	counts := map[string]int{}
	s.Bus().SubscribeAll(func(e events.Envelope) { counts[e.Name]++ })

	_, err := s.Advance(10 * time.Second)
	require.NoError(t, err)

	assert.Equal(t, 625, counts["biometrics"])
	assert.Equal(t, 10, counts["environmental"])
	assert.Equal(t, 20, counts["digital"])
	assert.Equal(t, 10, counts["emotional"])
	assert.Equal(t, 2, counts["patterns"])
	assert.Equal(t, 1, counts["predictions"])
	assert.Zero(t, counts["memory"])
}

func TestAdvance_BoundedFieldsStayInRange(t *testing.T) {
	s, _ := newTestStream(t, func(o *Options) { o.Rand = signal.NewRand(99) })
	checked := 0
	s.Bus().Emotional.Subscribe(func(signal.Emotional) {
		checked++
		if bad := signal.OutOfRange(s.Store().Snapshot()); len(bad) > 0 {
			t.Fatalf("out of range after %d emotional ticks: %v", checked, bad)
		}
	})
	_, err := s.Advance(3 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 180, checked)
}

func TestMemory_NoPatternsNoEntry(t *testing.T) {
	s, _ := newTestStream(t, func(o *Options) { o.Thresholds = neverMatch() })
	published := 0
	s.Bus().Memory.Subscribe(func(memory.Memory) { published++ })

	_, err := s.Advance(2 * time.Minute)
	require.NoError(t, err)

	assert.Zero(t, published)
	assert.Empty(t, s.GetState().Memories)
}

func TestMemory_ConsolidatesHeldFlow(t *testing.T) {
	s, _ := newTestStream(t, func(o *Options) { o.IngestHold = time.Hour })
	var got []memory.Memory
	s.Bus().Memory.Subscribe(func(m memory.Memory) { got = append(got, m) })

	require.NoError(t, s.Ingest(Reading{Kind: KindDigital, Values: map[string]float64{"focusScore": 0.95}}))
	require.NoError(t, s.Ingest(Reading{Kind: KindEmotional, Values: map[string]float64{"stress": 0.1}}))

	_, err := s.Advance(30 * time.Second)
	require.NoError(t, err)

	require.Len(t, got, 1)
	m := got[0]
	assert.True(t, pattern.Has(m.Patterns, pattern.FlowState))
	assert.Equal(t, 1.0, m.Significance)
	assert.True(t, m.Timestamp.Equal(start.Add(30*time.Second)))
	assert.Equal(t, int64(1), m.ID)
	assert.Len(t, s.GetState().Memories, 1)
}

func TestMemory_CapacityBound(t *testing.T) {
	s, _ := newTestStream(t, func(o *Options) {
		o.IngestHold = 24 * time.Hour
		o.MemoryCapacity = 3
		o.Cadence = &Cadence{Digital: time.Second, Emotional: time.Second, Patterns: time.Second, Memory: time.Second}
	})
	require.NoError(t, s.Ingest(Reading{Kind: KindDigital, Values: map[string]float64{"focusScore": 0.95}}))
	require.NoError(t, s.Ingest(Reading{Kind: KindEmotional, Values: map[string]float64{"stress": 0.1}}))

	_, err := s.Advance(10 * time.Second)
	require.NoError(t, err)

	mems := s.GetState().Memories
	require.Len(t, mems, 3)
	assert.Equal(t, []int64{8, 9, 10}, []int64{mems[0].ID, mems[1].ID, mems[2].ID})
}

func TestPatternsReplacedEachTick(t *testing.T) {
	s, _ := newTestStream(t, func(o *Options) { o.IngestHold = 7 * time.Second })
	require.NoError(t, s.Ingest(Reading{Kind: KindBiometrics, Values: map[string]float64{
		"heartRate":            95,
		"heartRateVariability": 30,
	}}))

	_, err := s.Advance(5 * time.Second)
	require.NoError(t, err)
	assert.True(t, pattern.Has(s.GetState().Patterns, pattern.StressDetected))

	_, err = s.Advance(5 * time.Second)
	require.NoError(t, err)
	assert.False(t, pattern.Has(s.GetState().Patterns, pattern.StressDetected), "expired reading must not leave a stale pattern")
}

func TestIngest_Errors(t *testing.T) {
	s, _ := newTestStream(t, nil)
	before := s.GetState()

	err := s.Ingest(Reading{Kind: "sleep", Values: map[string]float64{"depth": 1}})
	assert.True(t, errors.Is(err, ErrUnknownKind), "got %v", err)

	err = s.Ingest(Reading{Kind: KindBiometrics, Values: map[string]float64{"heartRate": 120, "pulse": 1}})
	assert.True(t, errors.Is(err, signal.ErrUnknownField), "got %v", err)

	err = s.Ingest(Reading{Kind: KindDigital, Labels: map[string]string{"app": "x"}})
	assert.True(t, errors.Is(err, signal.ErrUnknownField), "got %v", err)

	assert.Equal(t, before, s.GetState())
}

func TestIngest_PublishesAndHolds(t *testing.T) {
	s, _ := newTestStream(t, func(o *Options) { o.IngestHold = 2 * time.Second })
	var seen []int
	s.Bus().Biometrics.Subscribe(func(b signal.Biometrics) { seen = append(seen, b.HeartRate) })

	require.NoError(t, s.Ingest(Reading{Kind: KindBiometrics, Values: map[string]float64{"heartRate": 150}}))
	require.Equal(t, []int{150}, seen)
	assert.Equal(t, 150, s.GetState().Biometrics.HeartRate)

	_, err := s.Advance(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 150, s.GetState().Biometrics.HeartRate, "held reading should survive generator ticks")

	_, err = s.Advance(2 * time.Second)
	require.NoError(t, err)
	hr := s.GetState().Biometrics.HeartRate
	assert.True(t, hr >= 66 && hr <= 78, "heart rate %d should return to the waveform", hr)
}

func TestIngest_WithoutHoldIsOverwritten(t *testing.T) {
	s, _ := newTestStream(t, nil)
	require.NoError(t, s.Ingest(Reading{Kind: KindBiometrics, Values: map[string]float64{"heartRate": 150}}))
	_, err := s.Advance(20 * time.Millisecond)
	require.NoError(t, err)
	assert.NotEqual(t, 150, s.GetState().Biometrics.HeartRate)
}

func TestIngestAfter(t *testing.T) {
	s, _ := newTestStream(t, func(o *Options) {
		o.Cadence = &Cadence{}
	})
	require.NoError(t, s.IngestAfter("weather", 3*time.Second, Reading{
		Kind:   KindEnvironmental,
		Labels: map[string]string{"weather": "rain"},
	}))

	_, err := s.Advance(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, "partly_cloudy", s.GetState().Environmental.Weather)

	_, err = s.Advance(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "rain", s.GetState().Environmental.Weather)

	err = s.IngestAfter("bad", time.Second, Reading{Kind: KindEnvironmental, Values: map[string]float64{"fog": 1}})
	assert.True(t, errors.Is(err, signal.ErrUnknownField))
}

func TestEmotionalDisabledStaysStatic(t *testing.T) {
	cad := DefaultCadence
	cad.Emotional = 0
	s, _ := newTestStream(t, func(o *Options) { o.Cadence = &cad })

	_, err := s.Advance(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, signal.DefaultEmotional(), s.GetState().Emotional)
	assert.NotContains(t, s.Scheduler().Tasks(), "emotional")
}

func TestStop(t *testing.T) {
	s, _ := newTestStream(t, nil)
	require.NoError(t, s.Start())
	assert.Error(t, s.Start())

	s.Stop()
	n, err := s.Advance(time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, s.Scheduler().Tasks())
}

func TestNew_RejectsNegativeCadence(t *testing.T) {
	_, err := New(Options{Cadence: &Cadence{Patterns: -time.Second}})
	assert.Error(t, err)
	_, err = New(Options{IngestHold: -time.Second})
	assert.Error(t, err)
}

func TestPredictionsPublishedAsCopies(t *testing.T) {
	s, _ := newTestStream(t, nil)
	s.Bus().Predictions.Subscribe(func(ps []predict.Prediction) {
		ps[3].Factors = append(ps[3].Factors[:0], "tampered")
	})
	_, err := s.Advance(10 * time.Second)
	require.NoError(t, err)

	w, ok := predict.Find(s.GetState().Predictions, predict.Wellness)
	require.True(t, ok)
	assert.NotContains(t, w.Factors, "tampered")
}

func TestPublish_SubscriberCannotMutateOthers(t *testing.T) {
	s, _ := newTestStream(t, nil)
	s.Bus().Digital.Subscribe(func(d signal.Digital) { d.AppUsage["tampered"] = 1 })
	var usage []map[string]float64
	s.Bus().SubscribeAll(func(e events.Envelope) {
		if d, ok := e.Payload.(signal.Digital); ok {
			usage = append(usage, d.AppUsage)
		}
	})

	_, err := s.Advance(time.Second)
	require.NoError(t, err)

	require.NotEmpty(t, usage)
	for _, u := range usage {
		assert.NotContains(t, u, "tampered")
	}
	assert.NotContains(t, s.GetState().Digital.AppUsage, "tampered")
}
