package demo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/lifestream/internal/clock"
	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/signal"
	"github.com/blackwell-systems/lifestream/internal/stream"
)

func newStream(t *testing.T, at time.Time) *stream.Stream {
	t.Helper()
	s, err := stream.New(stream.Options{
		Clock:      clock.NewManual(at),
		Rand:       signal.NewRand(3),
		Location:   time.UTC,
		IngestHold: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s
}

func TestEveryScenarioIsValid(t *testing.T) {
	for _, name := range Names() {
		sc, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, sc.Name)
		assert.NotEmpty(t, sc.Steps, name)

		s := newStream(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
		assert.NoError(t, Play(s, sc), name)
	}
}

func TestNames_IncludesCoreScenarios(t *testing.T) {
	names := Names()
	for _, want := range []string{"first_encounter", "morning_routine", "work_stress", "creative_hour"} {
		assert.Contains(t, names, want)
	}
	assert.IsIncreasing(t, names)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownScenario)
}

func TestCreativeHour_TriggersFlowAndCreativePeak(t *testing.T) {
	s := newStream(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	sc, err := Lookup("creative_hour")
	require.NoError(t, err)
	require.NoError(t, Play(s, sc))

	_, err = s.Advance(2 * time.Second)
	require.NoError(t, err)

	got := s.Store().Patterns()
	assert.True(t, pattern.Has(got, pattern.FlowState), "patterns: %+v", got)
	assert.True(t, pattern.Has(got, pattern.CreativePeak), "patterns: %+v", got)
	assert.False(t, pattern.Has(got, pattern.StressDetected))
}

func TestWorkStress_DetectsThenRecovers(t *testing.T) {
	s := newStream(t, time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC))
	sc, err := Lookup("work_stress")
	require.NoError(t, err)
	require.NoError(t, Play(s, sc))

	_, err = s.Advance(2 * time.Second)
	require.NoError(t, err)
	assert.True(t, pattern.Has(s.Store().Patterns(), pattern.StressDetected))
	assert.Equal(t, 95, s.GetState().Biometrics.HeartRate)

	_, err = s.Advance(sc.Duration())
	require.NoError(t, err)
	assert.Equal(t, 78, s.GetState().Biometrics.HeartRate)
	assert.False(t, pattern.Has(s.Store().Patterns(), pattern.StressDetected))
}

func TestPlay_RejectedStepCancelsEarlierOnes(t *testing.T) {
	s := newStream(t, time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC))
	sc := Scenario{
		Name: "broken",
		Steps: []Step{
			{time.Second, stream.Reading{Kind: stream.KindBiometrics, Values: map[string]float64{"heartRate": 120}}},
			{time.Second, stream.Reading{Kind: stream.KindBiometrics, Values: map[string]float64{"pulse": 1}}},
		},
	}
	require.Error(t, Play(s, sc))
	assert.NotContains(t, s.Scheduler().Tasks(), "demo/broken/0")
}

func TestDuration(t *testing.T) {
	sc, err := Lookup("first_encounter")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, sc.Duration())
}
