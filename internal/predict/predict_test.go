package predict

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/lifestream/internal/signal"
)

type fixedRand float64

func (f fixedRand) Float64() float64 { return float64(f) }

func TestEnergyForecast_Noon(t *testing.T) {
	want := math.Max(0.2, math.Min(1.0, 0.5+math.Sin(6*math.Pi/12)*0.2))
	got := EnergyForecast(0.5, 12)

	assert.Equal(t, EnergyLevel, got.Type)
	assert.Equal(t, "2 hours", got.Timeframe)
	assert.InDelta(t, want, got.Predicted, 1e-12)
	assert.InDelta(t, 0.7, got.Predicted, 1e-9)
	assert.Len(t, got.OptimalActivities, 3)
}

func TestCircadianEnergy_Clamped(t *testing.T) {
	assert.Equal(t, 0.2, CircadianEnergy(0.1, 0), "floor")
	assert.Equal(t, 1.0, CircadianEnergy(0.95, 12), "ceiling")
}

func TestOptimalActivities(t *testing.T) {
	tests := []struct {
		energy float64
		first  string
	}{
		{0.9, "Deep work"},
		{0.71, "Deep work"},
		{0.7, "Meetings"},
		{0.41, "Meetings"},
		{0.4, "Rest"},
		{0.2, "Rest"},
	}
	for _, tt := range tests {
		got := OptimalActivities(tt.energy)
		if len(got) != 3 || got[0] != tt.first {
			t.Errorf("OptimalActivities(%v) = %v, want first %q", tt.energy, got, tt.first)
		}
	}
}

func TestWellnessTrajectory(t *testing.T) {
	got := WellnessTrajectory(0.3, 0.7, 55)
	assert.Equal(t, 0.95, got.Score)
	assert.Equal(t, "improving", got.Trend)
	assert.Equal(t, "+25%", got.Change)
	assert.Equal(t, []string{"Low stress", "Good energy", "High HRV"}, got.Factors)

	base := WellnessTrajectory(0.6, 0.5, 40)
	assert.Equal(t, 0.7, base.Score)
	assert.Equal(t, "stable", base.Trend)
	assert.Equal(t, "+0%", base.Change)
	assert.Empty(t, base.Factors)

	oneFactor := WellnessTrajectory(0.6, 0.5, 60)
	assert.Equal(t, "stable", oneFactor.Trend, "0.75 is not above the improving threshold")
	assert.Equal(t, "+5%", oneFactor.Change)
}

func TestStressTrend(t *testing.T) {
	rising := StressTrend(0.8)
	assert.True(t, rising.Rising)
	assert.Equal(t, "rising", rising.Trend)
	assert.Equal(t, 0.95, rising.Probability)
	assert.Equal(t, "30 minutes", rising.Timeframe)
	assert.NotEmpty(t, rising.Recommendation)

	calm := StressTrend(0.5)
	assert.False(t, calm.Rising)
	assert.Equal(t, "stable", calm.Trend)
	assert.InDelta(t, 0.7, calm.Probability, 1e-12)
	assert.Empty(t, calm.Recommendation)
}

func TestJSON_KeepsStableMarkerAndEmptyFactors(t *testing.T) {
	tests := []struct {
		name string
		p    Prediction
		want string
	}{
		{"stable stress peak", StressTrend(0.1), `"rising":false`},
		{"no factors", WellnessTrajectory(0.9, 0.1, 30), `"factors":[]`},
		{"no factors after clone", WellnessTrajectory(0.9, 0.1, 30).Clone(), `"factors":[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.p)
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.want)
		})
	}
}

func TestPredict_FourInOrder(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := signal.DefaultSnapshot()
	snap.Digital.FocusScore = 1

	got := New(fixedRand(0.5), time.UTC).Predict(now, snap)
	require.Len(t, got, 4)
	assert.Equal(t, StressPeak, got[0].Type)
	assert.Equal(t, EnergyLevel, got[1].Type)
	assert.Equal(t, FocusWindow, got[2].Type)
	assert.Equal(t, Wellness, got[3].Type)

	fw := got[2]
	require.NotNil(t, fw.Start)
	assert.True(t, fw.Start.Equal(now.Add(15*time.Minute)))
	assert.Equal(t, 60.0, fw.DurationMinutes)
	assert.InDelta(t, 0.85, fw.Quality, 1e-12)
}

func TestFocusWindow_Ranges(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := New(signal.NewRand(11), time.UTC)
	for i := 0; i < 500; i++ {
		fw, ok := Find(p.Predict(now, signal.DefaultSnapshot()), FocusWindow)
		require.True(t, ok)
		if fw.DurationMinutes < 45 || fw.DurationMinutes >= 75 {
			t.Fatalf("duration %v outside [45,75)", fw.DurationMinutes)
		}
		if fw.Quality < 0 || fw.Quality > 1 {
			t.Fatalf("quality %v outside [0,1]", fw.Quality)
		}
	}
}

func TestClone(t *testing.T) {
	p := WellnessTrajectory(0.3, 0.7, 55)
	c := p.Clone()
	c.Factors[0] = "changed"
	assert.Equal(t, "Low stress", p.Factors[0])
}
