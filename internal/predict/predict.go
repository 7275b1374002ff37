// Package predict derives short-horizon forecasts from the current snapshot.
package predict

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/blackwell-systems/lifestream/internal/signal"
)

// Type names a forecast kind.
type Type string

// Forecast kinds, in the order Predict emits them.
const (
	StressPeak  Type = "stress_peak"
	EnergyLevel Type = "energy_level"
	FocusWindow Type = "focus_window"
	Wellness    Type = "wellness"
)

// Prediction is one forecast. Only the fields relevant to Type are set.
type Prediction struct {
	Type      Type   `json:"type"`
	Timeframe string `json:"timeframe,omitempty"`

	// stress_peak
	Rising         bool    `json:"rising"`
	Probability    float64 `json:"probability,omitempty"`
	Recommendation string  `json:"recommendation,omitempty"`

	// energy_level
	Predicted         float64  `json:"predicted,omitempty"`
	OptimalActivities []string `json:"optimalActivities,omitempty"`

	// focus_window
	Start           *time.Time `json:"start,omitempty"`
	DurationMinutes float64    `json:"durationMinutes,omitempty"`
	Quality         float64    `json:"quality,omitempty"`

	// stress_peak and wellness
	Trend string `json:"trend,omitempty"`

	// wellness
	Score   float64  `json:"score,omitempty"`
	Change  string   `json:"change,omitempty"`
	Factors []string `json:"factors"`
}

// Clone returns a copy that shares no slices with p.
func (p Prediction) Clone() Prediction {
	out := p
	out.OptimalActivities = slices.Clone(p.OptimalActivities)
	out.Factors = slices.Clone(p.Factors)
	if p.Start != nil {
		s := *p.Start
		out.Start = &s
	}
	return out
}

// Find returns the first prediction of type t.
func Find(ps []Prediction, t Type) (Prediction, bool) {
	for _, p := range ps {
		if p.Type == t {
			return p, true
		}
	}
	return Prediction{}, false
}

// Predictor computes the four forecasts.
type Predictor struct {
	rand signal.Rand
	loc  *time.Location
}

// New creates a predictor. loc sets the hour used by the circadian term;
// nil means time.Local.
func New(r signal.Rand, loc *time.Location) *Predictor {
	if loc == nil {
		loc = time.Local
	}
	return &Predictor{rand: r, loc: loc}
}

// Predict returns exactly four predictions: stress_peak, energy_level,
// focus_window, wellness.
func (p *Predictor) Predict(now time.Time, snap signal.Snapshot) []Prediction {
	hour := now.In(p.loc).Hour()
	return []Prediction{
		StressTrend(snap.Emotional.Stress),
		EnergyForecast(snap.Emotional.Energy, hour),
		p.focusWindow(now, snap.Digital.FocusScore),
		WellnessTrajectory(snap.Emotional.Stress, snap.Emotional.Energy, snap.Biometrics.HeartRateVariability),
	}
}

// StressTrend reports a rising stress peak when stress exceeds 0.5. A
// non-rising result is still emitted as a stable marker with no
// recommendation.
func StressTrend(stress float64) Prediction {
	rising := stress > 0.5
	pr := Prediction{
		Type:        StressPeak,
		Rising:      rising,
		Probability: math.Min(0.95, stress+0.2),
		Trend:       "stable",
		Timeframe:   "none",
	}
	if rising {
		pr.Trend = "rising"
		pr.Timeframe = "30 minutes"
		pr.Recommendation = "Consider a brief meditation or walk"
	}
	return pr
}

// CircadianEnergy is energy nudged by a sinusoid peaking at noon, clamped to
// [0.2, 1].
func CircadianEnergy(energy float64, hour int) float64 {
	circadian := math.Sin(float64(hour-6) * math.Pi / 12)
	return signal.Clamp(energy+circadian*0.2, 0.2, 1)
}

// EnergyForecast predicts energy two hours out and suggests activities.
func EnergyForecast(energy float64, hour int) Prediction {
	f := CircadianEnergy(energy, hour)
	return Prediction{
		Type:              EnergyLevel,
		Timeframe:         "2 hours",
		Predicted:         f,
		OptimalActivities: OptimalActivities(f),
	}
}

// OptimalActivities picks suggestions for an energy tier.
func OptimalActivities(energy float64) []string {
	switch {
	case energy > 0.7:
		return []string{"Deep work", "Creative tasks", "Problem solving"}
	case energy > 0.4:
		return []string{"Meetings", "Email", "Planning"}
	default:
		return []string{"Rest", "Light reading", "Meditation"}
	}
}

func (p *Predictor) focusWindow(now time.Time, focus float64) Prediction {
	start := now.Add(15 * time.Minute)
	return Prediction{
		Type:            FocusWindow,
		Start:           &start,
		DurationMinutes: 45 + p.rand.Float64()*30,
		Quality:         signal.Clamp01(focus*0.7 + p.rand.Float64()*0.3),
	}
}

// WellnessTrajectory scores wellness from a 0.7 baseline.
func WellnessTrajectory(stress, energy, hrv float64) Prediction {
	score := 0.7
	factors := []string{}
	if stress < 0.4 {
		score += 0.1
		factors = append(factors, "Low stress")
	}
	if energy > 0.6 {
		score += 0.1
		factors = append(factors, "Good energy")
	}
	if hrv > 50 {
		score += 0.05
		factors = append(factors, "High HRV")
	}
	score = math.Round(score*100) / 100

	trend := "stable"
	if score > 0.75 {
		trend = "improving"
	}
	return Prediction{
		Type:    Wellness,
		Trend:   trend,
		Score:   score,
		Change:  fmt.Sprintf("+%d%%", int(math.Round((score-0.7)*100))),
		Factors: factors,
	}
}
