package signal

import (
	"math"
	"time"
)

// Generators evolves each channel group. Output depends only on the tick
// time, the profiles, the previous slice where a field accumulates, and draws
// from rand. Generators is not safe for concurrent use; the scheduler calls
// it from one logical thread.
type Generators struct {
	Biometric   BiometricProfile
	Environment EnvironmentProfile
	Activity    DigitalProfile

	rand Rand
	loc  *time.Location
}

// NewGenerators returns generators using the default profiles. loc decides
// the local hour for time-of-day branches; nil means time.Local.
func NewGenerators(r Rand, loc *time.Location) *Generators {
	if loc == nil {
		loc = time.Local
	}
	return &Generators{
		Biometric:   DefaultBiometricProfile,
		Environment: DefaultEnvironmentProfile,
		Activity:    DefaultDigitalProfile,
		rand:        r,
		loc:         loc,
	}
}

// Location returns the time zone used for hour-of-day decisions.
func (g *Generators) Location() *time.Location { return g.loc }

// Biometrics samples every biometric wave at now.
func (g *Generators) Biometrics(now time.Time) Biometrics {
	p := g.Biometric
	r := g.rand
	return Biometrics{
		HeartRate:            int(math.Round(p.HeartRate.At(now, r))),
		HeartRateVariability: p.HeartRateVariability.At(now, r),
		RespiratoryRate:      p.RespiratoryRate.At(now, r),
		SkinTemperature:      p.SkinTemperature.At(now, r),
		BloodOxygen:          p.BloodOxygen.At(now, r),
		BloodPressure: BloodPressure{
			Systolic:  p.Systolic.At(now, r),
			Diastolic: p.Diastolic.At(now, r),
		},
		GalvanicSkinResponse: p.GalvanicSkinResponse.At(now, r),
		BrainWaves: BrainWaves{
			Alpha: p.Alpha.At(now, r),
			Beta:  p.Beta.At(now, r),
			Theta: p.Theta.At(now, r),
			Delta: p.Delta.At(now, r),
			Gamma: p.Gamma.At(now, r),
		},
	}
}

// Environmental updates light, temperature, humidity, air quality and noise.
// Location and weather carry over from prev.
func (g *Generators) Environmental(now time.Time, prev Environmental) Environmental {
	p := g.Environment
	out := prev

	hour := now.In(g.loc).Hour()
	if hour >= p.DayStart && hour <= p.DayEnd {
		out.LightLevel = uniform(g.rand, p.DayLight[0], p.DayLight[1])
	} else {
		out.LightLevel = uniform(g.rand, p.NightLight[0], p.NightLight[1])
	}
	out.Temperature = p.Temperature.At(now, g.rand)
	out.Humidity = p.Humidity.At(now, g.rand)
	out.AirQuality = p.AirQuality.At(now, g.rand)
	out.NoiseLevel = uniform(g.rand, p.Noise[0], p.Noise[1])
	return out
}

// Digital advances screen time and app usage and draws fresh, unsmoothed
// keyboard and mouse activity.
func (g *Generators) Digital(prev Digital) Digital {
	p := g.Activity
	out := prev.Clone()

	out.ScreenTime = prev.ScreenTime + p.ScreenTimeStep
	out.KeyboardActivity = g.rand.Float64() * p.KeyboardMax
	out.MouseMovement = g.rand.Float64() * p.MouseMax
	out.Notifications = int(g.rand.Float64() * float64(p.NotificationsMax))

	activity := (out.KeyboardActivity + out.MouseMovement) / (p.KeyboardMax + p.MouseMax)
	out.FocusScore = Clamp01(activity*p.FocusWeight + g.rand.Float64()*p.FocusNoise)

	typing := 0.0
	if p.KeyboardMax > 0 {
		typing = out.KeyboardActivity / p.KeyboardMax
	}
	out.Productivity = Clamp01(0.6*out.FocusScore + 0.3*typing + 0.1*g.rand.Float64())

	if len(p.Apps) > 0 {
		idx := int(g.rand.Float64() * float64(len(p.Apps)))
		if idx >= len(p.Apps) {
			idx = len(p.Apps) - 1
		}
		out.AppUsage[p.Apps[idx]] += p.ScreenTimeStep
	}
	return out
}

// Emotional derives affect from the latest biometric and digital slices and
// the local hour.
func (g *Generators) Emotional(now time.Time, snap Snapshot) Emotional {
	b := snap.Biometrics
	d := snap.Digital

	hrDelta := (float64(b.HeartRate) - 72) / 30
	hrvDelta := (45 - b.HeartRateVariability) / 30
	hour := float64(now.In(g.loc).Hour())
	circadian := math.Sin((hour - 6) * math.Pi / 12)

	stress := Clamp01(0.3 + 0.25*hrDelta + 0.25*hrvDelta + 0.1*(b.GalvanicSkinResponse-0.5) + uniform(g.rand, -0.02, 0.02))
	energy := Clamp01(0.6 + 0.2*circadian - d.ScreenTime/1200 + 0.1*(b.BrainWaves.Beta-0.5) + uniform(g.rand, -0.02, 0.02))

	e := Emotional{
		Stress:    stress,
		Energy:    energy,
		Arousal:   Clamp01(0.5 + 0.4*(b.BrainWaves.Beta-0.5) + 0.3*hrDelta),
		Valence:   Clamp01(0.6 + 0.3*(b.BrainWaves.Alpha-0.7) - 0.4*(stress-0.3)),
		Dominance: Clamp01(0.55 + 0.3*(d.FocusScore-0.5) - 0.2*(stress-0.3)),
	}
	e.Mood = MoodFor(e, d.FocusScore)
	return e
}

// moodRules is checked in order; the first match names the mood.
var moodRules = []struct {
	mood  string
	match func(e Emotional, focus float64) bool
}{
	{"stressed", func(e Emotional, _ float64) bool { return e.Stress > 0.7 }},
	{"tired", func(e Emotional, _ float64) bool { return e.Energy < 0.3 }},
	{"focused", func(_ Emotional, focus float64) bool { return focus > 0.75 }},
	{"energized", func(e Emotional, _ float64) bool { return e.Arousal > 0.65 && e.Valence >= 0.5 }},
	{"calm", func(e Emotional, _ float64) bool { return e.Arousal < 0.4 }},
}

// MoodFor labels an affect state.
func MoodFor(e Emotional, focus float64) string {
	for _, r := range moodRules {
		if r.match(e, focus) {
			return r.mood
		}
	}
	return "content"
}

// OutOfRange returns the names of [0,1]-bounded fields in s that fall
// outside [0,1]. A non-empty result is a generator defect.
func OutOfRange(s Snapshot) []string {
	bounded := []struct {
		name string
		v    float64
	}{
		{"biometrics.galvanicSkinResponse", s.Biometrics.GalvanicSkinResponse},
		{"biometrics.brainWaves.alpha", s.Biometrics.BrainWaves.Alpha},
		{"biometrics.brainWaves.beta", s.Biometrics.BrainWaves.Beta},
		{"biometrics.brainWaves.theta", s.Biometrics.BrainWaves.Theta},
		{"biometrics.brainWaves.delta", s.Biometrics.BrainWaves.Delta},
		{"biometrics.brainWaves.gamma", s.Biometrics.BrainWaves.Gamma},
		{"digital.focusScore", s.Digital.FocusScore},
		{"digital.productivity", s.Digital.Productivity},
		{"emotional.valence", s.Emotional.Valence},
		{"emotional.arousal", s.Emotional.Arousal},
		{"emotional.dominance", s.Emotional.Dominance},
		{"emotional.stress", s.Emotional.Stress},
		{"emotional.energy", s.Emotional.Energy},
	}

	var out []string
	for _, f := range bounded {
		if f.v < 0 || f.v > 1 || math.IsNaN(f.v) {
			out = append(out, f.name)
		}
	}
	return out
}
