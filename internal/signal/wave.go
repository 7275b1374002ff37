package signal

import (
	"math"
	"math/rand/v2"
	"time"
)

// Rand is the single source of randomness for the generators. *rand.Rand
// satisfies it; tests substitute a fixed sequence.
type Rand interface {
	Float64() float64
}

// NewRand returns a PCG-backed generator seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Wave describes one quasi-periodic channel: a base value plus a sinusoid in
// wall-clock seconds plus optional uniform jitter, clamped to [Min, Max].
type Wave struct {
	Base      float64
	Amplitude float64
	Omega     float64 // angular frequency, rad/s
	JitterMin float64
	JitterMax float64
	Min       float64
	Max       float64
}

// At evaluates the wave at t. It draws from r only when the wave has jitter.
func (w Wave) At(t time.Time, r Rand) float64 {
	v := w.Base + w.Amplitude*math.Sin(Seconds(t)*w.Omega)
	if w.JitterMax > w.JitterMin {
		v += w.JitterMin + r.Float64()*(w.JitterMax-w.JitterMin)
	}
	return Clamp(v, w.Min, w.Max)
}

// Seconds converts t to fractional Unix seconds, the phase variable of every wave.
func Seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// uniform returns a draw in [lo, hi).
func uniform(r Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

// BiometricProfile is the waveform table for the biometric generator.
type BiometricProfile struct {
	HeartRate            Wave
	HeartRateVariability Wave
	RespiratoryRate      Wave
	SkinTemperature      Wave
	BloodOxygen          Wave
	Systolic             Wave
	Diastolic            Wave
	GalvanicSkinResponse Wave
	Alpha                Wave
	Beta                 Wave
	Theta                Wave
	Delta                Wave
	Gamma                Wave
}

// DefaultBiometricProfile is the tuned demo waveform table.
//
//	field         base   amp    ω (rad/s)  jitter
//	heartRate     72     5      0.10       [-1, 1)
//	hrv           45     10     0.05       [0, 5)
//	respiratory   16     2      0.03       -
//	alpha         0.7    0.2    0.20       -
//	beta          0.5    0.3    0.30       -
//	theta         0.3    0.2    0.10       -
//	delta         0.1    0.05   0.05       -
//	gamma         0.2    0.1    0.40       -
var DefaultBiometricProfile = BiometricProfile{
	HeartRate:            Wave{Base: 72, Amplitude: 5, Omega: 0.1, JitterMin: -1, JitterMax: 1, Min: 40, Max: 200},
	HeartRateVariability: Wave{Base: 45, Amplitude: 10, Omega: 0.05, JitterMin: 0, JitterMax: 5, Min: 10, Max: 150},
	RespiratoryRate:      Wave{Base: 16, Amplitude: 2, Omega: 0.03, Min: 6, Max: 40},
	SkinTemperature:      Wave{Base: 98.6, Amplitude: 0.3, Omega: 0.01, Min: 95, Max: 104},
	BloodOxygen:          Wave{Base: 98, Amplitude: 1, Omega: 0.02, Min: 90, Max: 100},
	Systolic:             Wave{Base: 120, Amplitude: 4, Omega: 0.04, Min: 80, Max: 180},
	Diastolic:            Wave{Base: 80, Amplitude: 3, Omega: 0.04, Min: 50, Max: 120},
	GalvanicSkinResponse: Wave{Base: 0.5, Amplitude: 0.1, Omega: 0.07, Min: 0, Max: 1},
	Alpha:                Wave{Base: 0.7, Amplitude: 0.2, Omega: 0.2, Min: 0, Max: 1},
	Beta:                 Wave{Base: 0.5, Amplitude: 0.3, Omega: 0.3, Min: 0, Max: 1},
	Theta:                Wave{Base: 0.3, Amplitude: 0.2, Omega: 0.1, Min: 0, Max: 1},
	Delta:                Wave{Base: 0.1, Amplitude: 0.05, Omega: 0.05, Min: 0, Max: 1},
	Gamma:                Wave{Base: 0.2, Amplitude: 0.1, Omega: 0.4, Min: 0, Max: 1},
}

// EnvironmentProfile parameterizes the environmental generator.
type EnvironmentProfile struct {
	Temperature Wave // ω 0.1 rad/s compresses "hours" into seconds for the demo
	Humidity    Wave
	AirQuality  Wave
	DayStart    int // first daytime hour, inclusive
	DayEnd      int // last daytime hour, inclusive
	DayLight    [2]float64
	NightLight  [2]float64
	Noise       [2]float64
}

// DefaultEnvironmentProfile is the tuned demo environment.
var DefaultEnvironmentProfile = EnvironmentProfile{
	Temperature: Wave{Base: 72, Amplitude: 3, Omega: 0.1, Min: -40, Max: 130},
	Humidity:    Wave{Base: 45, Amplitude: 5, Omega: 0.013, JitterMin: -1, JitterMax: 1, Min: 0, Max: 100},
	AirQuality:  Wave{Base: 95, Amplitude: 2, Omega: 0.007, JitterMin: -1, JitterMax: 1, Min: 0, Max: 100},
	DayStart:    6,
	DayEnd:      18,
	DayLight:    [2]float64{500, 700},
	NightLight:  [2]float64{50, 100},
	Noise:       [2]float64{40, 60},
}

// DigitalProfile parameterizes the digital-activity generator.
type DigitalProfile struct {
	ScreenTimeStep   float64 // minutes added per tick
	KeyboardMax      float64
	MouseMax         float64
	NotificationsMax int
	FocusWeight      float64 // weight of activity magnitude in focusScore
	FocusNoise       float64 // weight of the random draw in focusScore
	Apps             []string
}

// DefaultDigitalProfile is the tuned demo digital activity.
var DefaultDigitalProfile = DigitalProfile{
	ScreenTimeStep:   0.5,
	KeyboardMax:      200,
	MouseMax:         500,
	NotificationsMax: 3,
	FocusWeight:      0.8,
	FocusNoise:       0.2,
	Apps:             []string{"editor", "terminal", "browser", "chat", "email"},
}
