// Package signal holds the four channel groups of the live snapshot
// (biometric, environmental, digital, emotional) and the generators that
// evolve them. Every field documented as bounded to [0,1] is clamped where it
// is produced; consumers never clamp.
package signal

import "maps"

// BloodPressure is a systolic/diastolic pair in mmHg.
type BloodPressure struct {
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
}

// BrainWaves holds unitless band powers, each in [0,1].
type BrainWaves struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Theta float64 `json:"theta"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
}

// Biometrics is the body channel group.
type Biometrics struct {
	HeartRate            int           `json:"heartRate"`            // bpm
	HeartRateVariability float64       `json:"heartRateVariability"` // ms
	RespiratoryRate      float64       `json:"respiratoryRate"`      // breaths/min
	SkinTemperature      float64       `json:"skinTemperature"`      // °F
	BloodOxygen          float64       `json:"bloodOxygen"`          // %
	BloodPressure        BloodPressure `json:"bloodPressure"`
	GalvanicSkinResponse float64       `json:"galvanicSkinResponse"` // [0,1]
	BrainWaves           BrainWaves    `json:"brainWaves"`
}

// Location is a latitude/longitude pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Environmental is the surroundings channel group.
type Environmental struct {
	Temperature float64  `json:"temperature"` // °F
	Humidity    float64  `json:"humidity"`    // %
	LightLevel  float64  `json:"lightLevel"`  // lux
	NoiseLevel  float64  `json:"noiseLevel"`  // dB
	AirQuality  float64  `json:"airQuality"`  // index, 0-100
	Location    Location `json:"location"`
	Weather     string   `json:"weather"`
}

// Digital is the device-activity channel group.
type Digital struct {
	ScreenTime       float64            `json:"screenTime"` // minutes, never decreases within a session
	AppUsage         map[string]float64 `json:"appUsage"`   // app -> minutes
	KeyboardActivity float64            `json:"keyboardActivity"`
	MouseMovement    float64            `json:"mouseMovement"`
	Notifications    int                `json:"notifications"`
	FocusScore       float64            `json:"focusScore"`   // [0,1]
	Productivity     float64            `json:"productivity"` // [0,1]
}

// Clone returns a copy that shares no memory with d.
func (d Digital) Clone() Digital {
	out := d
	out.AppUsage = maps.Clone(d.AppUsage)
	if out.AppUsage == nil {
		out.AppUsage = map[string]float64{}
	}
	return out
}

// Emotional is the derived affect channel group. All numeric fields are in [0,1].
type Emotional struct {
	Valence   float64 `json:"valence"`
	Arousal   float64 `json:"arousal"`
	Dominance float64 `json:"dominance"`
	Mood      string  `json:"mood"`
	Stress    float64 `json:"stress"`
	Energy    float64 `json:"energy"`
}

// Snapshot is the composite of all four channel groups at one instant.
type Snapshot struct {
	Biometrics    Biometrics    `json:"biometrics"`
	Environmental Environmental `json:"environmental"`
	Digital       Digital       `json:"digital"`
	Emotional     Emotional     `json:"emotional"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Digital = s.Digital.Clone()
	return out
}

// DefaultBiometrics returns the resting values a session starts from.
func DefaultBiometrics() Biometrics {
	return Biometrics{
		HeartRate:            72,
		HeartRateVariability: 45,
		RespiratoryRate:      16,
		SkinTemperature:      98.6,
		BloodOxygen:          98,
		BloodPressure:        BloodPressure{Systolic: 120, Diastolic: 80},
		GalvanicSkinResponse: 0.5,
		BrainWaves:           BrainWaves{Alpha: 0.7, Beta: 0.5, Theta: 0.3, Delta: 0.1, Gamma: 0.2},
	}
}

// DefaultEnvironmental returns the starting surroundings.
func DefaultEnvironmental() Environmental {
	return Environmental{
		Temperature: 72,
		Humidity:    45,
		LightLevel:  500,
		NoiseLevel:  45,
		AirQuality:  95,
		Location:    Location{Lat: 42.3601, Lng: -71.0893},
		Weather:     "partly_cloudy",
	}
}

// DefaultDigital returns a fresh session's device activity.
func DefaultDigital() Digital {
	return Digital{
		AppUsage:     map[string]float64{},
		FocusScore:   0.75,
		Productivity: 0.80,
	}
}

// DefaultEmotional returns the starting affect.
func DefaultEmotional() Emotional {
	return Emotional{
		Valence:   0.6,
		Arousal:   0.5,
		Dominance: 0.7,
		Mood:      "focused",
		Stress:    0.3,
		Energy:    0.75,
	}
}

// DefaultSnapshot returns a snapshot built from the four defaults.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Biometrics:    DefaultBiometrics(),
		Environmental: DefaultEnvironmental(),
		Digital:       DefaultDigital(),
		Emotional:     DefaultEmotional(),
	}
}
