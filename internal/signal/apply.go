package signal

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrUnknownField is returned when a partial reading names a field the
// channel group does not have.
var ErrUnknownField = errors.New("unknown field")

type setter func(v float64)

// checkKeys fails on the first key (in sorted order) missing from known.
func checkKeys[V any](group string, values map[string]V, known func(string) bool) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !known(k) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, group, k)
		}
	}
	return nil
}

func applyAll(group string, values map[string]float64, setters map[string]setter) error {
	if err := checkKeys(group, values, func(k string) bool { _, ok := setters[k]; return ok }); err != nil {
		return err
	}
	for k, v := range values {
		setters[k](v)
	}
	return nil
}

// Apply overwrites the named biometric fields. Keys are the JSON field names,
// with nested fields dotted (brainWaves.alpha). Either every key applies or
// none does.
func (b *Biometrics) Apply(values map[string]float64) error {
	return applyAll("biometrics", values, map[string]setter{
		"heartRate":               func(v float64) { b.HeartRate = int(math.Round(Clamp(v, 20, 250))) },
		"heartRateVariability":    func(v float64) { b.HeartRateVariability = math.Max(0, v) },
		"respiratoryRate":         func(v float64) { b.RespiratoryRate = math.Max(0, v) },
		"skinTemperature":         func(v float64) { b.SkinTemperature = v },
		"bloodOxygen":             func(v float64) { b.BloodOxygen = Clamp(v, 0, 100) },
		"bloodPressure.systolic":  func(v float64) { b.BloodPressure.Systolic = v },
		"bloodPressure.diastolic": func(v float64) { b.BloodPressure.Diastolic = v },
		"galvanicSkinResponse":    func(v float64) { b.GalvanicSkinResponse = Clamp01(v) },
		"brainWaves.alpha":        func(v float64) { b.BrainWaves.Alpha = Clamp01(v) },
		"brainWaves.beta":         func(v float64) { b.BrainWaves.Beta = Clamp01(v) },
		"brainWaves.theta":        func(v float64) { b.BrainWaves.Theta = Clamp01(v) },
		"brainWaves.delta":        func(v float64) { b.BrainWaves.Delta = Clamp01(v) },
		"brainWaves.gamma":        func(v float64) { b.BrainWaves.Gamma = Clamp01(v) },
	})
}

// Apply overwrites the named environmental fields. The only label is weather.
func (e *Environmental) Apply(values map[string]float64, labels map[string]string) error {
	if err := checkKeys("environmental", labels, func(k string) bool { return k == "weather" }); err != nil {
		return err
	}
	err := applyAll("environmental", values, map[string]setter{
		"temperature":  func(v float64) { e.Temperature = v },
		"humidity":     func(v float64) { e.Humidity = Clamp(v, 0, 100) },
		"lightLevel":   func(v float64) { e.LightLevel = math.Max(0, v) },
		"noiseLevel":   func(v float64) { e.NoiseLevel = math.Max(0, v) },
		"airQuality":   func(v float64) { e.AirQuality = Clamp(v, 0, 100) },
		"location.lat": func(v float64) { e.Location.Lat = Clamp(v, -90, 90) },
		"location.lng": func(v float64) { e.Location.Lng = Clamp(v, -180, 180) },
	})
	if err != nil {
		return err
	}
	if w, ok := labels["weather"]; ok {
		e.Weather = w
	}
	return nil
}

// Apply overwrites the named digital fields. App usage is addressed as
// appUsage.<app>.
func (d *Digital) Apply(values map[string]float64) error {
	setters := map[string]setter{
		"screenTime":       func(v float64) { d.ScreenTime = math.Max(d.ScreenTime, v) },
		"keyboardActivity": func(v float64) { d.KeyboardActivity = math.Max(0, v) },
		"mouseMovement":    func(v float64) { d.MouseMovement = math.Max(0, v) },
		"notifications":    func(v float64) { d.Notifications = int(math.Max(0, math.Round(v))) },
		"focusScore":       func(v float64) { d.FocusScore = Clamp01(v) },
		"productivity":     func(v float64) { d.Productivity = Clamp01(v) },
	}
	for k := range values {
		if app, ok := strings.CutPrefix(k, "appUsage."); ok && app != "" {
			setters[k] = func(v float64) {
				if d.AppUsage == nil {
					d.AppUsage = map[string]float64{}
				}
				d.AppUsage[app] = math.Max(0, v)
			}
		}
	}
	return applyAll("digital", values, setters)
}

// Apply overwrites the named emotional fields. The only label is mood.
func (e *Emotional) Apply(values map[string]float64, labels map[string]string) error {
	if err := checkKeys("emotional", labels, func(k string) bool { return k == "mood" }); err != nil {
		return err
	}
	err := applyAll("emotional", values, map[string]setter{
		"valence":   func(v float64) { e.Valence = Clamp01(v) },
		"arousal":   func(v float64) { e.Arousal = Clamp01(v) },
		"dominance": func(v float64) { e.Dominance = Clamp01(v) },
		"stress":    func(v float64) { e.Stress = Clamp01(v) },
		"energy":    func(v float64) { e.Energy = Clamp01(v) },
	})
	if err != nil {
		return err
	}
	if m, ok := labels["mood"]; ok {
		e.Mood = m
	}
	return nil
}
