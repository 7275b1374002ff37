// Package demo holds canned reading sequences that walk the stream through
// recognisable situations.
package demo

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/blackwell-systems/lifestream/internal/stream"
)

// ErrUnknownScenario is returned by Lookup for a name with no scenario.
var ErrUnknownScenario = errors.New("unknown scenario")

// Step ingests Reading After the scenario starts.
type Step struct {
	After   time.Duration
	Reading stream.Reading
}

// Scenario is an ordered list of steps.
type Scenario struct {
	Name        string
	Description string
	Steps       []Step
}

// Duration is the offset of the last step.
func (sc Scenario) Duration() time.Duration {
	var d time.Duration
	for _, st := range sc.Steps {
		d = max(d, st.After)
	}
	return d
}

func bio(values map[string]float64) stream.Reading {
	return stream.Reading{Kind: stream.KindBiometrics, Values: values}
}

func mood(stress, energy float64) stream.Reading {
	return stream.Reading{Kind: stream.KindEmotional, Values: map[string]float64{"stress": stress, "energy": energy}}
}

func digital(values map[string]float64) stream.Reading {
	return stream.Reading{Kind: stream.KindDigital, Values: values}
}

var scenarios = map[string]Scenario{
	"first_encounter": {
		Name:        "first_encounter",
		Description: "Stress spike on arrival that settles after a breathing break",
		Steps: []Step{
			{0, bio(map[string]float64{
				"heartRate":            85,
				"heartRateVariability": 35,
				"skinTemperature":      99.2,
				"bloodOxygen":          97,
				"respiratoryRate":      18,
			})},
			{0, mood(0.75, 0.6)},
			{5 * time.Second, bio(map[string]float64{"heartRate": 72, "heartRateVariability": 50})},
			{5 * time.Second, mood(0.4, 0.7)},
		},
	},
	"morning_routine": {
		Name:        "morning_routine",
		Description: "Rested start at home on a sunny morning",
		Steps: []Step{
			{0, bio(map[string]float64{"heartRate": 68, "heartRateVariability": 55})},
			{0, mood(0.2, 0.8)},
			{0, stream.Reading{
				Kind: stream.KindEnvironmental,
				Values: map[string]float64{
					"temperature": 72,
					"humidity":    45,
					"noiseLevel":  35,
					"lightLevel":  400,
				},
				Labels: map[string]string{"weather": "sunny"},
			}},
		},
	},
	"work_stress": {
		Name:        "work_stress",
		Description: "Notification storm before a standup, then recovery",
		Steps: []Step{
			{0, bio(map[string]float64{"heartRate": 95, "heartRateVariability": 30})},
			{0, mood(0.85, 0.5)},
			{0, digital(map[string]float64{
				"keyboardActivity": 180,
				"mouseMovement":    450,
				"notifications":    25,
				"focusScore":       0.3,
				"appUsage.Slack":   5,
			})},
			{6 * time.Second, bio(map[string]float64{"heartRate": 78, "heartRateVariability": 45})},
			{6 * time.Second, mood(0.5, 0.6)},
		},
	},
	"creative_hour": {
		Name:        "creative_hour",
		Description: "Deep focus in the editor with high alpha activity",
		Steps: []Step{
			{0, bio(map[string]float64{
				"heartRate":            65,
				"heartRateVariability": 60,
				"brainWaves.alpha":     0.85,
			})},
			{0, mood(0.1, 0.9)},
			{0, digital(map[string]float64{
				"keyboardActivity": 250,
				"mouseMovement":    100,
				"focusScore":       0.95,
				"appUsage.VS Code": 10,
				"notifications":    0,
			})},
		},
	},
	"emotional_support": {
		Name:        "emotional_support",
		Description: "Low energy afternoon with lingering stress",
		Steps: []Step{
			{0, bio(map[string]float64{"heartRate": 62, "heartRateVariability": 40})},
			{0, mood(0.6, 0.3)},
		},
	},
	"evening_reflection": {
		Name:        "evening_reflection",
		Description: "Winding down after a long day",
		Steps: []Step{
			{0, bio(map[string]float64{"heartRate": 70, "heartRateVariability": 52})},
			{0, mood(0.3, 0.4)},
			{0, digital(map[string]float64{"screenTime": 300})},
		},
	},
}

// Names returns the scenario names in sorted order.
func Names() []string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named scenario.
func Lookup(name string) (Scenario, error) {
	sc, ok := scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return sc, nil
}
