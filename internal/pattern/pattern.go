// Package pattern classifies a snapshot into labeled, confidence-scored
// patterns using a registered list of threshold rules.
package pattern

import (
	"time"

	"github.com/blackwell-systems/lifestream/internal/signal"
)

// Type names a pattern class. The set is open: custom rules may use any name.
type Type string

// Built-in pattern types.
const (
	StressDetected Type = "stress_detected"
	FlowState      Type = "flow_state"
	Fatigue        Type = "fatigue"
	CreativePeak   Type = "creative_peak"
)

// Pattern is one rule match at one detection tick.
type Pattern struct {
	Type        Type      `json:"type"`
	Confidence  float64   `json:"confidence"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// Has reports whether any pattern in ps has type t.
func Has(ps []Pattern, t Type) bool {
	for _, p := range ps {
		if p.Type == t {
			return true
		}
	}
	return false
}

// Input is what a rule sees: the composite snapshot and the local hour of
// the detection tick.
type Input struct {
	Snapshot signal.Snapshot
	Hour     int
}

// Rule is one registered detector entry. Match must be a pure predicate.
type Rule struct {
	Type        Type
	Confidence  float64
	Description string
	Match       func(in Input) bool
}

// Thresholds are the tunable constants of the built-in rules.
type Thresholds struct {
	StressHeartRate  float64
	StressHRV        float64
	StressConfidence float64

	FlowFocus      float64
	FlowStress     float64
	FlowConfidence float64

	FatigueEnergy     float64
	FatigueScreenTime float64
	FatigueConfidence float64

	CreativeStartHour  int
	CreativeEndHour    int
	CreativeAlpha      float64
	CreativeConfidence float64
}

// DefaultThresholds are the demo-tuned values.
var DefaultThresholds = Thresholds{
	StressHeartRate:  85,
	StressHRV:        40,
	StressConfidence: 0.85,

	FlowFocus:      0.8,
	FlowStress:     0.3,
	FlowConfidence: 0.92,

	FatigueEnergy:     0.3,
	FatigueScreenTime: 240,
	FatigueConfidence: 0.78,

	CreativeStartHour:  9,
	CreativeEndHour:    11,
	CreativeAlpha:      0.7,
	CreativeConfidence: 0.88,
}
