package watcher

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/predict"
)

// Alert levels.
const (
	LevelInfo     = "info"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

// criticalStressProbability is the stress_peak probability at which a rising
// forecast escalates from warning to critical.
const criticalStressProbability = 0.9

// Compare detects notable changes between two watch states and returns
// alerts, stress forecasts first.
func Compare(prev, curr *WatchState) []Alert {
	var alerts []Alert

	alerts = append(alerts, compareStress(curr)...)
	alerts = append(alerts, comparePatterns(prev, curr)...)

	return alerts
}

// compareStress raises an alert for a rising stress_peak forecast. It is
// level-triggered; dedup in Check keeps it from repeating while unchanged.
func compareStress(curr *WatchState) []Alert {
	peak, ok := predict.Find(curr.Predictions, predict.StressPeak)
	if !ok || !peak.Rising {
		return nil
	}
	level := LevelWarning
	if peak.Probability >= criticalStressProbability {
		level = LevelCritical
	}
	msg := fmt.Sprintf("%.0f%% chance within %s", peak.Probability*100, peak.Timeframe)
	if peak.Recommendation != "" {
		msg += ". " + peak.Recommendation
	}
	return []Alert{{
		Level:   level,
		Title:   "Stress peak predicted",
		Message: msg,
		Time:    curr.Timestamp,
	}}
}

// comparePatterns reports pattern types that appeared or cleared.
func comparePatterns(prev, curr *WatchState) []Alert {
	var alerts []Alert

	for _, p := range curr.Patterns {
		if pattern.Has(prev.Patterns, p.Type) {
			continue
		}
		alerts = append(alerts, Alert{
			Level:   patternLevel(p.Type),
			Title:   "Pattern detected: " + displayName(p.Type),
			Message: fmt.Sprintf("%s (confidence %.0f%%)", p.Description, p.Confidence*100),
			Time:    curr.Timestamp,
		})
	}

	for _, p := range prev.Patterns {
		if pattern.Has(curr.Patterns, p.Type) {
			continue
		}
		alerts = append(alerts, Alert{
			Level:   LevelInfo,
			Title:   "Pattern cleared: " + displayName(p.Type),
			Message: "Last seen at " + p.Timestamp.Format("15:04:05"),
			Time:    curr.Timestamp,
		})
	}

	return alerts
}

func patternLevel(t pattern.Type) string {
	switch t {
	case pattern.StressDetected, pattern.Fatigue:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// displayName turns "flow_state" into "flow state".
func displayName(t pattern.Type) string {
	return strings.ReplaceAll(string(t), "_", " ")
}
