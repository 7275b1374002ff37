package watcher

import (
	"strings"
	"testing"
	"time"

	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/predict"
)

var t0 = time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC)

func pat(tp pattern.Type, conf float64) pattern.Pattern {
	return pattern.Pattern{Type: tp, Confidence: conf, Description: "desc", Timestamp: t0}
}

func TestCompare_IdenticalStates(t *testing.T) {
	prev := &WatchState{Patterns: []pattern.Pattern{pat(pattern.FlowState, 0.92)}}
	curr := &WatchState{Patterns: []pattern.Pattern{pat(pattern.FlowState, 0.92)}, Timestamp: t0.Add(time.Second)}

	alerts := Compare(prev, curr)
	if len(alerts) != 0 {
		t.Errorf("expected 0 alerts for identical states, got %d", len(alerts))
		for _, a := range alerts {
			t.Logf("  [%s] %s: %s", a.Level, a.Title, a.Message)
		}
	}
}

func TestCompare_EmptyStates(t *testing.T) {
	if alerts := Compare(&WatchState{}, &WatchState{}); len(alerts) != 0 {
		t.Errorf("expected 0 alerts for empty states, got %d", len(alerts))
	}
}

func TestCompare_NewPatternLevels(t *testing.T) {
	tests := []struct {
		tp    pattern.Type
		level string
	}{
		{pattern.StressDetected, LevelWarning},
		{pattern.Fatigue, LevelWarning},
		{pattern.FlowState, LevelInfo},
		{pattern.CreativePeak, LevelInfo},
		{"noisy_room", LevelInfo},
	}
	for _, tt := range tests {
		t.Run(string(tt.tp), func(t *testing.T) {
			alerts := Compare(&WatchState{}, &WatchState{Timestamp: t0, Patterns: []pattern.Pattern{pat(tt.tp, 0.85)}})
			if len(alerts) != 1 {
				t.Fatalf("expected 1 alert, got %d", len(alerts))
			}
			a := alerts[0]
			if a.Level != tt.level {
				t.Errorf("level = %q, want %q", a.Level, tt.level)
			}
			if !strings.HasPrefix(a.Title, "Pattern detected: ") {
				t.Errorf("title = %q", a.Title)
			}
			if !strings.Contains(a.Message, "85%") {
				t.Errorf("message %q should carry the confidence", a.Message)
			}
			if !a.Time.Equal(t0) {
				t.Errorf("time = %v, want %v", a.Time, t0)
			}
		})
	}
}

func TestCompare_PatternCleared(t *testing.T) {
	prev := &WatchState{Patterns: []pattern.Pattern{pat(pattern.FlowState, 0.92)}}
	curr := &WatchState{Timestamp: t0.Add(time.Second)}

	alerts := Compare(prev, curr)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Level != LevelInfo || alerts[0].Title != "Pattern cleared: flow state" {
		t.Errorf("unexpected alert %+v", alerts[0])
	}
}

func TestCompare_StressPeak(t *testing.T) {
	tests := []struct {
		name   string
		stress float64
		want   string
	}{
		{"stable", 0.4, ""},
		{"rising", 0.6, LevelWarning},
		{"rising at 0.89", 0.69, LevelWarning},
		{"critical", 0.75, LevelCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			curr := &WatchState{Predictions: []predict.Prediction{predict.StressTrend(tt.stress)}}
			alerts := Compare(&WatchState{}, curr)
			if tt.want == "" {
				if len(alerts) != 0 {
					t.Errorf("expected no alert, got %+v", alerts)
				}
				return
			}
			if len(alerts) != 1 || alerts[0].Level != tt.want {
				t.Fatalf("got %+v, want one %s alert", alerts, tt.want)
			}
			if !strings.Contains(alerts[0].Message, "30 minutes") {
				t.Errorf("message %q missing timeframe", alerts[0].Message)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := displayName(pattern.CreativePeak); got != "creative peak" {
		t.Errorf("displayName = %q", got)
	}
}
