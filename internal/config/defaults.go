// Package config provides configuration loading and defaults for lifestream.
package config

import "time"

// DefaultConfigDir is the default location for lifestream configuration.
const DefaultConfigDir = "~/.config/lifestream"

// DefaultDBName is the filename for the SQLite event journal.
const DefaultDBName = "lifestream.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes every environment override, e.g. LIFESTREAM_HTTP_ADDR.
const EnvPrefix = "LIFESTREAM"

// DefaultCadence holds the default task periods.
var DefaultCadence = Cadence{
	Biometrics:    16 * time.Millisecond,
	Environmental: time.Second,
	Digital:       500 * time.Millisecond,
	Emotional:     time.Second,
	Patterns:      5 * time.Second,
	Predictions:   10 * time.Second,
	Memory:        30 * time.Second,
}

// DefaultRules holds the demo-tuned rule thresholds.
var DefaultRules = Rules{
	Stress:   StressRule{HeartRate: 85, HRV: 40, Confidence: 0.85},
	Flow:     FlowRule{Focus: 0.8, Stress: 0.3, Confidence: 0.92},
	Fatigue:  FatigueRule{Energy: 0.3, ScreenTime: 240, Confidence: 0.78},
	Creative: CreativeRule{StartHour: 9, EndHour: 11, Alpha: 0.7, Confidence: 0.88},
}

// DefaultSinkEvents are forwarded to sinks unless configured otherwise.
// Biometrics is left out: at ~60 Hz it would swamp every sink.
var DefaultSinkEvents = []string{"environmental", "digital", "emotional", "patterns", "predictions", "memory"}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
}
