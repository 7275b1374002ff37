package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level lifestream configuration.
type Config struct {
	Seed     uint64  `mapstructure:"seed"`
	Timezone string  `mapstructure:"timezone"`
	Cadence  Cadence `mapstructure:"cadence"`
	Memory   Memory  `mapstructure:"memory"`
	Ingest   Ingest  `mapstructure:"ingest"`
	Rules    Rules   `mapstructure:"rules"`
	Log      Log     `mapstructure:"log"`
	HTTP     HTTP    `mapstructure:"http"`
	Output   Output  `mapstructure:"output"`
	Sinks    Sinks   `mapstructure:"sinks"`
}

// Cadence sets each task's period. Zero disables the task.
type Cadence struct {
	Biometrics    time.Duration `mapstructure:"biometrics"`
	Environmental time.Duration `mapstructure:"environmental"`
	Digital       time.Duration `mapstructure:"digital"`
	Emotional     time.Duration `mapstructure:"emotional"`
	Patterns      time.Duration `mapstructure:"patterns"`
	Predictions   time.Duration `mapstructure:"predictions"`
	Memory        time.Duration `mapstructure:"memory"`
}

// Memory configures the consolidated history log.
type Memory struct {
	Capacity int `mapstructure:"capacity"`
}

// Ingest configures partial readings.
type Ingest struct {
	Hold time.Duration `mapstructure:"hold"`
}

// Rules holds the pattern rule thresholds.
type Rules struct {
	Stress   StressRule   `mapstructure:"stress"`
	Flow     FlowRule     `mapstructure:"flow"`
	Fatigue  FatigueRule  `mapstructure:"fatigue"`
	Creative CreativeRule `mapstructure:"creative"`
}

// StressRule thresholds.
type StressRule struct {
	HeartRate  float64 `mapstructure:"heart_rate"`
	HRV        float64 `mapstructure:"hrv"`
	Confidence float64 `mapstructure:"confidence"`
}

// FlowRule thresholds.
type FlowRule struct {
	Focus      float64 `mapstructure:"focus"`
	Stress     float64 `mapstructure:"stress"`
	Confidence float64 `mapstructure:"confidence"`
}

// FatigueRule thresholds.
type FatigueRule struct {
	Energy     float64 `mapstructure:"energy"`
	ScreenTime float64 `mapstructure:"screen_time"`
	Confidence float64 `mapstructure:"confidence"`
}

// CreativeRule thresholds. Hours are inclusive.
type CreativeRule struct {
	StartHour  int     `mapstructure:"start_hour"`
	EndHour    int     `mapstructure:"end_hour"`
	Alpha      float64 `mapstructure:"alpha"`
	Confidence float64 `mapstructure:"confidence"`
}

// Log defines logger output.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// HTTP defines the API listener.
type HTTP struct {
	Addr string `mapstructure:"addr"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
}

// Sinks configures event forwarding.
type Sinks struct {
	Events  []string    `mapstructure:"events"`
	Buffer  int         `mapstructure:"buffer"`
	Redis   RedisSink   `mapstructure:"redis"`
	MQTT    MQTTSink    `mapstructure:"mqtt"`
	Journal JournalSink `mapstructure:"journal"`
}

// RedisSink forwards events to a Redis stream. Empty Addr disables it.
type RedisSink struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Stream   string `mapstructure:"stream"`
	MaxLen   int64  `mapstructure:"max_len"`
}

// MQTTSink publishes events to an MQTT broker. Empty Broker disables it.
type MQTTSink struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         int    `mapstructure:"qos"`
}

// JournalSink records events in the local SQLite journal.
type JournalSink struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("seed", 0)
	v.SetDefault("timezone", "Local")

	v.SetDefault("cadence.biometrics", DefaultCadence.Biometrics)
	v.SetDefault("cadence.environmental", DefaultCadence.Environmental)
	v.SetDefault("cadence.digital", DefaultCadence.Digital)
	v.SetDefault("cadence.emotional", DefaultCadence.Emotional)
	v.SetDefault("cadence.patterns", DefaultCadence.Patterns)
	v.SetDefault("cadence.predictions", DefaultCadence.Predictions)
	v.SetDefault("cadence.memory", DefaultCadence.Memory)

	v.SetDefault("memory.capacity", 100)
	v.SetDefault("ingest.hold", 10*time.Second)

	v.SetDefault("rules.stress.heart_rate", DefaultRules.Stress.HeartRate)
	v.SetDefault("rules.stress.hrv", DefaultRules.Stress.HRV)
	v.SetDefault("rules.stress.confidence", DefaultRules.Stress.Confidence)
	v.SetDefault("rules.flow.focus", DefaultRules.Flow.Focus)
	v.SetDefault("rules.flow.stress", DefaultRules.Flow.Stress)
	v.SetDefault("rules.flow.confidence", DefaultRules.Flow.Confidence)
	v.SetDefault("rules.fatigue.energy", DefaultRules.Fatigue.Energy)
	v.SetDefault("rules.fatigue.screen_time", DefaultRules.Fatigue.ScreenTime)
	v.SetDefault("rules.fatigue.confidence", DefaultRules.Fatigue.Confidence)
	v.SetDefault("rules.creative.start_hour", DefaultRules.Creative.StartHour)
	v.SetDefault("rules.creative.end_hour", DefaultRules.Creative.EndHour)
	v.SetDefault("rules.creative.alpha", DefaultRules.Creative.Alpha)
	v.SetDefault("rules.creative.confidence", DefaultRules.Creative.Confidence)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("http.addr", ":8787")
	v.SetDefault("output.color", DefaultOutput.Color)

	v.SetDefault("sinks.events", DefaultSinkEvents)
	v.SetDefault("sinks.buffer", 1024)
	v.SetDefault("sinks.redis.addr", "")
	v.SetDefault("sinks.redis.password", "")
	v.SetDefault("sinks.redis.db", 0)
	v.SetDefault("sinks.redis.stream", "lifestream:events")
	v.SetDefault("sinks.redis.max_len", 10000)
	v.SetDefault("sinks.mqtt.broker", "")
	v.SetDefault("sinks.mqtt.client_id", "lifestream")
	v.SetDefault("sinks.mqtt.username", "")
	v.SetDefault("sinks.mqtt.password", "")
	v.SetDefault("sinks.mqtt.topic_prefix", "lifestream")
	v.SetDefault("sinks.mqtt.qos", 0)
	v.SetDefault("sinks.journal.enabled", false)
	v.SetDefault("sinks.journal.path", filepath.Join(DefaultConfigDir, DefaultDBName))
}

// Load reads configuration from the given path (or the default location),
// then applies a .env file in the working directory and LIFESTREAM_*
// environment variables, and returns a validated Config.
func Load(cfgFile string) (*Config, error) {
	// A missing .env is normal; variables already set in the process win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Sinks.Journal.Path = expandPath(cfg.Sinks.Journal.Path)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the stream cannot run with.
func (c *Config) Validate() error {
	var errs []error

	cadences := map[string]time.Duration{
		"biometrics":    c.Cadence.Biometrics,
		"environmental": c.Cadence.Environmental,
		"digital":       c.Cadence.Digital,
		"emotional":     c.Cadence.Emotional,
		"patterns":      c.Cadence.Patterns,
		"predictions":   c.Cadence.Predictions,
		"memory":        c.Cadence.Memory,
	}
	for _, name := range []string{"biometrics", "environmental", "digital", "emotional", "patterns", "predictions", "memory"} {
		if cadences[name] < 0 {
			errs = append(errs, fmt.Errorf("cadence.%s must not be negative, got %s", name, cadences[name]))
		}
	}

	if c.Memory.Capacity < 1 {
		errs = append(errs, fmt.Errorf("memory.capacity must be at least 1, got %d", c.Memory.Capacity))
	}
	if c.Ingest.Hold < 0 {
		errs = append(errs, fmt.Errorf("ingest.hold must not be negative, got %s", c.Ingest.Hold))
	}

	confidences := []struct {
		key string
		v   float64
	}{
		{"rules.stress.confidence", c.Rules.Stress.Confidence},
		{"rules.flow.confidence", c.Rules.Flow.Confidence},
		{"rules.fatigue.confidence", c.Rules.Fatigue.Confidence},
		{"rules.creative.confidence", c.Rules.Creative.Confidence},
	}
	for _, cf := range confidences {
		if cf.v < 0 || cf.v > 1 {
			errs = append(errs, fmt.Errorf("%s must be in [0,1], got %v", cf.key, cf.v))
		}
	}

	cr := c.Rules.Creative
	if cr.StartHour < 0 || cr.EndHour > 23 || cr.StartHour > cr.EndHour {
		errs = append(errs, fmt.Errorf("rules.creative hours must satisfy 0 <= start_hour <= end_hour <= 23, got %d-%d", cr.StartHour, cr.EndHour))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or console", c.Log.Format))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if c.Sinks.Buffer < 1 {
		errs = append(errs, fmt.Errorf("sinks.buffer must be at least 1, got %d", c.Sinks.Buffer))
	}
	if c.Sinks.MQTT.QoS < 0 || c.Sinks.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("sinks.mqtt.qos must be 0, 1 or 2, got %d", c.Sinks.MQTT.QoS))
	}

	return errors.Join(errs...)
}

// Location resolves the configured time zone. Empty and "Local" mean the
// host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// DBPath returns the full path to the default SQLite journal.
func DBPath() string {
	return filepath.Join(expandPath(DefaultConfigDir), DefaultDBName)
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}
