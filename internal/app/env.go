package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/blackwell-systems/lifestream/internal/clock"
	"github.com/blackwell-systems/lifestream/internal/config"
	"github.com/blackwell-systems/lifestream/internal/journal"
	"github.com/blackwell-systems/lifestream/internal/logging"
	"github.com/blackwell-systems/lifestream/internal/output"
	"github.com/blackwell-systems/lifestream/internal/pattern"
	"github.com/blackwell-systems/lifestream/internal/signal"
	"github.com/blackwell-systems/lifestream/internal/sink"
	"github.com/blackwell-systems/lifestream/internal/stream"
)

// env bundles what every stream-backed command needs.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	loc    *time.Location
	seed   uint64
	tty    bool
}

func loadEnv() (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flagVerbose {
		cfg.Log.Level = "debug"
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, "lifestream")
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if flagSeed != 0 {
		seed = flagSeed
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	tty := isTerminal(os.Stdout)
	output.SetNoColor(flagNoColor || !cfg.Output.Color || !tty)

	return &env{cfg: cfg, logger: logger, loc: loc, seed: seed, tty: tty}, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// thresholds maps the configured rules onto the detector thresholds.
func thresholds(r config.Rules) pattern.Thresholds {
	return pattern.Thresholds{
		StressHeartRate:    r.Stress.HeartRate,
		StressHRV:          r.Stress.HRV,
		StressConfidence:   r.Stress.Confidence,
		FlowFocus:          r.Flow.Focus,
		FlowStress:         r.Flow.Stress,
		FlowConfidence:     r.Flow.Confidence,
		FatigueEnergy:      r.Fatigue.Energy,
		FatigueScreenTime:  r.Fatigue.ScreenTime,
		FatigueConfidence:  r.Fatigue.Confidence,
		CreativeStartHour:  r.Creative.StartHour,
		CreativeEndHour:    r.Creative.EndHour,
		CreativeAlpha:      r.Creative.Alpha,
		CreativeConfidence: r.Creative.Confidence,
	}
}

func cadence(c config.Cadence) stream.Cadence {
	return stream.Cadence{
		Biometrics:    c.Biometrics,
		Environmental: c.Environmental,
		Digital:       c.Digital,
		Emotional:     c.Emotional,
		Patterns:      c.Patterns,
		Predictions:   c.Predictions,
		Memory:        c.Memory,
	}
}

// streamOptions builds stream options from the config. A nil clk means the
// wall clock.
func (e *env) streamOptions(clk clock.Clock) stream.Options {
	cd := cadence(e.cfg.Cadence)
	th := thresholds(e.cfg.Rules)
	return stream.Options{
		Clock:          clk,
		Rand:           signal.NewRand(e.seed),
		Location:       e.loc,
		Cadence:        &cd,
		Thresholds:     &th,
		MemoryCapacity: e.cfg.Memory.Capacity,
		IngestHold:     e.cfg.Ingest.Hold,
		Logger:         e.logger.Named("stream"),
	}
}

func (e *env) newStream(clk clock.Clock) (*stream.Stream, error) {
	s, err := stream.New(e.streamOptions(clk))
	if err != nil {
		return nil, fmt.Errorf("creating stream: %w", err)
	}
	return s, nil
}

// newDispatcher connects every configured sink. It returns a nil dispatcher
// when none is configured. cleanup must run after the dispatcher has
// stopped.
func (e *env) newDispatcher(ctx context.Context, now func() time.Time) (d *sink.Dispatcher, cleanup func(), err error) {
	sc := e.cfg.Sinks
	var sinks []sink.Sink
	cleanup = func() {}

	fail := func(err error) (*sink.Dispatcher, func(), error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		cleanup()
		return nil, func() {}, err
	}

	if sc.Journal.Enabled {
		db, err := journal.Open(sc.Journal.Path)
		if err != nil {
			return fail(fmt.Errorf("opening journal: %w", err))
		}
		cleanup = func() { _ = db.Close() }
		j, err := sink.NewJournal(db, now(), appVersion, e.seed, now)
		if err != nil {
			return fail(fmt.Errorf("starting journal session: %w", err))
		}
		e.logger.Info("journal session started", zap.String("session", j.Session().UUID), zap.String("path", sc.Journal.Path))
		sinks = append(sinks, j)
	}

	if sc.Redis.Addr != "" {
		r, err := sink.NewRedis(ctx, sink.RedisOptions{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
			Stream:   sc.Redis.Stream,
			MaxLen:   sc.Redis.MaxLen,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, r)
	}

	if sc.MQTT.Broker != "" {
		m, err := sink.NewMQTT(sink.MQTTOptions{
			Broker:      sc.MQTT.Broker,
			ClientID:    sc.MQTT.ClientID,
			Username:    sc.MQTT.Username,
			Password:    sc.MQTT.Password,
			TopicPrefix: sc.MQTT.TopicPrefix,
			QoS:         byte(sc.MQTT.QoS),
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, m)
	}

	if len(sinks) == 0 {
		return nil, cleanup, nil
	}
	return sink.NewDispatcher(sc.Events, sc.Buffer, e.logger.Named("sink"), sinks...), cleanup, nil
}
