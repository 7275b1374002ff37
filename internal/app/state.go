package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/lifestream/internal/clock"
	"github.com/blackwell-systems/lifestream/internal/demo"
	"github.com/blackwell-systems/lifestream/internal/output"
	"github.com/blackwell-systems/lifestream/internal/stream"
	"github.com/blackwell-systems/lifestream/internal/watcher"
)

// simulationStep bounds how many alerts can queue between drains.
const simulationStep = time.Second

var (
	stateFor      string
	stateAt       string
	stateScenario string
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Simulate on a virtual clock and print the snapshot",
	Long: `Run the stream on a virtual clock for the given duration, firing every
task at its exact time, then print the resulting state. Nothing waits on the
wall clock, so an hour of signal takes a moment to compute.

Examples:
  lifestream state                          # one minute from now
  lifestream state --for 1h --seed 42       # reproducible hour
  lifestream state --at 2026-03-01T10:00:00Z --scenario creative_hour
  lifestream state --for 30s --json`,
	RunE: runState,
}

func init() {
	stateCmd.Flags().StringVar(&stateFor, "for", "1m", "Virtual time to simulate")
	stateCmd.Flags().StringVar(&stateAt, "at", "", "Virtual start time, RFC 3339 (default: now)")
	stateCmd.Flags().StringVar(&stateScenario, "scenario", "", "Play a demo scenario from the start")
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	d, err := parseOptionalDuration("for", stateFor)
	if err != nil {
		return err
	}
	start := time.Now()
	if stateAt != "" {
		if start, err = time.Parse(time.RFC3339, stateAt); err != nil {
			return fmt.Errorf("invalid --at %q: %w", stateAt, err)
		}
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	sim, err := simulate(e, start, d, stateScenario)
	if err != nil {
		return err
	}
	if err := printState(os.Stdout, sim.stream, e); err != nil {
		return err
	}
	if !flagJSON {
		writeAlerts(os.Stdout, e, sim.alerts)
	}
	return nil
}

// simulation is the outcome of a virtual-clock run.
type simulation struct {
	stream *stream.Stream
	alerts []watcher.Alert
	ticks  int
}

// simulate builds a stream on a manual clock at start, optionally plays a
// scenario and advances d in one-second steps, collecting alerts.
func simulate(e *env, start time.Time, d time.Duration, scenario string) (*simulation, error) {
	s, err := e.newStream(clock.NewManual(start))
	if err != nil {
		return nil, err
	}
	defer s.Stop()

	if scenario != "" {
		sc, err := demo.Lookup(scenario)
		if err != nil {
			return nil, err
		}
		if err := demo.Play(s, sc); err != nil {
			return nil, err
		}
	}

	w := watcher.New(nil)
	detach := w.Attach(s.Bus())
	defer detach()

	sim := &simulation{stream: s}
	for remaining := d; remaining > 0; remaining -= simulationStep {
		fired, err := s.Advance(min(remaining, simulationStep))
		if err != nil {
			return nil, fmt.Errorf("advancing stream: %w", err)
		}
		sim.ticks += fired
		sim.alerts = append(sim.alerts, w.Drain()...)
	}
	e.logger.Debug("simulation finished", zap.Duration("virtual", d), zap.Int("ticks", sim.ticks), zap.Int("alerts", len(sim.alerts)))
	return sim, nil
}

func parseOptionalDuration(flag, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q: %w", flag, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("--%s must not be negative, got %s", flag, d)
	}
	return d, nil
}

// writeAlerts prints alerts collected during a simulation.
func writeAlerts(out io.Writer, e *env, alerts []watcher.Alert) {
	if len(alerts) == 0 {
		return
	}
	fmt.Fprintln(out, output.Section(fmt.Sprintf("Alerts (%d)", len(alerts))))
	for _, a := range alerts {
		fmt.Fprintln(out, " "+output.RenderAlert(a, e.loc))
	}
}
