package app

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/lifestream/internal/demo"
	"github.com/blackwell-systems/lifestream/internal/output"
)

var (
	demoFast   bool
	demoSettle string
	demoNotify bool
	demoServe  bool
)

var demoCmd = &cobra.Command{
	Use:   "demo [scenario]",
	Short: "Play a scripted scenario",
	Long: `Play one of the built-in scenarios: a short script of readings applied
to the stream at fixed offsets. The stream keeps running for the settle time
after the last step so patterns and predictions can react.

Without an argument, lists the scenarios.

Examples:
  lifestream demo                      # list scenarios
  lifestream demo work_stress          # play live with the dashboard
  lifestream demo creative_hour --fast # play on a virtual clock`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().BoolVar(&demoFast, "fast", false, "Play on a virtual clock and print the result")
	demoCmd.Flags().StringVar(&demoSettle, "settle", "20s", "How long to keep running after the last step")
	demoCmd.Flags().BoolVar(&demoNotify, "notify", false, "Send desktop notifications for alerts")
	demoCmd.Flags().BoolVar(&demoServe, "serve", false, "Expose the HTTP API while playing")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		printScenarios()
		return nil
	}
	sc, err := demo.Lookup(args[0])
	if err != nil {
		return fmt.Errorf("%w (run 'lifestream demo' for the list)", err)
	}
	settle, err := parseOptionalDuration("settle", demoSettle)
	if err != nil {
		return err
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	if demoFast {
		sim, err := simulate(e, time.Now(), sc.Duration()+settle, sc.Name)
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

	s, err := e.newStream(nil)
	if err != nil {
		return err
	}
	if err := demo.Play(s, sc); err != nil {
		return err
	}
	return runLive(cmd.Context(), e, s, liveOptions{
		serve:     demoServe,
		addr:      e.cfg.HTTP.Addr,
		notify:    demoNotify,
		dashboard: true,
		refresh:   defaultRefresh,
		duration:  sc.Duration() + settle,
	})
}

func printScenarios() {
	tbl := output.NewTable("Scenario", "Steps", "Length", "Description").AlignRight(1, 2)
	for _, name := range demo.Names() {
		sc, _ := demo.Lookup(name)
		tbl.AddRow(sc.Name, fmt.Sprintf("%d", len(sc.Steps)), sc.Duration().String(), sc.Description)
	}
	fmt.Print(tbl.Render())
}
