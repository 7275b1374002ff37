package app

import (
	"github.com/spf13/cobra"
)

var (
	runServe    bool
	runAddr     string
	runNotify   bool
	runQuiet    bool
	runDuration string
	runRefresh  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the stream with a live dashboard",
	Long: `Run the signal stream on the wall clock. The dashboard redraws every
refresh interval while stdout is a terminal; otherwise alerts print as they
happen and the final state prints on exit. Sinks configured under 'sinks'
receive every forwarded event.

Examples:
  lifestream run                       # dashboard until ctrl-c
  lifestream run --serve               # also expose the HTTP API
  lifestream run --notify              # desktop notifications for alerts
  lifestream run --duration 2m --json  # stop after 2 minutes, print JSON`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runServe, "serve", false, "Expose the HTTP API while running")
	runCmd.Flags().StringVar(&runAddr, "addr", "", "HTTP listen address (default from config http.addr)")
	runCmd.Flags().BoolVar(&runNotify, "notify", false, "Send desktop notifications for alerts")
	runCmd.Flags().BoolVar(&runQuiet, "quiet", false, "Suppress the dashboard")
	runCmd.Flags().StringVar(&runDuration, "duration", "", "Stop after this long (e.g. 90s, 5m)")
	runCmd.Flags().StringVar(&runRefresh, "refresh", "1s", "Dashboard refresh interval")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	duration, err := parseOptionalDuration("duration", runDuration)
	if err != nil {
		return err
	}
	refresh, err := parseOptionalDuration("refresh", runRefresh)
	if err != nil {
		return err
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	s, err := e.newStream(nil)
	if err != nil {
		return err
	}
	return runLive(cmd.Context(), e, s, liveOptions{
		serve:     runServe,
		addr:      listenAddr(e, runAddr),
		notify:    runNotify,
		dashboard: !runQuiet,
		refresh:   refresh,
		duration:  duration,
	})
}

func listenAddr(e *env, flag string) string {
	if flag != "" {
		return flag
	}
	return e.cfg.HTTP.Addr
}
