package app

import (
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the stream behind the HTTP API",
	Long: `Run the signal stream on the wall clock and serve it over HTTP without a
dashboard. Configured sinks still receive events.

Endpoints:
  GET  /health
  GET  /api/v1/state
  GET  /api/v1/patterns
  GET  /api/v1/predictions
  GET  /api/v1/memories?limit=N
  POST /api/v1/ingest
  GET  /api/v1/events?names=patterns,predictions   (Server-Sent Events)`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config http.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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
		serve: true,
		addr:  listenAddr(e, serveAddr),
	})
}
