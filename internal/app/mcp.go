package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/lifestream/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the stream behind an MCP stdio server",
	Long: `Start a Model Context Protocol stdio server backed by a live stream.
The server exposes five tools:

  get_state        Full snapshot with patterns, predictions and memories
  get_patterns     Patterns from the latest evaluation
  get_predictions  Latest forecasts
  get_memories     Last N consolidated memories
  ingest_reading   Apply a partial reading to one channel group

Add to an MCP client configuration:
  {"mcpServers":{"lifestream":{"command":"lifestream","args":["mcp"]}}}

Logs go to stderr; stdout carries only the protocol.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	s, err := e.newStream(nil)
	if err != nil {
		return err
	}
	srv := mcp.NewServer(s, appVersion, e.logger.Named("mcp"))

	ctx, stop := notifyContext(cmd.Context())
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCancel(s.Run(gctx))
	})
	g.Go(func() error {
		// The client closing stdin ends the session.
		defer cancel()
		return srv.Run(gctx, os.Stdin, os.Stdout)
	})
	return g.Wait()
}
