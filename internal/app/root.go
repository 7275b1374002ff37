// Package app contains the Cobra command tree for lifestream.
package app

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
	flagSeed    uint64
)

var rootCmd = &cobra.Command{
	Use:   "lifestream",
	Short: "Synthetic personal signal stream with patterns, predictions and memories",
	Long: `lifestream generates a continuous synthetic stream of personal signals
(biometrics, environment, digital activity, emotional state), detects
patterns in it, forecasts where it is heading and consolidates what it
saw into a bounded memory log.

Run 'lifestream run' for a live dashboard, or 'lifestream state --for 1m'
to simulate a minute on a virtual clock.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("lifestream", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  run       Run the stream with a live dashboard")
		fmt.Println("  state     Simulate on a virtual clock and print the snapshot")
		fmt.Println("  serve     Run the stream behind the HTTP API")
		fmt.Println("  mcp       Run the stream behind an MCP stdio server")
		fmt.Println("  demo      Play a scripted scenario")
		fmt.Println("  journal   Summarize the last recorded session")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// notifyContext returns a context cancelled on the first shutdown signal.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return ossignal.NotifyContext(parent, shutdownSignals...)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/lifestream/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 0, "Random seed (overrides config; 0 keeps the configured value)")
}
