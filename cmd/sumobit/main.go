// Package main is the entry point for the sumobit CLI.
//
// The board can be driven either as a library (SDK) or through this binary
// with a YAML configuration.
//
// Usage:
//
//	sumobit run -c robot.yaml      # Register watches and serve the API
//	sumobit read -c robot.yaml     # Print one sensor snapshot
//	sumobit validate -c robot.yaml # Validate configuration
//	sumobit version                # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "sumobit",
	Short: "Drive a SUMO:BIT sumo robot board",
	Long: `sumobit drives a SUMO:BIT sumo robot expansion board.

It registers edge-triggered watches on the board's sensors, runs an action
each time one fires, and serves telemetry and events over HTTP.

Quick start:
  1. Create a config file (robot.yaml)
  2. Run: sumobit run -c robot.yaml
  3. Fetch http://localhost:8080/api/telemetry

Example config:
  board:
    bus: i2c
    device: /dev/i2c-1
  watches:
    - name: right stall
      channel: current-right
      compare: ">"
      threshold: 7.0
      action: brake`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this sumobit binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sumobit %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// newLogger creates a JSON logger on stderr at the level chosen by
// --log-level.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	name, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", name)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})), nil
}
