package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sumobit/config"
)

// validateCmd validates a config file without opening the board.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a sumobit configuration file without opening the board.

This command parses the YAML, expands environment variables, and validates
all fields, including every watch channel, comparator and action.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  sumobit validate -c robot.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Bus:       %s %s (address %#02x)\n", cfg.Board.Bus, cfg.Board.Device, cfg.Board.Address)
	fmt.Fprintf(out, "  Pins:      %d mapped\n", len(cfg.Board.Pins))
	fmt.Fprintf(out, "  Port:      %d\n", cfg.Port)
	fmt.Fprintf(out, "  Telemetry: every %s\n", cfg.TelemetryInterval.Duration())
	fmt.Fprintf(out, "  Watches:   %d\n", len(cfg.Watches))
	for _, w := range cfg.Watches {
		fmt.Fprintf(out, "    - %s: %s %s %g -> %s\n", w.Name, w.Channel, w.Compare, w.Threshold, w.Action.Type)
	}
	return nil
}
