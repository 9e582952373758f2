package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sumobit"
	"github.com/jpalmerr/sumobit/config"
)

// readCmd prints one snapshot of every sensor.
var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Print one sensor snapshot",
	Long: `Read every sensor once and print the result as JSON.

Readings that fail are listed under "errors"; the command still succeeds
so a partly wired robot can be checked sensor by sensor.

Example:
  sumobit read -c robot.yaml`,
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = readCmd.MarkFlagRequired("config")
}

func runRead(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	hw, err := config.OpenHardware(cfg.Board)
	if err != nil {
		return fmt.Errorf("failed to open board: %w", err)
	}
	defer func() { _ = hw.Close() }()

	board, err := sumobit.NewBoard(hw.Bus, config.BoardOptions(cfg, hw, logger)...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}
	defer func() { _ = board.Close() }()

	if cfg.Calibrate > 0 {
		if err := board.CalibrateEdgeThreshold(cfg.Calibrate); err != nil {
			logger.Warn("edge calibration failed", "error", err)
		}
	}

	tel, err := board.Snapshot(cmd.Context())
	if err != nil {
		logger.Warn("snapshot incomplete", "error", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(tel)
}
