package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sumobit"
	"github.com/jpalmerr/sumobit/config"
)

const shutdownTimeout = 10 * time.Second

// runCmd opens the board, registers the configured watches and serves the
// API.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured watches and serve the API",
	Long: `Open the board and run until interrupted.

The command will:
  - Load configuration from the specified YAML file
  - Open the configured bus and host pins
  - Optionally calibrate the edge sensors
  - Register every configured watch with its action
  - Serve telemetry, events and watches over HTTP

Motors are braked and LEDs cleared on exit (Ctrl+C or SIGTERM).

Example:
  sumobit run -c robot.yaml
  sumobit run --config /etc/sumobit/robot.yaml --log-level debug`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Info("config loaded",
		"bus", cfg.Board.Bus,
		"device", cfg.Board.Device,
		"watches", len(cfg.Watches),
	)

	hw, err := config.OpenHardware(cfg.Board)
	if err != nil {
		return fmt.Errorf("failed to open board: %w", err)
	}
	defer func() { _ = hw.Close() }()

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := append(config.BoardOptions(cfg, hw, logger), sumobit.WithContext(ctx))
	board, err := sumobit.NewBoard(hw.Bus, opts...)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}
	defer func() {
		_ = board.Close()
		safeStop(board, logger)
	}()

	if cfg.Calibrate > 0 {
		if err := board.CalibrateEdgeThreshold(cfg.Calibrate); err != nil {
			return fmt.Errorf("failed to calibrate edge sensors: %w", err)
		}
	}

	if _, err := config.RegisterWatches(ctx, board, cfg, logger); err != nil {
		return fmt.Errorf("failed to register watches: %w", err)
	}

	mon, err := sumobit.NewMonitor(board, config.MonitorOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	// start monitor - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- mon.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("monitor error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("monitor error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

// safeStop brakes both motors and clears the LEDs, logging failures.
func safeStop(board *sumobit.Board, logger *slog.Logger) {
	if err := board.BrakeMotor(sumobit.MotorAll); err != nil {
		logger.Warn("failed to brake motors", "error", err)
	}
	if err := board.ClearRGB(); err != nil {
		logger.Warn("failed to clear leds", "error", err)
	}
}
