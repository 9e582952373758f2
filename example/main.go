package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/sumobit"
	"github.com/jpalmerr/sumobit/internal/registers"
	"github.com/jpalmerr/sumobit/internal/sim"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// simulated robot in a scripted arena (see arena.go)
	hw := sim.New(registers.AddressDefault)
	hw.SetBattery(7.6)

	board, err := sumobit.NewBoard(hw, sumobit.WithPins(hw), sumobit.WithLogger(logger))
	if err != nil {
		slog.Error("failed to create board", "error", err)
		os.Exit(1)
	}
	defer board.Close()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go runArena(ctx, hw)

	// the robot starts on the arena surface
	hw.SetAnalog(sumobit.PinEdgeRight, 820)
	hw.SetAnalog(sumobit.PinEdgeLeft, 790)
	if err := board.CalibrateEdgeThreshold(sumobit.DefaultCalibration); err != nil {
		slog.Error("calibration failed", "error", err)
		os.Exit(1)
	}

	_, _ = board.OnCurrentEvent(sumobit.MotorAll, sumobit.MoreThan, 7.0, func(ev sumobit.Event) {
		logger.Warn("both motors stalled, pushing contest", "sweep", ev.Sweep)
	})
	_, _ = board.OnBatteryEvent(sumobit.LessThan, 6.5, func(sumobit.Event) {
		logger.Warn("battery low")
		_ = board.SetAllRGB(sumobit.Red)
	})

	mon, err := sumobit.NewMonitor(board, sumobit.WithPort(8080), sumobit.WithTitle("Demo bot"))
	if err != nil {
		slog.Error("failed to create monitor", "error", err)
		os.Exit(1)
	}
	go func() {
		if err := mon.Start(ctx); err != nil {
			slog.Error("monitor error", "error", err)
		}
	}()

	fmt.Println()
	fmt.Println("  SUMO:BIT demo on a simulated board")
	fmt.Println("  Telemetry: http://localhost:8080/api/telemetry")
	fmt.Println("  Events:    http://localhost:8080/api/sse")
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	err = board.Countdown(ctx, 5, func(n int) {
		_ = board.SetAllRGB(sumobit.RGB(0, 0, 50*n))
	})
	if err == nil {
		err = fight(ctx, board)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("match aborted", "error", err)
	}

	_ = board.BrakeMotor(sumobit.MotorAll)
	_ = board.ClearRGB()
}

// fight is the match loop: retreat from the border, otherwise attack
// anything in sight, otherwise search.
func fight(ctx context.Context, board *sumobit.Board) error {
	for ctx.Err() == nil {
		right, err := board.EdgeDetected(sumobit.SideRight)
		if err != nil {
			return err
		}
		left, err := board.EdgeDetected(sumobit.SideLeft)
		if err != nil {
			return err
		}

		switch {
		case right:
			err = board.Backoff(ctx, sumobit.TurnLeft, sumobit.DefaultRoutineSpeed, sumobit.DefaultRoutineAccel)
		case left:
			err = board.Backoff(ctx, sumobit.TurnRight, sumobit.DefaultRoutineSpeed, sumobit.DefaultRoutineAccel)
		default:
			var seen sumobit.Sensor
			seen, err = board.Attack(255, sumobit.DefaultRoutineAccel)
			if err == nil && seen == sumobit.SensorNone {
				err = board.Search(ctx, sumobit.SearchNormal, sumobit.DefaultRoutineSpeed, sumobit.DefaultRoutineAccel)
			}
		}
		if err != nil {
			return err
		}
		time.Sleep(10 * time.Millisecond)
	}
	return ctx.Err()
}
