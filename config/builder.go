package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"

	"github.com/jpalmerr/sumobit"
	"github.com/jpalmerr/sumobit/internal/sim"
	"github.com/jpalmerr/sumobit/internal/transport"
)

// Bench readings of the simulated board, so a sim config reports a charged
// battery and sensors over the arena surface.
const (
	simBattery = 7.4
	simEdge    = 800
)

// Hardware is an opened board bus with its host pins.
type Hardware struct {
	Bus  drivers.I2C
	Pins sumobit.Pins

	// Sim is set when the bus is the in-memory simulator.
	Sim *sim.Board

	closer io.Closer
}

// Close releases the bus.
func (h *Hardware) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer.Close()
}

// OpenHardware opens the bus and pins described by bc.
func OpenHardware(bc BoardConfig) (*Hardware, error) {
	switch bc.Bus {
	case BusSim:
		hw := sim.New(uint16(bc.Address))
		hw.SetBattery(simBattery)
		hw.SetAnalog(sumobit.PinEdgeRight, simEdge)
		hw.SetAnalog(sumobit.PinEdgeLeft, simEdge)
		return &Hardware{Bus: hw, Pins: hw, Sim: hw}, nil

	case BusI2C:
		bus, err := transport.OpenI2C(bc.Device)
		if err != nil {
			return nil, err
		}
		pins, err := openPins(bc.Pins)
		if err != nil {
			_ = bus.Close()
			return nil, err
		}
		return &Hardware{Bus: bus, Pins: pins, closer: bus}, nil

	case BusSerial:
		bridge, err := transport.OpenSerialBridge(bc.Device, bc.Baud, bc.Timeout.Duration())
		if err != nil {
			return nil, err
		}
		if len(bc.Pins) > 0 {
			if _, err := host.Init(); err != nil {
				_ = bridge.Close()
				return nil, fmt.Errorf("failed to initialise host drivers: %w", err)
			}
		}
		pins, err := openPins(bc.Pins)
		if err != nil {
			_ = bridge.Close()
			return nil, err
		}
		return &Hardware{Bus: bridge, Pins: pins, closer: bridge}, nil
	}
	return nil, fmt.Errorf("unknown bus %q", bc.Bus)
}

// openPins resolves the configured host pins. Edge pins name channels
// registered with transport.RegisterADC; the others name gpioreg pins. It
// returns nil when no pins are configured.
func openPins(names map[string]string) (sumobit.Pins, error) {
	if len(names) == 0 {
		return nil, nil
	}

	digital := make(map[int]string)
	adcs := make(map[int]analog.PinADC)
	for _, logical := range sortedKeys(names) {
		pin := pinNumbers[logical]
		name := names[logical]

		if !analogPins[logical] {
			digital[pin] = name
			continue
		}
		adc := transport.ADCByName(name)
		if adc == nil {
			return nil, fmt.Errorf("pins[%s]: no adc channel registered as %q", logical, name)
		}
		adcs[pin] = adc
	}

	pins, err := transport.NewHostPins(digital, adcs)
	if err != nil {
		return nil, err
	}
	return pins, nil
}

// BoardOptions converts the configuration into SDK board options.
func BoardOptions(cfg *Config, hw *Hardware, logger *slog.Logger) []sumobit.Option {
	opts := []sumobit.Option{
		sumobit.WithAddress(uint16(cfg.Board.Address)),
		sumobit.WithLogger(logger),
	}
	if hw.Pins != nil {
		opts = append(opts, sumobit.WithPins(hw.Pins))
	}
	return opts
}

// MonitorOptions converts the configuration into SDK monitor options.
func MonitorOptions(cfg *Config) []sumobit.MonitorOption {
	opts := []sumobit.MonitorOption{
		sumobit.WithPort(cfg.Port),
		sumobit.WithTelemetryInterval(cfg.TelemetryInterval.Duration()),
		sumobit.WithTitle(cfg.Title),
	}
	if cfg.History > 0 {
		opts = append(opts, sumobit.WithHistory(cfg.History))
	}
	return opts
}

// RegisterWatches registers every configured watch on board. Actions that
// run routines use ctx and stop when it is cancelled. It returns the
// notification code of each watch, in configuration order.
func RegisterWatches(ctx context.Context, board *sumobit.Board, cfg *Config, logger *slog.Logger) ([]int, error) {
	codes := make([]int, 0, len(cfg.Watches))
	for i, wc := range cfg.Watches {
		ch, err := sumobit.ParseChannel(wc.Channel)
		if err != nil {
			return nil, fmt.Errorf("watches[%d] (%s): %w", i, wc.Name, err)
		}
		cmp, err := sumobit.ParseComparator(wc.Compare)
		if err != nil {
			return nil, fmt.Errorf("watches[%d] (%s): %w", i, wc.Name, err)
		}
		h, err := buildAction(ctx, board, wc, logger)
		if err != nil {
			return nil, fmt.Errorf("watches[%d] (%s): %w", i, wc.Name, err)
		}

		code, err := board.OnEventNamed(wc.Name, ch, cmp, wc.Threshold, h)
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// buildAction converts an ActionConfig into a watch handler. Action
// failures are logged, never returned.
func buildAction(ctx context.Context, board *sumobit.Board, wc WatchConfig, logger *slog.Logger) (func(sumobit.Event), error) {
	var run func() error

	a := wc.Action
	switch a.Type {
	case ActionLog, "":
		run = func() error { return nil }
	case ActionBrake:
		run = func() error { return board.BrakeMotor(sumobit.MotorAll) }
	case ActionRGB:
		c, err := sumobit.ParseColor(a.Color)
		if err != nil {
			return nil, err
		}
		run = func() error { return board.SetAllRGB(c) }
	case ActionBackoff:
		turn, err := sumobit.ParseTurn(a.Turn)
		if err != nil {
			return nil, err
		}
		run = func() error {
			return board.Backoff(ctx, turn, sumobit.DefaultRoutineSpeed, sumobit.DefaultRoutineAccel)
		}
	case ActionServo:
		servo, err := parseServo(a.Servo)
		if err != nil {
			return nil, err
		}
		pos := a.Position
		run = func() error { return board.SetServoPosition(servo, pos, sumobit.DefaultServoSpeed) }
	default:
		return nil, fmt.Errorf("unknown action type %q", a.Type)
	}

	action := a.Type
	return func(ev sumobit.Event) {
		logger.Info("watch fired",
			"name", ev.Name,
			"family", ev.Family,
			"code", ev.Code,
			"action", action,
		)
		if err := run(); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("watch action failed", "name", ev.Name, "action", action, "error", err)
		}
	}, nil
}
