package sumobit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// boardConfig holds mutable state during Board construction.
type boardConfig struct {
	address   uint16
	pins      Pins
	logger    *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	pace      map[Family]time.Duration
	observers []func(Event)
	ctx       context.Context
}

// Option configures a [Board] during construction. Options return an error
// if validation fails.
type Option func(*boardConfig) error

// WithAddress sets the 7-bit bus address of the board controller.
//
// Returns an error if the address is outside 0x03-0x77.
func WithAddress(addr uint16) Option {
	return func(cfg *boardConfig) error {
		if addr < 0x03 || addr > 0x77 {
			return fmt.Errorf("address %#x outside 7-bit range", addr)
		}
		cfg.address = addr
		return nil
	}
}

// WithPins sets the host pin back-end used by the edge and opponent sensors.
// Without it those sensors return [ErrNoPins].
func WithPins(p Pins) Option {
	return func(cfg *boardConfig) error {
		if p == nil {
			return errors.New("pins cannot be nil")
		}
		cfg.pins = p
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the board and its pollers.
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *boardConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithClock replaces time.Now. Routines that depend on elapsed time
// (countdown, defensive search) and event timestamps use it.
func WithClock(now func() time.Time) Option {
	return func(cfg *boardConfig) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.now = now
		return nil
	}
}

// WithSleeper replaces the pause used by pollers and routines. The function
// must return ctx.Err() if ctx is done before d elapses.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(cfg *boardConfig) error {
		if sleep == nil {
			return errors.New("sleeper cannot be nil")
		}
		cfg.sleep = sleep
		return nil
	}
}

// WithPace sets the pause after each watch evaluation for one family.
// Defaults are 10ms for motor current and edge watches and 20ms for mode
// and battery watches.
//
// Returns an error for an unknown family or a duration that is not
// positive.
func WithPace(f Family, d time.Duration) Option {
	return func(cfg *boardConfig) error {
		if _, ok := cfg.pace[f]; !ok {
			return fmt.Errorf("%w: family %q", ErrInvalidSelection, f)
		}
		if d <= 0 {
			return fmt.Errorf("pace must be positive, got %v", d)
		}
		cfg.pace[f] = d
		return nil
	}
}

// WithEventObserver registers a function that sees every fired event of
// every family, after the watch's own handler. Observers run on the
// dispatch goroutine; panics are recovered and logged.
//
// Nil observers are silently ignored.
func WithEventObserver(fn func(Event)) Option {
	return func(cfg *boardConfig) error {
		if fn == nil {
			return nil
		}
		cfg.observers = append(cfg.observers, fn)
		return nil
	}
}

// WithContext sets the parent context of the background pollers. Cancelling
// it stops polling as [Board.Close] does.
func WithContext(ctx context.Context) Option {
	return func(cfg *boardConfig) error {
		if ctx == nil {
			return errors.New("context cannot be nil")
		}
		cfg.ctx = ctx
		return nil
	}
}
