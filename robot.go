package sumobit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jpalmerr/sumobit/internal/registers"
)

// Defaults for the robot routines.
const (
	DefaultRoutineSpeed = 120
	DefaultRoutineAccel = 9
)

const (
	countdownStep   = 210 * time.Millisecond
	settlePause     = 50 * time.Millisecond
	defenseInterval = 4500 * time.Millisecond
	searchCurve     = 0.85
)

// Turn is the direction a routine rotates the robot.
type Turn int

// Turn directions for backoff and search.
const (
	TurnLeft Turn = iota
	TurnRight
)

func (t Turn) String() string {
	switch t {
	case TurnLeft:
		return "left"
	case TurnRight:
		return "right"
	}
	return fmt.Sprintf("Turn(%d)", int(t))
}

// ParseTurn parses "left" or "right".
func ParseTurn(s string) (Turn, error) {
	switch s {
	case "left":
		return TurnLeft, nil
	case "right":
		return TurnRight, nil
	}
	return 0, fmt.Errorf("%w: turn %q", ErrInvalidSelection, s)
}

// SearchMode is the movement used by [Board.Search] while no opponent is
// in sight.
type SearchMode int

const (
	// SearchNormal curves forward, toward the side of the last backoff.
	SearchNormal SearchMode = iota

	// SearchDefense holds position and lunges forward every 4.5 seconds.
	SearchDefense
)

// Countdown calls show with the remaining whole seconds every 210ms until
// seconds-1 seconds have passed, like the start countdown of a match.
func (b *Board) Countdown(ctx context.Context, seconds int, show func(int)) error {
	if seconds < 1 {
		return fmt.Errorf("%w: countdown %d", ErrInvalidSelection, seconds)
	}
	if show == nil {
		show = func(int) {}
	}

	start := b.now()
	limit := time.Duration(seconds-1) * time.Second
	for {
		elapsed := b.now().Sub(start)
		if elapsed >= limit {
			return nil
		}
		show(seconds - int(math.Round(elapsed.Seconds())))
		if err := b.sleep(ctx, countdownStep); err != nil {
			return err
		}
	}
}

// Backoff retreats from the arena edge: stop, reverse, rotate toward turn,
// then stop. Faster speeds shorten the reverse and rotate phases. The turn
// is remembered as the curve direction for [SearchNormal].
func (b *Board) Backoff(ctx context.Context, turn Turn, speed, accel int) error {
	var left, right, dir int
	speed = registers.Clamp(speed, 0, 255)
	switch turn {
	case TurnRight:
		dir, left, right = 1, speed, -speed
	case TurnLeft:
		dir, left, right = -1, -speed, speed
	default:
		return fmt.Errorf("%w: turn %d", ErrInvalidSelection, int(turn))
	}

	steps := []func() error{
		func() error { return b.BrakeMotor(MotorAll) },
		func() error { return b.sleep(ctx, settlePause) },
		func() error { return b.SetMotorsSpeed(-speed, -speed, accel) },
		func() error { return b.sleep(ctx, time.Duration(350-speed)*time.Millisecond) },
		func() error {
			b.mu.Lock()
			b.searchDirection = dir
			b.mu.Unlock()
			return b.SetMotorsSpeed(left, right, DefaultRoutineAccel)
		},
		func() error { return b.sleep(ctx, time.Duration(380-speed)*time.Millisecond) },
		func() error { return b.BrakeMotor(MotorAll) },
		func() error { return b.sleep(ctx, settlePause) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// Attack steers toward the opponent using the first sensor that sees it, in
// priority order front-center, front-right, front-left, right, left. Only
// a front-center sighting uses speed and accel; the others turn at full
// power. It returns the sensor acted on, or [SensorNone] if nothing was
// detected and the motors were left unchanged.
func (b *Board) Attack(speed, accel int) (Sensor, error) {
	vals, err := b.OpponentValues()
	if err != nil {
		return SensorNone, err
	}
	seen := func(s Sensor) bool { return vals[s] == 0 }

	switch {
	case seen(SensorFrontCenter):
		return SensorFrontCenter, b.SetMotorsSpeed(speed, speed, accel)
	case seen(SensorFrontRight):
		return SensorFrontRight, b.SetMotorsSpeed(255, 0, DefaultRoutineAccel)
	case seen(SensorFrontLeft):
		return SensorFrontLeft, b.SetMotorsSpeed(0, 255, DefaultRoutineAccel)
	case seen(SensorRight):
		return SensorRight, b.SetMotorsSpeed(255, -255, DefaultRoutineAccel)
	case seen(SensorLeft):
		return SensorLeft, b.SetMotorsSpeed(-255, 255, DefaultRoutineAccel)
	}
	return SensorNone, nil
}

// Search moves the robot while no opponent is in sight. Call it repeatedly
// from the main loop.
func (b *Board) Search(ctx context.Context, mode SearchMode, speed, accel int) error {
	switch mode {
	case SearchNormal:
		b.mu.Lock()
		dir := b.searchDirection
		b.mu.Unlock()

		slow := int(float64(speed) * searchCurve)
		if dir == 1 {
			return b.SetMotorsSpeed(speed, slow, accel)
		}
		return b.SetMotorsSpeed(slow, speed, accel)

	case SearchDefense:
		b.mu.Lock()
		due := b.now().Sub(b.searchAt) > defenseInterval
		b.mu.Unlock()

		if !due {
			return b.BrakeMotor(MotorAll)
		}
		if err := b.SetMotorsSpeed(speed, speed, accel); err != nil {
			return err
		}
		if err := b.sleep(ctx, settlePause); err != nil {
			return err
		}
		b.mu.Lock()
		b.searchAt = b.now()
		b.mu.Unlock()
		return nil
	}
	return fmt.Errorf("%w: search mode %d", ErrInvalidSelection, int(mode))
}
