package sumobit

import (
	"fmt"

	"github.com/jpalmerr/sumobit/internal/registers"
)

// Motor selects one or both drive motors.
type Motor int

// Motor selections. MotorAll addresses both motors.
const (
	MotorRight Motor = iota
	MotorLeft
	MotorAll
)

func (m Motor) String() string {
	switch m {
	case MotorRight:
		return "right"
	case MotorLeft:
		return "left"
	case MotorAll:
		return "all"
	}
	return fmt.Sprintf("Motor(%d)", int(m))
}

// channels returns the register blocks addressed by m.
func (m Motor) channels() ([]registers.Motor, error) {
	switch m {
	case MotorRight:
		return []registers.Motor{registers.MotorRight}, nil
	case MotorLeft:
		return []registers.Motor{registers.MotorLeft}, nil
	case MotorAll:
		return []registers.Motor{registers.MotorRight, registers.MotorLeft}, nil
	}
	return nil, fmt.Errorf("%w: motor %d", ErrInvalidSelection, int(m))
}

// Direction is the rotation of a drive motor.
type Direction int

// Motor directions.
const (
	Forward Direction = iota
	Backward
)

// DefaultAcceleration is the acceleration factor used when none is given.
const DefaultAcceleration = 4

// RunMotor drives motor in dir. speed is clamped to 0-255 and accel to 1-9.
func (b *Board) RunMotor(motor Motor, dir Direction, speed, accel int) error {
	chans, err := motor.channels()
	if err != nil {
		return err
	}

	var d byte
	switch dir {
	case Forward:
		d = registers.DirForward
	case Backward:
		d = registers.DirBackward
	default:
		return fmt.Errorf("%w: direction %d", ErrInvalidSelection, int(dir))
	}

	pwm := byte(registers.Clamp(speed, 0, 255))
	acc := byte(registers.Clamp(accel, 1, 9))

	kv := make([]byte, 0, 6*len(chans))
	for _, c := range chans {
		kv = append(kv, c.PWM, pwm, c.DIR, d, c.ACCEL, acc)
	}
	return b.writeRegisters(kv...)
}

// BrakeMotor stops motor by zeroing its speed and direction.
func (b *Board) BrakeMotor(motor Motor) error {
	chans, err := motor.channels()
	if err != nil {
		return err
	}
	kv := make([]byte, 0, 4*len(chans))
	for _, c := range chans {
		kv = append(kv, c.PWM, 0, c.DIR, registers.DirForward)
	}
	return b.writeRegisters(kv...)
}

// SetMotorsSpeed drives both motors with signed speeds, negative meaning
// backward. Magnitudes are clamped to 255 and accel to 1-9.
func (b *Board) SetMotorsSpeed(left, right, accel int) error {
	rightDir, rightSpeed := signed(right)
	leftDir, leftSpeed := signed(left)

	if err := b.RunMotor(MotorRight, rightDir, rightSpeed, accel); err != nil {
		return err
	}
	return b.RunMotor(MotorLeft, leftDir, leftSpeed, accel)
}

func signed(speed int) (Direction, int) {
	if speed < 0 {
		return Backward, -speed
	}
	return Forward, speed
}
