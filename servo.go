package sumobit

import (
	"fmt"

	"github.com/jpalmerr/sumobit/internal/registers"
)

// Servo selects one or both servo outputs.
type Servo int

// Servo outputs. ServoAll addresses both.
const (
	Servo1 Servo = iota + 1
	Servo2
	ServoAll
)

// DefaultServoSpeed is the fastest servo speed setting.
const DefaultServoSpeed = 5

func (s Servo) channels() ([]registers.Servo, error) {
	switch s {
	case Servo1:
		return []registers.Servo{registers.Servo1}, nil
	case Servo2:
		return []registers.Servo{registers.Servo2}, nil
	case ServoAll:
		return []registers.Servo{registers.Servo1, registers.Servo2}, nil
	}
	return nil, fmt.Errorf("%w: servo %d", ErrInvalidSelection, int(s))
}

// SetServoPosition moves servo to position degrees (clamped to 0-180) at
// speed (clamped to 1-5). Speeds are written before positions.
func (b *Board) SetServoPosition(servo Servo, position, speed int) error {
	chans, err := servo.channels()
	if err != nil {
		return err
	}

	pos := byte(registers.Clamp(position, 0, 180))
	spd := byte(registers.Clamp(speed, 1, 5))

	kv := make([]byte, 0, 4*len(chans))
	for _, c := range chans {
		kv = append(kv, c.Speed, spd)
	}
	for _, c := range chans {
		kv = append(kv, c.Pos, pos)
	}
	return b.writeRegisters(kv...)
}

// DisableServo parks servo at position 0.
func (b *Board) DisableServo(servo Servo) error {
	return b.SetServoPosition(servo, 0, DefaultServoSpeed)
}
