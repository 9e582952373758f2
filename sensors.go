package sumobit

import (
	"fmt"

	"github.com/jpalmerr/sumobit/internal/registers"
)

// ReadBattery returns the battery voltage in volts.
func (b *Board) ReadBattery() (float64, error) {
	return b.readPair(registers.Battery)
}

// ReadMotorCurrent returns the current drawn by the right or left motor in
// amps, with two decimal places.
func (b *Board) ReadMotorCurrent(motor Motor) (float64, error) {
	switch motor {
	case MotorRight:
		return b.readPair(registers.CurrentRight)
	case MotorLeft:
		return b.readPair(registers.CurrentLeft)
	}
	return 0, fmt.Errorf("%w: motor current %v", ErrInvalidSelection, motor)
}

// CompareCurrent compares motor current against threshold. For [MotorAll]
// both motors must satisfy the comparator.
func (b *Board) CompareCurrent(motor Motor, cmp Comparator, threshold float64) (bool, error) {
	switch motor {
	case MotorRight, MotorLeft:
		v, err := b.ReadMotorCurrent(motor)
		if err != nil {
			return false, err
		}
		return cmp.Compare(v, threshold)
	case MotorAll:
		right, err := b.ReadMotorCurrent(MotorRight)
		if err != nil {
			return false, err
		}
		left, err := b.ReadMotorCurrent(MotorLeft)
		if err != nil {
			return false, err
		}
		return compareAll(cmp, threshold, right, left)
	}
	return false, fmt.Errorf("%w: motor %d", ErrInvalidSelection, int(motor))
}

// ReadMode returns the mode dial position (0-15).
func (b *Board) ReadMode() (int, error) {
	v, err := b.readRegister(registers.DIP)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// CheckMode reports whether the mode dial is at mode.
func (b *Board) CheckMode(mode int) (bool, error) {
	v, err := b.ReadMode()
	if err != nil {
		return false, err
	}
	return v == mode, nil
}

// compareAll reports whether every value satisfies cmp on its own.
func compareAll(cmp Comparator, threshold float64, values ...float64) (bool, error) {
	for _, v := range values {
		ok, err := cmp.Compare(v, threshold)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
