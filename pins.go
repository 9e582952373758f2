package sumobit

import "fmt"

// Pins is the host pin back-end for the sensors wired directly to the
// microcontroller rather than the board controller. Pin numbers follow the
// edge connector (P0, P1, P12...).
type Pins interface {
	// ReadAnalog returns a 10-bit reading (0-1023).
	ReadAnalog(pin int) (int, error)

	// ReadDigital returns 0 or 1.
	ReadDigital(pin int) (int, error)

	// PullUp enables the internal pull-up resistor on pin.
	PullUp(pin int) error
}

// Edge connector pins used by the board's sensors.
const (
	PinEdgeRight = 0
	PinEdgeLeft  = 1

	PinOppRight       = 12
	PinOppFrontRight  = 13
	PinOppFrontCenter = 14
	PinOppFrontLeft   = 15
	PinOppLeft        = 16
)

func (b *Board) readAnalog(pin int) (int, error) {
	if b.pins == nil {
		return 0, fmt.Errorf("%w: pin P%d: %w", ErrHardwareRead, pin, ErrNoPins)
	}
	v, err := b.pins.ReadAnalog(pin)
	if err != nil {
		return 0, fmt.Errorf("%w: pin P%d: %w", ErrHardwareRead, pin, err)
	}
	return v, nil
}

func (b *Board) readDigital(pin int) (int, error) {
	if b.pins == nil {
		return 0, fmt.Errorf("%w: pin P%d: %w", ErrHardwareRead, pin, ErrNoPins)
	}
	v, err := b.pins.ReadDigital(pin)
	if err != nil {
		return 0, fmt.Errorf("%w: pin P%d: %w", ErrHardwareRead, pin, err)
	}
	return v, nil
}
