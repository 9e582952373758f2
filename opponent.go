package sumobit

import "fmt"

// Sensor selects an opponent sensor. [SensorAll] and [SensorNone] are only
// meaningful to [Board.OpponentDetected].
type Sensor int

// Opponent sensors, left to right.
const (
	SensorLeft Sensor = iota
	SensorFrontLeft
	SensorFrontCenter
	SensorFrontRight
	SensorRight
	SensorAll
	SensorNone
)

// opponentPins is indexed by Sensor, left to right.
var opponentPins = [...]int{
	SensorLeft:        PinOppLeft,
	SensorFrontLeft:   PinOppFrontLeft,
	SensorFrontCenter: PinOppFrontCenter,
	SensorFrontRight:  PinOppFrontRight,
	SensorRight:       PinOppRight,
}

func (s Sensor) String() string {
	switch s {
	case SensorLeft:
		return "left"
	case SensorFrontLeft:
		return "front-left"
	case SensorFrontCenter:
		return "front-center"
	case SensorFrontRight:
		return "front-right"
	case SensorRight:
		return "right"
	case SensorAll:
		return "all"
	case SensorNone:
		return "none"
	}
	return fmt.Sprintf("Sensor(%d)", int(s))
}

// ensurePullUps enables the pull-ups on the opponent inputs once. The
// sensors are open-collector and pull low on detection.
func (b *Board) ensurePullUps() error {
	if b.pins == nil {
		return fmt.Errorf("%w: %w", ErrHardwareRead, ErrNoPins)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pulledUp {
		return nil
	}
	for _, pin := range opponentPins {
		if err := b.pins.PullUp(pin); err != nil {
			return fmt.Errorf("%w: pull-up P%d: %w", ErrHardwareWrite, pin, err)
		}
	}
	b.pulledUp = true
	return nil
}

// OpponentValue returns the raw level of one opponent sensor: 0 when an
// object is detected, 1 otherwise.
func (b *Board) OpponentValue(sensor Sensor) (int, error) {
	if sensor < SensorLeft || sensor > SensorRight {
		return 0, fmt.Errorf("%w: opponent sensor %v", ErrInvalidSelection, sensor)
	}
	if err := b.ensurePullUps(); err != nil {
		return 0, err
	}
	return b.readDigital(opponentPins[sensor])
}

// OpponentValues returns the raw levels of all five sensors, left to right.
func (b *Board) OpponentValues() ([5]int, error) {
	var out [5]int
	for i := range out {
		v, err := b.OpponentValue(Sensor(i))
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

// OpponentDetected reports whether sensor sees an object. [SensorAll] holds
// when every sensor does and [SensorNone] when none does.
func (b *Board) OpponentDetected(sensor Sensor) (bool, error) {
	switch sensor {
	case SensorAll, SensorNone:
		vals, err := b.OpponentValues()
		if err != nil {
			return false, err
		}
		want := 0
		if sensor == SensorNone {
			want = 1
		}
		for _, v := range vals {
			if v != want {
				return false, nil
			}
		}
		return true, nil
	}

	v, err := b.OpponentValue(sensor)
	if err != nil {
		return false, err
	}
	return v == 0, nil
}

// OpponentLevels reports whether the five sensor levels, left to right,
// match pattern exactly. true stands for a high level (nothing detected).
func (b *Board) OpponentLevels(pattern [5]bool) (bool, error) {
	vals, err := b.OpponentValues()
	if err != nil {
		return false, err
	}
	for i, v := range vals {
		if (v == 1) != pattern[i] {
			return false, nil
		}
	}
	return true, nil
}
