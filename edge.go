package sumobit

import (
	"fmt"

	"github.com/jpalmerr/sumobit/internal/registers"
)

// Side selects an edge sensor.
type Side int

// Edge sensor selections. SideBoth requires both sensors to agree.
const (
	SideRight Side = iota
	SideLeft
	SideBoth
)

func (s Side) String() string {
	switch s {
	case SideRight:
		return "right"
	case SideLeft:
		return "left"
	case SideBoth:
		return "both"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// DefaultCalibration is the threshold coefficient used by the board's
// calibration block: thresholds at half the calibration reading.
const DefaultCalibration = 5

// ReadEdge returns the raw reading (0-1023) of the right or left edge sensor.
// Lower values mean a darker surface.
func (b *Board) ReadEdge(side Side) (int, error) {
	switch side {
	case SideRight:
		return b.readAnalog(PinEdgeRight)
	case SideLeft:
		return b.readAnalog(PinEdgeLeft)
	}
	return 0, fmt.Errorf("%w: edge side %v", ErrInvalidSelection, side)
}

// CompareEdge compares the raw edge reading against threshold. For
// [SideBoth] both sensors must satisfy the comparator.
func (b *Board) CompareEdge(side Side, cmp Comparator, threshold float64) (bool, error) {
	switch side {
	case SideRight, SideLeft:
		v, err := b.ReadEdge(side)
		if err != nil {
			return false, err
		}
		return cmp.Compare(float64(v), threshold)
	case SideBoth:
		right, err := b.ReadEdge(SideRight)
		if err != nil {
			return false, err
		}
		left, err := b.ReadEdge(SideLeft)
		if err != nil {
			return false, err
		}
		return compareAll(cmp, threshold, float64(right), float64(left))
	}
	return false, fmt.Errorf("%w: edge side %d", ErrInvalidSelection, int(side))
}

// CalibrateEdgeThreshold samples both edge sensors over the arena surface
// and stores thresholds at coefficient tenths of each reading. coefficient
// is clamped to 1-9.
func (b *Board) CalibrateEdgeThreshold(coefficient int) error {
	right, err := b.ReadEdge(SideRight)
	if err != nil {
		return err
	}
	left, err := b.ReadEdge(SideLeft)
	if err != nil {
		return err
	}

	ratio := float64(registers.Clamp(coefficient, 1, 9)) * 0.1
	rt, lt := float64(right)*ratio, float64(left)*ratio

	b.mu.Lock()
	b.rightThreshold = rt
	b.leftThreshold = lt
	b.calibrated = true
	b.mu.Unlock()

	b.logger.Info("edge thresholds calibrated", "right", rt, "left", lt, "coefficient", coefficient)
	return nil
}

// EdgeThresholds returns the calibrated right and left thresholds.
func (b *Board) EdgeThresholds() (right, left float64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.calibrated {
		return 0, 0, ErrNotCalibrated
	}
	return b.rightThreshold, b.leftThreshold, nil
}

// EdgeDetected reports whether a sensor reads below its calibrated
// threshold, i.e. sees the arena border. For [SideBoth] both sensors
// must see it.
func (b *Board) EdgeDetected(side Side) (bool, error) {
	rt, lt, err := b.EdgeThresholds()
	if err != nil {
		return false, err
	}

	switch side {
	case SideRight:
		v, err := b.ReadEdge(SideRight)
		return err == nil && float64(v) < rt, err
	case SideLeft:
		v, err := b.ReadEdge(SideLeft)
		return err == nil && float64(v) < lt, err
	case SideBoth:
		r, err := b.EdgeDetected(SideRight)
		if err != nil || !r {
			return false, err
		}
		return b.EdgeDetected(SideLeft)
	}
	return false, fmt.Errorf("%w: edge side %d", ErrInvalidSelection, int(side))
}
