package sumobit

import "errors"

var (
	// ErrInvalidChannel is returned for a [Channel] outside the defined set.
	ErrInvalidChannel = errors.New("sumobit: invalid channel")

	// ErrInvalidComparator is returned for a [Comparator] outside the defined set.
	ErrInvalidComparator = errors.New("sumobit: invalid comparator")

	// ErrInvalidSelection is returned for an unknown motor, servo, pixel,
	// edge side, opponent sensor, direction or search mode.
	ErrInvalidSelection = errors.New("sumobit: invalid selection")

	// ErrHardwareRead wraps every failed bus or pin read.
	ErrHardwareRead = errors.New("sumobit: hardware read failed")

	// ErrHardwareWrite wraps every failed bus or pin write.
	ErrHardwareWrite = errors.New("sumobit: hardware write failed")

	// ErrNotCalibrated is returned by calibrated edge checks before
	// [Board.CalibrateEdgeThreshold] has run.
	ErrNotCalibrated = errors.New("sumobit: edge thresholds not calibrated")

	// ErrNilHandler is returned when registering a watch without a handler.
	ErrNilHandler = errors.New("sumobit: handler cannot be nil")

	// ErrNoPins is returned by pin-based sensors when the board was created
	// without [WithPins].
	ErrNoPins = errors.New("sumobit: no pin back-end configured")
)
