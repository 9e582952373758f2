package sumobit

import (
	"fmt"
	"strings"
)

// Channel selects the physical quantity a watch samples.
type Channel int

const (
	// ChannelCurrentRight is the right motor current in amps (0.00-20.00).
	ChannelCurrentRight Channel = iota

	// ChannelCurrentLeft is the left motor current in amps (0.00-20.00).
	ChannelCurrentLeft

	// ChannelCurrentBoth holds only when both motor currents satisfy the
	// comparator individually.
	ChannelCurrentBoth

	// ChannelMode is the mode dial position (0-15).
	ChannelMode

	// ChannelEdgeRight is the raw right edge sensor reading (0-1023).
	ChannelEdgeRight

	// ChannelEdgeLeft is the raw left edge sensor reading (0-1023).
	ChannelEdgeLeft

	// ChannelEdgeBoth holds only when both edge readings satisfy the
	// comparator individually.
	ChannelEdgeBoth

	// ChannelBattery is the battery voltage in volts.
	ChannelBattery
)

var channelNames = [...]string{
	ChannelCurrentRight: "current-right",
	ChannelCurrentLeft:  "current-left",
	ChannelCurrentBoth:  "current-both",
	ChannelMode:         "mode",
	ChannelEdgeRight:    "edge-right",
	ChannelEdgeLeft:     "edge-left",
	ChannelEdgeBoth:     "edge-both",
	ChannelBattery:      "battery",
}

// Valid reports whether c is one of the defined channels.
func (c Channel) Valid() bool {
	return c >= 0 && int(c) < len(channelNames)
}

// String returns the configuration name of the channel.
func (c Channel) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

// Family returns the watch family a channel belongs to. Each family has its
// own registry, notification codes and polling pace.
func (c Channel) Family() (Family, error) {
	switch c {
	case ChannelCurrentRight, ChannelCurrentLeft, ChannelCurrentBoth:
		return FamilyMotorCurrent, nil
	case ChannelMode:
		return FamilyMode, nil
	case ChannelEdgeRight, ChannelEdgeLeft, ChannelEdgeBoth:
		return FamilyEdge, nil
	case ChannelBattery:
		return FamilyBattery, nil
	}
	return "", fmt.Errorf("%w: %d", ErrInvalidChannel, int(c))
}

// ParseChannel parses a channel name such as "current-right" or "mode".
// Matching is case-insensitive and accepts underscores for dashes.
func ParseChannel(s string) (Channel, error) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for i, name := range channelNames {
		if name == norm {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidChannel, s)
}

// Comparator is the test applied between a reading and a threshold.
type Comparator int

const (
	// MoreThan holds when the reading is strictly above the threshold.
	MoreThan Comparator = iota

	// LessThan holds when the reading is strictly below the threshold.
	LessThan

	// Equal holds when the reading equals the threshold. Mode watches use
	// it; it is rarely useful for analog channels.
	Equal
)

// Compare applies the comparator.
//
// The board's block library encoded this as `(v > t && MoreThan) ||
// (v < t && LessThan)`, where MoreThan is the falsy zero value, so the
// "more than" branch could never hold. Compare dispatches on the comparator
// explicitly instead.
func (c Comparator) Compare(value, threshold float64) (bool, error) {
	switch c {
	case MoreThan:
		return value > threshold, nil
	case LessThan:
		return value < threshold, nil
	case Equal:
		return value == threshold, nil
	}
	return false, fmt.Errorf("%w: %d", ErrInvalidComparator, int(c))
}

// String returns the symbolic form of the comparator.
func (c Comparator) String() string {
	switch c {
	case MoreThan:
		return ">"
	case LessThan:
		return "<"
	case Equal:
		return "="
	}
	return fmt.Sprintf("Comparator(%d)", int(c))
}

// ParseComparator accepts ">", "<", "=", "==" and the word forms
// "more-than", "less-than" and "equal".
func ParseComparator(s string) (Comparator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ">", "more-than", "morethan", "gt":
		return MoreThan, nil
	case "<", "less-than", "lessthan", "lt":
		return LessThan, nil
	case "=", "==", "equal", "eq":
		return Equal, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidComparator, s)
}

// Family namespaces the notification codes of a group of watches.
type Family string

// Watch families. Each is polled by its own goroutine.
const (
	FamilyMotorCurrent Family = "motor-current"
	FamilyMode         Family = "mode"
	FamilyEdge         Family = "edge"
	FamilyBattery      Family = "battery"
)

// Families lists every watch family in a stable order.
var Families = []Family{FamilyMotorCurrent, FamilyMode, FamilyEdge, FamilyBattery}
