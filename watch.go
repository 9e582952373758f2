package sumobit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jpalmerr/sumobit/internal/poller"
)

// Event is delivered to a watch handler when its condition goes from false
// to true.
type Event struct {
	// Family is the watch family the event belongs to.
	Family Family

	// Code is the notification code returned when the watch was registered.
	// Codes are unique within a family.
	Code int

	// Name is the watch's display name.
	Name string

	// Sweep is the 1-based pass over the family's watches during which the
	// transition was seen.
	Sweep uint64

	// At is the time the event was raised.
	At time.Time
}

// WatchState is a snapshot of one registered watch.
type WatchState struct {
	Family       Family    `json:"family"`
	Code         int       `json:"code"`
	Name         string    `json:"name"`
	Last         bool      `json:"last"`
	Fired        uint64    `json:"fired"`
	Failures     uint64    `json:"failures"`
	RegisteredAt time.Time `json:"registered_at"`
}

func toEvent(ev poller.Event) Event {
	return Event{
		Family: Family(ev.Family),
		Code:   ev.Code,
		Name:   ev.Name,
		Sweep:  ev.Sweep,
		At:     ev.At,
	}
}

// Evaluate reads the live value of ch and applies cmp against threshold.
// For [ChannelCurrentBoth] and [ChannelEdgeBoth] every underlying reading
// must satisfy the comparator on its own.
func (b *Board) Evaluate(ctx context.Context, ch Channel, cmp Comparator, threshold float64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	switch ch {
	case ChannelCurrentRight:
		return b.CompareCurrent(MotorRight, cmp, threshold)
	case ChannelCurrentLeft:
		return b.CompareCurrent(MotorLeft, cmp, threshold)
	case ChannelCurrentBoth:
		return b.CompareCurrent(MotorAll, cmp, threshold)
	case ChannelMode:
		v, err := b.ReadMode()
		if err != nil {
			return false, err
		}
		return cmp.Compare(float64(v), threshold)
	case ChannelEdgeRight:
		return b.CompareEdge(SideRight, cmp, threshold)
	case ChannelEdgeLeft:
		return b.CompareEdge(SideLeft, cmp, threshold)
	case ChannelEdgeBoth:
		return b.CompareEdge(SideBoth, cmp, threshold)
	case ChannelBattery:
		v, err := b.ReadBattery()
		if err != nil {
			return false, err
		}
		return cmp.Compare(v, threshold)
	}
	return false, fmt.Errorf("%w: %d", ErrInvalidChannel, int(ch))
}

// OnEvent registers a watch that calls h each time ch goes from not
// satisfying cmp against threshold to satisfying it. Sustained readings do
// not fire again.
//
// The returned code is unique within the channel's family and counts up
// from 1. The first watch of a family starts that family's poller.
//
// Example:
//
//	board.OnEvent(sumobit.ChannelCurrentRight, sumobit.MoreThan, 7.0, func(ev sumobit.Event) {
//	    board.BrakeMotor(sumobit.MotorAll)
//	})
func (b *Board) OnEvent(ch Channel, cmp Comparator, threshold float64, h func(Event)) (int, error) {
	name := ch.String() + " " + cmp.String() + " " + strconv.FormatFloat(threshold, 'g', -1, 64)
	return b.OnEventNamed(name, ch, cmp, threshold, h)
}

// OnEventNamed is [Board.OnEvent] with an explicit display name.
func (b *Board) OnEventNamed(name string, ch Channel, cmp Comparator, threshold float64, h func(Event)) (int, error) {
	family, err := ch.Family()
	if err != nil {
		return 0, err
	}
	if _, err := cmp.Compare(0, 0); err != nil {
		return 0, err
	}

	cond := func(ctx context.Context) (bool, error) {
		return b.Evaluate(ctx, ch, cmp, threshold)
	}
	return b.register(family, name, cond, h)
}

// OnCurrentEvent registers a motor current watch. [MotorAll] requires both
// motors to satisfy the comparator.
func (b *Board) OnCurrentEvent(motor Motor, cmp Comparator, amps float64, h func(Event)) (int, error) {
	var ch Channel
	switch motor {
	case MotorRight:
		ch = ChannelCurrentRight
	case MotorLeft:
		ch = ChannelCurrentLeft
	case MotorAll:
		ch = ChannelCurrentBoth
	default:
		return 0, fmt.Errorf("%w: motor %d", ErrInvalidSelection, int(motor))
	}
	return b.OnEvent(ch, cmp, amps, h)
}

// OnModeEvent registers a watch that fires when the mode dial is turned to
// mode.
func (b *Board) OnModeEvent(mode int, h func(Event)) (int, error) {
	return b.OnEventNamed("mode "+strconv.Itoa(mode), ChannelMode, Equal, float64(mode), h)
}

// OnEdgeEvent registers a raw edge sensor watch.
func (b *Board) OnEdgeEvent(side Side, cmp Comparator, threshold float64, h func(Event)) (int, error) {
	var ch Channel
	switch side {
	case SideRight:
		ch = ChannelEdgeRight
	case SideLeft:
		ch = ChannelEdgeLeft
	case SideBoth:
		ch = ChannelEdgeBoth
	default:
		return 0, fmt.Errorf("%w: edge side %d", ErrInvalidSelection, int(side))
	}
	return b.OnEvent(ch, cmp, threshold, h)
}

// OnEdgeDetected registers a watch on the calibrated edge check
// ([Board.EdgeDetected]). Until thresholds are calibrated the watch reports
// evaluation failures and never fires.
func (b *Board) OnEdgeDetected(side Side, h func(Event)) (int, error) {
	if side < SideRight || side > SideBoth {
		return 0, fmt.Errorf("%w: edge side %d", ErrInvalidSelection, int(side))
	}
	cond := func(ctx context.Context) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		return b.EdgeDetected(side)
	}
	return b.register(FamilyEdge, "edge detected "+side.String(), cond, h)
}

// OnBatteryEvent registers a battery voltage watch.
func (b *Board) OnBatteryEvent(cmp Comparator, volts float64, h func(Event)) (int, error) {
	return b.OnEvent(ChannelBattery, cmp, volts, h)
}

func (b *Board) register(f Family, name string, cond poller.Condition, h func(Event)) (int, error) {
	if h == nil {
		return 0, ErrNilHandler
	}
	code, err := b.services[f].Register(name, cond, func(ev poller.Event) { h(toEvent(ev)) })
	if err != nil {
		return 0, fmt.Errorf("register %s watch %q: %w", f, name, err)
	}
	b.logger.Debug("watch registered", "family", f, "code", code, "name", name)
	return code, nil
}

// Watches returns every registered watch, grouped by family in the order of
// [Families] and by registration order within a family.
func (b *Board) Watches() []WatchState {
	var out []WatchState
	for _, f := range Families {
		for _, st := range b.services[f].Watches() {
			out = append(out, WatchState{
				Family:       f,
				Code:         st.Code,
				Name:         st.Name,
				Last:         st.Last,
				Fired:        st.Fired,
				Failures:     st.Failures,
				RegisteredAt: st.RegisteredAt,
			})
		}
	}
	return out
}

// Polling reports whether the poller for f has been started.
func (b *Board) Polling(f Family) bool {
	s, ok := b.services[f]
	return ok && s.Running()
}
