package main

import (
	"context"
	"time"

	"github.com/jpalmerr/sumobit"
	"github.com/jpalmerr/sumobit/internal/sim"
)

// arenaPhase is one scripted moment of the match.
type arenaPhase struct {
	d        time.Duration
	opponent int // pin pulled low, or -1
	edge     int // edge pin over the border, or -1
	current  float64
}

var arenaScript = []arenaPhase{
	{d: 2 * time.Second, opponent: -1, edge: -1, current: 1.2},
	{d: time.Second, opponent: sumobit.PinOppRight, edge: -1, current: 2.5},
	{d: 2 * time.Second, opponent: sumobit.PinOppFrontCenter, edge: -1, current: 7.8},
	{d: 500 * time.Millisecond, opponent: -1, edge: sumobit.PinEdgeRight, current: 3.0},
	{d: 2 * time.Second, opponent: -1, edge: -1, current: 1.2},
	{d: time.Second, opponent: sumobit.PinOppFrontLeft, edge: -1, current: 4.0},
	{d: 500 * time.Millisecond, opponent: -1, edge: sumobit.PinEdgeLeft, current: 3.0},
}

var opponentPins = []int{
	sumobit.PinOppLeft,
	sumobit.PinOppFrontLeft,
	sumobit.PinOppFrontCenter,
	sumobit.PinOppFrontRight,
	sumobit.PinOppRight,
}

// runArena replays arenaScript on hw until ctx is cancelled, draining the
// battery a little on every phase.
func runArena(ctx context.Context, hw *sim.Board) {
	battery := 7.6
	for {
		for _, p := range arenaScript {
			for _, pin := range opponentPins {
				level := 1
				if pin == p.opponent {
					level = 0
				}
				hw.SetDigital(pin, level)
			}
			hw.SetAnalog(sumobit.PinEdgeRight, edgeLevel(p.edge == sumobit.PinEdgeRight))
			hw.SetAnalog(sumobit.PinEdgeLeft, edgeLevel(p.edge == sumobit.PinEdgeLeft))
			hw.SetCurrent(p.current, p.current)

			battery -= 0.02
			hw.SetBattery(battery)

			select {
			case <-ctx.Done():
				return
			case <-time.After(p.d):
			}
		}
	}
}

func edgeLevel(border bool) int {
	if border {
		return 120
	}
	return 800
}
