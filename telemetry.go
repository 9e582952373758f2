package sumobit

import (
	"context"
	"errors"
	"time"
)

// Telemetry is one reading of every board sensor.
type Telemetry struct {
	At             time.Time `json:"at"`
	Battery        float64   `json:"battery_volts"`
	CurrentRight   float64   `json:"current_right_amps"`
	CurrentLeft    float64   `json:"current_left_amps"`
	Mode           int       `json:"mode"`
	EdgeRight      *int      `json:"edge_right,omitempty"`
	EdgeLeft       *int      `json:"edge_left,omitempty"`
	Opponents      []int     `json:"opponents,omitempty"`
	EdgeThresholds []float64 `json:"edge_thresholds,omitempty"`
	Errors         []string  `json:"errors,omitempty"`
}

// Snapshot reads every sensor once. Readings that fail are left at their
// zero value and listed in Errors; the returned error joins them. Pin-based
// sensors are skipped when the board has no pin back-end.
func (b *Board) Snapshot(ctx context.Context) (Telemetry, error) {
	t := Telemetry{At: b.now()}
	if err := ctx.Err(); err != nil {
		return t, err
	}

	var errs []error
	record := func(err error) {
		errs = append(errs, err)
		t.Errors = append(t.Errors, err.Error())
	}

	if v, err := b.ReadBattery(); err != nil {
		record(err)
	} else {
		t.Battery = v
	}
	if v, err := b.ReadMotorCurrent(MotorRight); err != nil {
		record(err)
	} else {
		t.CurrentRight = v
	}
	if v, err := b.ReadMotorCurrent(MotorLeft); err != nil {
		record(err)
	} else {
		t.CurrentLeft = v
	}
	if v, err := b.ReadMode(); err != nil {
		record(err)
	} else {
		t.Mode = v
	}

	if rt, lt, err := b.EdgeThresholds(); err == nil {
		t.EdgeThresholds = []float64{rt, lt}
	}

	if b.pins == nil {
		return t, errors.Join(errs...)
	}

	if v, err := b.ReadEdge(SideRight); err != nil {
		record(err)
	} else {
		t.EdgeRight = &v
	}
	if v, err := b.ReadEdge(SideLeft); err != nil {
		record(err)
	} else {
		t.EdgeLeft = &v
	}
	if vals, err := b.OpponentValues(); err != nil {
		record(err)
	} else {
		t.Opponents = vals[:]
	}

	return t, errors.Join(errs...)
}
