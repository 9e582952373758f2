package store

import "time"

// Telemetry is the storage representation of one sensor snapshot, optimized
// for JSON serialization. It is decoupled from the SDK's types.
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

// Event is a fired watch notification.
type Event struct {
	// ID uniquely identifies the event across families.
	ID     string    `json:"id"`
	Family string    `json:"family"`
	Code   int       `json:"code"`
	Name   string    `json:"name"`
	Sweep  uint64    `json:"sweep"`
	At     time.Time `json:"at"`
}

// Watch is the storage representation of a registered watch.
type Watch struct {
	Family       string    `json:"family"`
	Code         int       `json:"code"`
	Name         string    `json:"name"`
	Last         bool      `json:"last"`
	Fired        uint64    `json:"fired"`
	Failures     uint64    `json:"failures"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Update kinds.
const (
	KindTelemetry = "telemetry"
	KindEvent     = "event"
)

// Update is a message delivered to subscribers. Exactly one of Telemetry
// and Event is set, according to Kind.
type Update struct {
	Kind      string     `json:"kind"`
	Telemetry *Telemetry `json:"telemetry,omitempty"`
	Event     *Event     `json:"event,omitempty"`
}

// Store defines the interface for storing board state and subscribing to
// changes.
//
// Store implementations must be safe for concurrent access.
type Store interface {
	// SetTelemetry replaces the latest snapshot and notifies subscribers.
	SetTelemetry(t Telemetry)

	// Telemetry returns the latest snapshot, false if none was stored yet.
	Telemetry() (Telemetry, bool)

	// RecordEvent appends a fired event to the bounded history and notifies
	// subscribers.
	RecordEvent(ev Event)

	// Events returns the retained history, oldest first.
	Events() []Event

	// SetWatches replaces the registered watch list.
	SetWatches(ws []Watch)

	// Watches returns the registered watch list.
	Watches() []Watch

	// Subscribe returns a channel that receives updates.
	// The returned channel has a buffer; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan Update

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan Update)
}
