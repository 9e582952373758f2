package store

import (
	"sync"
)

// DefaultHistory is the number of events a [MemoryStore] retains by default.
const DefaultHistory = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Events are kept in a ring of fixed capacity; the oldest event is evicted
// once it is full.
//
// Subscribers receive updates via buffered channels (buffer size 100). Updates
// are sent non-blocking; if a subscriber's buffer is full, the update is dropped
// for that subscriber to prevent blocking the pollers.
type MemoryStore struct {
	mu           sync.RWMutex
	telemetry    Telemetry
	hasTelemetry bool
	events       []Event
	next         int
	full         bool
	watches      []Watch

	subscribers map[chan Update]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a [MemoryStore] retaining up to history events.
// A non-positive history uses [DefaultHistory].
func NewMemoryStore(history int) *MemoryStore {
	if history <= 0 {
		history = DefaultHistory
	}
	return &MemoryStore{
		events:      make([]Event, history),
		subscribers: make(map[chan Update]struct{}),
	}
}

// SetTelemetry stores t as the latest snapshot and notifies subscribers.
func (m *MemoryStore) SetTelemetry(t Telemetry) {
	m.mu.Lock()
	m.telemetry = t
	m.hasTelemetry = true
	m.mu.Unlock()

	m.notifySubscribers(Update{Kind: KindTelemetry, Telemetry: &t})
}

// Telemetry returns the latest snapshot.
func (m *MemoryStore) Telemetry() (Telemetry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.telemetry, m.hasTelemetry
}

// RecordEvent appends ev to the history and notifies subscribers.
func (m *MemoryStore) RecordEvent(ev Event) {
	m.mu.Lock()
	m.events[m.next] = ev
	m.next = (m.next + 1) % len(m.events)
	if m.next == 0 {
		m.full = true
	}
	m.mu.Unlock()

	m.notifySubscribers(Update{Kind: KindEvent, Event: &ev})
}

// Events returns a copy of the retained events, oldest first.
func (m *MemoryStore) Events() []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.full {
		return append([]Event(nil), m.events[:m.next]...)
	}
	out := make([]Event, 0, len(m.events))
	out = append(out, m.events[m.next:]...)
	return append(out, m.events[:m.next]...)
}

// SetWatches replaces the stored watch list.
func (m *MemoryStore) SetWatches(ws []Watch) {
	cp := append([]Watch(nil), ws...)
	m.mu.Lock()
	m.watches = cp
	m.mu.Unlock()
}

// Watches returns a copy of the stored watch list.
func (m *MemoryStore) Watches() []Watch {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Watch(nil), m.watches...)
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// The returned channel has a buffer of 100 messages. If the buffer fills
// (slow consumer), new updates are dropped for this subscriber.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Update {
	ch := make(chan Update, 100)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Update) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends u to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(u Update) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- u:
		default:
			// subscriber is slow, drop the message
		}
	}
}
