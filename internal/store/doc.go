// Package store keeps the board state served by the HTTP API: the latest
// telemetry snapshot, a bounded history of fired watch events and the list
// of registered watches.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Update]: Message delivered to subscribers on every change
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block the pollers).
//
// Users of the sumobit library should not need to interact with this
// package directly. Storage is managed by sumobit.Monitor.
package store
