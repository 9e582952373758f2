// Package poller provides edge-triggered condition polling for the SUMO:BIT SDK.
//
// A [Service] holds an append-only registry of watches for one family (motor
// current, mode dial, edge sensors, battery). Each watch pairs a [Condition]
// with a [Handler]. A single background goroutine, spawned by the first
// registration, walks the registry in order and dispatches an [Event] only
// when a condition goes from false to true. Sustained true readings do not
// fire again.
//
// Failed or panicking conditions are logged and keep their previous result;
// they never stop the loop. Handlers run on their own goroutines so a slow
// handler cannot delay the next evaluation.
//
// Users of the sumobit package should not need to interact with this package
// directly. Watches are registered through sumobit.Board.
package poller
