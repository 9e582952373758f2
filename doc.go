// Package sumobit drives the SUMO:BIT sumo robot expansion board and lets
// programs react to sensor changes with edge-triggered watches.
//
// The board controller sits on a register-addressed two-wire bus. Motors,
// servos, RGB pixels, the battery and motor current readouts and the mode
// dial are all reached through it. The edge and opponent sensors are wired
// to host pins and are read through a [Pins] back-end.
//
// # Quick Start
//
//	bus, _ := transport.OpenI2C("")
//	board, err := sumobit.NewBoard(bus, sumobit.WithPins(pins))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer board.Close()
//
//	board.OnCurrentEvent(sumobit.MotorAll, sumobit.MoreThan, 7.0, func(ev sumobit.Event) {
//	    board.BrakeMotor(sumobit.MotorAll)
//	})
//
// # Watches
//
// A watch pairs a [Channel], a [Comparator] and a threshold with a handler.
// The handler runs once each time the comparison goes from false to true;
// readings that stay true do not fire again. Watches are grouped into
// families (motor current, mode, edge, battery). Each family keeps its own
// notification codes, counting from 1, and is polled by its own goroutine,
// started by the family's first watch.
//
// A failed sensor read skips the watch for that pass and keeps its previous
// result. Handlers run on their own goroutines, so a slow handler never
// delays polling.
//
// # Routines
//
// [Board.Countdown], [Board.Backoff], [Board.Attack] and [Board.Search]
// implement the usual match behaviour of a sumo robot on top of the motor
// and sensor primitives.
//
// # Monitoring
//
// [Monitor] samples every sensor into a [Telemetry] snapshot, records fired
// events and serves both over a JSON API with a Server-Sent Events stream:
//
//	mon, _ := sumobit.NewMonitor(board, sumobit.WithPort(8080))
//	mon.Start(ctx) // blocks until ctx is cancelled
//
// # Architecture
//
//   - internal/poller: per-family watch registry and polling loop
//   - internal/registers: register map and readout codecs
//   - internal/store: in-memory telemetry and event history with pub/sub
//   - internal/server: HTTP API and Server-Sent Events
//   - internal/transport: periph.io and serial bridge back-ends
//   - internal/sim: in-memory board used by tests and the CLI's sim bus
package sumobit
