// Package server provides the HTTP API of the sumobit daemon.
//
// It serves JSON snapshots of the telemetry, fired events and registered
// watches held in a store.Store, plus a Server-Sent Events stream at
// "/api/sse". The server supports graceful shutdown via context
// cancellation, with a 5-second timeout for in-flight requests.
//
// Users of the sumobit library should not need to interact with this
// package directly. The server is started by sumobit.Monitor.
package server
