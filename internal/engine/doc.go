// Package engine implements the background healthcheck loop.
//
// The engine owns a single long-lived worker goroutine. It first
// establishes every probe channel, then runs rounds at a fixed interval:
// each round fans out one probe per channel, waits for them up to the
// configured timeout, aggregates failures, and applies the abort policy.
// A round in which every channel fails points at the local host rather
// than a single peer, and terminates the process when abort-on-error is
// configured.
//
// The engine has four states:
//
//   - INITIALIZING: establishing probe channels
//   - RUNNING: probing at the configured interval
//   - SHUTTING-DOWN: a stop was requested, tearing down channels
//   - STOPPED: the worker goroutine has exited
//
// Shutdown is cooperative: it wakes the sleeping loop, prevents further
// rounds, and blocks until the worker has exited. An in-flight probe
// past its deadline is abandoned, not cancelled.
package engine
