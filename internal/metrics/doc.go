// Package metrics collects healthcheck engine metrics.
//
// It uses a channel-based event pipeline: the engine emits events about
// round completions, per-channel probe outcomes, and abort triggers; a
// dedicated collector goroutine folds them into Prometheus collectors
// and a JSON-friendly snapshot. Events are sent with non-blocking
// semantics so the probe path never stalls on metrics.
package metrics
