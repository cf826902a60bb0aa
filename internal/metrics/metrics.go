package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type registry struct {
	reg *prometheus.Registry

	rounds        prometheus.Counter
	probeOutcomes *prometheus.CounterVec
	lastFailures  prometheus.Gauge
	aborts        prometheus.Counter
}

func newRegistry() *registry {
	reg := prometheus.NewRegistry()

	r := &registry{
		reg: reg,
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peercheck_rounds_total",
			Help: "Number of completed healthcheck rounds.",
		}),
		probeOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "peercheck_probe_outcomes_total",
			Help: "Per-channel probe outcomes by side and result.",
		}, []string{"side", "outcome"}),
		lastFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "peercheck_last_round_failures",
			Help: "Failure count of the most recent round.",
		}),
		aborts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "peercheck_aborts_total",
			Help: "Number of abort decisions taken by the engine.",
		}),
	}

	reg.MustRegister(r.rounds, r.probeOutcomes, r.lastFailures, r.aborts)
	return r
}

// Snapshot is a point-in-time view of the collected metrics, served by
// the status endpoint.
type Snapshot struct {
	Rounds       int64 `json:"rounds"`
	LastFailures int   `json:"last_failures"`
	Aborts       int64 `json:"aborts"`
	Timeouts     int64 `json:"timeouts"`
	Failures     int64 `json:"failures"`
	Successes    int64 `json:"successes"`
}

// counters mirrors the Prometheus state for cheap JSON snapshots.
type counters struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

func (c *counters) apply(fn func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.snapshot)
}

func (c *counters) get() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Handler serves the Prometheus exposition format for this collector's
// registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry.reg, promhttp.HandlerOpts{})
}

func sideLabel(side int) string {
	return strconv.Itoa(side)
}
