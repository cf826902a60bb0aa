package main

import (
	"encoding/json"
	"net/http"

	"github.com/peercheck/peercheck/internal/engine"
	"github.com/peercheck/peercheck/internal/metrics"
)

func setupRouter(collector *metrics.Collector, eng *engine.Engine) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/statusz", statusHandler(collector, eng))

	return mux
}

type status struct {
	State        string           `json:"state"`
	LastFailures int              `json:"last_failures"`
	Metrics      metrics.Snapshot `json:"metrics"`
}

func statusHandler(collector *metrics.Collector, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status{
			State:        eng.State().String(),
			LastFailures: eng.LastFailures(),
			Metrics:      collector.Snapshot(),
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
