package probe

import (
	"time"

	"github.com/peercheck/peercheck/internal/collective"
	"github.com/peercheck/peercheck/internal/executor"
)

// Work is the waitable handle of an asynchronous reduction.
type Work interface {
	Wait(timeout time.Duration) error
}

// Reducer runs asynchronous sum all-reduces over an established group.
type Reducer interface {
	AllReduce(values []float64) Work
}

// Channel is one established probe channel: the communication group for
// one side plus its dedicated execution stream. Channels are immutable
// after setup and owned exclusively by the engine's worker.
type Channel struct {
	Side      int
	GroupID   int
	GroupRank int
	GroupSize int
	Stream    *executor.Stream
	Group     Reducer
}

type groupReducer struct {
	group *collective.Group
}

func (r groupReducer) AllReduce(values []float64) Work {
	return r.group.AllReduce(values)
}
