package collective

import (
	"errors"
	"time"
)

// ErrTimeout is returned by Wait when the operation does not complete in
// time. The underlying operation keeps running and is not cancelled.
var ErrTimeout = errors.New("collective operation timed out")

// Work is the waitable handle for one asynchronous collective operation.
type Work struct {
	done chan struct{}
	err  error
}

// Wait blocks until the operation completes or timeout elapses.
func (w *Work) Wait(timeout time.Duration) error {
	select {
	case <-w.done:
		return w.err
	case <-time.After(timeout):
		return ErrTimeout
	}
}
