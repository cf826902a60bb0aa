package executor

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Submit after the stream has been closed.
var ErrClosed = errors.New("stream closed")

const submitBuffer = 16

// Stream runs submitted tasks one at a time, in submission order, on a
// single dedicated goroutine.
type Stream struct {
	mu     sync.Mutex
	closed bool
	tasks  chan func()
	done   chan struct{}
}

// NewStream creates a stream and starts its worker goroutine.
func NewStream() *Stream {
	s := &Stream{
		tasks: make(chan func(), submitBuffer),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Stream) run() {
	defer close(s.done)
	for task := range s.tasks {
		task()
	}
}

// Submit enqueues a task. Tasks run in FIFO order; Submit blocks only
// when the queue is full.
func (s *Stream) Submit(task func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.tasks <- task
	return nil
}

// Close stops accepting tasks, waits for queued tasks to finish, and
// returns. It is safe to call more than once.
func (s *Stream) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.tasks)
	}
	s.mu.Unlock()

	<-s.done
}
