package metrics

import (
	"context"

	"go.uber.org/zap"
)

type EventType string

const (
	EventRoundCompleted EventType = "round_completed"
	EventProbeOutcome   EventType = "probe_outcome"
	EventAbortTriggered EventType = "abort_triggered"
)

type Event struct {
	Type     EventType
	Side     int
	Outcome  string
	Failures int
}

type Collector struct {
	eventCh  chan Event
	registry *registry
	counters counters
	logger   *zap.Logger
}

func NewCollector(bufferSize int, logger *zap.Logger) *Collector {
	return &Collector{
		eventCh:  make(chan Event, bufferSize),
		registry: newRegistry(),
		logger:   logger,
	}
}

// EventChannel returns the channel events are published on. Senders
// should use non-blocking sends; a full buffer drops the event.
func (c *Collector) EventChannel() chan<- Event {
	return c.eventCh
}

// Emit publishes an event without blocking. Events are dropped when the
// buffer is full.
func (c *Collector) Emit(event Event) {
	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("metrics collector started")
	defer c.logger.Info("metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown.
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event Event) {
	switch event.Type {
	case EventRoundCompleted:
		c.registry.rounds.Inc()
		c.registry.lastFailures.Set(float64(event.Failures))
		c.counters.apply(func(s *Snapshot) {
			s.Rounds++
			s.LastFailures = event.Failures
		})

	case EventProbeOutcome:
		c.registry.probeOutcomes.WithLabelValues(sideLabel(event.Side), event.Outcome).Inc()
		c.counters.apply(func(s *Snapshot) {
			switch event.Outcome {
			case "success":
				s.Successes++
			case "timeout":
				s.Timeouts++
			default:
				s.Failures++
			}
		})

	case EventAbortTriggered:
		c.registry.aborts.Inc()
		c.counters.apply(func(s *Snapshot) {
			s.Aborts++
		})
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

// Snapshot returns the current counter values.
func (c *Collector) Snapshot() Snapshot {
	return c.counters.get()
}
