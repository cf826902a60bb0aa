package engine

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/peercheck/peercheck/internal/metrics"
	"github.com/peercheck/peercheck/internal/pairing"
)

// ErrProbeTimeout marks a probe that did not complete within the
// configured timeout.
var ErrProbeTimeout = errors.New("probe timed out")

// State is the lifecycle state of the engine.
type State int

const (
	StateInitializing State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "INITIALIZING"
	case StateRunning:
		return "RUNNING"
	case StateShuttingDown:
		return "SHUTTING-DOWN"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Outcome classifies one channel's probe result within a round.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeTimeout
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// ChannelResult is one channel's outcome in a round.
type ChannelResult struct {
	Side    int
	Outcome Outcome
	Err     error
}

// Failed reports whether this result counts toward the round's failure
// count.
func (r ChannelResult) Failed() bool {
	return r.Outcome != OutcomeSuccess
}

// Prober establishes probe channels and runs probes over them. The
// engine drives it: Setup is called once per side before the first
// round, Probe once per probed channel per round, Close on teardown.
type Prober interface {
	Setup(ctx context.Context, side int) error
	Probe(side int) error
	Close() error
}

// Config holds the engine's immutable settings.
type Config struct {
	// AbortOnError terminates the process when every channel fails in
	// the same round.
	AbortOnError bool

	// Interval is the pause between rounds.
	Interval time.Duration

	// Timeout bounds both a round's probe wait and the collective
	// operation inside each probe.
	Timeout time.Duration

	// SetupTimeout bounds the channel rendezvous during setup. Zero
	// means wait indefinitely.
	SetupTimeout time.Duration

	// SingleChannelRounds reproduces the legacy dispatch that probes
	// only channel 0 each round. With it set the abort policy can never
	// trigger, since the failure count is still compared against the
	// number of channels set up.
	SingleChannelRounds bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock substitutes the engine's time source.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithTerminator substitutes the process-termination hook invoked by the
// abort policy.
func WithTerminator(terminate func()) Option {
	return func(e *Engine) { e.terminate = terminate }
}

// WithCollector attaches a metrics collector.
func WithCollector(c *metrics.Collector) Option {
	return func(e *Engine) { e.collector = c }
}

// Engine is the healthcheck engine. New starts it eagerly; Shutdown
// stops it.
type Engine struct {
	cfg       Config
	prober    Prober
	logger    *zap.Logger
	clock     clock.Clock
	terminate func()
	collector *metrics.Collector

	mu           sync.Mutex
	state        State
	shutdown     bool
	lastFailures int

	shutdownCh chan struct{}
	done       chan struct{}
}

// New constructs the engine and launches its background worker. Channel
// setup and the probe loop begin immediately.
func New(cfg Config, prober Prober, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		prober:     prober,
		logger:     logger,
		clock:      clock.New(),
		state:      StateInitializing,
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}
	e.terminate = func() {
		logger.Error("terminating process")
		os.Exit(1)
	}

	for _, opt := range opts {
		opt(e)
	}

	go e.runLoop()
	return e
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastFailures returns the failure count of the most recent round.
func (e *Engine) LastFailures() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastFailures
}

// Shutdown requests the loop to stop and blocks until the background
// worker has exited. It is safe to call from any goroutine, at any point
// in the engine's life, and more than once.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	if !e.shutdown {
		e.shutdown = true
		close(e.shutdownCh)
	}
	e.mu.Unlock()

	<-e.done
}

func (e *Engine) setState(state State) {
	e.mu.Lock()
	previous := e.state
	e.state = state
	e.mu.Unlock()

	if previous != state {
		e.logger.Info("healthcheck state changed",
			zap.Stringer("from", previous),
			zap.Stringer("to", state))
	}
}

func (e *Engine) runLoop() {
	defer close(e.done)
	defer e.setState(StateStopped)

	if err := e.setupChannels(); err != nil {
		e.logger.Error("healthcheck setup failed", zap.Error(err))
		if closeErr := e.prober.Close(); closeErr != nil {
			e.logger.Warn("prober teardown failed", zap.Error(closeErr))
		}
		return
	}

	e.setState(StateRunning)

	for {
		results := e.runRound()
		failures := e.aggregate(results)

		if failures == pairing.NumSides && e.cfg.AbortOnError {
			e.logger.Error("current host identified as problematic, aborting",
				zap.Int("failures", failures))
			e.emit(metrics.Event{Type: metrics.EventAbortTriggered})
			e.terminate()
			return
		}

		if e.waitInterval() {
			break
		}
	}

	e.setState(StateShuttingDown)
	if err := e.prober.Close(); err != nil {
		e.logger.Warn("prober teardown failed", zap.Error(err))
	}
}

// setupChannels establishes every probe channel, in side order, before
// the first round.
func (e *Engine) setupChannels() error {
	e.logger.Info("healthcheck setup starting")

	ctx := context.Background()
	if e.cfg.SetupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.SetupTimeout)
		defer cancel()
	}

	for side := 0; side < pairing.NumSides; side++ {
		if err := e.prober.Setup(ctx, side); err != nil {
			return err
		}
	}

	e.logger.Info("healthcheck setup complete")
	return nil
}

func (e *Engine) probedSides() []int {
	if e.cfg.SingleChannelRounds {
		return []int{0}
	}
	sides := make([]int, pairing.NumSides)
	for i := range sides {
		sides[i] = i
	}
	return sides
}

// runRound fans out one probe per channel and collects the outcomes,
// bounded by the configured timeout. Probes that miss the deadline are
// recorded as timeouts and abandoned.
func (e *Engine) runRound() []ChannelResult {
	sides := e.probedSides()
	e.logger.Info("running healthcheck round", zap.Ints("sides", sides))

	type probeResult struct {
		side int
		err  error
	}

	resultCh := make(chan probeResult, len(sides))
	for _, side := range sides {
		go func(side int) {
			resultCh <- probeResult{side: side, err: e.prober.Probe(side)}
		}(side)
	}

	deadline := e.clock.Timer(e.cfg.Timeout)
	defer deadline.Stop()

	outstanding := make(map[int]struct{}, len(sides))
	for _, side := range sides {
		outstanding[side] = struct{}{}
	}

	results := make([]ChannelResult, 0, len(sides))
	for len(outstanding) > 0 {
		select {
		case r := <-resultCh:
			delete(outstanding, r.side)
			results = append(results, e.classify(r.side, r.err))

		case <-deadline.C:
			for side := range outstanding {
				e.logger.Warn("healthcheck timed out", zap.Int("side", side))
				results = append(results, ChannelResult{Side: side, Outcome: OutcomeTimeout, Err: ErrProbeTimeout})
			}
			outstanding = nil
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Side < results[j].Side })
	return results
}

func (e *Engine) classify(side int, err error) ChannelResult {
	switch {
	case err == nil:
		e.logger.Info("healthcheck passed", zap.Int("side", side))
		return ChannelResult{Side: side, Outcome: OutcomeSuccess}
	case errors.Is(err, ErrProbeTimeout):
		e.logger.Warn("healthcheck timed out", zap.Int("side", side), zap.Error(err))
		return ChannelResult{Side: side, Outcome: OutcomeTimeout, Err: err}
	default:
		e.logger.Warn("healthcheck failed", zap.Int("side", side), zap.Error(err))
		return ChannelResult{Side: side, Outcome: OutcomeFailure, Err: err}
	}
}

// aggregate stores the round's failure count and publishes metrics.
func (e *Engine) aggregate(results []ChannelResult) int {
	failures := 0
	for _, r := range results {
		if r.Failed() {
			failures++
		}
		e.emit(metrics.Event{
			Type:    metrics.EventProbeOutcome,
			Side:    r.Side,
			Outcome: r.Outcome.String(),
		})
	}

	e.mu.Lock()
	e.lastFailures = failures
	e.mu.Unlock()

	e.logger.Info("healthcheck round complete", zap.Int("failures", failures))
	e.emit(metrics.Event{Type: metrics.EventRoundCompleted, Failures: failures})
	return failures
}

// waitInterval sleeps until the next round is due or a shutdown request
// arrives, and reports whether the loop should stop.
func (e *Engine) waitInterval() bool {
	timer := e.clock.Timer(e.cfg.Interval)
	defer timer.Stop()

	select {
	case <-e.shutdownCh:
		return true
	case <-timer.C:
	}

	// A shutdown that raced the interval timer still wins.
	select {
	case <-e.shutdownCh:
		return true
	default:
		return false
	}
}

func (e *Engine) emit(event metrics.Event) {
	if e.collector != nil {
		e.collector.Emit(event)
	}
}
