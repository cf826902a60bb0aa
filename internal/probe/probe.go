package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/peercheck/peercheck/internal/collective"
	"github.com/peercheck/peercheck/internal/engine"
	"github.com/peercheck/peercheck/internal/executor"
	"github.com/peercheck/peercheck/internal/pairing"
	"github.com/peercheck/peercheck/internal/store"
)

// ErrBadResult marks a probe whose all-reduce produced a numerically
// wrong result.
var ErrBadResult = errors.New("all reduce returned invalid results")

// Collective probes paired hosts with a sum all-reduce. It implements
// engine.Prober.
type Collective struct {
	topo    pairing.Topology
	store   store.Store
	timeout time.Duration
	logger  *zap.Logger

	mu       sync.Mutex
	channels map[int]*Channel
}

// NewCollective validates the topology and creates the prober. Channels
// are established later, one Setup call per side.
func NewCollective(topo pairing.Topology, s store.Store, timeout time.Duration, logger *zap.Logger) (*Collective, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}

	return &Collective{
		topo:     topo,
		store:    s,
		timeout:  timeout,
		logger:   logger,
		channels: make(map[int]*Channel, pairing.NumSides),
	}, nil
}

// Setup establishes the probe channel for one side. It blocks in the
// group rendezvous until every rank of the paired hosts has joined, or
// ctx expires.
func (c *Collective) Setup(ctx context.Context, side int) error {
	a := pairing.Compute(c.topo, side)
	scoped := store.NewPrefix(a.Namespace(), c.store)

	c.logger.Info("creating probe channel",
		zap.Int("side", side),
		zap.Int("group", a.GroupID),
		zap.Int("group_rank", a.GroupRank),
		zap.Int("group_size", a.GroupSize),
		zap.String("namespace", a.Namespace()))

	group, err := collective.NewGroup(ctx, scoped, a.GroupRank, a.GroupSize)
	if err != nil {
		return fmt.Errorf("establish group for side %d: %w", side, err)
	}

	channel := &Channel{
		Side:      side,
		GroupID:   a.GroupID,
		GroupRank: a.GroupRank,
		GroupSize: a.GroupSize,
		Stream:    executor.NewStream(),
		Group:     groupReducer{group: group},
	}

	c.mu.Lock()
	c.channels[side] = channel
	c.mu.Unlock()

	c.logger.Info("probe channel established", zap.Int("side", side))
	return nil
}

// Probe runs one probe on the given side's channel and blocks until it
// resolves. The probe itself executes on the channel's stream.
func (c *Collective) Probe(side int) error {
	c.mu.Lock()
	channel := c.channels[side]
	c.mu.Unlock()

	if channel == nil {
		return fmt.Errorf("channel for side %d not set up", side)
	}

	errCh := make(chan error, 1)
	if err := channel.Stream.Submit(func() { errCh <- c.runProbe(channel) }); err != nil {
		return fmt.Errorf("submit probe for side %d: %w", side, err)
	}
	return <-errCh
}

func (c *Collective) runProbe(channel *Channel) error {
	c.logger.Debug("running probe", zap.Int("side", channel.Side))

	payload := []float64{1}
	work := channel.Group.AllReduce(payload)
	if err := work.Wait(c.timeout); err != nil {
		if errors.Is(err, collective.ErrTimeout) {
			return fmt.Errorf("side %d: %w", channel.Side, engine.ErrProbeTimeout)
		}
		return fmt.Errorf("side %d all reduce: %w", channel.Side, err)
	}

	expected := 2 * float64(c.topo.LocalWorldSize)
	if payload[0] != expected {
		return fmt.Errorf("%w: got %v, want %v", ErrBadResult, payload[0], expected)
	}

	c.logger.Debug("probe succeeded", zap.Int("side", channel.Side))
	return nil
}

// Close shuts down every channel's stream, draining queued probe work.
func (c *Collective) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, channel := range c.channels {
		channel.Stream.Close()
	}
	return nil
}
