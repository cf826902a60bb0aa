package collective

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/peercheck/peercheck/internal/store"
)

// Group is an established communication group of size members, rank
// being the local member's position. All members reach the same store
// namespace; keys below are relative to it.
type Group struct {
	store store.Store
	rank  int
	size  int
	seq   atomic.Int64
}

func memberKey(rank int) string {
	return fmt.Sprintf("member/%d", rank)
}

func roundKey(seq int64, rank int) string {
	return fmt.Sprintf("round/%d/%d", seq, rank)
}

// NewGroup performs the blocking rendezvous that establishes the group.
// The local member announces itself and then waits for every other
// member; it returns only once all size members are present, or fails
// when ctx expires first.
func NewGroup(ctx context.Context, s store.Store, rank, size int) (*Group, error) {
	if rank < 0 || rank >= size {
		return nil, fmt.Errorf("group rank %d out of range for size %d", rank, size)
	}

	if err := s.Set(ctx, memberKey(rank), []byte("ok")); err != nil {
		return nil, fmt.Errorf("announce rank %d: %w", rank, err)
	}

	for peer := 0; peer < size; peer++ {
		if peer == rank {
			continue
		}
		if _, err := s.Get(ctx, memberKey(peer)); err != nil {
			return nil, fmt.Errorf("wait for rank %d: %w", peer, err)
		}
	}

	return &Group{store: s, rank: rank, size: size}, nil
}

// Rank returns the local member's position in the group.
func (g *Group) Rank() int {
	return g.rank
}

// Size returns the number of members in the group.
func (g *Group) Size() int {
	return g.size
}

// AllReduce starts an asynchronous sum all-reduce of values across the
// group. On success values is overwritten in place with the elementwise
// sum of every member's contribution. The caller must not touch values
// until the returned Work has completed.
func (g *Group) AllReduce(values []float64) *Work {
	seq := g.seq.Add(1)

	w := &Work{done: make(chan struct{})}
	go func() {
		defer close(w.done)
		w.err = g.reduce(seq, values)
	}()
	return w
}

// reduce publishes the local contribution and folds in every peer's.
// It deliberately runs without a deadline: a Wait that times out
// abandons the operation rather than cancelling it.
func (g *Group) reduce(seq int64, values []float64) error {
	ctx := context.Background()

	if err := g.store.Set(ctx, roundKey(seq, g.rank), encode(values)); err != nil {
		return fmt.Errorf("publish contribution: %w", err)
	}

	sum := make([]float64, len(values))
	copy(sum, values)

	for peer := 0; peer < g.size; peer++ {
		if peer == g.rank {
			continue
		}
		raw, err := g.store.Get(ctx, roundKey(seq, peer))
		if err != nil {
			return fmt.Errorf("collect from rank %d: %w", peer, err)
		}
		contribution, err := decode(raw)
		if err != nil {
			return fmt.Errorf("decode contribution from rank %d: %w", peer, err)
		}
		if len(contribution) != len(values) {
			return fmt.Errorf("rank %d contributed %d values, want %d",
				peer, len(contribution), len(values))
		}
		for i, v := range contribution {
			sum[i] += v
		}
	}

	copy(values, sum)
	return nil
}
