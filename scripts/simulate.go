// Simulate runs a multi-rank healthcheck cluster inside a single process,
// with every rank wired to a shared in-memory store instead of redis.
//
// Usage:
//
//	go run simulate.go -world 8 -local 2 -interval 1s -timeout 500ms -duration 10s
//	go run simulate.go -world 4 -local 1 -stall 3 -duration 15s
//
// Features:
//   - One engine per rank, all exchanging probes through one MemoryStore
//   - Optional stalled rank (-stall) that joins setup but never probes,
//     so its partner hosts report timeouts on both sides
//   - Log-only abort handler: a rank that would terminate its process
//     logs the event and keeps running, so a full cluster run can be
//     observed end to end
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/peercheck/peercheck/internal/engine"
	"github.com/peercheck/peercheck/internal/pairing"
	"github.com/peercheck/peercheck/internal/probe"
	"github.com/peercheck/peercheck/internal/store"
	"github.com/peercheck/peercheck/pkg/logger"
)

func main() {
	var (
		worldSize = flag.Int("world", 4, "total number of ranks")
		localSize = flag.Int("local", 1, "ranks per host")
		interval  = flag.Duration("interval", time.Second, "delay between probe rounds")
		timeout   = flag.Duration("timeout", 500*time.Millisecond, "per-probe timeout")
		duration  = flag.Duration("duration", 10*time.Second, "how long to run the cluster")
		stall     = flag.Int("stall", -1, "rank that joins setup but never probes (-1 for none)")
		level     = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	log := logger.New(*level, "dev")
	defer log.Sync()

	shared := store.NewMemory()

	cfg := engine.Config{
		AbortOnError: true,
		Interval:     *interval,
		Timeout:      *timeout,
		SetupTimeout: 30 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	var wg sync.WaitGroup
	engines := make([]*engine.Engine, 0, *worldSize)

	for rank := 0; rank < *worldSize; rank++ {
		topo := pairing.Topology{
			Rank:           rank,
			WorldSize:      *worldSize,
			LocalWorldSize: *localSize,
		}

		rankLog := log.With(zap.Int("rank", rank))

		prober, err := probe.NewCollective(topo, shared, *timeout, rankLog)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid topology:", err)
			os.Exit(1)
		}

		if rank == *stall {
			wg.Add(1)
			go runStalled(ctx, &wg, prober, rankLog)
			continue
		}

		eng := engine.New(cfg, prober, rankLog, engine.WithTerminator(func() {
			rankLog.Warn("abort suppressed: rank would have terminated its process")
		}))
		engines = append(engines, eng)
	}

	<-ctx.Done()

	log.Info("simulation window elapsed, shutting down")
	for _, eng := range engines {
		eng.Shutdown()
	}
	wg.Wait()

	for i, eng := range engines {
		log.Info("final engine state",
			zap.Int("engine", i),
			zap.String("state", eng.State().String()),
			zap.Int("last_failures", eng.LastFailures()),
		)
	}
}

// runStalled completes channel setup so partner hosts can form their
// groups, then sits idle. Every all-reduce that includes this rank
// stalls, which is what a wedged host looks like to its peers.
func runStalled(ctx context.Context, wg *sync.WaitGroup, prober *probe.Collective, log *zap.Logger) {
	defer wg.Done()
	defer prober.Close()

	for side := 0; side < pairing.NumSides; side++ {
		if err := prober.Setup(ctx, side); err != nil {
			log.Error("stalled rank setup failed", zap.Int("side", side), zap.Error(err))
			return
		}
	}

	log.Info("stalled rank joined setup and went silent")
	<-ctx.Done()
}
