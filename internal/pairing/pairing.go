package pairing

import (
	"errors"
	"fmt"
)

// NumSides is the number of independent pairing assignments each rank
// participates in.
const NumSides = 2

// ErrInvalidTopology is returned when the job topology cannot support
// paired healthchecking.
var ErrInvalidTopology = errors.New("invalid topology")

// Topology describes the position of the local rank within the job.
type Topology struct {
	Rank           int
	WorldSize      int
	LocalWorldSize int
}

// Validate checks that the topology can be split into host pairs.
func (t Topology) Validate() error {
	if t.LocalWorldSize <= 0 {
		return fmt.Errorf("%w: local world size must be positive, got %d",
			ErrInvalidTopology, t.LocalWorldSize)
	}
	if t.WorldSize%t.LocalWorldSize != 0 {
		return fmt.Errorf("%w: world size %d must be divisible by local world size %d",
			ErrInvalidTopology, t.WorldSize, t.LocalWorldSize)
	}
	if t.Rank < 0 || t.Rank >= t.WorldSize {
		return fmt.Errorf("%w: rank %d must be less than world size %d",
			ErrInvalidTopology, t.Rank, t.WorldSize)
	}
	if t.WorldSize/t.LocalWorldSize < 2 {
		return fmt.Errorf("%w: at least two hosts are required", ErrInvalidTopology)
	}
	return nil
}

// HostRank returns the index of the host this rank runs on.
func (t Topology) HostRank() int {
	return t.Rank / t.LocalWorldSize
}

// HostCount returns the number of hosts in the job.
func (t Topology) HostCount() int {
	return t.WorldSize / t.LocalWorldSize
}

// Assignment identifies one pairing of two hosts and the local rank's
// position within it.
type Assignment struct {
	Side      int
	GroupID   int
	GroupRank int
	GroupSize int
}

// Compute returns the pairing assignment for the given side. The topology
// must have been validated beforehand.
func Compute(t Topology, side int) Assignment {
	groupSize := 2 * t.LocalWorldSize

	return Assignment{
		Side:      side,
		GroupID:   ((t.HostRank() + side) % t.HostCount()) / 2,
		GroupRank: t.Rank % groupSize,
		GroupSize: groupSize,
	}
}

// Namespace returns the store prefix scoping this pairing's rendezvous.
// It is unique per (side, group) so unrelated pairs never cross-connect.
func (a Assignment) Namespace() string {
	return fmt.Sprintf("/healthcheck/%d/%d", a.Side, a.GroupID)
}
