package store

import "context"

// Store is a shared key-value store with blocking reads.
//
// Get blocks until the key exists or the context is done; this is what
// lets group members wait for peers that have not yet announced
// themselves or published a payload.
type Store interface {
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Get returns the value stored under key, blocking until the key
	// exists or ctx is done.
	Get(ctx context.Context, key string) ([]byte, error)

	// Add atomically adds delta to the integer counter stored under key
	// and returns the new value. A missing key counts as zero.
	Add(ctx context.Context, key string, delta int64) (int64, error)
}
