package store

import "context"

// PrefixStore scopes another Store to a key namespace. Every key is
// rewritten to prefix + "/" + key before hitting the underlying store.
type PrefixStore struct {
	prefix string
	inner  Store
}

// NewPrefix wraps inner so that all keys live under prefix.
func NewPrefix(prefix string, inner Store) *PrefixStore {
	return &PrefixStore{prefix: prefix, inner: inner}
}

func (p *PrefixStore) key(key string) string {
	return p.prefix + "/" + key
}

func (p *PrefixStore) Set(ctx context.Context, key string, value []byte) error {
	return p.inner.Set(ctx, p.key(key), value)
}

func (p *PrefixStore) Get(ctx context.Context, key string) ([]byte, error) {
	return p.inner.Get(ctx, p.key(key))
}

func (p *PrefixStore) Add(ctx context.Context, key string, delta int64) (int64, error) {
	return p.inner.Add(ctx, p.key(key), delta)
}
