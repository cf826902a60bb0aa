// Package store provides the bootstrap key-value store shared by all
// ranks in a job. The store is used only to establish probe channels:
// group members rendezvous and exchange reduction payloads through it.
//
// Two backends are provided: an in-process MemoryStore for tests and
// single-host simulation, and a RedisStore for real multi-host jobs.
// PrefixStore scopes any backend to a namespace so unrelated pairings
// never observe each other's keys.
package store
