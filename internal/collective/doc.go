// Package collective implements the paired communication group used by
// probe channels: a blocking rendezvous that establishes the group over
// the bootstrap store, and an asynchronous sum all-reduce across its
// members.
//
// Each all-reduce runs under its own sequence number, so a member that
// fell behind never consumes a later round's payloads.
package collective
