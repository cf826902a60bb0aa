// Package probe implements the concrete probe strategy: a sum all-reduce
// over a paired communication group.
//
// Each side gets one Channel, set up once: the pairing is computed, the
// bootstrap store is scoped to the pairing's namespace, a dedicated
// execution stream is allocated, and the communication group is
// established through a blocking rendezvous. A probe then pushes a unit
// payload through the group's all-reduce and verifies that the result
// equals 2 * localWorldSize — every rank on both paired hosts must have
// contributed its one.
package probe
