// Package pairing computes which peer host a rank probes against on each
// side, and the rank's position inside that pairing.
//
// Pairing happens at host granularity: side 0 and side 1 produce two
// different pairings of adjacent hosts, so over both sides every host is
// grouped with both of its neighbors. A host whose probes fail on both
// sides is therefore suspect itself rather than one of its peers.
package pairing
