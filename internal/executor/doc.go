// Package executor provides per-channel serial execution streams. Each
// probe channel owns one Stream so that probe work on one side never
// serializes behind work queued for the other side.
package executor
