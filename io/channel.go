// Package io provides the inter-instance channels for the duet emulator.
// A channel is an unbounded FIFO of 64-bit integers with a single producer
// (the partner instance) and a single consumer (the owning instance).
package io

// Channel defines the interface for all duet channels.
type Channel interface {
	// Rewind discards any queued values.
	Rewind()
	// Send appends a value to the back of the channel. Never blocks.
	Send(value int64)
	// Receive pops the value at the front of the channel, if any.
	Receive() (value int64, ok bool)
	// Len returns the number of queued values.
	Len() int
}
