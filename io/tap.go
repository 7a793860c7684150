package io

import (
	"fmt"
	"io"
)

// Tap records every value sent through a channel as a text line
// '<label> <value>' on Output. Receives pass straight through.
type Tap struct {
	Channel
	Label  string
	Output io.Writer

	// Err holds the first write error. Once set, output stops.
	Err error
	// Count is the number of values recorded.
	Count int
}

var _ Channel = (*Tap)(nil)

// NewTap wraps a channel.
func NewTap(ch Channel, label string, output io.Writer) *Tap {
	return &Tap{
		Channel: ch,
		Label:   label,
		Output:  output,
	}
}

// Send records the value, then forwards it to the wrapped channel.
func (tap *Tap) Send(value int64) {
	tap.Channel.Send(value)

	if tap.Err != nil || tap.Output == nil {
		return
	}

	_, tap.Err = fmt.Fprintf(tap.Output, "%v %d\n", tap.Label, value)
	if tap.Err == nil {
		tap.Count++
	}
}

// Values returns the queued values of the wrapped channel, if it can list them.
func (tap *Tap) Values() (values []int64) {
	if pv, ok := tap.Channel.(interface{ Values() []int64 }); ok {
		values = pv.Values()
	}

	return
}
