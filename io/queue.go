package io

const (
	// QUEUE_COMPACT_MIN is the consumed-prefix length that triggers a
	// compaction of the queue storage.
	QUEUE_COMPACT_MIN = 64
)

// Queue is an unbounded FIFO of values.
//
// Queue is not synchronised. The owner only pops from the front and the
// partner only pushes to the back, which is safe under the cooperative
// scheduler; parallel use needs external locking.
type Queue struct {
	Data []int64

	readIndex int
}

var _ Channel = (*Queue)(nil)

// Rewind empties the queue.
func (q *Queue) Rewind() {
	q.Data = q.Data[:0]
	q.readIndex = 0
}

// Send appends a value to the back of the queue.
func (q *Queue) Send(value int64) {
	q.Data = append(q.Data, value)
}

// Receive pops the value at the front of the queue.
func (q *Queue) Receive() (value int64, ok bool) {
	value, ok = q.Peek()
	if !ok {
		return
	}

	q.readIndex++
	if q.readIndex == len(q.Data) {
		q.Data = q.Data[:0]
		q.readIndex = 0
	} else if q.readIndex >= QUEUE_COMPACT_MIN && q.readIndex*2 >= len(q.Data) {
		n := copy(q.Data, q.Data[q.readIndex:])
		q.Data = q.Data[:n]
		q.readIndex = 0
	}

	return
}

// Peek returns the value at the front of the queue without removing it.
func (q *Queue) Peek() (value int64, ok bool) {
	if q.Empty() {
		return
	}

	return q.Data[q.readIndex], true
}

// Len returns the number of queued values.
func (q *Queue) Len() int {
	return len(q.Data) - q.readIndex
}

// Empty returns true if nothing is queued.
func (q *Queue) Empty() bool {
	return q.Len() == 0
}

// Values returns a copy of the queued values, front first.
func (q *Queue) Values() (values []int64) {
	if q.Empty() {
		return
	}

	values = make([]int64, q.Len())
	copy(values, q.Data[q.readIndex:])
	return
}
