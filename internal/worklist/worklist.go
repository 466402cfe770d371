// Package worklist provides the FIFO queue of node indices used by the fixpoint analyses.
package worklist

// Queue is a FIFO of node indices. An index already waiting in the queue is not
// added a second time.
type Queue struct {
	items   []int
	head    int
	pending map[int]bool
}

// New returns a queue seeded with the given indices.
func New(seed ...int) *Queue {
	q := &Queue{pending: make(map[int]bool)}
	for _, n := range seed {
		q.Push(n)
	}
	return q
}

// Push enqueues n unless it is already pending. It reports whether n was added.
func (q *Queue) Push(n int) bool {
	if q.pending[n] {
		return false
	}
	q.pending[n] = true
	q.items = append(q.items, n)
	return true
}

// Pop removes and returns the oldest index.
func (q *Queue) Pop() (int, bool) {
	if q.head == len(q.items) {
		return 0, false
	}
	n := q.items[q.head]
	q.head++
	delete(q.pending, n)

	// reclaim the consumed prefix once it dominates the slice
	if q.head > 64 && q.head*2 > len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
	return n, true
}

// Len returns the number of pending indices.
func (q *Queue) Len() int {
	return len(q.items) - q.head
}

// Empty reports whether nothing is pending.
func (q *Queue) Empty() bool {
	return q.Len() == 0
}
