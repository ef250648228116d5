package shop

// fifo is an unsynchronized first-in first-out sequence. Owners guard it
// with their own mutex.
type fifo[T any] struct {
	items []T
}

func (q *fifo[T]) len() int { return len(q.items) }

func (q *fifo[T]) push(v T) { q.items = append(q.items, v) }

// pushFront puts v back at the head. Used when an in-flight item must keep
// its turn.
func (q *fifo[T]) pushFront(v T) {
	q.items = append(q.items, v)
	copy(q.items[1:], q.items)
	q.items[0] = v
}

// pop removes the head. ok is false on an empty queue.
func (q *fifo[T]) pop() (v T, ok bool) {
	if len(q.items) == 0 {
		return v, false
	}
	v = q.items[0]
	var zero T
	q.items[0] = zero // drop reference for GC
	q.items = q.items[1:]
	return v, true
}

// snapshot returns a copy in queue order (head first).
func (q *fifo[T]) snapshot() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}
