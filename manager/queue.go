package manager

import "sync"

// workQueue is an unbounded FIFO shared by producers and a single worker loop.
// pop blocks while the queue is open and empty; close wakes every waiter.
type workQueue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	closed bool
}

func newWorkQueue[T any]() *workQueue[T] {
	q := &workQueue[T]{closed: true}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends item and wakes the worker. Returns false if the queue is closed.
func (q *workQueue[T]) push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, item)
	q.cond.Signal()
	return true
}

// pop removes the front item, waiting for one if needed.
// Returns ok=false once the queue is closed, even if items remain.
func (q *workQueue[T]) pop() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.closed && len(q.items) == 0 {
		q.cond.Wait()
	}
	if q.closed {
		return item, false
	}
	item = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// close rejects further pushes, wakes all waiters and returns the items that
// were never popped.
func (q *workQueue[T]) close() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	left := q.items
	q.items = nil
	q.cond.Broadcast()
	return left
}

// reopen accepts pushes again after close
func (q *workQueue[T]) reopen() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = false
}

func (q *workQueue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
