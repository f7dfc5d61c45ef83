package linmo

import "sync/atomic"

// waitNode is a single link in a waitQueue. Kept generic so the same
// lock-free structure backs every FIFO wait list in the kernel: ready
// queues (scheduler.go), mutex/cond/semaphore wait lists.
type waitNode[T any] struct {
	next  atomic.Pointer[waitNode[T]]
	value T
}

// waitQueue is the Michael-Scott lock-free FIFO adapted from
// alphadose-ZenQ's list.go/select_list.go. The original carries
// unsafe.Pointer goroutine handles and raw data payloads; this version is
// generic over T and carries taskHandle values (for the ready queues as
// well as the wait lists), never an owning reference to a TCB — see DESIGN.md's "arena +
// index" redesign note. A sentinel empty node always occupies head==tail
// on an empty queue, exactly as in the teacher.
type waitQueue[T any] struct {
	head atomic.Pointer[waitNode[T]]
	tail atomic.Pointer[waitNode[T]]
	n    atomic.Int32 // cheap length for Len(); advisory only
}

// newWaitQueue returns an initialized, empty queue. Zero value is not
// usable (the sentinel head/tail must be set) — always construct through
// this function.
func newWaitQueue[T any]() *waitQueue[T] {
	sentinel := &waitNode[T]{}
	q := &waitQueue[T]{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// Enqueue appends value at the tail in FIFO order. Every sync-object wait
// list in this kernel is served strictly FIFO (spec §5); this is the only
// insertion primitive they use.
func (q *waitQueue[T]) Enqueue(value T) {
	n := &waitNode[T]{value: value}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			continue
		}
		if next == nil {
			if tail.next.CompareAndSwap(next, n) {
				q.tail.CompareAndSwap(tail, n)
				q.n.Add(1)
				return
			}
		} else {
			q.tail.CompareAndSwap(tail, next)
		}
	}
}

// Dequeue removes and returns the head value. ok is false on an empty
// queue.
func (q *waitQueue[T]) Dequeue() (value T, ok bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			continue
		}
		if head == tail {
			if next == nil {
				var zero T
				return zero, false
			}
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		value = next.value
		if q.head.CompareAndSwap(head, next) {
			q.n.Add(-1)
			return value, true
		}
	}
}

// Empty reports whether the queue currently holds no waiters. Used for the
// mutex/semaphore quiescent-point invariants in spec §8.
func (q *waitQueue[T]) Empty() bool {
	head := q.head.Load()
	return head.next.Load() == nil
}

// Remove deletes the first node whose value satisfies match, used by
// timedlock/timedwait to pull a timed-out waiter off a wait list it never
// got served from (spec §4.3/§4.4). Single-hart + scheduler-off discipline
// means this never races with a concurrent Enqueue/Dequeue of the same
// queue in this kernel's call discipline, so a simple linear rebuild is
// sufficient and keeps FIFO order of the remaining waiters intact.
func (q *waitQueue[T]) Remove(match func(T) bool) bool {
	var kept []T
	removed := false
	for {
		v, ok := q.Dequeue()
		if !ok {
			break
		}
		if !removed && match(v) {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	for _, v := range kept {
		q.Enqueue(v)
	}
	return removed
}

// Drain removes and returns every waiter currently queued, in FIFO order.
// Used by the scheduler's snapshotReady (scheduler.go).
func (q *waitQueue[T]) Drain() []T {
	var out []T
	for {
		v, ok := q.Dequeue()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// Len returns the advisory current length. Never used for correctness
// decisions, only diagnostics (spec §5 "readers outside S... must not rely
// on them for decisions").
func (q *waitQueue[T]) Len() int {
	return int(q.n.Load())
}
