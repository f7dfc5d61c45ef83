package linmo

import "sync/atomic"

// ringBuffer is a fixed-capacity, lock-free, single-consumer/multi-producer
// ring, adapted from the teacher's ZenQ slot state machine (SlotEmpty ->
// SlotBusy -> SlotCommitted -> SlotEmpty). The teacher's queue blocks a
// writer whose slot isn't free yet by parking it on a per-slot
// ThreadParker; a logging queue must never block the task that's logging,
// so ringBuffer.Push instead drops the record and reports the drop,
// trading the teacher's backpressure for the deferred logger's "never
// stall a task" requirement (spec §4.7/§7).
const (
	slotEmpty uint32 = iota
	slotBusy
	slotCommitted
)

type ringSlot[T any] struct {
	state uint32
	item  T
}

type ringBuffer[T any] struct {
	writerIndex uint64
	readerIndex uint64
	mask        uint64
	slots       []ringSlot[T]
	wake        *gate // woken on every successful Push, for a blocking Pop
}

// newRingBuffer allocates a buffer of the given capacity, rounded up to
// the next power of two as the teacher's queue requires for its index
// mask.
func newRingBuffer[T any](capacity int) *ringBuffer[T] {
	size := uint64(1)
	for size < uint64(capacity) {
		size <<= 1
	}
	return &ringBuffer[T]{
		mask:  size - 1,
		slots: make([]ringSlot[T], size),
		wake:  newGate(),
	}
}

// Push writes value into the next slot if it is free, returning false
// without blocking if the ring is full (the slot is still committed from
// an un-drained prior write).
func (r *ringBuffer[T]) Push(value T) bool {
	idx := atomic.AddUint64(&r.writerIndex, 1) - 1
	slot := &r.slots[idx&r.mask]
	if !atomic.CompareAndSwapUint32(&slot.state, slotEmpty, slotBusy) {
		// Slot still holds an un-drained record; this index is simply
		// forfeited rather than retried, since the writer index only
		// selects a physical slot and need not be contiguous with what
		// was actually committed.
		return false
	}
	slot.item = value
	atomic.StoreUint32(&slot.state, slotCommitted)
	r.wake.Ready()
	return true
}

// Pop blocks until a committed slot is available and returns its value.
// Single-consumer only, matching the deferred logger's one drain
// goroutine.
func (r *ringBuffer[T]) Pop() T {
	idx := r.readerIndex
	slot := &r.slots[idx&r.mask]
	for !atomic.CompareAndSwapUint32(&slot.state, slotCommitted, slotBusy) {
		r.wake.Park()
	}
	v := slot.item
	var zero T
	slot.item = zero
	atomic.StoreUint32(&slot.state, slotEmpty)
	r.readerIndex++
	return v
}
