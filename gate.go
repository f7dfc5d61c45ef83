package linmo

// gate is the per-task park/ready primitive. Adapted from alphadose-ZenQ's
// thread_parker.go: "keep only one parked waiter moving at a time" with
// Park/Ready naming, but reimplemented over a buffered channel instead of
// go:linkname-ing into the private runtime scheduler — see DESIGN.md for
// why the linkname path was dropped. A gate has exactly one parking
// goroutine (a task's backing goroutine, Run's caller for the boot gate, or
// a ring buffer's reader); only that goroutine ever calls Park.
type gate struct {
	ch chan struct{}
}

func newGate() *gate {
	return &gate{ch: make(chan struct{}, 1)}
}

// Park blocks the calling goroutine until Ready is called. Never called
// while k.mu is held — the lock is always released before a task parks,
// matching spec §5 "the S-release occurs at the context-switch boundary."
func (g *gate) Park() {
	<-g.ch
}

// Ready wakes the parked goroutine. Idempotent: a second Ready before the
// first is consumed does not queue a spurious wakeup, so a task can never
// observe more wakeups than the scheduler intended to deliver.
func (g *gate) Ready() {
	select {
	case g.ch <- struct{}{}:
	default:
	}
}
