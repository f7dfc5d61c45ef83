package linmo

// Cond is a condition variable used together with an associated Mutex
// (spec §4.4). Every call requires the caller to already hold mx.
type Cond struct {
	k       *Kernel
	waiters *waitQueue[taskHandle]
}

// NewCond creates a condition variable.
func (k *Kernel) NewCond() *Cond {
	return &Cond{k: k, waiters: newWaitQueue[taskHandle]()}
}

// Wait enqueues the caller on the condition's FIFO, releases mx, and
// blocks until signaled; mx is reacquired before returning (spec §4.4,
// "wake then contend").
func (c *Cond) Wait(tk *Task, mx *Mutex) error {
	k, t := c.k, tk.t
	k.mu.Lock()
	t.waitQ = c.waiters
	t.timedOut = false
	c.waiters.Enqueue(t.handle())
	k.mu.Unlock()

	if err := mx.Unlock(tk); err != nil {
		return err
	}
	k.reschedule(t, func() { t.state = Blocked })
	return mx.Lock(tk)
}

// TimedWait is Wait with a bound of ticks ticks. On timeout it reports
// TIMEOUT after still reacquiring mx (spec §4.4: "regardless of timeout
// outcome, the mutex is reacquired before returning"). ticks==0 is an
// immediate, non-blocking probe (spec §8: "returns TIMEOUT without
// dequeuing the caller from any list") — mirroring
// original_source/kernel/mutex.c's mo_cond_timedwait, which reports
// ERR_TIMEOUT on a zero bound without ever releasing the mutex, the same
// way mutex.go's own TimedLock(ticks=0) delegates to TryLock instead of
// doing a real unlock/lock cycle.
func (c *Cond) TimedWait(tk *Task, mx *Mutex, ticks uint32) error {
	if ticks == 0 {
		return asError(ErrTimeout)
	}

	k, t := c.k, tk.t
	k.mu.Lock()
	t.waitQ = c.waiters
	t.timedOut = false
	c.waiters.Enqueue(t.handle())
	k.mu.Unlock()

	if err := mx.Unlock(tk); err != nil {
		return err
	}
	k.reschedule(t, func() {
		t.state = Blocked
		t.delay = ticks
	})

	k.mu.Lock()
	timedOut := t.timedOut
	k.mu.Unlock()

	if lockErr := mx.Lock(tk); lockErr != nil {
		return lockErr
	}
	if timedOut {
		return asError(ErrTimeout)
	}
	return nil
}

// Signal wakes at most one waiter, FIFO (spec §4.4).
func (c *Cond) Signal(tk *Task) error {
	k := c.k
	k.mu.Lock()
	defer k.mu.Unlock()
	c.wakeOneLocked(k)
	return nil
}

// Broadcast wakes every current waiter (spec §4.4).
func (c *Cond) Broadcast(tk *Task) error {
	k := c.k
	k.mu.Lock()
	defer k.mu.Unlock()
	for c.wakeOneLocked(k) {
	}
	return nil
}

// wakeOneLocked pops and readies a single waiter, skipping stale handles
// left by a cancelled task. Returns false once the FIFO is exhausted.
// Must be called with k.mu held.
func (c *Cond) wakeOneLocked(k *Kernel) bool {
	for {
		h, ok := c.waiters.Dequeue()
		if !ok {
			return false
		}
		t := k.byHandle(h)
		if t == nil {
			continue
		}
		t.waitQ = nil
		t.delay = 0
		t.state = Ready
		k.sched.enqueueTail(t)
		return true
	}
}
