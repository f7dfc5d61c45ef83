package linmo

// Mutex is a non-recursive, FIFO-fair lock (spec §4.3). Zero value is not
// usable; construct with Kernel.NewMutex.
type Mutex struct {
	k       *Kernel
	owner   TaskID
	waiters *waitQueue[taskHandle]
}

// NewMutex creates an unlocked mutex.
func (k *Kernel) NewMutex() *Mutex {
	return &Mutex{k: k, waiters: newWaitQueue[taskHandle]()}
}

// Lock acquires the mutex, blocking in FIFO order if it is already held
// (spec §4.3). Recursive locking by the current owner fails with
// TASK_BUSY rather than deadlocking or recursing.
func (m *Mutex) Lock(tk *Task) error {
	k, t := m.k, tk.t
	k.mu.Lock()
	if m.owner == 0 {
		m.owner = t.id
		k.mu.Unlock()
		return nil
	}
	if m.owner == t.id {
		k.mu.Unlock()
		return asError(ErrTaskBusy)
	}
	k.mu.Unlock()

	k.reschedule(t, func() {
		t.state = Blocked
		t.waitQ = m.waiters
		t.timedOut = false
		m.waiters.Enqueue(t.handle())
	})
	// Woken only by unlock's direct hand-off (spec §4.3's "ownership
	// transfer... no intervening code may acquire the mutex"): the waker
	// always sets m.owner to us before readying us, so there is nothing
	// left to check.
	return nil
}

// TryLock acquires the mutex only if it is immediately available, never
// blocking (spec §4.3).
func (m *Mutex) TryLock(tk *Task) error {
	k, t := m.k, tk.t
	k.mu.Lock()
	defer k.mu.Unlock()
	if m.owner == 0 {
		m.owner = t.id
		return nil
	}
	return asError(ErrTaskBusy)
}

// TimedLock acquires the mutex, blocking at most ticks ticks. ticks==0
// behaves exactly as TryLock (spec §4.3).
func (m *Mutex) TimedLock(tk *Task, ticks uint32) error {
	if ticks == 0 {
		return m.TryLock(tk)
	}
	k, t := m.k, tk.t
	k.mu.Lock()
	if m.owner == 0 {
		m.owner = t.id
		k.mu.Unlock()
		return nil
	}
	if m.owner == t.id {
		k.mu.Unlock()
		return asError(ErrTaskBusy)
	}
	k.mu.Unlock()

	k.reschedule(t, func() {
		t.state = Blocked
		t.waitQ = m.waiters
		t.delay = ticks
		t.timedOut = false
		m.waiters.Enqueue(t.handle())
	})

	k.mu.Lock()
	timedOut := t.timedOut
	k.mu.Unlock()
	if timedOut {
		return asError(ErrTimeout)
	}
	return nil
}

// Unlock releases the mutex (spec §4.3). The caller must be the current
// owner; unlock by a non-owner is a programmer error (spec §7 class 1).
// If a waiter is queued, ownership transfers to it directly and it is
// marked READY in the same critical section — no task can observe the
// mutex as free in between.
func (m *Mutex) Unlock(tk *Task) error {
	k, t := m.k, tk.t
	k.mu.Lock()
	if m.owner != t.id {
		k.mu.Unlock()
		panicOn("mutex", "unlock by non-owner")
	}
	var waiter *tcb
	for {
		h, ok := m.waiters.Dequeue()
		if !ok {
			break
		}
		if t := k.byHandle(h); t != nil {
			waiter = t
			break
		}
		// Stale handle: that waiter was cancelled after enqueue; skip it
		// and try the next one.
	}
	if waiter == nil {
		m.owner = 0
		k.mu.Unlock()
		return nil
	}
	m.owner = waiter.id
	waiter.waitQ = nil
	waiter.delay = 0
	waiter.state = Ready
	k.sched.enqueueTail(waiter)
	k.mu.Unlock()
	return nil
}
