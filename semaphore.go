package linmo

// Semaphore is a counting semaphore with a bounded waiter capacity and
// direct wakeup hand-off (spec §4.5): a signal that wakes a waiter never
// re-increments count, so a third task cannot steal the token out from
// under the waiter that was meant to receive it.
type Semaphore struct {
	k          *Kernel
	count      int32
	max        int32
	maxWaiters int
	waiters    *waitQueue[taskHandle]
	numWaiting int
}

// NewSemaphore creates a semaphore. initial must
// be in [0, Config.SemMax] and maxWaiters must be at least 1.
func (k *Kernel) NewSemaphore(maxWaiters int, initial int32) (*Semaphore, error) {
	if maxWaiters < 1 {
		return nil, asError(ErrSemAlloc)
	}
	if initial < 0 || initial > k.cfg.SemMax {
		return nil, asError(ErrSemAlloc)
	}
	return &Semaphore{
		k:          k,
		count:      initial,
		max:        k.cfg.SemMax,
		maxWaiters: maxWaiters,
		waiters:    newWaitQueue[taskHandle](),
	}, nil
}

// Wait decrements the semaphore, blocking in FIFO order if it is
// currently zero (spec §4.5). Count>0 with an empty waiter list always
// takes the fast path, preserving fairness against a slow contending
// waiter.
func (s *Semaphore) Wait(tk *Task) error {
	k, t := s.k, tk.t
	k.mu.Lock()
	if s.count > 0 && s.numWaiting == 0 {
		s.count--
		k.mu.Unlock()
		return nil
	}
	if s.numWaiting >= s.maxWaiters {
		k.mu.Unlock()
		return asError(ErrSemOperation)
	}
	s.numWaiting++
	k.mu.Unlock()

	k.reschedule(t, func() {
		t.state = Blocked
		t.waitQ = s.waiters
		t.timedOut = false
		s.waiters.Enqueue(t.handle())
	})
	// Woken only via direct hand-off from Signal; the token is ours.
	k.mu.Lock()
	s.numWaiting--
	k.mu.Unlock()
	return nil
}

// TryWait succeeds only if count>0 and no task is already waiting,
// preserving the same fairness rule as Wait (spec §4.5).
func (s *Semaphore) TryWait(tk *Task) error {
	k := s.k
	k.mu.Lock()
	defer k.mu.Unlock()
	if s.count > 0 && s.numWaiting == 0 {
		s.count--
		return nil
	}
	return asError(ErrSemOperation)
}

// Signal increments the semaphore, or directly hands off to the oldest
// waiter if any (spec §4.5). After waking a waiter, the caller yields so
// a just-woken higher-priority task may preempt immediately.
func (s *Semaphore) Signal(tk *Task) error {
	k := s.k
	k.mu.Lock()
	var woke *tcb
	for {
		h, ok := s.waiters.Dequeue()
		if !ok {
			break
		}
		if t := k.byHandle(h); t != nil {
			woke = t
			break
		}
	}
	if woke == nil {
		if s.count < s.max {
			s.count++
		}
		k.mu.Unlock()
		return nil
	}
	woke.waitQ = nil
	woke.state = Ready
	k.sched.enqueueTail(woke)
	k.mu.Unlock()

	tk.Yield()
	return nil
}

// Destroy fails with TASK_BUSY if any task is currently waiting (spec
// §4.5); otherwise the semaphore is simply abandoned for the garbage
// collector, matching a hosted port with no manual deallocation.
func (s *Semaphore) Destroy() error {
	s.k.mu.Lock()
	defer s.k.mu.Unlock()
	if s.numWaiting > 0 {
		return asError(ErrTaskBusy)
	}
	return nil
}
