package linmo

import "time"

// AppMain is the user-supplied entry point (spec §6.1): it runs once after
// construction, is expected to Spawn at least one task, and its return
// value selects the scheduling mode — true for PREEMPTIVE, false for
// COOPERATIVE.
type AppMain func(k *Kernel) bool

// Run performs the boot sequence of spec §6.1: call appMain, elect the
// first task, and — in PREEMPTIVE mode with a nonzero Config.TickHz — start
// the background ticker that drives Tick. Halts with NO_TASKS (via hal.Panic) if appMain spawned
// nothing. Run blocks until Shutdown is called.
func (k *Kernel) Run(appMain AppMain) {
	preemptive := appMain(k)
	if preemptive {
		k.cfg.Mode = Preemptive
	} else {
		k.cfg.Mode = Cooperative
	}

	if k.TaskCount() == 0 {
		k.hal.Panic("NO_TASKS")
		return
	}
	k.spawnIdleTask()

	k.mu.Lock()
	first := k.electNext(nil)
	if first == nil {
		k.mu.Unlock()
		k.hal.Panic("NO_TASKS")
		return
	}
	k.switchTo(first)
	k.started = true
	k.mu.Unlock()

	if k.cfg.Mode == Preemptive && k.cfg.TickHz > 0 {
		go k.tickLoop()
	}

	k.bootGate.Park()
}

// Shutdown stops the background ticker (if running) and releases Run.
// Intended for tests and hosted embedding; a real target never returns
// from Run.
func (k *Kernel) Shutdown() {
	k.mu.Lock()
	if k.stopped {
		k.mu.Unlock()
		return
	}
	k.stopped = true
	k.mu.Unlock()
	close(k.tickStop)
	k.bootGate.Ready()
}

// tickLoop is the PREEMPTIVE-mode background driver standing in for the
// periodic timer interrupt (spec §4.6/§4.7). Each period it calls Tick.
func (k *Kernel) tickLoop() {
	interval := time.Second / time.Duration(k.cfg.TickHz)
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			k.Tick()
		case <-k.tickStop:
			return
		}
	}
}

// Tick advances the global clock by one tick (spec §4.6): it always fires
// due software timers (the engine runs off ticks "regardless of whether
// switching does," per §4.7) and, only in PREEMPTIVE mode, decrements
// every delayed task's countdown and marks the running task for
// preemption when its slice expires or a more urgent task has become
// ready. Safe to call manually from a test for deterministic scenarios
// instead of waiting on the real clock.
func (k *Kernel) Tick() {
	k.mu.Lock()
	k.ticks++
	now := k.ticks
	mode := k.cfg.Mode

	calls := k.timers.fire(now, k.cfg.TimerBatchBound)

	if mode == Preemptive {
		k.wakeDelayedLocked()
		k.markPreemptionLocked()
	}
	k.mu.Unlock()

	if k.cfg.StackCanaries {
		if err := k.CheckCanaries(); err != nil {
			k.hal.Panic("STACK_CHECK")
			return
		}
	}

	for _, call := range calls {
		call()
	}
}

// wakeDelayedLocked decrements the delay countdown of every BLOCKED task
// with one running (spec §4.7). Plain Task.Delay tasks (t.waitQ == nil)
// simply move to READY on reaching zero. A task blocked on a mutex or
// condition variable (t.waitQ != nil) is also sitting on a delay from its
// timedlock/timedwait call; reaching zero here means its wait was never
// satisfied by signal/unlock — if it had been, signal/unlock would have
// already cleared its delay and pulled it off that wait list under the
// same lock this loop holds (spec §9's OK-wins-if-transferred tie-break,
// which this ordering makes unambiguous rather than a genuine race) — so
// a zero-reaching, still-waitQ'd task is always a genuine timeout: it is
// forced off that list and flagged timedOut for the blocking call to
// report. Must be called with k.mu held.
func (k *Kernel) wakeDelayedLocked() []*tcb {
	var woken []*tcb
	for _, t := range k.tasks {
		if t.state != Blocked || t.delay == 0 {
			continue
		}
		t.delay--
		if t.delay != 0 {
			continue
		}
		if t.waitQ != nil {
			t.waitQ.Remove(func(h taskHandle) bool { return h == t.handle() })
			t.waitQ = nil
			t.timedOut = true
		}
		t.state = Ready
		k.sched.enqueueTail(t)
		woken = append(woken, t)
	}
	return woken
}

// markPreemptionLocked flags the running task for preemption at its next
// safepoint (see task.go's preemptPending doc) when its time slice has run
// out or a strictly higher-priority task has become ready. Must be called
// with k.mu held.
func (k *Kernel) markPreemptionLocked() {
	cur := k.current
	if cur == nil || cur.state != Running {
		return
	}
	if cur.timeSlice > 0 {
		cur.timeSlice--
	}
	if cur.timeSlice == 0 || k.sched.hasHigherPriorityReady(cur.prio) {
		cur.preemptPending = true
	}
}

// maybeAdvanceDelaysOnCooperativeYield implements the Open Question
// resolution in spec §9: in COOPERATIVE mode, delay countdowns are
// decremented only on an explicit voluntary yield, never by the
// background tick source (there may not even be one running). One Yield
// call counts as one tick's worth of delay progress.
func (k *Kernel) maybeAdvanceDelaysOnCooperativeYield() {
	if k.cfg.Mode != Cooperative {
		return
	}
	k.wakeDelayedLocked()
}

// spawnIdleTask installs the lowest-priority task that keeps the ready
// structure from ever going empty once every user task has run to
// completion — otherwise a perfectly well-behaved application that
// finishes its work would trip the NO_TASKS halt on its last task's exit,
// which spec §6.1 reserves for "appMain never spawned anything." Real RTOS
// kernels universally carry an idle task for the same reason. It is an
// ordinary entry in k.tasks, so TaskCount and State report it like any
// other task.
func (k *Kernel) spawnIdleTask() {
	k.Spawn(func(tk *Task) {
		for {
			tk.WaitForInterrupt()
		}
	}, MinTaskStack, PrioIdle)
}
