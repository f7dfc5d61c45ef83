package linmo

import (
	"math/rand"
	"runtime"
)

// Task is the handle a spawned entry routine uses to call back into the
// kernel. The reference's entry takes no argument at all; Go has no
// implicit "current goroutine" context a library can read, so entry here
// takes *Task instead — the minimal, idiomatic substitute for a thread-
// local "self".
type Task struct {
	k *Kernel
	t *tcb
}

// ID returns the task's identifier.
func (tk *Task) ID() TaskID { return tk.t.id }

// Priority returns the task's current priority level.
func (tk *Task) Priority() Priority {
	tk.k.mu.Lock()
	defer tk.k.mu.Unlock()
	return tk.t.prio
}

// Yield gives up the remainder of the time slice voluntarily (spec §4.7,
// the ecall-from-M path reused by cooperative switching).
func (tk *Task) Yield() {
	tk.k.reschedule(tk.t, nil)
}

// Delay blocks the calling task for the given number of ticks (spec
// §4.7). ticks==0 returns immediately without yielding, matching the
// boundary behavior spec.md §8 specifies for timedlock/timedwait(0).
func (tk *Task) Delay(ticks uint32) {
	if ticks == 0 {
		return
	}
	t := tk.t
	tk.k.reschedule(t, func() {
		t.state = Blocked
		t.delay = ticks
	})
}

// WaitForInterrupt yields repeatedly until the next tick in PREEMPTIVE
// mode, or behaves as Yield in COOPERATIVE mode (spec §4.7). Both paths go
// through the same reschedule/gate hand-off as every other voluntary
// block, so the idle task (dispatch.go) hands the run token to any task
// that has become ready.
func (tk *Task) WaitForInterrupt() {
	tk.k.hal.IdleWait()
	if tk.k.cfg.Mode == Cooperative {
		tk.Yield()
		return
	}
	start := tk.k.Ticks()
	for {
		tk.k.reschedule(tk.t, nil)
		if tk.k.Ticks() != start {
			return
		}
		tk.k.hal.IdleWait()
	}
}

// CheckPreempt is a lightweight safepoint for compute-bound tasks that
// otherwise never call into the kernel. PREEMPTIVE mode in this hosted
// model cannot forcibly interrupt an arbitrary goroutine (Go offers no
// portable async-preemption hook a library may use — see DESIGN.md's note
// on dropping lib_runtime_linkage.go); a task that never yields and never
// calls CheckPreempt simply never observes a pending preemption.
func (tk *Task) CheckPreempt() {
	tk.k.checkPending(tk.t)
}

// Suspend moves the calling task to SUSPENDED (self-suspend; always
// legal, spec §4.1 state machine).
func (tk *Task) Suspend() {
	t := tk.t
	tk.k.reschedule(t, func() { t.state = Suspended })
}

// Exit ends the calling task's execution early, equivalent to its entry
// routine returning. Unlike Kernel.Cancel(ownID), which spec.md rejects
// as CANT_REMOVE, a task ending itself is always legal — it is simply
// normal completion happening early.
func (tk *Task) Exit() {
	tk.k.taskReturned(tk.t)
	runtime.Goexit()
}

func canarySeed(id TaskID, which int) uint32 {
	return uint32(id)<<16 | uint32(which+1)<<8 | uint32(rand.Intn(1<<8))
}

// Spawn creates a new task (syscall #32 `tadd`). entry runs on its own
// goroutine once the scheduler first elects it; stackSize and prio are
// validated per spec §4.1's failure semantics.
func (k *Kernel) Spawn(entry func(*Task), stackSize int, prio Priority) (TaskID, error) {
	if entry == nil {
		return 0, asError(ErrTaskInvalidEntry)
	}
	if stackSize < MinTaskStack {
		return 0, asError(ErrStackAlloc)
	}
	if !prio.valid() {
		return 0, asError(ErrTaskInvalidPrio)
	}

	k.mu.Lock()
	if k.nextID == 0 {
		k.mu.Unlock()
		return 0, asError(ErrTCBAlloc)
	}
	id := k.nextID
	k.nextID++
	t := &tcb{
		id:        id,
		gen:       1,
		stackSize: stackSize,
		state:     Stopped,
		basePrio:  prio,
		prio:      prio,
		timeSlice: timeSliceTable[prio],
		gate:      newGate(),
	}
	if k.cfg.StackCanaries {
		t.canaryFront = canarySeed(id, 0)
		t.canaryBack = canarySeed(id, 1)
	}
	k.tasks[id] = t
	k.mu.Unlock()

	task := &Task{k: k, t: t}
	go func() {
		t.gate.Park()
		k.afterWake(t)
		entry(task)
		k.taskReturned(t)
	}()

	k.mu.Lock()
	t.state = Ready
	k.sched.enqueueTail(t)
	k.mu.Unlock()
	return id, nil
}

// taskReturned finalizes a task whose own goroutine is the one calling
// (either its entry returned, or it called Task.Exit()). Because the
// caller is the task's own goroutine, it is necessarily k.current.
func (k *Kernel) taskReturned(t *tcb) {
	k.mu.Lock()
	k.finalizeCancelLocked(t)
	next := k.electNext(nil)
	if next == nil {
		k.mu.Unlock()
		k.hal.Panic("NO_TASKS")
		return
	}
	k.switchTo(next)
	k.mu.Unlock()
}

// finalizeCancelLocked removes t from every structure that might
// reference it and marks it cancelled. Must be called with k.mu held.
func (k *Kernel) finalizeCancelLocked(t *tcb) {
	switch t.state {
	case Ready:
		k.sched.remove(t)
	case Blocked:
		if t.waitQ != nil {
			t.waitQ.Remove(func(h taskHandle) bool { return h == t.handle() })
			t.waitQ = nil
		}
	}
	t.state = Stopped
	t.cancelled.Store(true)
	delete(k.tasks, t.id)
	if k.current == t {
		k.current = nil
	}
}

// Cancel removes a task (syscall #33 `tcancel`). Self-cancel is always
// rejected (spec §4.1): in this single-hart kernel, the only task that
// can ever be k.current while Cancel runs is the caller itself, so
// target==current is exactly the self-cancel case.
func (k *Kernel) Cancel(id TaskID) error {
	k.mu.Lock()
	t := k.tasks[id]
	if t == nil {
		k.mu.Unlock()
		return asError(ErrTaskNotFound)
	}
	if t == k.current {
		k.mu.Unlock()
		return asError(ErrTaskCantRemove)
	}
	k.finalizeCancelLocked(t)
	k.mu.Unlock()
	t.gate.Ready() // unparks it so it can observe cancellation and unwind
	return nil
}

// Suspend moves another task to SUSPENDED (syscall #36 `tsuspend`). As
// with Cancel, target==current can only happen if the caller is
// suspending itself, which is legal — route that case through the normal
// reschedule path instead of a direct mutation, since the caller IS the
// physically running goroutine.
func (k *Kernel) Suspend(id TaskID) error {
	k.mu.Lock()
	t := k.tasks[id]
	if t == nil {
		k.mu.Unlock()
		return asError(ErrTaskNotFound)
	}
	if t == k.current {
		k.mu.Unlock()
		(&Task{k: k, t: t}).Suspend()
		return nil
	}
	switch t.state {
	case Ready:
		k.sched.remove(t)
	case Blocked:
		if t.waitQ != nil {
			t.waitQ.Remove(func(h taskHandle) bool { return h == t.handle() })
			t.waitQ = nil
		}
	case Suspended:
		k.mu.Unlock()
		return asError(ErrTaskCantSuspend)
	}
	t.state = Suspended
	k.mu.Unlock()
	return nil
}

// Resume moves a SUSPENDED task back to READY (syscall #37 `tresume`).
func (k *Kernel) Resume(id TaskID) error {
	k.mu.Lock()
	t := k.tasks[id]
	if t == nil {
		k.mu.Unlock()
		return asError(ErrTaskNotFound)
	}
	if t.state != Suspended {
		k.mu.Unlock()
		return asError(ErrTaskCantResume)
	}
	t.state = Ready
	k.sched.enqueueTail(t)
	k.mu.Unlock()
	return nil
}

// SetPriority changes a task's priority (syscall #38 `tpriority`). A
// change to the running task always forces RUNNING→READY (spec §4.1
// state machine), possibly immediately re-electing it if it is still the
// most urgent ready task.
func (k *Kernel) SetPriority(id TaskID, prio Priority) error {
	if !prio.valid() {
		return asError(ErrTaskInvalidPrio)
	}
	k.mu.Lock()
	t := k.tasks[id]
	if t == nil {
		k.mu.Unlock()
		return asError(ErrTaskNotFound)
	}
	if t == k.current {
		k.mu.Unlock()
		k.reschedule(t, func() {
			t.prio = prio
			t.state = Ready
			k.sched.enqueueTail(t)
		})
		return nil
	}
	if t.state == Ready {
		k.sched.remove(t)
		t.prio = prio
		k.sched.enqueueTail(t)
	} else {
		t.prio = prio
	}
	k.mu.Unlock()
	return nil
}

// State returns a task's current lifecycle state, for diagnostics and
// tests; not part of the numbered syscall surface.
func (k *Kernel) State(id TaskID) (State, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	t := k.tasks[id]
	if t == nil {
		return Stopped, asError(ErrTaskNotFound)
	}
	return t.state, nil
}

// CheckCanaries re-reads both guard words of every live task (spec §3.1,
// SPEC_FULL.md D.1) and reports ErrStackCheck on the first task whose
// words read back as zero, which this hosted port treats as "never
// initialized" corruption. A goroutine's real stack is managed and
// bounds-checked by the Go runtime itself, so there is no raw stack
// buffer here for a task to actually overrun the way the reference port's
// canaries guard against; the check exists so the contract and its error
// path are wired end-to-end for a future memory-backed HAL to hook into.
// Called from Kernel.Tick (dispatch.go), which panics the kernel on
// failure, the same way the reference's dispatch_init canary re-check is
// fatal. A no-op unless Config.StackCanaries was set at construction, and
// also callable directly (e.g. from a test) outside of a tick.
func (k *Kernel) CheckCanaries() error {
	if !k.cfg.StackCanaries {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	for _, t := range k.tasks {
		if t.canaryFront == 0 || t.canaryBack == 0 {
			return asError(ErrStackCheck)
		}
	}
	return nil
}
