package linmo

import "sort"

// TimerID is the handle returned by CreateTimer.
type TimerID uint32

// TimerMode is one of DISABLED/ONE_SHOT/AUTO_RELOAD (spec §3.4).
type TimerMode int

const (
	TimerDisabled TimerMode = iota
	TimerOneShot
	TimerAutoReload
)

// timerRecord mirrors spec §3.4's fields. callback/userArg are opaque to
// the engine; they fire from Kernel.Tick (spec §4.6, "callbacks execute in
// trap context").
type timerRecord struct {
	id            TimerID
	periodTicks   uint32
	deadlineTicks uint32
	lastFireTicks uint32
	mode          TimerMode
	callback      func(any)
	userArg       any
	active        bool // membership in the sorted active list
}

// timerEngine owns the global timer set and the deadline-sorted active
// list (spec §3.2, §4.6). The reference's intrusive two-hook list (all-
// timers set by id, active list by deadline) becomes a map plus a plain
// sorted slice here — simpler than an intrusive list and adequate at the
// scale this core targets (a handful of software timers, not thousands).
type timerEngine struct {
	k      *Kernel
	all    map[TimerID]*timerRecord
	active []*timerRecord // kept sorted ascending by deadlineTicks
	nextID TimerID
}

func newTimerEngine(k *Kernel) *timerEngine {
	return &timerEngine{k: k, all: make(map[TimerID]*timerRecord), nextID: 1}
}

// CreateTimer allocates a DISABLED software timer (spec §4.6).
func (k *Kernel) CreateTimer(periodTicks uint32, mode TimerMode, callback func(any), arg any) TimerID {
	return k.timers.Create(periodTicks, mode, callback, arg)
}

// StartTimer arms a timer: deadline = now + period.
func (k *Kernel) StartTimer(id TimerID) error { return k.timers.Start(id) }

// StopTimer disarms a timer without destroying its record.
func (k *Kernel) StopTimer(id TimerID) error { return k.timers.Stop(id) }

// DestroyTimer removes a timer permanently.
func (k *Kernel) DestroyTimer(id TimerID) error { return k.timers.Destroy(id) }

// Create allocates a DISABLED timer (spec §4.6, "a timer is created
// DISABLED; start arms it").
func (e *timerEngine) Create(periodTicks uint32, mode TimerMode, callback func(any), arg any) TimerID {
	e.k.mu.Lock()
	defer e.k.mu.Unlock()
	id := e.nextID
	e.nextID++
	e.all[id] = &timerRecord{
		id:          id,
		periodTicks: periodTicks,
		mode:        mode,
		callback:    callback,
		userArg:     arg,
	}
	return id
}

// Start arms a timer: deadline = now + period (spec §4.6).
func (e *timerEngine) Start(id TimerID) error {
	e.k.mu.Lock()
	defer e.k.mu.Unlock()
	r, ok := e.all[id]
	if !ok {
		return asError(ErrTaskNotFound)
	}
	if r.mode == TimerDisabled {
		r.mode = TimerOneShot
	}
	r.lastFireTicks = e.k.ticks
	r.deadlineTicks = e.k.ticks + r.periodTicks
	e.insertActiveLocked(r)
	return nil
}

// Stop disarms a timer without destroying its record.
func (e *timerEngine) Stop(id TimerID) error {
	e.k.mu.Lock()
	defer e.k.mu.Unlock()
	r, ok := e.all[id]
	if !ok {
		return asError(ErrTaskNotFound)
	}
	e.removeActiveLocked(r)
	return nil
}

// Destroy removes a timer permanently.
func (e *timerEngine) Destroy(id TimerID) error {
	e.k.mu.Lock()
	defer e.k.mu.Unlock()
	r, ok := e.all[id]
	if !ok {
		return asError(ErrTaskNotFound)
	}
	e.removeActiveLocked(r)
	delete(e.all, id)
	return nil
}

func (e *timerEngine) insertActiveLocked(r *timerRecord) {
	e.removeActiveLocked(r)
	r.active = true
	idx := sort.Search(len(e.active), func(i int) bool {
		return e.active[i].deadlineTicks > r.deadlineTicks
	})
	e.active = append(e.active, nil)
	copy(e.active[idx+1:], e.active[idx:])
	e.active[idx] = r
}

func (e *timerEngine) removeActiveLocked(r *timerRecord) {
	if !r.active {
		return
	}
	for i, x := range e.active {
		if x == r {
			e.active = append(e.active[:i], e.active[i+1:]...)
			break
		}
	}
	r.active = false
}

// fire pops expired timers off the head of the sorted list, up to
// batchBound of them (spec §4.6's ISR-latency bound), and returns their
// callbacks to be invoked by the caller outside k.mu — Kernel.Tick holds
// the lock for the bookkeeping and releases it before running callbacks,
// since callbacks "must not block, allocate, or attempt a yield" but are
// still ordinary Go code that may legitimately call back into the kernel
// for read-only state.
func (e *timerEngine) fire(ticks uint32, batchBound int) []func() {
	var calls []func()
	fired := 0
	for fired < batchBound {
		if len(e.active) == 0 || e.active[0].deadlineTicks > ticks {
			break
		}
		r := e.active[0]
		e.active = e.active[1:]
		r.active = false
		fired++

		cb, arg := r.callback, r.userArg
		if cb != nil {
			calls = append(calls, func() { cb(arg) })
		}
		if r.mode == TimerAutoReload {
			r.lastFireTicks += r.periodTicks
			r.deadlineTicks = r.lastFireTicks + r.periodTicks
			e.insertActiveLocked(r)
		} else {
			r.mode = TimerDisabled
		}
	}
	return calls
}
