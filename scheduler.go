package linmo

// scheduler owns the per-level ready structure (spec §3.2, §4.1). The
// Open Question in spec.md §9 ("per-level queues vs. single master list")
// is resolved in favor of per-level queues, as the spec itself suggests,
// giving O(1) selection via a bitmap of non-empty levels.
type scheduler struct {
	levels  [numPriorityLevels]*waitQueue[taskHandle]
	nonEmpty uint8 // bit i set => levels[i] has at least one ready task
}

func newScheduler() *scheduler {
	s := &scheduler{}
	for i := range s.levels {
		s.levels[i] = newWaitQueue[taskHandle]()
	}
	return s
}

func (s *scheduler) markLevel(p Priority) {
	s.nonEmpty |= 1 << uint(p)
}

func (s *scheduler) clearLevelIfEmpty(p Priority) {
	if s.levels[p].Empty() {
		s.nonEmpty &^= 1 << uint(p)
	}
}

// enqueueTail places h at the tail of its priority level (spec §4.1, "a
// task becoming READY is enqueued at the tail of its level").
func (s *scheduler) enqueueTail(t *tcb) {
	s.levels[t.prio].Enqueue(t.handle())
	s.markLevel(t.prio)
}

// highestNonEmpty returns the most urgent level with a waiting task, or -1
// if every level is empty (which must never happen once the idle task has
// been spawned — spec §4.1's NO_TASKS invariant).
func (s *scheduler) highestNonEmpty() int {
	if s.nonEmpty == 0 {
		return -1
	}
	for lvl := 0; lvl < numPriorityLevels; lvl++ {
		if s.nonEmpty&(1<<uint(lvl)) != 0 {
			return lvl
		}
	}
	return -1
}

// hasHigherPriorityReady reports whether some level strictly more urgent
// than p currently has a waiting task; used by the tick handler to decide
// whether a running task should be preempted even before its time slice
// is exhausted.
func (s *scheduler) hasHigherPriorityReady(p Priority) bool {
	if s.nonEmpty == 0 {
		return false
	}
	mask := uint8(1<<uint(p)) - 1
	return s.nonEmpty&mask != 0
}

// elect implements the selection contract of spec §4.1: pick a task from
// the highest non-empty level; a still-Running current task at least as
// urgent as that level keeps running uninterrupted (it was never placed
// back on a ready queue), otherwise the winning level's FIFO head is
// dequeued and returned. byID resolves a taskHandle back to a live *tcb,
// skipping stale handles (cancelled since enqueue) exactly as spec §9
// allows ("implementations that dequeue on block may omit this check" —
// here we must check, since handles can go stale between enqueue and
// election).
func (s *scheduler) elect(cur *tcb, byID func(taskHandle) *tcb) *tcb {
	if cur != nil && cur.state == Running {
		lvl := s.highestNonEmpty()
		if lvl < 0 || cur.prio <= Priority(lvl) {
			return cur
		}
	}
	for {
		lvl := s.highestNonEmpty()
		if lvl < 0 {
			return nil
		}
		h, ok := s.levels[lvl].Dequeue()
		s.clearLevelIfEmpty(Priority(lvl))
		if !ok {
			continue
		}
		t := byID(h)
		if t == nil || t.state != Ready {
			// stale handle (cancelled) or already moved elsewhere; skip it
			continue
		}
		return t
	}
}

// remove pulls t out of its ready level ahead of election, used when a
// Ready task is suspended or cancelled directly (spec §4.1 state machine,
// any-state-to-SUSPENDED/cancel transitions).
func (s *scheduler) remove(t *tcb) {
	s.levels[t.prio].Remove(func(h taskHandle) bool { return h == t.handle() })
	s.clearLevelIfEmpty(t.prio)
}

// removeHandle pulls a specific handle out of the named level, used when
// an rt_hook (spec §4.1 "real-time hook") selects a task out of FIFO order.
func (s *scheduler) removeHandle(h taskHandle, prio Priority) bool {
	removed := s.levels[prio].Remove(func(x taskHandle) bool { return x == h })
	s.clearLevelIfEmpty(prio)
	return removed
}

// snapshotReady returns every ready handle across all levels without
// disturbing FIFO order, by draining and immediately reinserting each
// level. Only ever called under k.mu, so no other mutation of the ready
// structure can interleave. Used to hand the rt_hook a candidate list
// (spec §4.1 "the hook is invoked inside the scheduler under the same
// lock discipline").
func (s *scheduler) snapshotReady() []taskHandle {
	var out []taskHandle
	for lvl := 0; lvl < numPriorityLevels; lvl++ {
		items := s.levels[lvl].Drain()
		out = append(out, items...)
		for _, h := range items {
			s.levels[lvl].Enqueue(h)
		}
		if len(items) > 0 {
			s.markLevel(Priority(lvl))
		}
	}
	return out
}
