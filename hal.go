package linmo

import "runtime"

// HAL is the hardware-abstraction contract (spec §6.3): everything the
// portable core needs from the platform it runs on. A real port targets
// RISC-V trap vectors and a timer peripheral directly; this module ships
// only the hosted implementation below, since bare-metal register access
// cannot be expressed (or meaningfully tested) in portable Go.
type HAL interface {
	// IdleWait is the WFI primitive (spec §4.7): a hook run on the path
	// into the idle wait, kept here for contract parity with a bare-metal
	// port that would actually halt the core. It never blocks in the
	// hosted backend — the blocking itself is done by the scheduler's own
	// gate hand-off right after, which is also how every other kernel
	// wait already gives up the run token (see Task.WaitForInterrupt).
	IdleWait()

	// Panic reports an unrecoverable kernel fault (e.g. NO_TASKS) and
	// never returns, mirroring the reference's trap handler's halt path.
	Panic(reason string)
}

// hostedHAL backs HAL with ordinary goroutine primitives. Panic logs
// through the direct (synchronous) logging sink before halting the
// calling goroutine.
type hostedHAL struct {
	k *Kernel
}

func newHostedHAL(k *Kernel) *hostedHAL {
	return &hostedHAL{k: k}
}

// IdleWait yields the OS thread the way the teacher's own busy-wait loop
// in ZenQ.Read does with runtime.Gosched(), so an idle kernel with nothing
// ready doesn't peg a core spinning through empty reschedule calls.
func (h *hostedHAL) IdleWait() {
	runtime.Gosched()
}

func (h *hostedHAL) Panic(reason string) {
	logDirect(LevelFatal, "kernel panic: %s", reason)
	panic(&KernelPanic{Object: "kernel", Reason: reason})
}
