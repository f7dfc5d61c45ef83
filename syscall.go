package linmo

// Syscall numbers from the reference ABI (spec §6.2). 1-20 are reserved
// POSIX-style stubs; 32-43 are this core's real task-lifecycle surface.
const (
	SysTAdd      = 32
	SysTCancel   = 33
	SysTYield    = 34
	SysTDelay    = 35
	SysTSuspend  = 36
	SysTResume   = 37
	SysTPriority = 38
	SysTID       = 39
	SysTWFI      = 40
	SysTCount    = 41
	SysTicks     = 42
	SysUptime    = 43
)

// Syscall dispatches the scalar-argument subset of the numbered table
// (spec §6.2): everything except tadd, which takes a Go function value
// and is exposed directly as Kernel.Spawn since a function pointer has no
// meaningful encoding as a syscall argument word. tk identifies the
// calling task for the self-referencing calls (tyield, tdelay, tid,
// twfi); it is ignored by calls that name an explicit id.
//
// Numbers 1-20 are wired to a single errNoSys-style handler returning
// ErrUnknown, preserving ABI slot stability the way
// original_source/kernel/syscall.c's sys_stub does rather than leaving
// the range unrepresented; this port carries no POSIX-compatibility
// layer behind it.
func (k *Kernel) Syscall(tk *Task, num int, args ...int64) (int64, error) {
	switch {
	case num >= 1 && num <= 20:
		return -int64(ErrUnknown), asError(ErrUnknown)
	case num == SysTCancel:
		err := k.Cancel(TaskID(args[0]))
		return errCode(err), err
	case num == SysTYield:
		tk.Yield()
		return 0, nil
	case num == SysTDelay:
		tk.Delay(uint32(args[0]))
		return 0, nil
	case num == SysTSuspend:
		err := k.Suspend(TaskID(args[0]))
		return errCode(err), err
	case num == SysTResume:
		err := k.Resume(TaskID(args[0]))
		return errCode(err), err
	case num == SysTPriority:
		err := k.SetPriority(TaskID(args[0]), Priority(args[1]))
		return errCode(err), err
	case num == SysTID:
		return int64(tk.ID()), nil
	case num == SysTWFI:
		tk.WaitForInterrupt()
		return 0, nil
	case num == SysTCount:
		return int64(k.TaskCount()), nil
	case num == SysTicks:
		return int64(k.Ticks()), nil
	case num == SysUptime:
		return int64(k.Uptime()), nil
	default:
		return -int64(ErrFail), asError(ErrFail)
	}
}

// errCode maps a kernel error to the negative integer the reference ABI
// returns in a0 on failure, or 0 for success.
func errCode(err error) int64 {
	if err == nil {
		return 0
	}
	if ke, ok := err.(KernelError); ok {
		return -int64(ke)
	}
	return -int64(ErrUnknown)
}
