package linmo

import "fmt"

// KernelError is the core's error taxonomy (spec §6.4). Zero value is OK,
// which is never returned as an error (callers get a nil error instead).
type KernelError int

const (
	errOK KernelError = iota
	ErrFail
	ErrNoTasks
	ErrKCBAlloc
	ErrTCBAlloc
	ErrStackAlloc
	ErrTaskCantRemove
	ErrTaskNotFound
	ErrTaskCantSuspend
	ErrTaskCantResume
	ErrTaskInvalidPrio
	ErrTaskInvalidEntry
	ErrTaskBusy
	ErrNotOwner
	ErrStackCheck
	ErrPipeAlloc
	ErrPipeDealloc
	ErrSemAlloc
	ErrSemDealloc
	ErrSemOperation
	ErrMQNotEmpty
	ErrTimeout
	ErrUnknown
)

var errName = map[KernelError]string{
	errOK:               "OK",
	ErrFail:             "FAIL",
	ErrNoTasks:          "NO_TASKS",
	ErrKCBAlloc:         "KCB_ALLOC",
	ErrTCBAlloc:         "TCB_ALLOC",
	ErrStackAlloc:       "STACK_ALLOC",
	ErrTaskCantRemove:   "TASK_CANT_REMOVE",
	ErrTaskNotFound:     "TASK_NOT_FOUND",
	ErrTaskCantSuspend:  "TASK_CANT_SUSPEND",
	ErrTaskCantResume:   "TASK_CANT_RESUME",
	ErrTaskInvalidPrio:  "TASK_INVALID_PRIO",
	ErrTaskInvalidEntry: "TASK_INVALID_ENTRY",
	ErrTaskBusy:         "TASK_BUSY",
	ErrNotOwner:         "NOT_OWNER",
	ErrStackCheck:       "STACK_CHECK",
	ErrPipeAlloc:        "PIPE_ALLOC",
	ErrPipeDealloc:      "PIPE_DEALLOC",
	ErrSemAlloc:         "SEM_ALLOC",
	ErrSemDealloc:       "SEM_DEALLOC",
	ErrSemOperation:     "SEM_OPERATION",
	ErrMQNotEmpty:       "MQ_NOTEMPTY",
	ErrTimeout:          "TIMEOUT",
	ErrUnknown:          "UNKNOWN",
}

// Error implements the error interface so a KernelError can be returned
// and compared directly with errors.Is.
func (e KernelError) Error() string {
	if name, ok := errName[e]; ok {
		return name
	}
	return fmt.Sprintf("KernelError(%d)", int(e))
}

// asError returns nil for errOK and e otherwise, so call sites can write
// `return asError(code)` without an extra branch.
func asError(e KernelError) error {
	if e == errOK {
		return nil
	}
	return e
}

// KernelPanic is raised for programmer errors (spec §7 class 1) — in this
// package, Mutex.Unlock by a non-owner — and by the hosted HAL's Panic for
// unrecoverable kernel faults. These are fail-fast by design — see DESIGN.md "redesign flag"
// entry for errors.go.
type KernelPanic struct {
	Object string
	Reason string
}

func (p *KernelPanic) Error() string {
	return fmt.Sprintf("linmo: programmer error on %s: %s", p.Object, p.Reason)
}

func panicOn(object, reason string) {
	panic(&KernelPanic{Object: object, Reason: reason})
}
