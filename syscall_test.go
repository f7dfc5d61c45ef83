package linmo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSyscallReservedRangeFails(t *testing.T) {
	k := newTestKernel()
	n, err := k.Syscall(nil, 1)
	require.ErrorIs(t, err, ErrUnknown)
	require.Equal(t, -int64(ErrUnknown), n)

	n, err = k.Syscall(nil, 20)
	require.ErrorIs(t, err, ErrUnknown)
	require.Equal(t, -int64(ErrUnknown), n)
}

func TestSyscallUnknownNumberFails(t *testing.T) {
	k := newTestKernel()
	n, err := k.Syscall(nil, 31)
	require.Error(t, err)
	require.Equal(t, -int64(ErrFail), n)
}

func TestSyscallSelfReferencingCalls(t *testing.T) {
	k := newTestKernel()
	var id TaskID
	var ticks int64

	k.Run(func(k *Kernel) bool {
		k.Spawn(func(tk *Task) {
			got, err := k.Syscall(tk, SysTID)
			require.NoError(t, err)
			id = TaskID(got)

			_, err = k.Syscall(tk, SysTYield)
			require.NoError(t, err)

			_, err = k.Syscall(tk, SysTDelay, 1)
			require.NoError(t, err)

			got, err = k.Syscall(tk, SysTicks)
			require.NoError(t, err)
			ticks = got

			k.Shutdown()
		}, 4096, PrioNormal)
		return true
	})
	require.NotZero(t, id)
	require.Greater(t, ticks, int64(0))
}

func TestSyscallTaskLifecycleCalls(t *testing.T) {
	k := newTestKernel()

	k.Run(func(k *Kernel) bool {
		victim, _ := k.Spawn(func(tk *Task) {
			tk.Delay(1000000)
		}, 4096, PrioNormal)

		k.Spawn(func(tk *Task) {
			n, err := k.Syscall(tk, SysTCount)
			require.NoError(t, err)
			require.GreaterOrEqual(t, n, int64(2))

			code, err := k.Syscall(tk, SysTSuspend, int64(victim))
			require.NoError(t, err)
			require.Zero(t, code)

			code, err = k.Syscall(tk, SysTResume, int64(victim))
			require.NoError(t, err)
			require.Zero(t, code)

			code, err = k.Syscall(tk, SysTPriority, int64(victim), int64(PrioHigh))
			require.NoError(t, err)
			require.Zero(t, code)

			code, err = k.Syscall(tk, SysTCancel, int64(victim))
			require.NoError(t, err)
			require.Zero(t, code)

			k.Shutdown()
		}, 4096, PrioHigh)
		return true
	})
}

func TestSyscallErrorPropagatesNegatedCode(t *testing.T) {
	k := newTestKernel()
	code, err := k.Syscall(nil, SysTCancel, 999)
	require.ErrorIs(t, err, ErrTaskNotFound)
	require.Equal(t, -int64(ErrTaskNotFound), code)
}
