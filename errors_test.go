package linmo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKernelErrorErrorsIs(t *testing.T) {
	err := asError(ErrTaskNotFound)
	require.True(t, errors.Is(err, ErrTaskNotFound))
	require.False(t, errors.Is(err, ErrTaskBusy))
}

func TestAsErrorOKIsNil(t *testing.T) {
	require.NoError(t, asError(errOK))
}

func TestKernelErrorNameOrFallback(t *testing.T) {
	require.Equal(t, "TIMEOUT", ErrTimeout.Error())
	require.Equal(t, "KernelError(12345)", KernelError(12345).Error())
}

func TestKernelPanicMessage(t *testing.T) {
	p := &KernelPanic{Object: "mutex", Reason: "unlock without own"}
	require.Contains(t, p.Error(), "mutex")
	require.Contains(t, p.Error(), "unlock without own")
}

func TestPanicOnPanics(t *testing.T) {
	require.PanicsWithValue(t, &KernelPanic{Object: "obj", Reason: "reason"}, func() {
		panicOn("obj", "reason")
	})
}
