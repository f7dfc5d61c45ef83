package linmo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPipeWriteThenReadRoundTrip(t *testing.T) {
	k := newTestKernel()
	p, err := k.NewPipe(4)
	require.NoError(t, err)

	k.Run(func(k *Kernel) bool {
		k.Spawn(func(tk *Task) {
			n, err := p.Write(tk, []byte("hi"))
			require.NoError(t, err)
			require.Equal(t, 2, n)

			buf := make([]byte, 2)
			n, err = p.Read(tk, buf)
			require.NoError(t, err)
			require.Equal(t, 2, n)
			require.Equal(t, "hi", string(buf))
			k.Shutdown()
		}, 4096, PrioNormal)
		return true
	})
}

func TestPipeReaderBlocksUntilWriterSignals(t *testing.T) {
	k := newTestKernel()
	p, err := k.NewPipe(1)
	require.NoError(t, err)
	var got byte

	k.Run(func(k *Kernel) bool {
		k.Spawn(func(tk *Task) {
			buf := make([]byte, 1)
			_, err := p.Read(tk, buf)
			require.NoError(t, err)
			got = buf[0]
			k.Shutdown()
		}, 4096, PrioNormal)

		k.Spawn(func(tk *Task) {
			tk.Delay(2)
			_, err := p.Write(tk, []byte{42})
			require.NoError(t, err)
		}, 4096, PrioHigh)
		return true
	})
	require.Equal(t, byte(42), got)
}

func TestPipeWriterBlocksWhenFull(t *testing.T) {
	k := newTestKernel()
	p, err := k.NewPipe(1)
	require.NoError(t, err)
	var order []string

	k.Run(func(k *Kernel) bool {
		k.Spawn(func(tk *Task) {
			_, err := p.Write(tk, []byte{1})
			require.NoError(t, err)
			order = append(order, "write1")

			_, err = p.Write(tk, []byte{2})
			require.NoError(t, err)
			order = append(order, "write2")
			k.Shutdown()
		}, 4096, PrioNormal)

		k.Spawn(func(tk *Task) {
			tk.Delay(2)
			buf := make([]byte, 1)
			_, err := p.Read(tk, buf)
			require.NoError(t, err)
			require.Equal(t, byte(1), buf[0])
			order = append(order, "read1")
		}, 4096, PrioHigh)
		return true
	})
	require.Equal(t, []string{"write1", "read1", "write2"}, order)
}

func TestPipeNewPipeRejectsNonPositiveCapacity(t *testing.T) {
	k := newTestKernel()
	_, err := k.NewPipe(0)
	require.ErrorIs(t, err, ErrPipeAlloc)
}

func TestPipeClose(t *testing.T) {
	k := newTestKernel()
	p, err := k.NewPipe(2)
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
