package linmo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsyncLoggerStopFlushesQueued(t *testing.T) {
	l := newAsyncLogger(8)
	l.Log(LevelInfo, "hello %d", 1)
	l.Log(LevelWarn, "world")
	l.Stop()
	require.Zero(t, l.Dropped())
}

func TestAsyncLoggerImplementsLoggerInterface(t *testing.T) {
	var _ Logger = (*asyncLogger)(nil)
	var _ Logger = directLogger{}
}
