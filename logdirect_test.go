package linmo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelString(t *testing.T) {
	require.Equal(t, "DEBUG", LevelDebug.String())
	require.Equal(t, "INFO", LevelInfo.String())
	require.Equal(t, "WARN", LevelWarn.String())
	require.Equal(t, "ERROR", LevelError.String())
	require.Equal(t, "FATAL", LevelFatal.String())
	require.Equal(t, "UNKNOWN", Level(99).String())
}

func TestDirectLoggerImplementsLogger(t *testing.T) {
	var l Logger = directLogger{}
	l.Log(LevelInfo, "this is only checked for not panicking: %d", 7)
}
