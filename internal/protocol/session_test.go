package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionNextIncrementsMonotonically(t *testing.T) {
	var s Session
	require.Equal(t, uint16(0), s.Next())
	require.Equal(t, uint16(1), s.Next())
	require.Equal(t, uint16(2), s.Next())
}

func TestSessionResetZeroesCounter(t *testing.T) {
	var s Session
	s.Next()
	s.Next()
	s.Reset()
	require.Equal(t, uint16(0), s.Next())
}

func TestSessionWrapsModulo65536(t *testing.T) {
	s := Session{sequence: 0xFFFF}
	require.Equal(t, uint16(0xFFFF), s.Next())
	require.Equal(t, uint16(0), s.Next())
}
