package core

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNativeOrderIsBigOrLittle(t *testing.T) {
	require.True(t, NativeOrder == binary.LittleEndian || NativeOrder == binary.BigEndian)
}

func TestOrderResolve(t *testing.T) {
	require.Equal(t, binary.BigEndian, OrderBig.Resolve())
	require.Equal(t, binary.LittleEndian, OrderLittle.Resolve())
	require.Equal(t, NativeOrder, OrderNative.Resolve())
}
