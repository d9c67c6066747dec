package io

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeapAllocatorAllocZeroesAndReuses(t *testing.T) {
	a := NewHeapAllocator(16)

	buf := a.Alloc()
	require.Len(t, buf, 16)
	for _, b := range buf {
		require.Equal(t, byte(0), b)
	}

	buf[0] = 0xFF
	a.Free(buf)

	buf2 := a.Alloc()
	require.Len(t, buf2, 16)
	require.Equal(t, byte(0), buf2[0])
	require.Equal(t, 16, a.BlockSize())
}

func TestHeapAllocatorFreeIgnoresWrongSizedBuffer(t *testing.T) {
	a := NewHeapAllocator(16)
	require.NotPanics(t, func() {
		a.Free(make([]byte, 4))
	})
}

func TestFailingAllocatorAlwaysOutOfMemory(t *testing.T) {
	a := NewFailingAllocator(32)
	require.Nil(t, a.Alloc())
	require.Equal(t, 32, a.BlockSize())
	require.NotPanics(t, func() { a.Free(nil) })
}

func TestUndersizedAllocatorReturnsShortBuffer(t *testing.T) {
	a := NewUndersizedAllocator(32)
	buf := a.Alloc()
	require.Len(t, buf, 31)
	require.Equal(t, 32, a.BlockSize())
}
