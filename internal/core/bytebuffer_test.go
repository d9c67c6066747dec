package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBufferNewRejectsEmpty(t *testing.T) {
	_, err := NewByteBuffer(nil)
	require.Error(t, err)
}

func TestByteBufferAddAndConsume(t *testing.T) {
	bb, err := NewByteBuffer(make([]byte, 8))
	require.NoError(t, err)
	require.Equal(t, 8, bb.Avail())

	require.NoError(t, bb.Add([]byte{1, 2, 3}))
	require.Equal(t, 3, bb.Used())
	require.Equal(t, 5, bb.Avail())
	require.Equal(t, 3, bb.Rest())

	require.NoError(t, bb.Consume(2))
	require.Equal(t, 1, bb.Rest())

	err = bb.Consume(5)
	require.Error(t, err)
}

func TestByteBufferAddOverflow(t *testing.T) {
	bb, err := NewByteBuffer(make([]byte, 2))
	require.NoError(t, err)
	err = bb.Add([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestByteBufferConsumeAtMost(t *testing.T) {
	bb, err := NewByteBuffer(make([]byte, 4))
	require.NoError(t, err)
	require.NoError(t, bb.Add([]byte{1, 2}))

	n, err := bb.ConsumeAtMost(10)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	_, err = bb.ConsumeAtMost(1)
	require.Error(t, err)
}

func TestByteBufferRewind(t *testing.T) {
	bb, err := NewByteBuffer(make([]byte, 4))
	require.NoError(t, err)
	require.NoError(t, bb.Add([]byte{1, 2, 3, 4}))
	require.NoError(t, bb.Consume(2))

	bb.Rewind()
	require.Equal(t, 0, bb.Offset())
	require.Equal(t, 2, bb.Used())
	require.Equal(t, []byte{3, 4}, bb.Bytes())
}

func TestByteBufferClearAndReset(t *testing.T) {
	bb, err := NewByteBuffer(make([]byte, 4))
	require.NoError(t, err)
	require.NoError(t, bb.Add([]byte{9, 9, 9, 9}))

	bb.Reset()
	require.Equal(t, 0, bb.Used())
	require.Empty(t, bb.Bytes())

	require.NoError(t, bb.Add([]byte{9, 9, 9, 9}))
	bb.Clear()
	require.Equal(t, 0, bb.Used())
	require.NoError(t, bb.Add([]byte{0, 0, 0, 0}))
	require.Equal(t, []byte{0, 0, 0, 0}, bb.Bytes())
}

func TestByteBufferReadWritePtr(t *testing.T) {
	bb, err := NewByteBuffer(make([]byte, 4))
	require.NoError(t, err)
	require.Nil(t, bb.ReadPtr())

	wp := bb.WritePtr()
	require.Len(t, wp, 4)
	copy(wp, []byte{7, 7})
	require.NoError(t, bb.MarkRead(2))
	require.Equal(t, []byte{7, 7}, bb.ReadPtr())
}
