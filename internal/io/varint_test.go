package io

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarintUint64MaxEncodesToTenBytes(t *testing.T) {
	enc := VarintEncodeUint64(nil, math.MaxUint64)
	require.Len(t, enc, 10)
	require.Equal(t, byte(0x01), enc[9])

	v, n, err := VarintDecodeUint64(enc)
	require.NoError(t, err)
	require.Equal(t, 10, n)
	require.Equal(t, uint64(math.MaxUint64), v)
}

func TestVarintRoundTripFullRange(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 16384, 0xFFFFFFFF, math.MaxUint64}
	for _, c := range cases {
		enc := VarintEncodeUint64(nil, c)
		v, n, err := VarintDecodeUint64(enc)
		require.NoError(t, err)
		require.Equal(t, len(enc), n)
		require.Equal(t, c, v)
	}
}

func TestVarintDecodeRejectsOverlong(t *testing.T) {
	overlong := make([]byte, 11)
	for i := range overlong {
		overlong[i] = 0x80
	}
	_, _, err := VarintDecodeUint64(overlong)
	require.Error(t, err)
}
