package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRangeIntersectionOverlap(t *testing.T) {
	a := Range{Address: 10, Size: 10}
	b := Range{Address: 15, Size: 10}
	got := RangeIntersection(a, b)
	require.Equal(t, Range{Address: 15, Size: 5}, got)
}

func TestRangeIntersectionDisjointIsEmpty(t *testing.T) {
	a := Range{Address: 0, Size: 5}
	b := Range{Address: 10, Size: 5}
	got := RangeIntersection(a, b)
	require.True(t, EmptyIntersection(got))
}

func TestFrameIntersectionUsesFrameAddressAndBlocksize(t *testing.T) {
	f := &Frame{Header: Header{Address: 100, Blocksize: 10}}
	got := FrameIntersection(f, Range{Address: 105, Size: 20})
	require.Equal(t, Range{Address: 105, Size: 5}, got)
}
