package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSxSymbol(t *testing.T) {
	n, consumed, err := ParseSx("ack")
	require.NoError(t, err)
	require.Equal(t, 3, consumed)
	require.Equal(t, SxSymbol, n.Kind)
	require.Equal(t, "ack", n.Symbol)
}

func TestParseSxDecimal(t *testing.T) {
	n, _, err := ParseSx("1234")
	require.NoError(t, err)
	require.Equal(t, SxInteger, n.Kind)
	require.Equal(t, uint64(1234), n.Integer)
}

func TestParseSxHex(t *testing.T) {
	n, _, err := ParseSx("#x1a2b")
	require.NoError(t, err)
	require.Equal(t, uint64(0x1a2b), n.Integer)
}

func TestParseSxNestedList(t *testing.T) {
	n, _, err := ParseSx("(frame read-request (address #x10 size 4))")
	require.NoError(t, err)
	require.Equal(t, SxList, n.Kind)
	require.Len(t, n.Children, 3)
	require.Equal(t, "frame", n.Children[0].Symbol)
	require.Equal(t, SxList, n.Children[2].Kind)
}

func TestSxStringRoundTrip(t *testing.T) {
	tree := SxL(SxSym("resp"), SxSym("ack"), SxInt(42))
	require.Equal(t, "(resp ack 42)", tree.String())

	reparsed, _, err := ParseSx(tree.String())
	require.NoError(t, err)
	require.Equal(t, tree.String(), reparsed.String())
}

func TestParseSxUnterminatedList(t *testing.T) {
	_, _, err := ParseSx("(foo bar")
	require.Error(t, err)
}
