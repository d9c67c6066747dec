package io

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLenPEncodeDecodeOctet(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	var wire bufSink
	require.NoError(t, LenPEncode(&wire, payload, PrefixOctet, nil))
	require.Equal(t, byte(5), wire.buf.Bytes()[0])

	var out bufSink
	n, err := LenPDecode(&byteSource{data: wire.buf.Bytes()}, &out, PrefixOctet, nil)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)
	require.Equal(t, payload, out.buf.Bytes())
}

func TestLenPEncodeRejectsOversizeForPrefix(t *testing.T) {
	var wire bufSink
	err := LenPEncode(&wire, make([]byte, 300), PrefixOctet, nil)
	require.Error(t, err)
}

func TestLenPEncodeDecodeVariable(t *testing.T) {
	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = byte(i)
	}
	var wire bufSink
	require.NoError(t, LenPEncode(&wire, payload, PrefixVariable, nil))

	var out bufSink
	n, err := LenPDecode(&byteSource{data: wire.buf.Bytes()}, &out, PrefixVariable, nil)
	require.NoError(t, err)
	require.Equal(t, int64(1000), n)
	require.Equal(t, payload, out.buf.Bytes())
}

func TestLenPEncodeDecodeBE16(t *testing.T) {
	payload := []byte{0xAA, 0xBB}
	var wire bufSink
	require.NoError(t, LenPEncode(&wire, payload, PrefixBE16, nil))
	require.Equal(t, []byte{0x00, 0x02}, wire.buf.Bytes()[:2])

	var out bufSink
	_, err := LenPDecode(&byteSource{data: wire.buf.Bytes()}, &out, PrefixBE16, nil)
	require.NoError(t, err)
	require.Equal(t, payload, out.buf.Bytes())
}
