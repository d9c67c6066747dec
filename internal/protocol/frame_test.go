package protocol

import (
	"testing"

	regpio "github.com/scigolib/regp/internal/io"
	"github.com/stretchr/testify/require"
)

func lenPWrap(t *testing.T, raw []byte) []byte {
	t.Helper()
	wire := regpio.NewInstrumentableSink(len(raw) + 8)
	require.NoError(t, regpio.LenPEncode(wire, raw, regpio.PrefixOctet, nil))
	return wire.Bytes()
}

func TestEncodeFrameReadRequestOverTCP(t *testing.T) {
	h := Header{Version: Version, Type: FrameReadRequest, Options: OptWordSize16, Address: 100, Blocksize: 1}
	raw, err := EncodeFrame(h, nil)
	require.NoError(t, err)

	require.Equal(t,
		[]byte{0x0c, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x64, 0x00, 0x00, 0x00, 0x01},
		lenPWrap(t, raw))
}

func TestEncodeFrameReadResponseOverTCP(t *testing.T) {
	h := Header{Version: Version, Type: FrameReadResponse, Options: OptWordSize16, Meta: uint8(RespAck), Address: 100, Blocksize: 1}
	payload := []byte{0x64, 0x00}
	raw, err := EncodeFrame(h, payload)
	require.NoError(t, err)

	require.Equal(t,
		[]byte{0x0e, 0x01, 0x10, 0x00, 0x00, 0x00, 0x00, 0x00, 0x64, 0x00, 0x00, 0x00, 0x01, 0x64, 0x00},
		lenPWrap(t, raw))
}

func TestDecodeFrameReadsBackPayload(t *testing.T) {
	h := Header{Version: Version, Type: FrameReadResponse, Options: OptWordSize16, Meta: uint8(RespAck), Address: 100, Blocksize: 1}
	raw, err := EncodeFrame(h, []byte{0x64, 0x00})
	require.NoError(t, err)

	f, err := DecodeFrame(raw)
	require.NoError(t, err)
	require.Equal(t, uint32(100), f.Header.Address)
	require.Equal(t, []byte{0x64, 0x00}, f.Payload)
}

func TestDecodeFrameRejectsOutOfRangePayload(t *testing.T) {
	h := Header{Version: Version, Type: FrameReadResponse, Options: OptWordSize16, Address: 100, Blocksize: 2}
	raw, err := EncodeFrame(h, []byte{0x64, 0x00})
	require.NoError(t, err)

	_, err = DecodeFrame(raw)
	require.Error(t, err)
}

func TestUnmappedAccessResponseShape(t *testing.T) {
	r := Responder{EP: EndpointTCP, Mem16: true}
	req := Header{Version: Version, Type: FrameReadRequest, Options: OptWordSize16, Address: 1014, Blocksize: 20}
	resp := r.EUnmapped(req, 1025)

	require.Equal(t, uint8(0), resp.Header.Options)
	require.Equal(t, uint8(RespEUnmapped), resp.Header.Meta)
	require.Equal(t, uint32(4), resp.Header.Blocksize)
	require.Equal(t, []byte{0x00, 0x00, 0x04, 0x01}, resp.Payload)
}

func TestEncodeFrameWithHeaderCRCMatchesSerialWireBytes(t *testing.T) {
	h := Header{Version: Version, Type: FrameReadRequest, Options: OptWordSize16 | OptWithHeaderCRC, Address: 100, Blocksize: 1}
	raw, err := EncodeFrame(h, nil)
	require.NoError(t, err)
	require.Equal(t,
		[]byte{0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x64, 0x00, 0x00, 0x00, 0x01, 0x0c, 0xb4},
		raw)
}

func TestMetaResponsesForMalformedHeaders(t *testing.T) {
	r := Responder{EP: EndpointTCP}
	enc := r.Meta(MetaHeaderEnc)
	require.Equal(t, FrameMeta, enc.Header.Type)
	require.Equal(t, uint8(MetaHeaderEnc), enc.Header.Meta)

	crc := r.Meta(MetaHeaderCRC)
	require.Equal(t, uint8(MetaHeaderCRC), crc.Header.Meta)
}
