package protocol

import (
	"testing"

	"github.com/scigolib/regp/internal/core"
	"github.com/stretchr/testify/require"
)

func reqHeader(t FrameType) Header {
	return Header{Version: Version, Type: t, Options: OptWordSize16, Sequence: 7, Address: 100, Blocksize: 1}
}

func TestZeroPayloadResponsesCarryNoPayloadAndMatchRequestSequence(t *testing.T) {
	r := Responder{EP: EndpointTCP, Mem16: true}
	cases := []struct {
		name string
		code ResponseCode
		f    func(Header) Frame
	}{
		{"EWordSize", RespEWordSize, r.EWordSize},
		{"EPayloadCRC", RespEPayloadCRC, r.EPayloadCRC},
		{"EPayloadSize", RespEPayloadSize, r.EPayloadSize},
		{"EBusy", RespEBusy, r.EBusy},
		{"EIO", RespEIO, r.EIO},
	}
	for _, c := range cases {
		req := reqHeader(FrameReadRequest)
		resp := c.f(req)
		require.Equal(t, FrameReadResponse, resp.Header.Type, c.name)
		require.Equal(t, uint8(c.code), resp.Header.Meta, c.name)
		require.Equal(t, req.Sequence, resp.Header.Sequence, c.name)
		require.Empty(t, resp.Payload, c.name)
		require.Equal(t, uint32(0), resp.Header.Blocksize, c.name)
	}
}

func TestAddressPayloadResponsesCarryBigEndian32BitValue(t *testing.T) {
	r := Responder{EP: EndpointTCP, Mem16: true}
	req := reqHeader(FrameWriteRequest)

	cases := []struct {
		name string
		code ResponseCode
		f    func(Header, uint32) Frame
	}{
		{"ERXOverflow", RespERXOverflow, r.ERXOverflow},
		{"ETXOverflow", RespETXOverflow, r.ETXOverflow},
		{"EUnmapped", RespEUnmapped, r.EUnmapped},
		{"EAccess", RespEAccess, r.EAccess},
		{"ERange", RespERange, r.ERange},
		{"EInvalid", RespEInvalid, r.EInvalid},
	}
	for _, c := range cases {
		resp := c.f(req, 0x00000401)
		require.Equal(t, FrameWriteResponse, resp.Header.Type, c.name)
		require.Equal(t, uint8(c.code), resp.Header.Meta, c.name)
		require.Equal(t, uint32(4), resp.Header.Blocksize, c.name)
		require.Equal(t, []byte{0x00, 0x00, 0x04, 0x01}, resp.Payload, c.name)
		require.Equal(t, uint8(0), resp.Header.Options, c.name)
	}
}

func TestAckOverSerialComputesWordwisePayloadCRC(t *testing.T) {
	r := Responder{EP: EndpointSerial, Mem16: true}
	req := reqHeader(FrameReadRequest)

	payload := make([]byte, 2)
	core.WriteUint(payload, core.Width16, core.OrderNative, 100)

	resp := r.Ack(req, payload)
	require.Equal(t, uint8(RespAck), resp.Header.Meta)
	require.Equal(t, uint32(1), resp.Header.Blocksize)
	require.True(t, HasHDCRC(&resp))
	require.NotZero(t, resp.Header.PLCRC)

	want := core.CRC16Words([]uint16{100})
	require.Equal(t, want, resp.Header.PLCRC)
}

func TestAckOverTCPOmitsCRCFields(t *testing.T) {
	r := Responder{EP: EndpointTCP, Mem16: true}
	req := reqHeader(FrameReadRequest)
	payload := []byte{0x64, 0x00}

	resp := r.Ack(req, payload)
	require.Equal(t, uint16(0), resp.Header.HDCRC)
	require.Equal(t, uint16(0), resp.Header.PLCRC)
}

func TestWriteAckCarriesNoPayload(t *testing.T) {
	r := Responder{EP: EndpointTCP, Mem16: true}
	req := reqHeader(FrameWriteRequest)

	resp := r.Ack(req, nil)
	require.Equal(t, FrameWriteResponse, resp.Header.Type)
	require.Equal(t, uint32(0), resp.Header.Blocksize)
	require.Empty(t, resp.Payload)
}
