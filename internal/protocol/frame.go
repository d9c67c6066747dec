package protocol

import (
	"github.com/scigolib/regp/internal/core"
)

// EncodeFrame serialises h and payload into one contiguous wire buffer.
// h.PLCRC must already be set if h's options carry a payload CRC.
func EncodeFrame(h Header, payload []byte) ([]byte, error) {
	buf := make([]byte, h.WireSize()+len(payload))
	n, err := EncodeHeader(buf, h)
	if err != nil {
		return nil, err
	}
	copy(buf[n:], payload)
	return buf, nil
}

// DecodeFrame parses a complete raw frame (header plus payload) received
// from the wire. It always returns the frame it managed to parse, even
// when the returned error reports a payload-level problem (EFAULT or
// EPROTO), so a caller can still identify which request to answer with an
// error response.
func DecodeFrame(raw []byte) (*Frame, error) {
	h, n, err := DecodeHeader(raw)
	if err != nil {
		return nil, err
	}
	f := &Frame{Header: h, Payload: raw[n:]}

	if err := payloadPlausible(h, len(f.Payload)); err != nil {
		return f, err
	}
	if err := checkPayload(h, f.Payload); err != nil {
		return f, err
	}
	return f, nil
}

// payloadPlausible checks the payload's byte length against what h.Type
// and h.Blocksize demand, in memory-word units when the 16-bit word-size
// option is set.
func payloadPlausible(h Header, payloadLen int) error {
	actual := payloadLen
	if h.Options&OptWordSize16 != 0 {
		actual /= 2
	}
	switch h.Type {
	case FrameReadRequest, FrameWriteResponse, FrameMeta:
		if actual != 0 {
			return errFault("unexpected payload on this frame type")
		}
	case FrameReadResponse, FrameWriteRequest:
		if uint32(actual) != h.Blocksize {
			return errFault("payload size does not match blocksize")
		}
	default:
		return errFault("illegal frame type")
	}
	return nil
}

// checkPayload verifies the payload CRC when the frame carries a header
// CRC and a nonempty payload; on this protocol those two facts together
// imply a payload CRC is present whenever one would apply.
func checkPayload(h Header, payload []byte) error {
	if !h.hasHDCRC() || len(payload) == 0 {
		return nil
	}

	var crc uint16
	if h.Options&OptWordSize16 != 0 {
		words := make([]uint16, h.Blocksize)
		for i := range words {
			v, _ := core.ReadUint(payload[i*2:i*2+2], core.Width16, core.OrderNative)
			words[i] = uint16(v)
		}
		crc = core.CRC16Words(words)
	} else {
		crc = core.CRC16(payload)
	}

	if crc != h.PLCRC {
		return errProto("payload CRC mismatch")
	}
	return nil
}
