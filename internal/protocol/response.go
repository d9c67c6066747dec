package protocol

import "github.com/scigolib/regp/internal/core"

// EndpointType selects which framing and option defaults a transport
// uses.
type EndpointType uint8

const (
	EndpointTCP EndpointType = iota
	EndpointSerial
)

func req2resp(t FrameType) FrameType {
	switch t {
	case FrameReadRequest:
		return FrameReadResponse
	case FrameWriteRequest:
		return FrameWriteResponse
	default:
		return FrameMeta
	}
}

// optionsFor computes the options nibble a response of type t, carrying
// nWords memory words of payload, should use. opt16 selects whether the
// payload is word (not byte) addressed; error responses that carry a
// fixed 32-bit address/size field always pass opt16=false regardless of
// the backend's memory width, matching the reference encoder's choice to
// treat those payloads as raw bytes.
func optionsFor(ep EndpointType, opt16 bool, t FrameType, nWords uint32) uint8 {
	var opts uint8
	if opt16 {
		opts |= OptWordSize16
	}
	if ep == EndpointSerial {
		opts |= OptWithHeaderCRC
		if nWords > 0 && t != FrameReadRequest {
			opts |= OptWithPayloadCRC
		}
	}
	return opts
}

// Responder builds response frames for a given transport and memory word
// width, independent of any particular request/session state.
type Responder struct {
	EP    EndpointType
	Mem16 bool
}

func (r Responder) zeroPayload(req Header, code ResponseCode) Frame {
	t := req2resp(req.Type)
	h := Header{
		Version:  Version,
		Type:     t,
		Options:  optionsFor(r.EP, false, t, 0),
		Meta:     uint8(code),
		Sequence: req.Sequence,
		Address:  req.Address,
	}
	return Frame{Header: h}
}

// EWordSize reports that the request's word-size option does not match
// the memory backend's configured width.
func (r Responder) EWordSize(req Header) Frame { return r.zeroPayload(req, RespEWordSize) }

// EPayloadCRC reports a payload checksum mismatch.
func (r Responder) EPayloadCRC(req Header) Frame { return r.zeroPayload(req, RespEPayloadCRC) }

// EPayloadSize reports an implausible payload length.
func (r Responder) EPayloadSize(req Header) Frame { return r.zeroPayload(req, RespEPayloadSize) }

// EBusy reports the block allocator could not provide a receive buffer.
func (r Responder) EBusy(req Header) Frame { return r.zeroPayload(req, RespEBusy) }

// EIO reports an unspecified backend IO failure.
func (r Responder) EIO(req Header) Frame { return r.zeroPayload(req, RespEIO) }

// addressPayload builds a response carrying one big-endian 32-bit
// address or size value, the shape every *overflow/unmapped/access/range/
// invalid response shares.
func (r Responder) addressPayload(req Header, code ResponseCode, value uint32) Frame {
	t := req2resp(req.Type)
	payload := make([]byte, 4)
	core.WriteUint(payload, core.Width32, core.OrderBig, uint64(value))
	opts := optionsFor(r.EP, false, t, 2)
	h := Header{
		Version:   Version,
		Type:      t,
		Options:   opts,
		Meta:      uint8(code),
		Sequence:  req.Sequence,
		Address:   req.Address,
		Blocksize: 4,
	}
	if opts&OptWithPayloadCRC != 0 {
		h.PLCRC = core.CRC16(payload)
	}
	return Frame{Header: h, Payload: payload}
}

// ERXOverflow reports the allocator's buffer was too small to receive the
// whole incoming frame; size is the configured buffer size.
func (r Responder) ERXOverflow(req Header, size uint32) Frame {
	return r.addressPayload(req, RespERXOverflow, size)
}

// ETXOverflow reports a read response would not fit the available buffer.
func (r Responder) ETXOverflow(req Header, size uint32) Frame {
	return r.addressPayload(req, RespETXOverflow, size)
}

// EUnmapped reports address is not backed by any area.
func (r Responder) EUnmapped(req Header, address uint32) Frame {
	return r.addressPayload(req, RespEUnmapped, address)
}

// EAccess reports address is read-only (or otherwise access-restricted).
func (r Responder) EAccess(req Header, address uint32) Frame {
	return r.addressPayload(req, RespEAccess, address)
}

// ERange reports a value rejected by an entry's validator.
func (r Responder) ERange(req Header, address uint32) Frame {
	return r.addressPayload(req, RespERange, address)
}

// EInvalid reports a structurally invalid access.
func (r Responder) EInvalid(req Header, address uint32) Frame {
	return r.addressPayload(req, RespEInvalid, address)
}

// Ack builds a successful response, with payload (if any) in the
// backend's own memory word order.
func (r Responder) Ack(req Header, payload []byte) Frame {
	t := req2resp(req.Type)
	nWords := uint32(len(payload))
	if r.Mem16 {
		nWords /= 2
	}
	opts := optionsFor(r.EP, r.Mem16, t, nWords)
	h := Header{
		Version:   Version,
		Type:      t,
		Options:   opts,
		Meta:      uint8(RespAck),
		Sequence:  req.Sequence,
		Address:   req.Address,
		Blocksize: nWords,
	}
	if opts&OptWithPayloadCRC != 0 {
		if r.Mem16 {
			words := make([]uint16, nWords)
			for i := range words {
				v, _ := core.ReadUint(payload[i*2:i*2+2], core.Width16, core.OrderNative)
				words[i] = uint16(v)
			}
			h.PLCRC = core.CRC16Words(words)
		} else {
			h.PLCRC = core.CRC16(payload)
		}
	}
	return Frame{Header: h, Payload: payload}
}

// Meta builds an out-of-band meta frame; used when a request's header
// itself could not be trusted enough to build a normal response.
func (r Responder) Meta(code MetaCode) Frame {
	h := Header{
		Version: Version,
		Type:    FrameMeta,
		Options: optionsFor(r.EP, false, FrameMeta, 0),
		Meta:    uint8(code),
	}
	return Frame{Header: h}
}
