// Package protocol implements the register-access wire protocol: frame
// header encode/decode, response builders, session sequencing, matching
// predicates and the recv/process engine that ties a register table to a
// transport endpoint.
package protocol

import (
	"github.com/scigolib/regp/internal/core"
)

// Version is the only header version this implementation emits or accepts.
const Version uint8 = 0

// FrameType identifies what a frame carries.
type FrameType uint8

const (
	FrameReadRequest FrameType = iota
	FrameReadResponse
	FrameWriteRequest
	FrameWriteResponse
	// FrameMeta is out of band with the other four types; it carries no
	// register address, only a meta code.
	FrameMeta FrameType = 15
)

// ResponseCode is the closed enumeration carried in a response frame's
// meta nibble.
type ResponseCode uint8

const (
	RespAck ResponseCode = iota
	RespEWordSize
	RespEPayloadCRC
	RespEPayloadSize
	RespERXOverflow
	RespETXOverflow
	RespEBusy
	RespEUnmapped
	RespEAccess
	RespERange
	RespEInvalid
	RespEIO
)

// MetaCode is the closed enumeration carried in a Meta frame's meta
// nibble, used when a header could not even be trusted enough to build a
// normal response.
type MetaCode uint8

const (
	MetaHeaderEnc MetaCode = 1
	MetaHeaderCRC MetaCode = 2
)

// Option bits live in the header's options nibble.
const (
	OptWordSize16     uint8 = 1 << 0
	OptWithHeaderCRC  uint8 = 1 << 1
	OptWithPayloadCRC uint8 = 1 << 2
	optReserved       uint8 = 1 << 3
)

// HeaderSize is the header length without either CRC.
const HeaderSize = 12

// Header is the fixed leading part of every frame. All multi-byte fields
// are big-endian on the wire; this differs from payload word encoding,
// which follows the memory backend's own byte order.
type Header struct {
	Version   uint8
	Type      FrameType
	Options   uint8
	Meta      uint8
	Sequence  uint16
	Address   uint32
	Blocksize uint32
	HDCRC     uint16
	PLCRC     uint16
}

func (h Header) hasHDCRC() bool { return h.Options&OptWithHeaderCRC != 0 }
func (h Header) hasPLCRC() bool { return h.Options&OptWithPayloadCRC != 0 }

// WireSize returns how many header bytes h occupies once encoded,
// including whichever CRCs its options select.
func (h Header) WireSize() int {
	n := HeaderSize
	if h.hasHDCRC() {
		n += 2
	}
	if h.hasPLCRC() {
		n += 2
	}
	return n
}

// EncodeHeader writes h into dst (which must be at least h.WireSize()
// bytes) and returns the number of bytes written. The header CRC, when
// present, covers the first 12 bytes plus the trailing payload-CRC field
// if one follows; it is computed and filled in here, so callers must set
// h.PLCRC (if carried) before calling this.
func EncodeHeader(dst []byte, h Header) (int, error) {
	n := h.WireSize()
	if len(dst) < n {
		return 0, core.WrapError("protocol.EncodeHeader", errShort(n, len(dst)))
	}

	motv := motvOf(h)
	dst[0] = byte(motv >> 8)
	dst[1] = byte(motv)
	core.WriteUint(dst[2:4], core.Width16, core.OrderBig, uint64(h.Sequence))
	core.WriteUint(dst[4:8], core.Width32, core.OrderBig, uint64(h.Address))
	core.WriteUint(dst[8:12], core.Width32, core.OrderBig, uint64(h.Blocksize))

	off := HeaderSize
	if h.hasHDCRC() {
		if h.hasPLCRC() {
			core.WriteUint(dst[HeaderSize+2:HeaderSize+4], core.Width16, core.OrderBig, uint64(h.PLCRC))
		}
		crc := core.CRC16(dst[:HeaderSize])
		if h.hasPLCRC() {
			crc = core.CRC16Update(crc, dst[HeaderSize+2:HeaderSize+4])
		}
		core.WriteUint(dst[off:off+2], core.Width16, core.OrderBig, uint64(crc))
		off += 2
	} else if h.hasPLCRC() {
		core.WriteUint(dst[off:off+2], core.Width16, core.OrderBig, uint64(h.PLCRC))
		off += 2
	}
	return off, nil
}

// motvOf packs version/type/options/meta into the 16-bit word the wire
// transmits big-endian: high byte holds meta<<4|options, low byte holds
// type<<4|version.
func motvOf(h Header) uint16 {
	byte0 := (h.Meta << 4) | (h.Options & 0x0f)
	byte1 := (uint8(h.Type) << 4) | (h.Version & 0x0f)
	return uint16(byte0)<<8 | uint16(byte1)
}

// DecodeHeader parses a header from src, validating structure per the
// rules below, and returns the number of bytes it consumed (header plus
// whichever CRCs were present). When a header CRC is present it is
// recomputed over the same bytes EncodeHeader covers, and a mismatch is
// rejected with EILSEQ.
//
// Structural validity requires: version matches, option bit 3 is clear,
// type is one of the five legal values, and meta is in range for that
// type (zero for requests, at most EInvalid for responses, 1 or 2 for
// meta frames).
func DecodeHeader(src []byte) (Header, int, error) {
	if len(src) < HeaderSize {
		return Header{}, 0, errBadMsg("short header")
	}

	byte0, byte1 := src[0], src[1]
	var h Header
	h.Meta = byte0 >> 4
	h.Options = byte0 & 0x0f
	h.Type = FrameType(byte1 >> 4)
	h.Version = byte1 & 0x0f

	if h.Version != Version {
		return Header{}, 0, errBadMsg("bad version")
	}
	if h.Options&optReserved != 0 {
		return Header{}, 0, errBadMsg("reserved option bit set")
	}
	if err := validMeta(h.Type, h.Meta); err != nil {
		return Header{}, 0, err
	}

	seq, _ := core.ReadUint(src[2:4], core.Width16, core.OrderBig)
	addr, _ := core.ReadUint(src[4:8], core.Width32, core.OrderBig)
	bs, _ := core.ReadUint(src[8:12], core.Width32, core.OrderBig)
	h.Sequence = uint16(seq)
	h.Address = uint32(addr)
	h.Blocksize = uint32(bs)

	off := HeaderSize
	if h.hasHDCRC() {
		need := HeaderSize + 2
		if h.hasPLCRC() {
			need += 2
		}
		if len(src) < need {
			return Header{}, 0, errBadMsg("truncated header")
		}
		hdcrc, _ := core.ReadUint(src[off:off+2], core.Width16, core.OrderBig)
		h.HDCRC = uint16(hdcrc)
		off += 2
		if h.hasPLCRC() {
			plcrc, _ := core.ReadUint(src[off:off+2], core.Width16, core.OrderBig)
			h.PLCRC = uint16(plcrc)
			off += 2
		}
		crc := core.CRC16(src[:HeaderSize])
		if h.hasPLCRC() {
			crc = core.CRC16Update(crc, src[HeaderSize+2:HeaderSize+4])
		}
		if crc != h.HDCRC {
			return Header{}, 0, errIllegalSeq("header CRC mismatch")
		}
	} else if h.hasPLCRC() {
		if len(src) < HeaderSize+2 {
			return Header{}, 0, errBadMsg("truncated header")
		}
		plcrc, _ := core.ReadUint(src[off:off+2], core.Width16, core.OrderBig)
		h.PLCRC = uint16(plcrc)
		off += 2
	}

	return h, off, nil
}

func validMeta(t FrameType, meta uint8) error {
	switch t {
	case FrameReadRequest, FrameWriteRequest:
		if meta != 0 {
			return errBadMsg("nonzero meta on request")
		}
	case FrameReadResponse, FrameWriteResponse:
		if meta > uint8(RespEIO) {
			return errBadMsg("meta out of range for response")
		}
	case FrameMeta:
		if meta < 1 || meta > 2 {
			return errBadMsg("meta out of range for meta frame")
		}
	default:
		return errBadMsg("illegal frame type")
	}
	return nil
}
