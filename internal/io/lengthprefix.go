package io

import (
	"encoding/binary"
	"syscall"

	"github.com/scigolib/regp/internal/core"
)

// PrefixKind identifies how a length-prefix frame's size field is encoded.
type PrefixKind uint8

const (
	PrefixVariable PrefixKind = iota
	PrefixOctet
	PrefixLE16
	PrefixLE32
	PrefixBE16
	PrefixBE32
)

func (k PrefixKind) maxSize() uint64 {
	switch k {
	case PrefixOctet:
		return 0xFF
	case PrefixLE16, PrefixBE16:
		return 0xFFFF
	case PrefixLE32, PrefixBE32:
		return 0xFFFFFFFF
	default:
		return ^uint64(0)
	}
}

// LenPEncode writes payload to sink prefixed by its size encoded as kind.
func LenPEncode(sink Sink, payload []byte, kind PrefixKind, policy *Retry) error {
	size := uint64(len(payload))
	if size > kind.maxSize() {
		return core.WrapError("io.LenPEncode", syscall.EINVAL)
	}

	var header []byte
	switch kind {
	case PrefixVariable:
		header = VarintEncodeUint64(nil, size)
	case PrefixOctet:
		header = []byte{byte(size)}
	case PrefixLE16:
		header = make([]byte, 2)
		binary.LittleEndian.PutUint16(header, uint16(size))
	case PrefixLE32:
		header = make([]byte, 4)
		binary.LittleEndian.PutUint32(header, uint32(size))
	case PrefixBE16:
		header = make([]byte, 2)
		binary.BigEndian.PutUint16(header, uint16(size))
	case PrefixBE32:
		header = make([]byte, 4)
		binary.BigEndian.PutUint32(header, uint32(size))
	}

	if _, err := PutChunk(sink, header, len(header), policy); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := PutChunk(sink, payload, len(payload), policy)
	return err
}

// LenPDecode reads a length-prefix frame from src and writes its payload
// to sink. Decoding fails -ENOMEM if sink cannot accommodate the
// advertised size.
func LenPDecode(src Source, sink Sink, kind PrefixKind, policy *Retry) (int64, error) {
	var size uint64
	switch kind {
	case PrefixVariable:
		v, n, err := varintDecodeFromSource(src, policy)
		_ = n
		if err != nil {
			return 0, err
		}
		size = v
	case PrefixOctet:
		var b [1]byte
		if _, err := GetChunk(src, b[:], 1, policy); err != nil {
			return 0, err
		}
		size = uint64(b[0])
	case PrefixLE16, PrefixBE16:
		var b [2]byte
		if _, err := GetChunk(src, b[:], 2, policy); err != nil {
			return 0, err
		}
		if kind == PrefixLE16 {
			size = uint64(binary.LittleEndian.Uint16(b[:]))
		} else {
			size = uint64(binary.BigEndian.Uint16(b[:]))
		}
	case PrefixLE32, PrefixBE32:
		var b [4]byte
		if _, err := GetChunk(src, b[:], 4, policy); err != nil {
			return 0, err
		}
		if kind == PrefixLE32 {
			size = uint64(binary.LittleEndian.Uint32(b[:]))
		} else {
			size = uint64(binary.BigEndian.Uint32(b[:]))
		}
	}

	if size == 0 {
		return 0, nil
	}

	buf := make([]byte, size)
	if _, err := GetChunk(src, buf, int(size), policy); err != nil {
		return 0, err
	}
	if n, err := PutChunk(sink, buf, len(buf), policy); err != nil {
		if err == ErrNoMem {
			return int64(n), core.WrapError("io.LenPDecode", syscall.ENOMEM)
		}
		return int64(n), err
	}
	return int64(size), nil
}

// varintDecodeFromSource reads a LEB128 varint byte by byte directly from
// src, since the full encoding is not known to be buffer-resident ahead
// of time.
func varintDecodeFromSource(src Source, policy *Retry) (uint64, int, error) {
	var v uint64
	for i := 0; i < MaxVarintLen64; i++ {
		var b [1]byte
		if _, err := GetChunk(src, b[:], 1, policy); err != nil {
			return 0, 0, err
		}
		v |= uint64(b[0]&0x7f) << (7 * uint(i))
		if b[0]&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, core.WrapError("io.varintDecodeFromSource", syscall.EILSEQ)
}
