package io

import (
	"syscall"

	"github.com/scigolib/regp/internal/core"
)

// MaxVarintLen64 is the longest a LEB128-encoded uint64 can be.
const MaxVarintLen64 = 10

// VarintEncodeUint64 appends the LEB128 encoding of v to dst, returning the
// extended slice.
func VarintEncodeUint64(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// VarintDecodeUint64 decodes a LEB128 uint64 from the front of src,
// returning the value and how many bytes were consumed. Rejects encodings
// longer than MaxVarintLen64 bytes with -EILSEQ.
func VarintDecodeUint64(src []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < len(src); i++ {
		if i >= MaxVarintLen64 {
			return 0, 0, core.WrapError("io.VarintDecodeUint64", syscall.EILSEQ)
		}
		b := src[i]
		v |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, core.WrapError("io.VarintDecodeUint64", syscall.ENODATA)
}
