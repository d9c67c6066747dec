package core

import "fmt"

// ByteBuffer is a fixed-capacity byte buffer with two cursors: used marks
// how much of data holds live bytes, offset marks how far a reader has
// progressed through them. The invariant 0 <= offset <= used <= len(data)
// holds for every exported operation that returns successfully.
type ByteBuffer struct {
	data   []byte
	used   int
	offset int
}

// NewByteBuffer wraps data (capacity len(data)) in an empty ByteBuffer.
func NewByteBuffer(data []byte) (*ByteBuffer, error) {
	if len(data) == 0 {
		return nil, WrapError("core.NewByteBuffer", fmt.Errorf("zero-size backing store"))
	}
	return &ByteBuffer{data: data}, nil
}

// Size returns the total backing capacity.
func (b *ByteBuffer) Size() int { return len(b.data) }

// Used returns how many bytes have been written.
func (b *ByteBuffer) Used() int { return b.used }

// Offset returns the current read cursor.
func (b *ByteBuffer) Offset() int { return b.offset }

// Avail returns how much free space remains for writing.
func (b *ByteBuffer) Avail() int { return len(b.data) - b.used }

// Rest returns how many unread bytes remain between offset and used.
func (b *ByteBuffer) Rest() int { return b.used - b.offset }

// SetUsed directly sets the used cursor, validating the invariant.
func (b *ByteBuffer) SetUsed(used int) error {
	if used < 0 || used > len(b.data) || b.offset > used {
		return WrapError("core.ByteBuffer.SetUsed", fmt.Errorf("invalid used=%d (offset=%d size=%d)", used, b.offset, len(b.data)))
	}
	b.used = used
	return nil
}

// SetOffset directly sets the read cursor, validating the invariant.
func (b *ByteBuffer) SetOffset(offset int) error {
	if offset < 0 || offset > b.used {
		return WrapError("core.ByteBuffer.SetOffset", fmt.Errorf("invalid offset=%d (used=%d)", offset, b.used))
	}
	b.offset = offset
	return nil
}

// Add appends src, advancing used. Fails with ENOMEM-equivalent error if it
// would not fit.
func (b *ByteBuffer) Add(src []byte) error {
	if len(src) > b.Avail() {
		return WrapError("core.ByteBuffer.Add", fmt.Errorf("out of space: need %d, have %d", len(src), b.Avail()))
	}
	copy(b.data[b.used:], src)
	b.used += len(src)
	return nil
}

// WritePtr returns a slice covering the unused tail of the buffer, or nil
// if the buffer is full.
func (b *ByteBuffer) WritePtr() []byte {
	if b.used >= len(b.data) {
		return nil
	}
	return b.data[b.used:]
}

// ReadPtr returns a slice covering the unread portion of the buffer, or nil
// if there is nothing left to read.
func (b *ByteBuffer) ReadPtr() []byte {
	if b.offset >= b.used {
		return nil
	}
	return b.data[b.offset:b.used]
}

// MarkRead advances used by n, used after directly writing into the slice
// returned by WritePtr. Mirrors the reference implementation's choice to
// fail with an out-of-space error, not an out-of-data one, since this
// operation is about committing a write.
func (b *ByteBuffer) MarkRead(n int) error {
	if n > b.Avail() {
		return WrapError("core.ByteBuffer.MarkRead", fmt.Errorf("out of space: need %d, have %d", n, b.Avail()))
	}
	b.used += n
	return nil
}

// Consume advances offset by exactly n bytes. Fails if fewer than n bytes
// are available to read.
func (b *ByteBuffer) Consume(n int) error {
	if n > b.Rest() {
		return WrapError("core.ByteBuffer.Consume", fmt.Errorf("out of data: need %d, have %d", n, b.Rest()))
	}
	b.offset += n
	return nil
}

// ConsumeAtMost advances offset by up to n bytes and returns how many bytes
// were actually consumed. Fails only when there is nothing left at all.
func (b *ByteBuffer) ConsumeAtMost(n int) (int, error) {
	rest := b.Rest()
	if rest == 0 {
		return 0, WrapError("core.ByteBuffer.ConsumeAtMost", fmt.Errorf("out of data"))
	}
	if n > rest {
		n = rest
	}
	b.offset += n
	return n, nil
}

// Rewind moves unread bytes to the front of the buffer and resets offset to
// zero. A no-op if offset is already zero.
func (b *ByteBuffer) Rewind() {
	if b.offset == 0 {
		return
	}
	rest := b.Rest()
	copy(b.data[0:], b.data[b.offset:b.used])
	b.used = rest
	b.offset = 0
}

// Clear zeroes the backing store and resets both cursors.
func (b *ByteBuffer) Clear() {
	for i := range b.data {
		b.data[i] = 0
	}
	b.used = 0
	b.offset = 0
}

// Reset resets both cursors to zero without touching the backing store's
// contents.
func (b *ByteBuffer) Reset() {
	b.used = 0
	b.offset = 0
}

// Repeat resets the read cursor only, so a buffer's contents can be
// re-consumed from the start.
func (b *ByteBuffer) Repeat() {
	b.offset = 0
}

// Bytes returns everything written so far, data[:used], including bytes
// already consumed; unlike ReadPtr it ignores the read cursor.
func (b *ByteBuffer) Bytes() []byte {
	return b.data[:b.used]
}

// Fill copies src into the buffer starting at used, byte for byte, up to
// n times, stopping early if space runs out. It reports how many full
// copies were made.
func (b *ByteBuffer) Fill(src []byte, n int) int {
	copies := 0
	for i := 0; i < n; i++ {
		if b.Avail() < len(src) {
			break
		}
		_ = b.Add(src)
		copies++
	}
	return copies
}
