package io

import (
	"syscall"

	"github.com/scigolib/regp/internal/core"
)

// InstrumentableBuffer wraps a byte buffer as both a Source and a Sink,
// with independent per-direction error injection. It exists so the
// protocol engine's error paths (EBUSY, ENOMEM, EBADMSG, EILSEQ, EFAULT,
// EPROTO) are reachable deterministically from tests instead of only from
// a real, flaky transport.
type InstrumentableBuffer struct {
	bb   *core.ByteBuffer
	sink bool

	chunksize int
	access    int

	errAtOffset   int
	errAtOffsetOn bool
	errAtErr      error

	errAtNth   int
	errAtNthOn bool
	errAtNthOK bool
	errAtNthErr error

	trace []string
}

// NewInstrumentableSource wraps data as already-written content, ready to
// be drained through Read, for use as a test Source.
func NewInstrumentableSource(data []byte) *InstrumentableBuffer {
	bb, _ := core.NewByteBuffer(data)
	_ = bb.SetUsed(len(data))
	return &InstrumentableBuffer{bb: bb, chunksize: len(data)}
}

// NewInstrumentableSink wraps a zeroed buffer of the given capacity, ready
// to be filled through Write, for use as a test Sink.
func NewInstrumentableSink(capacity int) *InstrumentableBuffer {
	bb, _ := core.NewByteBuffer(make([]byte, capacity))
	return &InstrumentableBuffer{bb: bb, chunksize: capacity, sink: true}
}

// UntilErrorAt injects err once the cumulative byte offset reaches offset,
// and for every access after that.
func (b *InstrumentableBuffer) UntilErrorAt(offset int, err error) {
	b.errAtOffsetOn = true
	b.errAtOffset = offset
	b.errAtErr = err
}

// UntilSuccessAt injects err on every access before the nth one (1-based),
// succeeding normally from the nth access onward.
func (b *InstrumentableBuffer) UntilSuccessAt(nth int, err error) {
	b.errAtNthOn = true
	b.errAtNth = nth
	b.errAtNthErr = err
}

// SetChunkSize limits how many bytes a single Read/Write call hands back.
func (b *InstrumentableBuffer) SetChunkSize(n int) { b.chunksize = n }

// AccessCount reports how many Read/Write calls have been made so far.
func (b *InstrumentableBuffer) AccessCount() int { return b.access }

// SetTrace enables recording a short label per access, retrievable via
// Trace(), for assertions on call ordering in tests.
func (b *InstrumentableBuffer) SetTrace(enabled bool) {
	if enabled {
		b.trace = []string{}
	} else {
		b.trace = nil
	}
}

// Trace returns the recorded access labels, if tracing was enabled.
func (b *InstrumentableBuffer) Trace() []string { return b.trace }

func (b *InstrumentableBuffer) record(label string) {
	if b.trace != nil {
		b.trace = append(b.trace, label)
	}
}

func (b *InstrumentableBuffer) injected() error {
	b.access++
	if b.errAtNthOn && b.access < b.errAtNth {
		return b.errAtNthErr
	}
	if b.errAtOffsetOn {
		pos := b.bb.Offset()
		if b.sink {
			pos = b.bb.Used()
		}
		if pos >= b.errAtOffset {
			return b.errAtErr
		}
	}
	return nil
}

// Read implements Source by copying from the wrapped buffer's unread span.
func (b *InstrumentableBuffer) Read(p []byte) (int, error) {
	b.record("read")
	if err := b.injected(); err != nil {
		return 0, err
	}
	n := len(p)
	if n > b.chunksize {
		n = b.chunksize
	}
	if n > b.bb.Rest() {
		n = b.bb.Rest()
	}
	if n == 0 {
		return 0, syscall.ENODATA
	}
	src := b.bb.ReadPtr()[:n]
	copy(p, src)
	_ = b.bb.Consume(n)
	return n, nil
}

// Write implements Sink by appending to the wrapped buffer's tail.
func (b *InstrumentableBuffer) Write(p []byte) (int, error) {
	b.record("write")
	if err := b.injected(); err != nil {
		return 0, err
	}
	n := len(p)
	if n > b.chunksize {
		n = b.chunksize
	}
	if n > b.bb.Avail() {
		n = b.bb.Avail()
	}
	if n == 0 {
		return 0, syscall.ENOMEM
	}
	if err := b.bb.Add(p[:n]); err != nil {
		return 0, err
	}
	return n, nil
}

// GetBuffer implements the optional buffer-exposing extension. A sink
// exposes its remaining write capacity (empty once full); a source
// exposes its unread content (empty once drained).
func (b *InstrumentableBuffer) GetBuffer() []byte {
	if b.sink {
		return b.bb.WritePtr()
	}
	return b.bb.ReadPtr()
}

// Bytes returns everything written so far.
func (b *InstrumentableBuffer) Bytes() []byte { return b.bb.Bytes() }
