// Package io implements the source/sink endpoint abstraction, stream
// framing (SLIP and length-prefix) and the block allocator the protocol
// engine reads and writes frames through.
package io

import (
	"fmt"
	"syscall"

	"github.com/scigolib/regp/internal/core"
)

// Source produces bytes. A nil error with n==0 means "try again"; io.EOF
// is never used here, since the retry machinery and -ENODATA convention
// from the embedded reference this package is modelled on distinguish
// "permanent end" from "transient empty read" explicitly.
type Source interface {
	// Read transfers up to len(p) bytes into p, returning how many were
	// read. An error of syscall.EAGAIN or syscall.EINTR signals a
	// transient condition the retry policy may choose to retry.
	Read(p []byte) (int, error)
}

// Sink consumes bytes.
type Sink interface {
	Write(p []byte) (int, error)
}

// BufferedSource is the optional "getbuffer" extension: a source that can
// hand back a direct view of its internal buffer instead of requiring a
// copy through an auxiliary buffer.
type BufferedSource interface {
	Source
	GetBuffer() []byte
}

// BufferedSink is the sink-side counterpart of BufferedSource.
type BufferedSink interface {
	Sink
	GetBuffer() []byte
}

// ErrNoData signals a source has permanently ended.
var ErrNoData = syscall.ENODATA

// ErrNoMem signals a sink has no room left.
var ErrNoMem = syscall.ENOMEM

// RetryControl selects which transient conditions invoke a Retry's Run
// callback.
type RetryControl uint8

const (
	RetryOnEAGAIN RetryControl = 1 << iota
	RetryOnEINTR
	RetryOnZeroProgress
	RetryOnOther
)

// Retry is a plain struct of policy data (not a closure) so the hot
// receive path stays allocation-free: Run is consulted whenever an IO
// step hits a condition selected by Control.
type Retry struct {
	Control RetryControl
	Run     func(err error) int
	UserData any
}

// Decide applies the retry policy to err, returning:
//
//	1  - retry the IO step
//	0  - cancel with ErrNoData
//	-1 - propagate err verbatim
func (r *Retry) Decide(err error, zeroProgress bool) int {
	if r == nil || r.Run == nil {
		return -1
	}
	if !r.applies(err, zeroProgress) {
		return -1
	}
	rc := r.Run(err)
	switch {
	case rc > 0:
		return 1
	case rc == 0:
		return 0
	default:
		return -1
	}
}

func (r *Retry) applies(err error, zeroProgress bool) bool {
	switch {
	case err == syscall.EAGAIN:
		return r.Control&RetryOnEAGAIN != 0
	case err == syscall.EINTR:
		return r.Control&RetryOnEINTR != 0
	case zeroProgress:
		return r.Control&RetryOnZeroProgress != 0
	case err != nil:
		return r.Control&RetryOnOther != 0
	default:
		return false
	}
}

// GetChunk transfers exactly n bytes from src into dst[:n], retrying
// transient conditions through policy. A request for zero bytes is a
// programmer error (-EINVAL); callers must not issue one.
//
// -ENOMEM from src.Read is retried only while src still exposes its
// getbuffer extension with room left in it; once that room is gone the
// error propagates verbatim, since there is nothing left to wait on.
func GetChunk(src Source, dst []byte, n int, policy *Retry) (int, error) {
	if n == 0 {
		return 0, core.WrapError("io.GetChunk", syscall.EINVAL)
	}
	got := 0
	for got < n {
		m, err := src.Read(dst[got:n])
		if m == 0 && err == nil {
			err = fmt.Errorf("zero progress")
		}
		if err != nil {
			if err == ErrNoMem {
				if bs, ok := src.(BufferedSource); ok && len(bs.GetBuffer()) > 0 {
					continue
				}
				return got, err
			}
			if decision := policy.Decide(err, m == 0); decision != -1 {
				if decision == 1 {
					continue
				}
				return got, ErrNoData
			}
			return got, err
		}
		got += m
	}
	return got, nil
}

// GetChunkAtMost transfers any positive amount from src into dst, failing
// only when nothing at all could be read.
func GetChunkAtMost(src Source, dst []byte, policy *Retry) (int, error) {
	if len(dst) == 0 {
		return 0, core.WrapError("io.GetChunkAtMost", syscall.EINVAL)
	}
	for {
		m, err := src.Read(dst)
		if m > 0 {
			return m, nil
		}
		if err == nil {
			err = fmt.Errorf("zero progress")
		}
		if decision := policy.Decide(err, true); decision != -1 {
			if decision == 1 {
				continue
			}
			return 0, ErrNoData
		}
		return 0, err
	}
}

// PutChunk writes exactly n bytes from src[:n] to sink, retrying
// transient conditions. n==0 succeeds trivially (the one documented
// exception to the "zero length is -EINVAL" rule).
//
// -ENOMEM from sink.Write is retried only while sink still exposes its
// getbuffer extension with room left in it; a sink that is genuinely
// full (no room reported) fails the call with ErrNoMem instead of
// looping forever.
func PutChunk(sink Sink, src []byte, n int, policy *Retry) (int, error) {
	if n == 0 {
		return 0, nil
	}
	put := 0
	for put < n {
		m, err := sink.Write(src[put:n])
		if m == 0 && err == nil {
			err = fmt.Errorf("zero progress")
		}
		if err != nil {
			if err == ErrNoMem {
				if bs, ok := sink.(BufferedSink); ok && len(bs.GetBuffer()) > 0 {
					continue
				}
				return put, err
			}
			if decision := policy.Decide(err, m == 0); decision != -1 {
				if decision == 1 {
					continue
				}
				return put, ErrNoData
			}
			return put, err
		}
		put += m
	}
	return put, nil
}

// PutChunkAtMost writes any positive amount from src to sink.
func PutChunkAtMost(sink Sink, src []byte, policy *Retry) (int, error) {
	if len(src) == 0 {
		return 0, nil
	}
	for {
		m, err := sink.Write(src)
		if m > 0 {
			return m, nil
		}
		if err == nil {
			err = fmt.Errorf("zero progress")
		}
		if decision := policy.Decide(err, true); decision != -1 {
			if decision == 1 {
				continue
			}
			return 0, ErrNoData
		}
		return 0, err
	}
}

// SourceToSinkAtMost (sts_atmost) transfers whatever is immediately
// available, up to n bytes, from src to sink, using a direct buffer
// handoff when either side exposes one.
func SourceToSinkAtMost(src Source, sink Sink, n int, policy *Retry) (int, error) {
	if bs, ok := src.(BufferedSource); ok {
		buf := bs.GetBuffer()
		if len(buf) > n {
			buf = buf[:n]
		}
		return PutChunkAtMost(sink, buf, policy)
	}
	if bs, ok := sink.(BufferedSink); ok {
		buf := bs.GetBuffer()
		if len(buf) > n {
			buf = buf[:n]
		}
		if len(buf) > 0 {
			return GetChunkAtMost(src, buf, policy)
		}
	}
	aux := make([]byte, n)
	got, err := GetChunkAtMost(src, aux, policy)
	if err != nil {
		return 0, err
	}
	return PutChunk(sink, aux, got, policy)
}

// SourceToSinkN (sts_n) transfers exactly n bytes from src to sink. If
// either endpoint exposes its internal buffer through the getbuffer
// extension and that buffer is large enough to hold the whole transfer,
// the copy goes straight into or out of it instead of through an
// auxiliary buffer.
func SourceToSinkN(src Source, sink Sink, n int, policy *Retry) (int, error) {
	if bs, ok := sink.(BufferedSink); ok {
		if buf := bs.GetBuffer(); len(buf) >= n {
			return GetChunk(src, buf[:n], n, policy)
		}
	}
	if bs, ok := src.(BufferedSource); ok {
		if buf := bs.GetBuffer(); len(buf) >= n {
			return PutChunk(sink, buf[:n], n, policy)
		}
	}
	aux := make([]byte, n)
	if _, err := GetChunk(src, aux, n, policy); err != nil {
		return 0, err
	}
	return PutChunk(sink, aux, n, policy)
}

// SourceToSinkSome (sts_some) transfers at least one and at most n bytes.
func SourceToSinkSome(src Source, sink Sink, n int, policy *Retry) (int, error) {
	return SourceToSinkAtMost(src, sink, n, policy)
}

// SourceToSinkDrain (sts_drain) repeatedly transfers chunks of up to
// chunkSize bytes until the source reports permanent end.
func SourceToSinkDrain(src Source, sink Sink, chunkSize int, policy *Retry) (int, error) {
	total := 0
	for {
		n, err := SourceToSinkAtMost(src, sink, chunkSize, policy)
		total += n
		if err != nil {
			if err == ErrNoData {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			return total, nil
		}
	}
}
