package io

import (
	"syscall"

	"github.com/scigolib/regp/internal/core"
)

const (
	slipEnd    byte = 0xC0
	slipEsc    byte = 0xDB
	slipEscEnd byte = 0xDC
	slipEscEsc byte = 0xDD
)

// SLIPEncode reads bytes from src until it is exhausted and writes the
// byte-stuffed (RFC-1055) framing to sink, terminated by a trailing END.
// When startOfFrame is true, a leading END is emitted first.
func SLIPEncode(src Source, sink Sink, startOfFrame bool, policy *Retry) error {
	if startOfFrame {
		if _, err := PutChunk(sink, []byte{slipEnd}, 1, policy); err != nil {
			return err
		}
	}
	var b [1]byte
	for {
		n, err := src.Read(b[:])
		if err != nil {
			if err == ErrNoData {
				break
			}
			if decision := policy.Decide(err, n == 0); decision == 1 {
				continue
			} else if decision == 0 {
				break
			} else {
				return err
			}
		}
		if n == 0 {
			continue
		}
		if err := slipEmit(sink, b[0], policy); err != nil {
			return err
		}
	}
	_, err := PutChunk(sink, []byte{slipEnd}, 1, policy)
	return err
}

// drainUntilEnd discards raw bytes from src up to and including the next
// END octet, ignoring policy errors beyond permanent end.
func drainUntilEnd(src Source, policy *Retry) {
	var b [1]byte
	for {
		n, err := src.Read(b[:])
		if err != nil {
			if decision := policy.Decide(err, n == 0); decision == 1 {
				continue
			}
			return
		}
		if n == 0 {
			continue
		}
		if b[0] == slipEnd {
			return
		}
	}
}

func slipEmit(sink Sink, b byte, policy *Retry) error {
	switch b {
	case slipEnd:
		_, err := PutChunk(sink, []byte{slipEsc, slipEscEnd}, 2, policy)
		return err
	case slipEsc:
		_, err := PutChunk(sink, []byte{slipEsc, slipEscEsc}, 2, policy)
		return err
	default:
		_, err := PutChunk(sink, []byte{b}, 1, policy)
		return err
	}
}

// SLIPDecode reads a byte-stuffed frame from src and writes the unstuffed
// payload to sink, stopping at the terminating END. A leading END
// preceding any received byte is treated as start-of-frame and skipped
// rather than ending an empty frame.
func SLIPDecode(src Source, sink Sink, policy *Retry) error {
	var b [1]byte
	received := false
	for {
		n, err := src.Read(b[:])
		if err != nil {
			if decision := policy.Decide(err, n == 0); decision == 1 {
				continue
			} else if decision == 0 {
				return ErrNoData
			}
			return err
		}
		if n == 0 {
			continue
		}
		switch b[0] {
		case slipEnd:
			if received {
				return nil
			}
			continue
		case slipEsc:
			var e [1]byte
			if _, err := GetChunk(src, e[:], 1, policy); err != nil {
				return err
			}
			switch e[0] {
			case slipEscEnd:
				if _, err := PutChunk(sink, []byte{slipEnd}, 1, policy); err != nil {
					return err
				}
			case slipEscEsc:
				if _, err := PutChunk(sink, []byte{slipEsc}, 1, policy); err != nil {
					return err
				}
			default:
				// A dropped byte following ESC must not make this
				// decoder swallow the next frame delimiter: resync by
				// discarding up to and including the next END before
				// reporting the error, so the following decode call
				// starts cleanly at a frame boundary.
				if e[0] != slipEnd {
					drainUntilEnd(src, policy)
				}
				return core.WrapError("io.SLIPDecode", syscall.EBADMSG)
			}
			received = true
		default:
			if _, err := PutChunk(sink, b[:], 1, policy); err != nil {
				return err
			}
			received = true
		}
	}
}
