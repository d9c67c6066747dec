package protocol

import (
	"errors"
	"syscall"
	"time"

	"github.com/scigolib/regp/internal/core"
	regpio "github.com/scigolib/regp/internal/io"
	"github.com/scigolib/regp/internal/table"
)

// Transport pairs an endpoint type with the source/sink it frames raw
// wire buffers through. Diag, if set, receives a copy of every raw frame
// that crosses Send or Recv for later inspection.
type Transport struct {
	EP     EndpointType
	Source regpio.Source
	Sink   regpio.Sink
	Diag   *Diagnostics
}

// Send frames raw (a complete header+payload buffer) according to t.EP
// and writes it out.
func (t *Transport) Send(raw []byte) error {
	t.Diag.recordWire(raw)
	if t.EP == EndpointSerial {
		src := regpio.NewInstrumentableSource(raw)
		return regpio.SLIPEncode(src, t.Sink, true, nil)
	}
	return regpio.LenPEncode(t.Sink, raw, regpio.PrefixOctet, nil)
}

// Recv reads one framed buffer from t, writing into a sink capped at
// maxSize bytes. Whatever was captured is always returned, even on
// error, so a caller whose sink ran out of room can still try to parse a
// header from the partial data.
func (t *Transport) Recv(maxSize int) ([]byte, error) {
	out := regpio.NewInstrumentableSink(maxSize)
	var err error
	if t.EP == EndpointSerial {
		err = regpio.SLIPDecode(t.Source, out, nil)
	} else {
		_, err = regpio.LenPDecode(t.Source, out, regpio.PrefixOctet, nil)
	}
	raw := out.Bytes()
	t.Diag.recordWire(raw)
	return raw, err
}

// accessToResponse maps a register-table access outcome onto the wire
// response code that reports it, per the fixed correspondence between
// the two closed enumerations.
func accessToResponse(a table.Access) (ResponseCode, uint32) {
	switch a.Code {
	case table.AccessSuccess:
		return RespAck, uint32(a.Address)
	case table.AccessUninitialised, table.AccessNoEntry:
		return RespEUnmapped, uint32(a.Address)
	case table.AccessRange:
		return RespERange, uint32(a.Address)
	case table.AccessInvalid:
		return RespEInvalid, uint32(a.Address)
	case table.AccessReadonly:
		return RespEAccess, uint32(a.Address)
	default:
		return RespEIO, uint32(a.Address)
	}
}

// Engine binds a transport, a register table and a block allocator
// together and implements the receive/dispatch loop: Recv obtains one
// frame (handling EBUSY/ERXOVERFLOW/EBADMSG/EILSEQ locally, emitting the
// appropriate response or meta frame itself), Process serves a
// successfully parsed request against the table.
type Engine struct {
	Transport *Transport
	Table     *table.Table
	Alloc     regpio.BlockAllocator
	Session   Session
	Responder Responder

	Diag   *Diagnostics
	sentAt time.Time
}

// EnableDiagnostics turns on session diagnostics: a bounded trace of
// recent wire bytes (traceBytes long) and a round-trip latency gauge
// smoothed over window samples. It returns the Diagnostics so a caller
// can read it back later.
func (e *Engine) EnableDiagnostics(traceBytes, window int) *Diagnostics {
	e.Diag = NewDiagnostics(traceBytes, window)
	e.Transport.Diag = e.Diag
	return e.Diag
}

// NewEngine builds an Engine. The bound table is always served in 16-bit
// word semantics (Responder.Mem16 is true); requests using 8-bit word
// semantics are answered with EWordSize.
func NewEngine(ep EndpointType, source regpio.Source, sink regpio.Sink, t *table.Table, alloc regpio.BlockAllocator) *Engine {
	return &Engine{
		Transport: &Transport{EP: ep, Source: source, Sink: sink},
		Table:     t,
		Alloc:     alloc,
		Responder: Responder{EP: ep, Mem16: true},
	}
}

// Received is the outcome of one Recv call: either a usable frame, or a
// recoverable framing error that Recv has already turned into a wire
// response or meta frame on the caller's behalf.
type Received struct {
	Frame   *Frame
	ErrorID error
}

func classify(err error) (badmsg, illseq bool) {
	return errors.Is(err, syscall.EBADMSG), errors.Is(err, syscall.EILSEQ)
}

// earlyHeaderResponse leniently parses headerBytes (which may be short or
// incomplete) to answer an EBUSY or ERXOVERFLOW condition with a proper
// response referencing the offending request's sequence/address, falling
// back to a Meta frame when even that much could not be recovered.
func (e *Engine) earlyHeaderResponse(headerBytes []byte, onOK func(h Header) Frame) error {
	h, _, err := DecodeHeader(headerBytes)
	if err != nil {
		badmsg, illseq := classify(err)
		switch {
		case badmsg:
			return e.Transport.sendFrame(e.Responder.Meta(MetaHeaderEnc))
		case illseq:
			return e.Transport.sendFrame(e.Responder.Meta(MetaHeaderCRC))
		default:
			return err
		}
	}
	return e.Transport.sendFrame(onOK(h))
}

func (t *Transport) sendFrame(f Frame) error {
	raw, err := EncodeFrame(f.Header, f.Payload)
	if err != nil {
		return err
	}
	return t.Send(raw)
}

// Recv obtains the next frame. A nil Received with a nil error never
// happens; a nil Received with a non-nil error means the underlying
// transport itself failed (not a protocol-level condition).
func (e *Engine) Recv() (*Received, error) {
	buf := e.Alloc.Alloc()
	if buf == nil {
		raw, _ := e.Transport.Recv(HeaderSize + 4)
		if err := e.earlyHeaderResponse(raw, func(h Header) Frame { return e.Responder.EBusy(h) }); err != nil {
			return nil, err
		}
		return &Received{ErrorID: core.WrapError("protocol.Recv", syscall.EBUSY)}, nil
	}
	defer e.Alloc.Free(buf)

	raw, err := e.Transport.Recv(len(buf))
	if err != nil {
		if errors.Is(err, regpio.ErrNoMem) {
			size := uint32(len(buf))
			if hdrErr := e.earlyHeaderResponse(raw, func(h Header) Frame {
				return e.Responder.ERXOverflow(h, size)
			}); hdrErr != nil {
				return nil, hdrErr
			}
			return &Received{ErrorID: core.WrapError("protocol.Recv", syscall.ENOMEM)}, nil
		}
		return nil, err
	}

	f, ferr := DecodeFrame(raw)
	if ferr != nil {
		badmsg, illseq := classify(ferr)
		switch {
		case badmsg:
			if err := e.Transport.sendFrame(e.Responder.Meta(MetaHeaderEnc)); err != nil {
				return nil, err
			}
			return &Received{ErrorID: ferr}, nil
		case illseq:
			if err := e.Transport.sendFrame(e.Responder.Meta(MetaHeaderCRC)); err != nil {
				return nil, err
			}
			return &Received{ErrorID: ferr}, nil
		default:
			// EFAULT / EPROTO: frame is structurally sound enough to
			// return for Process to answer.
			return &Received{Frame: f, ErrorID: ferr}, nil
		}
	}

	if !e.sentAt.IsZero() {
		e.Diag.recordLatency(time.Since(e.sentAt))
		e.sentAt = time.Time{}
	}
	return &Received{Frame: f}, nil
}

// Process dispatches one received frame against the bound register
// table. Non-request frames (responses, meta frames) and frames that
// failed to parse for reasons Recv already handled are silently ignored,
// except for the two classes Process itself still owes a response to:
// payload CRC and payload size errors.
func (e *Engine) Process(r *Received) error {
	if r == nil || r.Frame == nil {
		return nil
	}
	f := r.Frame

	if r.ErrorID != nil {
		switch {
		case errors.Is(r.ErrorID, syscall.EPROTO):
			if IsRequest(f) {
				return e.Transport.sendFrame(e.Responder.EPayloadCRC(f.Header))
			}
			return nil
		case errors.Is(r.ErrorID, syscall.EFAULT):
			if IsRequest(f) {
				return e.Transport.sendFrame(e.Responder.EPayloadSize(f.Header))
			}
			return nil
		default:
			return nil
		}
	}

	if !IsRequest(f) {
		return nil
	}

	if Is16BitSem(f) != e.Responder.Mem16 {
		return e.Transport.sendFrame(e.Responder.EWordSize(f.Header))
	}

	addr := table.RegisterAddress(f.Header.Address)
	n := int(f.Header.Blocksize)

	if IsReadRequest(f) {
		maxWords := (e.Alloc.BlockSize() - HeaderSize) / 2
		if n > maxWords {
			return e.Transport.sendFrame(e.Responder.ETXOverflow(f.Header, uint32(e.Alloc.BlockSize())))
		}
		dst := make([]table.RegisterAtom, n)
		acc := e.Table.BlockRead(addr, n, dst)
		return e.respondFromAccess(f.Header, acc, func() Frame {
			payload := make([]byte, n*2)
			for i, w := range dst {
				core.WriteUint(payload[i*2:i*2+2], core.Width16, core.OrderNative, uint64(w))
			}
			return e.Responder.Ack(f.Header, payload)
		})
	}

	src := make([]table.RegisterAtom, n)
	for i := range src {
		v, err := core.ReadUint(f.Payload[i*2:i*2+2], core.Width16, core.OrderNative)
		if err != nil {
			return e.Transport.sendFrame(e.Responder.EPayloadSize(f.Header))
		}
		src[i] = table.RegisterAtom(v)
	}
	acc := e.Table.BlockWrite(addr, n, src)
	return e.respondFromAccess(f.Header, acc, func() Frame {
		return e.Responder.Ack(f.Header, nil)
	})
}

func (e *Engine) respondFromAccess(req Header, acc table.Access, onAck func() Frame) error {
	code, addr := accessToResponse(acc)
	var resp Frame
	switch code {
	case RespAck:
		resp = onAck()
	case RespEUnmapped:
		resp = e.Responder.EUnmapped(req, addr)
	case RespERange:
		resp = e.Responder.ERange(req, addr)
	case RespEInvalid:
		resp = e.Responder.EInvalid(req, addr)
	case RespEAccess:
		resp = e.Responder.EAccess(req, addr)
	default:
		resp = e.Responder.EIO(req)
	}
	return e.Transport.sendFrame(resp)
}
