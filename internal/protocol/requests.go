package protocol

import (
	"time"

	"github.com/scigolib/regp/internal/core"
	"github.com/scigolib/regp/internal/table"
)

// ReqRead assembles and sends a read request for n words starting at
// address, stamping and advancing the engine's session sequence.
func (e *Engine) ReqRead(address uint32, n uint32) error {
	seq := e.Session.Next()
	opts := optionsFor(e.Responder.EP, true, FrameReadRequest, n)
	h := Header{
		Version:   Version,
		Type:      FrameReadRequest,
		Options:   opts,
		Sequence:  seq,
		Address:   address,
		Blocksize: n,
	}
	if err := e.Transport.sendFrame(Frame{Header: h}); err != nil {
		return err
	}
	e.sentAt = time.Now()
	return nil
}

// ReqWrite assembles and sends a write request carrying values, stamping
// and advancing the engine's session sequence.
func (e *Engine) ReqWrite(address uint32, values []table.RegisterAtom) error {
	seq := e.Session.Next()
	n := uint32(len(values))
	payload := make([]byte, n*2)
	for i, v := range values {
		core.WriteUint(payload[i*2:i*2+2], core.Width16, core.OrderNative, uint64(v))
	}

	opts := optionsFor(e.Responder.EP, true, FrameWriteRequest, n)
	h := Header{
		Version:   Version,
		Type:      FrameWriteRequest,
		Options:   opts,
		Sequence:  seq,
		Address:   address,
		Blocksize: n,
	}
	if opts&OptWithPayloadCRC != 0 {
		h.PLCRC = core.CRC16Words(values)
	}
	if err := e.Transport.sendFrame(Frame{Header: h, Payload: payload}); err != nil {
		return err
	}
	e.sentAt = time.Now()
	return nil
}
