// Package regp wires a register table, a wire-protocol engine and a
// byte-stream endpoint together behind a small façade, so callers don't
// have to reach into internal/table, internal/protocol and internal/io
// themselves.
package regp

import (
	"net"

	"github.com/scigolib/regp/internal/io"
	"github.com/scigolib/regp/internal/protocol"
	"github.com/scigolib/regp/internal/table"
)

// Table re-exports the register table type callers build and pass to New.
type Table = table.Table

// Area re-exports the area type used to build a Table.
type Area = table.Area

// Entry re-exports the entry type used to declare a Table's registers.
type Entry = table.Entry

// Transport selects the framing a Device uses on the wire.
type Transport uint8

const (
	// TransportTCP frames requests/responses with a length prefix, for
	// stream sockets that preserve byte order but not message
	// boundaries.
	TransportTCP Transport = iota
	// TransportSerial frames requests/responses with SLIP byte
	// stuffing and carries header/payload CRCs, for noisy serial
	// links.
	TransportSerial
)

// Device binds a register table to one side of a register-protocol
// connection. The side that owns the table (the "server") drives Serve;
// the side that wants to read/write remote registers (the "client")
// drives ReqRead/ReqWrite and Recv.
type Device struct {
	engine *protocol.Engine
}

// New builds a Device over rw, framing traffic according to transport and
// serving t as the bound register table. alloc sizes and provides receive
// buffers; pass io.NewHeapAllocator(blockSize) for ordinary use, or a test
// double to exercise EBUSY/ERXOVERFLOW paths.
func New(transport Transport, rw ReadWriter, t *Table, alloc io.BlockAllocator) *Device {
	ep := protocol.EndpointTCP
	if transport == TransportSerial {
		ep = protocol.EndpointSerial
	}
	src := &connSource{rw: rw}
	snk := &connSink{rw: rw}
	return &Device{engine: protocol.NewEngine(ep, src, snk, t, alloc)}
}

// ReadWriter is the minimal byte-stream interface a Device needs; both
// net.Conn and an in-memory io.ReadWriter satisfy it.
type ReadWriter interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

type connSource struct{ rw ReadWriter }

func (c *connSource) Read(p []byte) (int, error) { return c.rw.Read(p) }

type connSink struct{ rw ReadWriter }

func (c *connSink) Write(p []byte) (int, error) { return c.rw.Write(p) }

// Serve handles exactly one incoming request, answering it against the
// Device's bound table. It returns any transport-level error; protocol
// errors (malformed frames, unmapped addresses, ...) are answered on the
// wire and are not returned to the caller.
func (d *Device) Serve() error {
	r, err := d.engine.Recv()
	if err != nil {
		return err
	}
	return d.engine.Process(r)
}

// ReqRead issues a read request for n words starting at address.
func (d *Device) ReqRead(address uint32, n uint32) error {
	return d.engine.ReqRead(address, n)
}

// ReqWrite issues a write request for values starting at address.
func (d *Device) ReqWrite(address uint32, values []table.RegisterAtom) error {
	return d.engine.ReqWrite(address, values)
}

// Recv reads and decodes the next frame (typically a response to a prior
// ReqRead/ReqWrite) without dispatching it against any table.
func (d *Device) Recv() (*protocol.Frame, error) {
	r, err := d.engine.Recv()
	if err != nil {
		return nil, err
	}
	return r.Frame, r.ErrorID
}

// EnableDiagnostics turns on lightweight diagnostics for d: a bounded
// trace of the last traceBytes of raw wire traffic plus a round-trip
// latency gauge smoothed over window samples. Call Diagnostics to read
// them back; a Device that never calls this pays nothing for either.
func (d *Device) EnableDiagnostics(traceBytes, window int) {
	d.engine.EnableDiagnostics(traceBytes, window)
}

// Diagnostics returns d's diagnostics snapshot, or nil if EnableDiagnostics
// was never called.
func (d *Device) Diagnostics() *protocol.Diagnostics {
	return d.engine.Diag
}

// DialTCP connects to addr and returns a Device framing traffic with
// length-prefixed TCP transport over t.
func DialTCP(addr string, t *Table, alloc io.BlockAllocator) (*Device, net.Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	return New(TransportTCP, conn, t, alloc), conn, nil
}
