package protocol

import (
	"time"

	"github.com/scigolib/regp/internal/core"
)

// Diagnostics accumulates lightweight, bounded telemetry for a session: a
// rolling trace of recent raw wire bytes, for post-mortem dumps, and a
// smoothed round-trip latency gauge. Both are opt-in (a nil *Diagnostics
// is always safe to call) so a session pays nothing for them unless a
// caller asks.
type Diagnostics struct {
	trace   *core.Ring
	latency *core.LowPass
}

// NewDiagnostics builds a Diagnostics that keeps up to traceBytes of the
// most recent wire traffic and smooths round-trip latency over window
// samples.
func NewDiagnostics(traceBytes, window int) *Diagnostics {
	return &Diagnostics{
		trace:   core.NewRing(traceBytes),
		latency: core.NewLowPass(window),
	}
}

// recordWire appends raw wire bytes to the trace ring, discarding the
// oldest bytes first if there isn't enough room for the new ones.
func (d *Diagnostics) recordWire(raw []byte) {
	if d == nil || len(raw) == 0 {
		return
	}
	if len(raw) > d.trace.Cap() {
		raw = raw[len(raw)-d.trace.Cap():]
	}
	for len(raw) > d.trace.Free() {
		evict := make([]byte, len(raw)-d.trace.Free())
		d.trace.Pop(evict)
	}
	_ = d.trace.Push(raw)
}

// recordLatency folds one observed round-trip duration into the smoothed
// latency gauge.
func (d *Diagnostics) recordLatency(rt time.Duration) {
	if d == nil {
		return
	}
	d.latency.Update(rt.Seconds())
}

// AvgLatency returns the current smoothed round-trip latency in seconds
// and true, or (0, false) if no sample has been recorded yet.
func (d *Diagnostics) AvgLatency() (float64, bool) {
	if d == nil || !d.latency.HasMinValues(1) {
		return 0, false
	}
	return d.latency.Avg(), true
}

// TraceLen reports how many bytes of wire trace are currently buffered.
func (d *Diagnostics) TraceLen() int {
	if d == nil {
		return 0
	}
	return d.trace.Len()
}

// Dump renders the buffered trace as an s-expression: a "trace" symbol
// followed by one integer child per byte, in the order the bytes were
// seen on the wire. It is meant for debug output, not wire replay.
func (d *Diagnostics) Dump() string {
	if d == nil {
		return "(trace)"
	}
	buf := make([]byte, d.trace.Len())
	d.trace.Peek(buf)
	children := make([]*core.Sx, len(buf))
	for i, b := range buf {
		children[i] = core.SxInt(uint64(b))
	}
	return core.SxL(append([]*core.Sx{core.SxSym("trace")}, children...)...).String()
}
