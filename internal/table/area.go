package table

// AreaHandle is an opaque index into a Table's area slice.
type AreaHandle uint16

// AreaFlags are the per-area access and initialisation policy bits.
type AreaFlags uint8

const (
	AreaReadable AreaFlags = 1 << iota
	AreaWriteable
	AreaSkipDefaults
)

// BlockReadFunc reads n atoms starting at addr into dst.
type BlockReadFunc func(addr RegisterAddress, n int, dst []RegisterAtom) Access

// BlockWriteFunc writes n atoms starting at addr from src.
type BlockWriteFunc func(addr RegisterAddress, n int, src []RegisterAtom) Access

// Area is a contiguous, address-ordered window of the table's address
// space. Memory-backed areas own their storage directly (Memory != nil);
// custom areas instead dispatch through Read/Write callbacks.
type Area struct {
	Base   RegisterAddress
	Size   uint32 // atoms
	Flags  AreaFlags
	Read   BlockReadFunc
	Write  BlockWriteFunc
	Memory []RegisterAtom // nil unless memory-backed

	First RegisterHandle
	Last  RegisterHandle
	Count uint32
}

func (a *Area) readable() bool   { return a.Flags&AreaReadable != 0 }
func (a *Area) writeable() bool  { return a.Flags&AreaWriteable != 0 }
func (a *Area) skipDefault() bool { return a.Flags&AreaSkipDefaults != 0 }

func (a *Area) end() RegisterAddress { return a.Base + a.Size }

func (a *Area) contains(addr RegisterAddress, n uint32) bool {
	return addr >= a.Base && uint64(addr)+uint64(n) <= uint64(a.end())
}

// memoryRead implements BlockReadFunc for a memory-backed area.
func (a *Area) memoryRead(addr RegisterAddress, n int, dst []RegisterAtom) Access {
	off := addr - a.Base
	copy(dst[:n], a.Memory[off:int(off)+n])
	return ok(addr)
}

// memoryWrite implements BlockWriteFunc for a memory-backed area.
func (a *Area) memoryWrite(addr RegisterAddress, n int, src []RegisterAtom) Access {
	off := addr - a.Base
	copy(a.Memory[off:int(off)+n], src[:n])
	return ok(addr)
}

// MakeMemoryArea builds a memory-backed area of size atoms starting at
// base, with the given access flags.
func MakeMemoryArea(base RegisterAddress, size uint32, flags AreaFlags) *Area {
	a := &Area{Base: base, Size: size, Flags: flags, Memory: make([]RegisterAtom, size)}
	a.Read = a.memoryRead
	a.Write = a.memoryWrite
	return a
}

// MakeCustomArea builds an area backed by caller-supplied read/write
// callbacks instead of owned memory. Either callback may be nil.
func MakeCustomArea(read BlockReadFunc, write BlockWriteFunc, base RegisterAddress, size uint32, flags AreaFlags) *Area {
	return &Area{Base: base, Size: size, Flags: flags, Read: read, Write: write}
}

// CustomArea builds a readable and writeable custom area.
func CustomArea(read BlockReadFunc, write BlockWriteFunc, base RegisterAddress, size uint32) *Area {
	return MakeCustomArea(read, write, base, size, AreaReadable|AreaWriteable)
}

// CustomAreaRO builds a read-only custom area.
func CustomAreaRO(read BlockReadFunc, base RegisterAddress, size uint32) *Area {
	return MakeCustomArea(read, nil, base, size, AreaReadable)
}

// CustomAreaWO builds a write-only custom area. The reference C macro this
// is modelled on (CUSTOM_AREA_WO) drops its address parameter by accident
// and ends up constructing a zero-base area; this implementation threads
// base through correctly instead of reproducing that bug.
func CustomAreaWO(write BlockWriteFunc, base RegisterAddress, size uint32) *Area {
	return MakeCustomArea(nil, write, base, size, AreaWriteable)
}
