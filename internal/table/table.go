package table

import (
	"fmt"
	"strconv"

	"github.com/scigolib/regp/internal/core"
)

// Table is a linear address space of typed, validated register entries
// backed by access-controlled memory areas. Areas and entries are supplied
// fully populated at construction time and never change shape after Init;
// the table itself only ever mutates register values.
type Table struct {
	Areas   []*Area
	Entries []*Entry

	BigEndian bool

	initialised bool
	duringInit  bool
}

// NewTable builds a table from caller-supplied, address-ordered areas and
// entries. Call Init before using it.
func NewTable(areas []*Area, entries []*Entry, bigEndian bool) *Table {
	return &Table{Areas: areas, Entries: entries, BigEndian: bigEndian}
}

func (t *Table) order() core.Order {
	if t.BigEndian {
		return core.OrderBig
	}
	return core.OrderLittle
}

// Init validates table structure, resolves each entry's owning area and
// in-area offset, zeroes memory-backed area storage, writes declared
// defaults, and marks the table initialised.
func (t *Table) Init() InitResult {
	if len(t.Areas) == 0 {
		return InitResult{Code: InitNoAreas}
	}
	if len(t.Areas) > 1<<16-1 {
		return InitResult{Code: InitTooManyAreas}
	}
	if uint64(len(t.Entries)) > 1<<32-1 {
		return InitResult{Code: InitTooManyEntries}
	}

	for i := 1; i < len(t.Areas); i++ {
		prev, cur := t.Areas[i-1], t.Areas[i]
		if cur.Base < prev.end() {
			if cur.Base < prev.Base {
				return InitResult{Code: InitAreaInvalidOrder, Area: AreaHandle(i)}
			}
			return InitResult{Code: InitAreaAddressOverlap, Area: AreaHandle(i), Address: cur.Base}
		}
	}

	for i := 1; i < len(t.Entries); i++ {
		prev, cur := t.Entries[i-1], t.Entries[i]
		if cur.Address < prev.Address+uint32(prev.Atoms()) {
			if cur.Address < prev.Address {
				return InitResult{Code: InitEntryInvalidOrder, Entry: RegisterHandle(i)}
			}
			return InitResult{Code: InitEntryAddressOverlap, Entry: RegisterHandle(i), Address: cur.Address}
		}
	}

	for i, e := range t.Entries {
		ah, ok := t.areaFor(e.Address, uint32(e.Atoms()))
		if !ok {
			return InitResult{Code: InitEntryInMemoryHole, Entry: RegisterHandle(i), Address: e.Address}
		}
		e.Area = ah
		e.Offset = e.Address - t.Areas[ah].Base
	}

	for _, a := range t.Areas {
		if a.Memory != nil {
			for i := range a.Memory {
				a.Memory[i] = 0
			}
		}
	}

	t.duringInit = true
	for i, e := range t.Entries {
		area := t.Areas[e.Area]
		if area.skipDefault() {
			continue
		}
		buf := make([]byte, AtomsFor(e.Type)*2)
		if err := serialize(buf, e.Default, t.order()); err != nil {
			t.duringInit = false
			return InitResult{Code: InitEntryInvalidDefault, Entry: RegisterHandle(i), Address: e.Address}
		}
		if !e.Validator.Accept(e.Default, true) {
			t.duringInit = false
			return InitResult{Code: InitEntryInvalidDefault, Entry: RegisterHandle(i), Address: e.Address}
		}
		if area.Write != nil {
			atoms := bytesToAtoms(buf)
			area.Write(e.Address, len(atoms), atoms)
		}
	}
	t.duringInit = false
	t.initialised = true
	return InitResult{Code: InitOK}
}

func (t *Table) areaFor(addr RegisterAddress, n uint32) (AreaHandle, bool) {
	for i, a := range t.Areas {
		if a.contains(addr, n) {
			return AreaHandle(i), true
		}
	}
	return 0, false
}

func bytesToAtoms(b []byte) []RegisterAtom {
	atoms := make([]RegisterAtom, len(b)/2)
	for i := range atoms {
		atoms[i] = RegisterAtom(b[2*i])<<8 | RegisterAtom(b[2*i+1])
	}
	return atoms
}

func atomsToBytes(atoms []RegisterAtom, dst []byte) {
	for i, a := range atoms {
		dst[2*i] = byte(a >> 8)
		dst[2*i+1] = byte(a)
	}
}

// GetEntry returns the entry behind handle.
func (t *Table) GetEntry(h RegisterHandle) (*Entry, bool) {
	if int(h) >= len(t.Entries) {
		return nil, false
	}
	return t.Entries[h], true
}

// EntrySize reports how many atoms the entry behind handle occupies.
func (t *Table) EntrySize(h RegisterHandle) int {
	e, ok := t.GetEntry(h)
	if !ok {
		return 0
	}
	return e.Atoms()
}

// addr returns the resolved address of the entry.
func (e *Entry) addr() RegisterAddress { return e.Address }

func (t *Table) entryBuf(e *Entry) []byte {
	return make([]byte, e.Atoms()*2)
}

func (t *Table) writeEntry(e *Entry, buf []byte) Access {
	area := t.Areas[e.Area]
	if area.Write == nil {
		return fail(AccessReadonly, e.Address)
	}
	atoms := bytesToAtoms(buf)
	return area.Write(e.Address, len(atoms), atoms)
}

func (t *Table) readEntry(e *Entry) ([]byte, Access) {
	area := t.Areas[e.Area]
	buf := t.entryBuf(e)
	if area.Read == nil {
		return buf, fail(AccessIOError, e.Address)
	}
	n := e.Atoms()
	atoms := make([]RegisterAtom, n)
	rc := area.Read(e.Address, n, atoms)
	atomsToBytes(atoms, buf)
	return buf, rc
}

// Set writes v into the entry behind handle after validator and
// serialisation checks. See SetUnsafe to skip the validator.
func (t *Table) Set(h RegisterHandle, v Value) Access {
	return t.set(h, v, false)
}

// SetUnsafe writes v into the entry behind handle, skipping the validator.
func (t *Table) SetUnsafe(h RegisterHandle, v Value) Access {
	return t.set(h, v, true)
}

func (t *Table) set(h RegisterHandle, v Value, unsafe bool) Access {
	e, ok := t.GetEntry(h)
	if !ok {
		return fail(AccessNoEntry, 0)
	}
	if v.Kind != e.Type {
		return fail(AccessInvalid, e.Address)
	}
	area := t.Areas[e.Area]
	if area.Write == nil {
		return fail(AccessReadonly, e.Address)
	}
	if !unsafe && !e.Validator.Accept(v, t.duringInit) {
		return fail(AccessRange, e.Address)
	}
	buf := t.entryBuf(e)
	if err := serialize(buf, v, t.order()); err != nil {
		return fail(AccessInvalid, e.Address)
	}
	rc := t.writeEntry(e, buf)
	if rc.Code == AccessSuccess {
		e.setTouched()
	}
	return rc
}

// Get reads the current value of the entry behind handle.
func (t *Table) Get(h RegisterHandle) (Value, Access) {
	e, found := t.GetEntry(h)
	if !found {
		return Invalid, fail(AccessNoEntry, 0)
	}
	buf, rc := t.readEntry(e)
	if rc.Code != AccessSuccess {
		return Invalid, rc
	}
	v, err := deserialize(buf, e.Type, t.order())
	if err != nil {
		return Invalid, fail(AccessInvalid, e.Address)
	}
	return v, ok(e.Address)
}

// Default returns the declared default of the entry behind handle.
func (t *Table) Default(h RegisterHandle) (Value, Access) {
	e, found := t.GetEntry(h)
	if !found {
		return Invalid, fail(AccessNoEntry, 0)
	}
	return e.Default, ok(e.Address)
}

// BitSet performs a read-modify-write OR of mask into the entry's unsigned
// integer value, with a validator re-check of the result.
func (t *Table) BitSet(h RegisterHandle, mask uint64) Access {
	return t.bitOp(h, mask, true)
}

// BitClear performs a read-modify-write AND-NOT of mask against the
// entry's unsigned integer value, with a validator re-check of the result.
func (t *Table) BitClear(h RegisterHandle, mask uint64) Access {
	return t.bitOp(h, mask, false)
}

func (t *Table) bitOp(h RegisterHandle, mask uint64, set bool) Access {
	e, ok := t.GetEntry(h)
	if !ok {
		return fail(AccessNoEntry, 0)
	}
	switch e.Type {
	case TypeU16, TypeU32, TypeU64:
	default:
		return fail(AccessInvalid, e.Address)
	}
	cur, rc := t.Get(h)
	if rc.Code != AccessSuccess {
		return rc
	}
	var nv Value
	if set {
		nv = setBits(cur, mask)
	} else {
		nv = clearBits(cur, mask)
	}
	return t.Set(h, nv)
}

func setBits(v Value, mask uint64) Value {
	switch v.Kind {
	case TypeU16:
		return U16(v.AsU16() | uint16(mask))
	case TypeU32:
		return U32(v.AsU32() | uint32(mask))
	default:
		return U64(v.AsU64() | mask)
	}
}

func clearBits(v Value, mask uint64) Value {
	switch v.Kind {
	case TypeU16:
		return U16(v.AsU16() &^ uint16(mask))
	case TypeU32:
		return U32(v.AsU32() &^ uint32(mask))
	default:
		return U64(v.AsU64() &^ mask)
	}
}

// Touch sets the entry's dirty flag.
func (t *Table) Touch(h RegisterHandle) {
	if e, ok := t.GetEntry(h); ok {
		e.setTouched()
	}
}

// Untouch clears the entry's dirty flag.
func (t *Table) Untouch(h RegisterHandle) {
	if e, ok := t.GetEntry(h); ok {
		e.clearTouched()
	}
}

// WasTouched reports the entry's dirty flag.
func (t *Table) WasTouched(h RegisterHandle) bool {
	e, ok := t.GetEntry(h)
	return ok && e.touched()
}

// BlockTouchesHole reports whether [addr, addr+n) touches any unmapped
// address.
func (t *Table) BlockTouchesHole(addr RegisterAddress, n uint32) bool {
	_, holeAddr, ok := t.firstHole(addr, n)
	_ = holeAddr
	return !ok
}

// firstHole walks [addr, addr+n) area by area, returning the address of
// the first unmapped atom if any, else ok=true.
func (t *Table) firstHole(addr RegisterAddress, n uint32) (int, RegisterAddress, bool) {
	end := addr + n
	cur := addr
	for cur < end {
		found := false
		for _, a := range t.Areas {
			if cur >= a.Base && cur < a.end() {
				step := a.end() - cur
				if cur+step > end {
					step = end - cur
				}
				cur += step
				found = true
				break
			}
		}
		if !found {
			return 0, cur, false
		}
	}
	return 0, 0, true
}

// BlockRead reads n atoms starting at addr into dst. Unreadable areas
// within the range yield zero-filled output; an address touching no area
// at all fails with NoEntry.
func (t *Table) BlockRead(addr RegisterAddress, n int, dst []RegisterAtom) Access {
	return t.blockRead(addr, n, dst)
}

// BlockReadUnsafe reads exactly like BlockRead: it does not skip the hole
// check, and a range touching unmapped space still fails with NoEntry.
func (t *Table) BlockReadUnsafe(addr RegisterAddress, n int, dst []RegisterAtom) Access {
	return t.blockRead(addr, n, dst)
}

func (t *Table) blockRead(addr RegisterAddress, n int, dst []RegisterAtom) Access {
	if !t.initialised {
		return fail(AccessUninitialised, addr)
	}
	cur := addr
	remaining := n
	off := 0
	for remaining > 0 {
		area := t.areaAt(cur)
		if area == nil {
			return fail(AccessNoEntry, cur)
		}
		span := int(area.end() - cur)
		if span > remaining {
			span = remaining
		}
		if area.readable() && area.Read != nil {
			area.Read(cur, span, dst[off:off+span])
		} else {
			for i := 0; i < span; i++ {
				dst[off+i] = 0
			}
		}
		cur += RegisterAddress(span)
		off += span
		remaining -= span
	}
	return ok(addr)
}

func (t *Table) areaAt(addr RegisterAddress) *Area {
	for _, a := range t.Areas {
		if addr >= a.Base && addr < a.end() {
			return a
		}
	}
	return nil
}

// BlockWrite writes n atoms from src starting at addr. Every entry the
// range touches must accept the would-be value, and the destination must
// be writeable end to end, before any mutation occurs.
func (t *Table) BlockWrite(addr RegisterAddress, n int, src []RegisterAtom) Access {
	if !t.initialised {
		return fail(AccessUninitialised, addr)
	}
	if rc := t.precheckBlockWrite(addr, uint32(n), src); rc.Code != AccessSuccess {
		return rc
	}
	return t.blockWriteUnsafeInner(addr, n, src)
}

// BlockWriteUnsafe skips hole and validator checks; callers must precheck.
func (t *Table) BlockWriteUnsafe(addr RegisterAddress, n int, src []RegisterAtom) Access {
	return t.blockWriteUnsafeInner(addr, n, src)
}

func (t *Table) precheckBlockWrite(addr RegisterAddress, n uint32, src []RegisterAtom) Access {
	end := addr + n
	cur := addr
	for cur < end {
		area := t.areaAt(cur)
		if area == nil {
			return fail(AccessNoEntry, cur)
		}
		if !area.writeable() || area.Write == nil {
			return fail(AccessReadonly, cur)
		}
		span := area.end() - cur
		if cur+span > end {
			span = end - cur
		}
		cur += span
	}

	for _, e := range t.Entries {
		eEnd := e.Address + uint32(e.Atoms())
		if eEnd <= addr || e.Address >= end {
			continue
		}
		atoms := make([]RegisterAtom, e.Atoms())
		if area := t.Areas[e.Area]; area.Read != nil {
			area.Read(e.Address, len(atoms), atoms)
		}
		for i := range atoms {
			if a := e.Address + uint32(i); a >= addr && a < end {
				atoms[i] = src[a-addr]
			}
		}
		buf := make([]byte, e.Atoms()*2)
		atomsToBytes(atoms, buf)
		v, err := deserialize(buf, e.Type, t.order())
		if err != nil || !e.Validator.Accept(v, false) {
			return fail(AccessRange, e.Address)
		}
	}
	return ok(addr)
}

func (t *Table) blockWriteUnsafeInner(addr RegisterAddress, n int, src []RegisterAtom) Access {
	cur := addr
	remaining := n
	off := 0
	for remaining > 0 {
		area := t.areaAt(cur)
		if area == nil || area.Write == nil {
			return fail(AccessNoEntry, cur)
		}
		span := int(area.end() - cur)
		if span > remaining {
			span = remaining
		}
		area.Write(cur, span, src[off:off+span])
		cur += RegisterAddress(span)
		off += span
		remaining -= span
	}
	for _, e := range t.Entries {
		eEnd := e.Address + uint32(e.Atoms())
		if e.Address >= addr && eEnd <= addr+uint32(n) {
			e.setTouched()
		}
	}
	return ok(addr)
}

// SetFromHexstr interprets str as hex nibbles packed four per 16-bit atom,
// writing consecutive atoms starting at addr. An odd tail is padded with
// zero nibbles on the right.
func (t *Table) SetFromHexstr(addr RegisterAddress, str string) Access {
	natoms := (len(str) + 3) / 4
	atoms := make([]RegisterAtom, natoms)
	for i := 0; i < natoms; i++ {
		var nibbles [4]byte
		for j := 0; j < 4; j++ {
			idx := i*4 + j
			if idx < len(str) {
				nibbles[j] = str[idx]
			} else {
				nibbles[j] = '0'
			}
		}
		var v uint64
		for _, c := range nibbles {
			d, err := strconv.ParseUint(string(c), 16, 8)
			if err != nil {
				return fail(AccessInvalid, addr)
			}
			v = v<<4 | d
		}
		atoms[i] = RegisterAtom(v)
	}
	return t.BlockWrite(addr, natoms, atoms)
}

// Sanitise restores every entry whose current value fails its validator
// (or whose deserialisation fails, e.g. a non-finite float) back to its
// declared default, and clears that entry's touched flag. Idempotent.
func (t *Table) Sanitise() {
	for _, e := range t.Entries {
		area := t.Areas[e.Area]
		buf, rc := t.readEntry(e)
		restore := rc.Code != AccessSuccess
		if !restore {
			v, err := deserialize(buf, e.Type, t.order())
			if err != nil || !e.Validator.Accept(v, false) {
				restore = true
			}
		}
		if restore {
			dbuf := t.entryBuf(e)
			if err := serialize(dbuf, e.Default, t.order()); err == nil && area.Write != nil {
				t.writeEntry(e, dbuf)
			}
			e.clearTouched()
		}
	}
}

// MCopy transfers min(size(src), size(dst)) atoms from the srcArea to the
// dstArea. At least one side must be memory-backed.
func (t *Table) MCopy(dstArea, srcArea AreaHandle) Access {
	dst := t.Areas[dstArea]
	src := t.Areas[srcArea]
	if dst.Memory == nil && src.Memory == nil {
		return fail(AccessInvalid, dst.Base)
	}
	n := int(dst.Size)
	if int(src.Size) < n {
		n = int(src.Size)
	}
	switch {
	case dst.Memory != nil && src.Memory != nil:
		copy(dst.Memory, src.Memory[:n])
	case dst.Memory != nil:
		src.Read(src.Base, n, dst.Memory[:n])
	default:
		dst.Write(dst.Base, n, src.Memory[:n])
	}
	return ok(dst.Base)
}

// ForeachIn iterates, in ascending address order, over entries whose
// address falls in [addr, addr+span). The callback returns negative to
// abort (ForeachIn then reports Failure at the offending address), zero to
// continue, positive to stop iteration successfully.
func (t *Table) ForeachIn(addr RegisterAddress, span uint32, callback func(*Entry) int, _ any) Access {
	end := addr + span
	for _, e := range t.Entries {
		if e.Address < addr || e.Address >= end {
			continue
		}
		rc := callback(e)
		switch {
		case rc < 0:
			return fail(AccessFailure, e.Address)
		case rc > 0:
			return ok(e.Address)
		}
	}
	return ok(addr)
}

// Snapshot copies every memory-backed area's storage, for use by tests
// asserting that a failed BlockWrite left the table untouched.
func (t *Table) Snapshot() [][]RegisterAtom {
	snap := make([][]RegisterAtom, len(t.Areas))
	for i, a := range t.Areas {
		if a.Memory == nil {
			continue
		}
		snap[i] = append([]RegisterAtom(nil), a.Memory...)
	}
	return snap
}

// EqualSnapshot compares the table's current memory-backed area storage
// against a previously captured Snapshot.
func (t *Table) EqualSnapshot(snap [][]RegisterAtom) bool {
	if len(snap) != len(t.Areas) {
		return false
	}
	for i, a := range t.Areas {
		if a.Memory == nil {
			continue
		}
		if len(snap[i]) != len(a.Memory) {
			return false
		}
		for j := range a.Memory {
			if a.Memory[j] != snap[i][j] {
				return false
			}
		}
	}
	return true
}

// String renders a short diagnostic summary, useful in test failure
// messages and the CLI driver.
func (t *Table) String() string {
	return fmt.Sprintf("Table{areas=%d entries=%d initialised=%v}", len(t.Areas), len(t.Entries), t.initialised)
}
