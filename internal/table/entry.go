package table

// RegisterHandle is an opaque index into a Table's entry slice.
type RegisterHandle uint32

// EntryFlags are per-entry state bits.
type EntryFlags uint8

const (
	EntryTouched EntryFlags = 1 << iota
)

// Entry is one typed, validated register with a global address in the
// table. Area and Offset are resolved by Table.Init and are meaningless
// before that.
type Entry struct {
	Address   RegisterAddress
	Type      Type
	Default   Value
	Validator Validator
	Flags     EntryFlags
	Name      string
	UserData  any

	Area   AreaHandle
	Offset uint32 // atoms, within Area
}

// Atoms reports how many atoms this entry occupies on the wire.
func (e *Entry) Atoms() int { return AtomsFor(e.Type) }

func (e *Entry) touched() bool    { return e.Flags&EntryTouched != 0 }
func (e *Entry) setTouched()      { e.Flags |= EntryTouched }
func (e *Entry) clearTouched()    { e.Flags &^= EntryTouched }
