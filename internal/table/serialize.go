package table

import (
	"fmt"

	"github.com/scigolib/regp/internal/core"
)

// serialize writes v's on-the-wire representation into dst (which must be
// at least AtomsFor(v.Kind)*2 bytes long) using order. Non-finite floats
// are rejected, matching the reference set_f32/set_f64 behaviour.
func serialize(dst []byte, v Value, order core.Order) error {
	if !v.IsFinite() {
		return core.WrapError("table.serialize", fmt.Errorf("non-finite float value"))
	}
	switch v.Kind {
	case TypeU16:
		_, err := core.WriteUint(dst, core.Width16, order, uint64(v.AsU16()))
		return err
	case TypeU32:
		_, err := core.WriteUint(dst, core.Width32, order, uint64(v.AsU32()))
		return err
	case TypeU64:
		_, err := core.WriteUint(dst, core.Width64, order, v.AsU64())
		return err
	case TypeI16:
		_, err := core.WriteInt(dst, core.Width16, order, int64(v.AsI16()))
		return err
	case TypeI32:
		_, err := core.WriteInt(dst, core.Width32, order, int64(v.AsI32()))
		return err
	case TypeI64:
		_, err := core.WriteInt(dst, core.Width64, order, v.AsI64())
		return err
	case TypeF32:
		_, err := core.WriteFloat32(dst, order, v.AsF32())
		return err
	case TypeF64:
		_, err := core.WriteFloat64(dst, order, v.AsF64())
		return err
	default:
		return core.WrapError("table.serialize", fmt.Errorf("invalid type"))
	}
}

// deserialize reads a value of kind t from src using order, rejecting
// non-finite floats on the way in.
func deserialize(src []byte, t Type, order core.Order) (Value, error) {
	switch t {
	case TypeU16:
		u, err := core.ReadUint(src, core.Width16, order)
		return U16(uint16(u)), err
	case TypeU32:
		u, err := core.ReadUint(src, core.Width32, order)
		return U32(uint32(u)), err
	case TypeU64:
		u, err := core.ReadUint(src, core.Width64, order)
		return U64(u), err
	case TypeI16:
		i, err := core.ReadInt(src, core.Width16, order)
		return I16(int16(i)), err
	case TypeI32:
		i, err := core.ReadInt(src, core.Width32, order)
		return I32(int32(i)), err
	case TypeI64:
		i, err := core.ReadInt(src, core.Width64, order)
		return I64(i), err
	case TypeF32:
		f, err := core.ReadFloat32(src, order)
		if err != nil {
			return Invalid, err
		}
		v := F32(f)
		if !v.IsFinite() {
			return Invalid, core.WrapError("table.deserialize", fmt.Errorf("non-finite float value"))
		}
		return v, nil
	case TypeF64:
		f, err := core.ReadFloat64(src, order)
		if err != nil {
			return Invalid, err
		}
		v := F64(f)
		if !v.IsFinite() {
			return Invalid, core.WrapError("table.deserialize", fmt.Errorf("non-finite float value"))
		}
		return v, nil
	default:
		return Invalid, core.WrapError("table.deserialize", fmt.Errorf("invalid type"))
	}
}
