package table

// ValidatorKind identifies which predicate shape a Validator applies.
type ValidatorKind uint8

const (
	ValidatorTrivial ValidatorKind = iota
	ValidatorFail
	ValidatorMin
	ValidatorMax
	ValidatorRange
	ValidatorCallback
)

// Validator is a closed sum type over the predicate shapes a register
// entry can be guarded by. The callback variant carries a plain function
// value; there is no heap allocation beyond the closure the caller already
// owns.
type Validator struct {
	Kind     ValidatorKind
	Min      Value
	Max      Value
	Callback func(Value) bool
}

// TrivialValidator accepts every value.
func TrivialValidator() Validator { return Validator{Kind: ValidatorTrivial} }

// FailValidator rejects every write once the table has left initialisation,
// but accepts the entry's default value while DuringInit is set.
func FailValidator() Validator { return Validator{Kind: ValidatorFail} }

// MinValidator accepts any value >= min.
func MinValidator(min Value) Validator { return Validator{Kind: ValidatorMin, Min: min} }

// MaxValidator accepts any value <= max.
func MaxValidator(max Value) Validator { return Validator{Kind: ValidatorMax, Max: max} }

// RangeValidator accepts any value in [min, max].
func RangeValidator(min, max Value) Validator {
	return Validator{Kind: ValidatorRange, Min: min, Max: max}
}

// CallbackValidator accepts a value exactly when f returns true.
func CallbackValidator(f func(Value) bool) Validator {
	return Validator{Kind: ValidatorCallback, Callback: f}
}

// Accept reports whether v passes the validator. duringInit relaxes a Fail
// validator so the entry's declared default can be loaded at table
// initialisation time.
func (val Validator) Accept(v Value, duringInit bool) bool {
	switch val.Kind {
	case ValidatorTrivial:
		return true
	case ValidatorFail:
		return duringInit
	case ValidatorMin:
		return v.Compare(val.Min) >= 0
	case ValidatorMax:
		return v.Compare(val.Max) <= 0
	case ValidatorRange:
		return v.Compare(val.Min) >= 0 && v.Compare(val.Max) <= 0
	case ValidatorCallback:
		if val.Callback == nil {
			return true
		}
		return val.Callback(v)
	default:
		return false
	}
}
