// Package variant defines the dynamically-typed value the VM operates
// on and the host surface it calls out to. The VM never inspects a
// concrete type directly; every arithmetic, comparison, indexing and
// call operation goes through this interface so an embedder can supply
// its own representation in place of Value.
package variant

// Variant is the value type every register in the VM holds. Binary and
// unary operations return a fresh Variant rather than mutating the
// receiver; SetIndex is the only mutating operation, matching the
// bytecode's single indexed-write instruction.
type Variant interface {
	Add(Variant) (Variant, error)
	Sub(Variant) (Variant, error)
	Mul(Variant) (Variant, error)
	Div(Variant) (Variant, error)
	Rem(Variant) (Variant, error)
	BitAnd(Variant) (Variant, error)
	BitOr(Variant) (Variant, error)
	BitXor(Variant) (Variant, error)
	Shl(Variant) (Variant, error)
	Shr(Variant) (Variant, error)
	Neg() (Variant, error)
	Not() (Variant, error)

	Equal(Variant) bool
	Less(Variant) (bool, error)
	LessEq(Variant) (bool, error)

	Iter() (Iterator, error)
	Index(Variant) (Variant, error)
	SetIndex(key, value Variant) error

	Call(name string, args []Variant, env Environment) (Variant, error)

	AsBool() (bool, error)
	AsInteger() (int64, error)
	AsReal() (float64, error)
	IntoString() string
}

// Iterator is produced by Variant.Iter and owned by the VM for the
// lifetime of one loop.
type Iterator interface {
	// Next reports the next element, or ok=false when exhausted.
	Next() (value Variant, ok bool)
}

// Environment is the host-provided surface for calling functions the
// script itself does not define, reached via `env.f(args)`.
type Environment interface {
	Call(name string, args []Variant) (Variant, error)
}

// CallError wraps a failure surfaced by a host Call (either
// Environment.Call or Variant.Call against a host object).
type CallError struct {
	Name string
	Err  error
}

func (e CallError) Error() string {
	return "💥 CallError: " + e.Name + ": " + e.Err.Error()
}

func (e CallError) Unwrap() error { return e.Err }
