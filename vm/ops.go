package vm

import (
	"errors"

	"nilan/compiler"
	"nilan/variant"
)

// wrapIndexError reports an out-of-range array index or missing
// dictionary key as ArgumentOutOfBounds, and anything else out of
// Index/SetIndex (a type mismatch) as IncompatibleType.
func wrapIndexError(ip int, err error) error {
	var idxErr variant.IndexError
	if errors.As(err, &idxErr) {
		return wrapRunError(ip, ArgumentOutOfBounds, err)
	}
	return wrapRunError(ip, IncompatibleType, err)
}

// read fetches a register for an operand that is only ever read.
func (f *frame) read(ip int, idx byte) (variant.Variant, error) {
	if int(idx) >= len(f.regs) {
		return nil, CreateRunError(ip, RegisterOutOfBounds, "register index out of range")
	}
	return f.regs[idx], nil
}

// write stores into a register that must lie in the mutable (local)
// range; writing into the constant tail would indicate a compiler bug,
// not a recoverable runtime condition, but is still reported as a
// RunError rather than panicking.
func (f *frame) write(ip int, idx byte, v variant.Variant) error {
	if int(idx) >= f.fn.VarCount {
		return CreateRunError(ip, LocalOutOfBounds, "attempted to write to a non-local register")
	}
	f.regs[idx] = v
	return nil
}

func (f *frame) bool(ip int, idx byte) (bool, error) {
	v, err := f.read(ip, idx)
	if err != nil {
		return false, err
	}
	b, err := v.AsBool()
	if err != nil {
		return false, wrapRunError(ip, NotBoolean, err)
	}
	return b, nil
}

func (f *frame) arith(ip int, ins compiler.Instruction) error {
	left, err := f.read(ip, ins.A)
	if err != nil {
		return err
	}
	right, err := f.read(ip, ins.B)
	if err != nil {
		return err
	}

	var result variant.Variant
	switch ins.Op {
	case compiler.OpAdd:
		result, err = left.Add(right)
	case compiler.OpSub:
		result, err = left.Sub(right)
	case compiler.OpMul:
		result, err = left.Mul(right)
	case compiler.OpDiv:
		result, err = left.Div(right)
	case compiler.OpRem:
		result, err = left.Rem(right)
	case compiler.OpAnd:
		result, err = left.BitAnd(right)
	case compiler.OpOr:
		result, err = left.BitOr(right)
	case compiler.OpXor:
		result, err = left.BitXor(right)
	case compiler.OpShl:
		result, err = left.Shl(right)
	case compiler.OpShr:
		result, err = left.Shr(right)
	}
	if err != nil {
		return wrapRunError(ip, IncompatibleType, err)
	}
	return f.write(ip, ins.Dst, result)
}

func (f *frame) equality(ip int, ins compiler.Instruction) error {
	left, err := f.read(ip, ins.A)
	if err != nil {
		return err
	}
	right, err := f.read(ip, ins.B)
	if err != nil {
		return err
	}
	eq := left.Equal(right)
	if ins.Op == compiler.OpNeq {
		eq = !eq
	}
	return f.write(ip, ins.Dst, variant.NewBool(eq))
}

func (f *frame) comparison(ip int, ins compiler.Instruction) error {
	left, err := f.read(ip, ins.A)
	if err != nil {
		return err
	}
	right, err := f.read(ip, ins.B)
	if err != nil {
		return err
	}
	var ok bool
	if ins.Op == compiler.OpLess {
		ok, err = left.Less(right)
	} else {
		ok, err = left.LessEq(right)
	}
	if err != nil {
		return wrapRunError(ip, IncompatibleType, err)
	}
	return f.write(ip, ins.Dst, variant.NewBool(ok))
}

func (f *frame) unary(ip int, ins compiler.Instruction) error {
	src, err := f.read(ip, ins.A)
	if err != nil {
		return err
	}
	var result variant.Variant
	if ins.Op == compiler.OpNeg {
		result, err = src.Neg()
	} else {
		result, err = src.Not()
	}
	if err != nil {
		return wrapRunError(ip, IncompatibleType, err)
	}
	return f.write(ip, ins.Dst, result)
}
