package vm

import (
	"nilan/compiler"
	"nilan/variant"
)

// stepIterStart handles Iter: materialize the first element of a
// generic iterator into var, or jump straight to exit_ip when it is
// already empty.
func (f *frame) stepIterStart(ip int, ins compiler.Instruction) (int, error) {
	src, err := f.read(ip, ins.A)
	if err != nil {
		return 0, err
	}
	it, err := src.Iter()
	if err != nil {
		return 0, wrapRunError(ip, IncompatibleType, err)
	}
	v, ok := it.Next()
	if !ok {
		return int(ins.IP), nil
	}
	if err := f.write(ip, ins.Dst, v); err != nil {
		return 0, err
	}
	f.iters = append(f.iters, it)
	return ip + 1, nil
}

// stepIterAdvance handles IterJmp: advance the innermost generic
// iterator, looping back to body_ip on success or popping and falling
// through on exhaustion.
func (f *frame) stepIterAdvance(ip int, ins compiler.Instruction) (int, error) {
	if len(f.iters) == 0 {
		return 0, CreateRunError(ip, NoIterator, "IterJmp with no active generic iterator")
	}
	top := f.iters[len(f.iters)-1]
	v, ok := top.Next()
	if !ok {
		f.iters = f.iters[:len(f.iters)-1]
		return ip + 1, nil
	}
	if err := f.write(ip, ins.Dst, v); err != nil {
		return 0, err
	}
	return int(ins.IP), nil
}

// stepIterIntStart handles IterInt: set up an integer-range loop state
// on the parallel integer iterator stack.
func (f *frame) stepIterIntStart(ip int, ins compiler.Instruction) (int, error) {
	fromV, err := f.read(ip, ins.From)
	if err != nil {
		return 0, err
	}
	toV, err := f.read(ip, ins.To)
	if err != nil {
		return 0, err
	}
	stepV, err := f.read(ip, ins.Step)
	if err != nil {
		return 0, err
	}
	from, err := fromV.AsInteger()
	if err != nil {
		return 0, wrapRunError(ip, IncompatibleType, err)
	}
	to, err := toV.AsInteger()
	if err != nil {
		return 0, wrapRunError(ip, IncompatibleType, err)
	}
	step, err := stepV.AsInteger()
	if err != nil {
		return 0, wrapRunError(ip, IncompatibleType, err)
	}
	if !hasNextInt(from, to, step) {
		return int(ins.IP), nil
	}
	if err := f.write(ip, ins.Dst, variant.NewInteger(from)); err != nil {
		return 0, err
	}
	f.intIters = append(f.intIters, intRange{cur: from, to: to, step: step})
	return ip + 1, nil
}

// stepIterIntAdvance handles IterIntJmp: advance the innermost
// integer-range iterator.
func (f *frame) stepIterIntAdvance(ip int, ins compiler.Instruction) (int, error) {
	if len(f.intIters) == 0 {
		return 0, CreateRunError(ip, NoIterator, "IterIntJmp with no active integer iterator")
	}
	top := &f.intIters[len(f.intIters)-1]
	top.cur += top.step
	if !hasNextInt(top.cur, top.to, top.step) {
		f.intIters = f.intIters[:len(f.intIters)-1]
		return ip + 1, nil
	}
	if err := f.write(ip, ins.Dst, variant.NewInteger(top.cur)); err != nil {
		return 0, err
	}
	return int(ins.IP), nil
}

// popIterators services Break: pop `amount` generic and `amountInt`
// integer-range iterator frames, in strict LIFO order with their
// enclosing Iter/IterInt sites.
func (f *frame) popIterators(ip int, amount, amountInt byte) error {
	if int(amount) > len(f.iters) || int(amountInt) > len(f.intIters) {
		return CreateRunError(ip, NoIterator, "break pops more iterators than are active")
	}
	f.iters = f.iters[:len(f.iters)-int(amount)]
	f.intIters = f.intIters[:len(f.intIters)-int(amountInt)]
	return nil
}
