// Package vm executes compiler.Bytecode against a register vector. The
// dispatch loop is a single centralized switch over compiler.Opcode:
// fetch an instruction, switch on its opcode, advance the instruction
// pointer. Values live in a flat register file sized per invocation
// rather than on an operand stack.
package vm

import (
	"strconv"

	"nilan/compiler"
	"nilan/variant"
)

type intRange struct {
	cur, to, step int64
}

func hasNextInt(cur, to, step int64) bool {
	switch {
	case step > 0:
		return cur < to
	case step < 0:
		return cur > to
	default:
		return cur != to
	}
}

// Functions resolves a CallSelf instruction's method-table index to the
// bytecode of the function it targets.
type Functions []*compiler.Bytecode

// frame holds the mutable state of one in-flight invocation.
type frame struct {
	fn        *compiler.Bytecode
	regs      []variant.Variant
	self      variant.Variant
	functions Functions
	env       variant.Environment
	tracer    Tracer

	iters    []variant.Iterator
	intIters []intRange
}

// Run executes fn with args against self, recursing into functions for
// CallSelf and into env for CallEnv. self may be nil for a script with
// no declared globals.
func Run(fn *compiler.Bytecode, args []variant.Variant, self variant.Variant, functions Functions, env variant.Environment, tracer Tracer) (variant.Variant, error) {
	if tracer == nil {
		tracer = NoopTracer{}
	}
	if len(args) != fn.ParamCount {
		return nil, CreateRunError(0, IncorrectArgumentCount,
			"expected "+strconv.Itoa(fn.ParamCount)+" arguments, got "+strconv.Itoa(len(args)))
	}

	f := &frame{fn: fn, self: self, functions: functions, env: env, tracer: tracer}
	f.regs = make([]variant.Variant, fn.VarCount+len(fn.Constants))
	copy(f.regs, args)
	for i := fn.ParamCount; i < fn.VarCount; i++ {
		f.regs[i] = variant.Default()
	}
	for i, c := range fn.Constants {
		f.regs[fn.VarCount+i] = boxConstant(c)
	}

	tracer.BeginRun(fn)
	result, err := f.run()
	tracer.End(result, err)
	return result, err
}

func boxConstant(c any) variant.Variant {
	switch v := c.(type) {
	case bool:
		return variant.NewBool(v)
	case int64:
		return variant.NewInteger(v)
	case float64:
		return variant.NewReal(v)
	case string:
		return variant.NewString(v)
	default:
		return variant.NewObject(v)
	}
}

func (f *frame) run() (variant.Variant, error) {
	ip := 0
	for {
		if ip < 0 || ip >= len(f.fn.Instructions) {
			return nil, CreateRunError(ip, IpOutOfBounds, "instruction pointer ran off the end of the function")
		}
		ins := f.fn.Instructions[ip]
		f.tracer.Step(ip, ins, f.regs)

		switch ins.Op {
		case compiler.OpRetSome:
			v, err := f.read(ip, ins.A)
			if err != nil {
				return nil, err
			}
			return v, nil
		case compiler.OpRetNone:
			return variant.Default(), nil

		case compiler.OpJmp:
			ip = int(ins.IP)
			continue
		case compiler.OpJmpIf:
			b, err := f.bool(ip, ins.A)
			if err != nil {
				return nil, err
			}
			if !b {
				ip = int(ins.IP)
				continue
			}
		case compiler.OpJmpNotIf:
			b, err := f.bool(ip, ins.A)
			if err != nil {
				return nil, err
			}
			if b {
				ip = int(ins.IP)
				continue
			}

		case compiler.OpAdd, compiler.OpSub, compiler.OpMul, compiler.OpDiv, compiler.OpRem,
			compiler.OpAnd, compiler.OpOr, compiler.OpXor, compiler.OpShl, compiler.OpShr:
			if err := f.arith(ip, ins); err != nil {
				return nil, err
			}
		case compiler.OpEq, compiler.OpNeq:
			if err := f.equality(ip, ins); err != nil {
				return nil, err
			}
		case compiler.OpLess, compiler.OpLessEq:
			if err := f.comparison(ip, ins); err != nil {
				return nil, err
			}
		case compiler.OpNeg, compiler.OpNot:
			if err := f.unary(ip, ins); err != nil {
				return nil, err
			}

		case compiler.OpMove:
			v, err := f.read(ip, ins.From)
			if err != nil {
				return nil, err
			}
			if err := f.write(ip, ins.Dst, v); err != nil {
				return nil, err
			}
		case compiler.OpCopySelf:
			if err := f.write(ip, ins.Dst, f.self); err != nil {
				return nil, err
			}

		case compiler.OpStore:
			v, err := f.read(ip, ins.A)
			if err != nil {
				return nil, err
			}
			if err := f.self.SetIndex(variant.NewInteger(int64(ins.Index)), v); err != nil {
				return nil, wrapRunError(ip, IncompatibleType, err)
			}
		case compiler.OpLoad:
			v, err := f.self.Index(variant.NewInteger(int64(ins.Index)))
			if err != nil {
				return nil, wrapRunError(ip, IncompatibleType, err)
			}
			if err := f.write(ip, ins.Dst, v); err != nil {
				return nil, err
			}

		case compiler.OpGetIndex:
			obj, err := f.read(ip, ins.A)
			if err != nil {
				return nil, err
			}
			idx, err := f.read(ip, ins.B)
			if err != nil {
				return nil, err
			}
			v, err := obj.Index(idx)
			if err != nil {
				return nil, wrapIndexError(ip, err)
			}
			if err := f.write(ip, ins.Dst, v); err != nil {
				return nil, err
			}
		case compiler.OpSetIndex:
			obj, err := f.read(ip, ins.A)
			if err != nil {
				return nil, err
			}
			idx, err := f.read(ip, ins.B)
			if err != nil {
				return nil, err
			}
			val, err := f.read(ip, ins.Dst)
			if err != nil {
				return nil, err
			}
			if err := obj.SetIndex(idx, val); err != nil {
				return nil, wrapIndexError(ip, err)
			}

		case compiler.OpNewArray:
			if err := f.write(ip, ins.Dst, variant.NewArray(ins.Index)); err != nil {
				return nil, err
			}
		case compiler.OpNewDictionary:
			if err := f.write(ip, ins.Dst, variant.NewDictionary(ins.Index)); err != nil {
				return nil, err
			}

		case compiler.OpIter:
			next, err := f.stepIterStart(ip, ins)
			if err != nil {
				return nil, err
			}
			ip = next
			continue
		case compiler.OpIterJmp:
			next, err := f.stepIterAdvance(ip, ins)
			if err != nil {
				return nil, err
			}
			ip = next
			continue
		case compiler.OpIterInt:
			next, err := f.stepIterIntStart(ip, ins)
			if err != nil {
				return nil, err
			}
			ip = next
			continue
		case compiler.OpIterIntJmp:
			next, err := f.stepIterIntAdvance(ip, ins)
			if err != nil {
				return nil, err
			}
			ip = next
			continue
		case compiler.OpBreak:
			if err := f.popIterators(ip, ins.Amount, ins.AmountInt); err != nil {
				return nil, err
			}
			ip = int(ins.IP)
			continue

		case compiler.OpCall, compiler.OpCallSelf, compiler.OpCallEnv:
			if err := f.call(ip, ins); err != nil {
				return nil, err
			}

		default:
			return nil, CreateRunError(ip, IpOutOfBounds, "unknown opcode "+ins.Op.String())
		}

		ip++
	}
}
