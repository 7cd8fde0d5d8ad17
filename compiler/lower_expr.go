package compiler

import (
	"fmt"

	"nilan/ast"
	"nilan/token"
)

// lowerExpr computes e into a register and returns it. It reserves a
// fresh register first; a local name or a constant returns its own
// already-materialized register without emitting anything, and the
// reservation is freed again. Every other expression, a global name
// included, computes into the reserved register.
func (b *builder) lowerExpr(e ast.Expression) byte {
	reserved := b.alloc()
	actual := b.lowerExprInto(e, reserved)
	if actual != reserved {
		b.curr--
	}
	return actual
}

// lowerExprInto lowers e, writing its result into dst when computation
// is required. A local name or constant ignores dst and returns its own
// register instead; a global name is loaded into dst.
func (b *builder) lowerExprInto(e ast.Expression, dst byte) byte {
	switch ex := e.(type) {
	case *ast.Atom:
		switch ex.Kind {
		case ast.AtomSelf:
			b.emit(Instruction{Op: OpCopySelf, Dst: dst})
			return dst
		case ast.AtomEnv:
			panic(newSemanticError(ex.Position.Line, ex.Position.Column, Unsupported, "'env' cannot be used as a standalone value"))
		default:
			return b.lowerAtomValue(ex, dst)
		}
	case *ast.Binary:
		return b.lowerBinaryInto(ex, dst)
	case *ast.Unary:
		b.lowerUnaryInto(ex, dst)
		return dst
	case *ast.Call:
		b.emitCall(ex, dst, true)
		return dst
	case *ast.Array:
		b.lowerArrayInto(ex, dst)
		return dst
	case *ast.Dictionary:
		b.lowerDictionaryInto(ex, dst)
		return dst
	default:
		panic(newDeveloperError(fmt.Sprintf("unhandled expression node %T", e)))
	}
}

func (b *builder) lowerAtomValue(a *ast.Atom, dst byte) byte {
	switch a.Kind {
	case ast.AtomName:
		if reg, ok := b.vars[a.Name]; ok {
			return reg
		}
		if slot, ok := b.globals[a.Name]; ok {
			b.emit(Instruction{Op: OpLoad, Dst: dst, Index: slot, Name: a.Name})
			return dst
		}
		panic(newSemanticError(a.Position.Line, a.Position.Column, UndefinedVariable, fmt.Sprintf("undefined variable '%s'", a.Name)))
	case ast.AtomInteger:
		return b.constInt(a.Integer)
	case ast.AtomReal:
		return b.constReal(a.Real)
	case ast.AtomString:
		return b.constString(a.String)
	case ast.AtomBool:
		return b.constBool(a.Bool)
	default:
		panic(newDeveloperError(fmt.Sprintf("lowerAtomValue called on non-value atom kind %d", a.Kind)))
	}
}

func (b *builder) lowerBinaryInto(bin *ast.Binary, dst byte) byte {
	switch bin.Operator {
	case token.OpAndThen:
		return b.lowerAndThenInto(bin, dst)
	case token.OpOrElse:
		return b.lowerOrElseInto(bin, dst)
	case token.OpAccess:
		return b.lowerAccessInto(bin, dst)
	case token.OpIndex:
		return b.lowerIndexInto(bin, dst)
	}

	mark := b.curr
	left := b.lowerExpr(bin.Left)
	right := b.lowerExpr(bin.Right)
	op, swap := arithOpcode(bin.Operator)
	if swap {
		left, right = right, left
	}
	b.emit(Instruction{Op: op, Dst: dst, A: left, B: right})
	b.curr = mark
	return dst
}

// lowerAndThenInto lowers `left && right` with short-circuit evaluation:
// right is only evaluated when left is truthy. The Move emitted in each
// arm only ever executes on the path that computed it, so reusing
// registers across the two arms (the `b.curr = mark` reset below) is
// safe even though the register numbers overlap.
func (b *builder) lowerAndThenInto(bin *ast.Binary, dst byte) byte {
	mark := b.curr
	left := b.lowerExpr(bin.Left)
	jmpShort := b.emit(Instruction{Op: OpJmpIf, A: left}) // falsy left: skip right, keep left
	b.curr = mark
	right := b.lowerExprInto(bin.Right, dst)
	if right != dst {
		b.emit(Instruction{Op: OpMove, Dst: dst, From: right})
	}
	jmpEnd := b.emit(Instruction{Op: OpJmp})
	falseTarget := b.here()
	b.patchIP(jmpShort, falseTarget)
	b.emit(Instruction{Op: OpMove, Dst: dst, From: left})
	b.patchIP(jmpEnd, b.here())
	b.curr = mark
	return dst
}

func (b *builder) lowerOrElseInto(bin *ast.Binary, dst byte) byte {
	mark := b.curr
	left := b.lowerExpr(bin.Left)
	jmpShort := b.emit(Instruction{Op: OpJmpNotIf, A: left}) // truthy left: skip right, keep left
	b.curr = mark
	right := b.lowerExprInto(bin.Right, dst)
	if right != dst {
		b.emit(Instruction{Op: OpMove, Dst: dst, From: right})
	}
	jmpEnd := b.emit(Instruction{Op: OpJmp})
	trueTarget := b.here()
	b.patchIP(jmpShort, trueTarget)
	b.emit(Instruction{Op: OpMove, Dst: dst, From: left})
	b.patchIP(jmpEnd, b.here())
	b.curr = mark
	return dst
}

// lowerAccessInto lowers `recv.name`. Only `self.name` is supported: it
// resolves to the script's own global slot named `name`. Field access
// on any other receiver has no instruction to express it.
func (b *builder) lowerAccessInto(bin *ast.Binary, dst byte) byte {
	slot, name := b.resolveSelfField(bin)
	b.emit(Instruction{Op: OpLoad, Dst: dst, Index: slot, Name: name})
	return dst
}

func (b *builder) resolveSelfField(bin *ast.Binary) (slot int, name string) {
	recv, ok := bin.Left.(*ast.Atom)
	if !ok || recv.Kind != ast.AtomSelf {
		panic(newSemanticError(bin.Position.Line, bin.Position.Column, Unsupported, "field access is only supported on 'self'"))
	}
	field := bin.Right.(*ast.Atom).Name
	slot, ok = b.globals[field]
	if !ok {
		panic(newSemanticError(bin.Position.Line, bin.Position.Column, UndefinedVariable, fmt.Sprintf("undefined global '%s'", field)))
	}
	return slot, field
}

func (b *builder) lowerIndexInto(bin *ast.Binary, dst byte) byte {
	mark := b.curr
	objReg := b.lowerExpr(bin.Left)
	idxReg := b.lowerExpr(bin.Right)
	b.emit(Instruction{Op: OpGetIndex, Dst: dst, A: objReg, B: idxReg})
	b.curr = mark
	return dst
}

func (b *builder) lowerUnaryInto(u *ast.Unary, dst byte) {
	mark := b.curr
	src := b.lowerExpr(u.Expr)
	var op Opcode
	switch u.Operator {
	case token.OpSub:
		op = OpNeg
	case token.OpNot:
		op = OpNot
	default:
		panic(newDeveloperError(fmt.Sprintf("unsupported unary operator %s", u.Operator)))
	}
	b.emit(Instruction{Op: op, Dst: dst, A: src})
	b.curr = mark
}

func (b *builder) lowerArrayInto(a *ast.Array, dst byte) {
	b.emit(Instruction{Op: OpNewArray, Dst: dst, Index: len(a.Elements)})
	for i, elem := range a.Elements {
		mark := b.curr
		idxReg := b.constInt(int64(i))
		valReg := b.lowerExpr(elem)
		b.emit(Instruction{Op: OpSetIndex, Dst: valReg, A: dst, B: idxReg})
		b.curr = mark
	}
}

func (b *builder) lowerDictionaryInto(d *ast.Dictionary, dst byte) {
	b.emit(Instruction{Op: OpNewDictionary, Dst: dst, Index: len(d.Pairs)})
	for _, kv := range d.Pairs {
		mark := b.curr
		keyReg := b.lowerExpr(kv.Key)
		valReg := b.lowerExpr(kv.Value)
		b.emit(Instruction{Op: OpSetIndex, Dst: valReg, A: dst, B: keyReg})
		b.curr = mark
	}
}

func (b *builder) lowerCallArgs(args []ast.Expression) []byte {
	regs := make([]byte, 0, len(args))
	for _, a := range args {
		regs = append(regs, b.lowerExpr(a))
	}
	if len(regs) > b.maxCallArgs {
		b.maxCallArgs = len(regs)
	}
	return regs
}

// emitCall lowers a call expression, routing it to Call/CallSelf/CallEnv
// depending on its receiver. store tells the VM whether to write the
// result into dst or discard it (a loose-expression call statement).
func (b *builder) emitCall(call *ast.Call, dst byte, store bool) {
	mark := b.curr
	switch recv := call.Receiver.(type) {
	case nil:
		b.emitCallSelf(call, dst, store, b.lowerCallArgs(call.Args))
	case *ast.Atom:
		switch recv.Kind {
		case ast.AtomSelf:
			b.emitCallSelf(call, dst, store, b.lowerCallArgs(call.Args))
		case ast.AtomEnv:
			args := b.lowerCallArgs(call.Args)
			b.emit(Instruction{Op: OpCallEnv, Dst: dst, HasStore: store, Name: call.Name, Args: args})
		default:
			objReg := b.lowerExpr(recv)
			args := b.lowerCallArgs(call.Args)
			b.emit(Instruction{Op: OpCall, Dst: dst, HasStore: store, A: objReg, Name: call.Name, Args: args})
		}
	default:
		objReg := b.lowerExpr(call.Receiver)
		args := b.lowerCallArgs(call.Args)
		b.emit(Instruction{Op: OpCall, Dst: dst, HasStore: store, A: objReg, Name: call.Name, Args: args})
	}
	b.curr = mark
}

func (b *builder) emitCallSelf(call *ast.Call, dst byte, store bool, args []byte) {
	idx, ok := b.methods[call.Name]
	if !ok {
		panic(newSemanticError(call.Position.Line, call.Position.Column, UndefinedFunction, fmt.Sprintf("undefined function '%s'", call.Name)))
	}
	b.emit(Instruction{Op: OpCallSelf, Dst: dst, HasStore: store, Index: idx, Name: call.Name, Args: args})
}

// lowerCallStmt lowers a call used as a statement: its result, if any,
// is discarded.
func (b *builder) lowerCallStmt(call *ast.Call) {
	b.emitCall(call, 0, false)
}
