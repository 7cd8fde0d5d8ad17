package compiler

import (
	"fmt"

	"nilan/ast"
	"nilan/token"
)

func (b *builder) lowerBlock(stmts []ast.Statement) {
	b.enterScope()
	for _, s := range stmts {
		b.lowerStmt(s)
	}
	b.exitScope()
}

func (b *builder) lowerStmt(s ast.Statement) {
	switch st := s.(type) {
	case *ast.Declare:
		b.lowerDeclare(st)
	case *ast.LooseExpression:
		b.lowerLooseExpression(st)
	case *ast.Assign:
		b.lowerAssign(st)
	case *ast.ExpressionStmt:
		mark := b.curr
		b.lowerExpr(st.Expr)
		b.curr = mark
	case *ast.For:
		b.lowerFor(st)
	case *ast.While:
		b.lowerWhile(st)
	case *ast.If:
		b.lowerIf(st)
	case *ast.Return:
		b.lowerReturn(st)
	case *ast.Continue:
		b.lowerContinueStmt(st)
	case *ast.Break:
		b.lowerBreakStmt(st)
	default:
		panic(newDeveloperError(fmt.Sprintf("unhandled statement node %T", s)))
	}
}

// lowerDeclare reserves a register for `var name` and moves a zero
// constant into it, so a declared-but-unassigned local always starts
// from a well-defined value rather than whatever an earlier scope left
// behind in a reused register.
func (b *builder) lowerDeclare(d *ast.Declare) {
	reg := b.declare(d.Name, d.Position)
	zero := b.constInt(0)
	b.emit(Instruction{Op: OpMove, Dst: reg, From: zero})
}

func (b *builder) lowerLooseExpression(s *ast.LooseExpression) {
	if call, ok := s.Expr.(*ast.Call); ok {
		b.lowerCallStmt(call)
		return
	}
	mark := b.curr
	b.lowerExpr(s.Expr)
	b.curr = mark
}

func (b *builder) lowerAssign(a *ast.Assign) {
	switch t := a.Target.(type) {
	case *ast.Atom:
		if t.Kind == ast.AtomSelf || t.Kind == ast.AtomEnv {
			panic(newSemanticError(a.Position.Line, a.Position.Column, CantAssign, "cannot assign to 'self' or 'env'"))
		}
		if t.Kind != ast.AtomName {
			panic(newSemanticError(a.Position.Line, a.Position.Column, CantAssign, "invalid assignment target"))
		}
		b.lowerAssignName(a, t)
	case *ast.Binary:
		switch t.Operator {
		case token.OpAccess:
			b.lowerAssignAccess(a, t)
		case token.OpIndex:
			b.lowerAssignIndex(a, t)
		default:
			panic(newSemanticError(a.Position.Line, a.Position.Column, Unsupported, "unsupported assignment target"))
		}
	default:
		panic(newSemanticError(a.Position.Line, a.Position.Column, Unsupported, "unsupported assignment target"))
	}
}

// computeAssignValue lowers a.Value, combining it with the assignment
// target's current value via a.Op's arithmetic operator for a compound
// assignment (+=, -=, ...). currentValue is only invoked for compound
// operators, since a plain `=` never needs the old value.
func (b *builder) computeAssignValue(a *ast.Assign, currentValue func() byte) byte {
	rhs := b.lowerExpr(a.Value)
	op, isCompound := a.Op.ToOperator()
	if !isCompound {
		return rhs
	}
	cur := currentValue()
	dst := b.alloc()
	opcode, swap := arithOpcode(op)
	left, right := cur, rhs
	if swap {
		left, right = right, left
	}
	b.emit(Instruction{Op: opcode, Dst: dst, A: left, B: right})
	return dst
}

func (b *builder) lowerAssignName(a *ast.Assign, t *ast.Atom) {
	mark := b.curr
	valueReg := b.computeAssignValue(a, func() byte { return b.readName(t) })
	if reg, ok := b.vars[t.Name]; ok {
		b.emit(Instruction{Op: OpMove, Dst: reg, From: valueReg})
		b.curr = mark
		return
	}
	slot, ok := b.globals[t.Name]
	if !ok {
		panic(newSemanticError(a.Position.Line, a.Position.Column, UndefinedVariable, fmt.Sprintf("undefined variable '%s'", t.Name)))
	}
	b.emit(Instruction{Op: OpStore, A: valueReg, Index: slot, Name: t.Name})
	b.curr = mark
}

func (b *builder) readName(t *ast.Atom) byte {
	if reg, ok := b.vars[t.Name]; ok {
		return reg
	}
	if slot, ok := b.globals[t.Name]; ok {
		dst := b.alloc()
		b.emit(Instruction{Op: OpLoad, Dst: dst, Index: slot, Name: t.Name})
		return dst
	}
	panic(newSemanticError(t.Position.Line, t.Position.Column, UndefinedVariable, fmt.Sprintf("undefined variable '%s'", t.Name)))
}

func (b *builder) lowerAssignAccess(a *ast.Assign, t *ast.Binary) {
	slot, name := b.resolveSelfField(t)
	mark := b.curr
	valueReg := b.computeAssignValue(a, func() byte {
		dst := b.alloc()
		b.emit(Instruction{Op: OpLoad, Dst: dst, Index: slot, Name: name})
		return dst
	})
	b.emit(Instruction{Op: OpStore, A: valueReg, Index: slot, Name: name})
	b.curr = mark
}

func (b *builder) lowerAssignIndex(a *ast.Assign, t *ast.Binary) {
	mark := b.curr
	objReg := b.lowerExpr(t.Left)
	idxReg := b.lowerExpr(t.Right)
	valueReg := b.computeAssignValue(a, func() byte {
		dst := b.alloc()
		b.emit(Instruction{Op: OpGetIndex, Dst: dst, A: objReg, B: idxReg})
		return dst
	})
	b.emit(Instruction{Op: OpSetIndex, Dst: valueReg, A: objReg, B: idxReg})
	b.curr = mark
}

func (b *builder) lowerReturn(r *ast.Return) {
	if r.Expr == nil {
		b.emit(Instruction{Op: OpRetNone})
		return
	}
	mark := b.curr
	reg := b.lowerExpr(r.Expr)
	b.emit(Instruction{Op: OpRetSome, A: reg})
	b.curr = mark
}

func (b *builder) lowerContinueStmt(c *ast.Continue) {
	lc := b.resolveLoop(c.Levels, c.Position, UnexpectedContinue)
	amount, amountInt := b.countIterPops(c.Levels, false)
	idx := b.emitJumpOrBreak(amount, amountInt)
	lc.continues = append(lc.continues, idx)
}

func (b *builder) lowerBreakStmt(br *ast.Break) {
	lc := b.resolveLoop(br.Levels, br.Position, UnexpectedBreak)
	amount, amountInt := b.countIterPops(br.Levels, true)
	idx := b.emitJumpOrBreak(amount, amountInt)
	lc.breaks = append(lc.breaks, idx)
}

// emitJumpOrBreak emits a plain Jmp when no for-loop iterator needs
// popping (escaping only while-loops), or a Break carrying the pop
// counts when the jump crosses one or more for-loops. continue reuses
// the same pop-and-jump opcode as break: abandoning an inner for-loop's
// current iteration to resume an outer loop requires popping its
// iterator exactly as escaping it entirely would.
func (b *builder) emitJumpOrBreak(amount, amountInt byte) int {
	if amount == 0 && amountInt == 0 {
		return b.emit(Instruction{Op: OpJmp})
	}
	return b.emit(Instruction{Op: OpBreak, Amount: amount, AmountInt: amountInt})
}

func (b *builder) lowerIf(i *ast.If) {
	mark := b.curr
	condReg := b.lowerExpr(i.Cond)
	jmpIf := b.emit(Instruction{Op: OpJmpIf, A: condReg}) // falsy: skip to else/end
	b.curr = mark
	b.lowerBlock(i.Body)
	if len(i.Else) > 0 {
		jmpEnd := b.emit(Instruction{Op: OpJmp})
		b.patchIP(jmpIf, b.here())
		b.lowerBlock(i.Else)
		b.patchIP(jmpEnd, b.here())
	} else {
		b.patchIP(jmpIf, b.here())
	}
}

func (b *builder) lowerWhile(w *ast.While) {
	entryJmp := b.emit(Instruction{Op: OpJmp})
	bodyStart := b.here()
	lc := b.pushLoop(loopWhile)
	b.lowerBlock(w.Body)
	continueTarget := b.here()
	b.patchIP(entryJmp, continueTarget)

	mark := b.curr
	condReg := b.lowerExpr(w.Cond)
	b.emit(Instruction{Op: OpJmpNotIf, A: condReg, IP: uint32(bodyStart)}) // truthy: loop again
	b.curr = mark

	pastLoop := b.here()
	lc = b.popLoop()
	for _, idx := range lc.continues {
		b.patchIP(idx, continueTarget)
	}
	for _, idx := range lc.breaks {
		b.patchIP(idx, pastLoop)
	}
}

// lowerFor dispatches across the five for-loop surface forms. The
// parser always fills To when either literal-range bound is known;
// From and Step are nil exactly when omitted from the source.
func (b *builder) lowerFor(f *ast.For) {
	if f.From == nil && f.Step == nil {
		if lit, ok := f.To.(*ast.Atom); ok && lit.Kind == ast.AtomInteger {
			b.lowerForRange(f, nil, f.To, nil)
			return
		}
		b.lowerForGeneric(f)
		return
	}
	b.lowerForRange(f, f.From, f.To, f.Step)
}

func (b *builder) lowerForGeneric(f *ast.For) {
	mark := b.curr
	iterReg := b.lowerExpr(f.To)
	b.enterScope()
	varReg := b.declare(f.Var, f.Position)
	exitJmp := b.emit(Instruction{Op: OpIter, Dst: varReg, A: iterReg})

	lc := b.pushLoop(loopForGeneric)
	bodyStart := b.here()
	b.lowerBlock(f.Body)
	continueTarget := b.here()
	b.emit(Instruction{Op: OpIterJmp, Dst: varReg, IP: uint32(bodyStart)})
	pastLoop := b.here()
	b.patchIP(exitJmp, pastLoop)

	lc = b.popLoop()
	for _, idx := range lc.continues {
		b.patchIP(idx, continueTarget)
	}
	for _, idx := range lc.breaks {
		b.patchIP(idx, pastLoop)
	}

	b.exitScope()
	b.curr = mark
}

func (b *builder) rangeOperand(expr ast.Expression, def int64) byte {
	if expr == nil {
		return b.constInt(def)
	}
	return b.lowerExpr(expr)
}

func (b *builder) lowerForRange(f *ast.For, fromExpr, toExpr, stepExpr ast.Expression) {
	outerMark := b.curr
	b.enterScope()
	varReg := b.declare(f.Var, f.Position)

	innerMark := b.curr
	fromReg := b.rangeOperand(fromExpr, 0)
	toReg := b.lowerExpr(toExpr)
	stepReg := b.rangeOperand(stepExpr, 1)
	exitJmp := b.emit(Instruction{Op: OpIterInt, Dst: varReg, From: fromReg, To: toReg, Step: stepReg})
	b.curr = innerMark

	lc := b.pushLoop(loopForInteger)
	bodyStart := b.here()
	b.lowerBlock(f.Body)
	continueTarget := b.here()
	b.emit(Instruction{Op: OpIterIntJmp, Dst: varReg, IP: uint32(bodyStart)})
	pastLoop := b.here()
	b.patchIP(exitJmp, pastLoop)

	lc = b.popLoop()
	for _, idx := range lc.continues {
		b.patchIP(idx, continueTarget)
	}
	for _, idx := range lc.breaks {
		b.patchIP(idx, pastLoop)
	}

	b.exitScope()
	b.curr = outerMark
}
