// interfaces.go contains all visitor interfaces that any code traversing
// expression and statement AST nodes must implement. It also contains the
// interfaces that all statement and expression AST nodes must implement,
// following the visitor design pattern.
package ast

// Position is the (line, column) a node's opening token was read from.
type Position struct {
	Line   int32
	Column int
}

// ExpressionVisitor is the interface for operating on all Expression AST
// nodes. The bytecode builder is the primary implementation.
type ExpressionVisitor interface {
	VisitAtom(atom *Atom) any
	VisitBinary(binary *Binary) any
	VisitUnary(unary *Unary) any
	VisitCall(call *Call) any
	VisitArray(array *Array) any
	VisitDictionary(dict *Dictionary) any
}

// StmtVisitor is the interface for operating on all Statement AST nodes.
type StmtVisitor interface {
	VisitDeclare(decl *Declare) any
	VisitLooseExpression(stmt *LooseExpression) any
	VisitAssign(assign *Assign) any
	VisitExpressionStmt(stmt *ExpressionStmt) any
	VisitFor(stmt *For) any
	VisitWhile(stmt *While) any
	VisitIf(stmt *If) any
	VisitReturn(stmt *Return) any
	VisitContinue(stmt *Continue) any
	VisitBreak(stmt *Break) any
}

// Expression is the core interface for all expression nodes in the AST.
// The Accept method enables the Visitor design pattern so that operations
// can be performed on expressions without the expression types needing to
// know the details of those operations.
type Expression interface {
	Accept(v ExpressionVisitor) any
	Pos() Position
}

// Statement is the base interface for all statement nodes in the AST.
type Statement interface {
	Accept(v StmtVisitor) any
	Pos() Position
}
