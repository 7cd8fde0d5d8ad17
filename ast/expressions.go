// expressions.go contains all the expression AST nodes. An expression node
// always evaluates to a value.
package ast

import "nilan/token"

// AtomKind distinguishes the leaf forms an Atom can take.
type AtomKind int

const (
	AtomName AtomKind = iota
	AtomInteger
	AtomReal
	AtomString
	AtomBool
	AtomSelf
	AtomEnv
)

// Atom is a leaf expression: a literal, a name, or the `self`/`env`
// receivers. Exactly one of the typed fields is meaningful, selected by
// Kind.
type Atom struct {
	Kind     AtomKind
	Name     string
	Integer  int64
	Real     float64
	String   string
	Bool     bool
	Position Position
}

func (a *Atom) Accept(v ExpressionVisitor) any { return v.VisitAtom(a) }
func (a *Atom) Pos() Position                  { return a.Position }

// Binary represents a binary operation expression (e.g., "a + b").
type Binary struct {
	Left     Expression
	Operator token.Operator
	Right    Expression
	Position Position
}

func (b *Binary) Accept(v ExpressionVisitor) any { return v.VisitBinary(b) }
func (b *Binary) Pos() Position                  { return b.Position }

// Unary represents a unary operation expression (e.g., "!a" or "-b").
type Unary struct {
	Operator token.Operator
	Expr     Expression
	Position Position
}

func (u *Unary) Accept(v ExpressionVisitor) any { return v.VisitUnary(u) }
func (u *Unary) Pos() Position                  { return u.Position }

// Call represents a function call, `f(args)`, a method call,
// `obj.f(args)`, or an environment call, `env.f(args)`. Receiver is nil
// for a bare `f(args)` call to an unqualified function name; otherwise it
// is the Atom `self`/`env` or an arbitrary object expression.
type Call struct {
	Receiver Expression
	Name     string
	Args     []Expression
	Position Position
}

func (c *Call) Accept(v ExpressionVisitor) any { return v.VisitCall(c) }
func (c *Call) Pos() Position                  { return c.Position }

// Array is an array literal, `[a, b, c]`.
type Array struct {
	Elements []Expression
	Position Position
}

func (a *Array) Accept(v ExpressionVisitor) any { return v.VisitArray(a) }
func (a *Array) Pos() Position                  { return a.Position }

// DictPair is one key/value entry of a Dictionary literal, in source order.
type DictPair struct {
	Key   Expression
	Value Expression
}

// Dictionary is a dictionary literal, `{"k": v, ...}`.
type Dictionary struct {
	Pairs    []DictPair
	Position Position
}

func (d *Dictionary) Accept(v ExpressionVisitor) any { return v.VisitDictionary(d) }
func (d *Dictionary) Pos() Position                  { return d.Position }
