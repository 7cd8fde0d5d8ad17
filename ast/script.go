package ast

// Function is a single top-level `fn name(params)` definition together
// with its parsed body.
type Function struct {
	Name     string
	Params   []string
	Body     []Statement
	Position Position
}

// Script is the parsed form of one source file: the ordered list of
// global variable names it declares and the functions it defines. Global
// order determines the slot indices the bytecode builder resolves `Name`
// atoms against when a name is not a local.
type Script struct {
	Globals   []string
	Functions []Function
}
