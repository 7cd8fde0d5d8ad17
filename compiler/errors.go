package compiler

import "fmt"

// SemanticErrorKind classifies why a program failed to lower to
// bytecode, mirroring the builder's semantic-validation surface.
type SemanticErrorKind string

const (
	DuplicateParameter SemanticErrorKind = "DuplicateParameter"
	DuplicateVariable  SemanticErrorKind = "DuplicateVariable"
	UndefinedVariable  SemanticErrorKind = "UndefinedVariable"
	UnexpectedBreak    SemanticErrorKind = "UnexpectedBreak"
	UnexpectedContinue SemanticErrorKind = "UnexpectedContinue"
	TooManyRegisters   SemanticErrorKind = "TooManyRegisters"
	Unsupported        SemanticErrorKind = "Unsupported"
	UndefinedFunction  SemanticErrorKind = "UndefinedFunction"
	CantAssign         SemanticErrorKind = "CantAssign"
)

// SemanticError reports a program that parsed successfully but cannot
// be lowered to bytecode as written.
type SemanticError struct {
	Line    int32
	Column  int
	Kind    SemanticErrorKind
	Message string
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("💥 SemanticError: %s", e.Message)
}

func newSemanticError(line int32, column int, kind SemanticErrorKind, message string) SemanticError {
	return SemanticError{Line: line, Column: column, Kind: kind, Message: message}
}

// DeveloperError signals a compiler invariant violation: a bug in the
// builder itself rather than a problem with the input program.
type DeveloperError struct {
	Line    int32
	Column  int
	Kind    string
	Message string
}

func (e DeveloperError) Error() string {
	return fmt.Sprintf("🤖 DeveloperError: %s", e.Message)
}

func newDeveloperError(message string) DeveloperError {
	return DeveloperError{Kind: "Internal", Message: message}
}
