package lexer

import "fmt"

// TokenizeErrorKind enumerates the fixed tokenization failure kinds.
type TokenizeErrorKind string

const (
	ErrEmpty                 TokenizeErrorKind = "Empty"
	ErrUnterminatedString    TokenizeErrorKind = "UnterminatedString"
	ErrInvalidAssignOp       TokenizeErrorKind = "InvalidAssignOp"
	ErrSpaceInIndent         TokenizeErrorKind = "SpaceInIndent"
	ErrIndentationOverflow   TokenizeErrorKind = "IndentationOverflow"
	ErrInvalidEscapeSequence TokenizeErrorKind = "InvalidEscapeSequence"
)

// TokenizeError reports a single lexical fault at a source position.
type TokenizeError struct {
	Line   int32
	Column int
	Kind   TokenizeErrorKind
	Detail string
}

func (e TokenizeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("🔥 Tokenize error: %s at line %d, column %d", e.Kind, e.Line, e.Column)
	}
	return fmt.Sprintf("🔥 Tokenize error: %s (%s) at line %d, column %d", e.Kind, e.Detail, e.Line, e.Column)
}

// NotANumberError reports a numeric lexeme that failed to parse under
// any recognized base or real-number form.
type NotANumberError struct {
	Line   int32
	Column int
	Text   string
}

func (e NotANumberError) Error() string {
	return fmt.Sprintf("🔥 Tokenize error: not a number %q at line %d, column %d", e.Text, e.Line, e.Column)
}
