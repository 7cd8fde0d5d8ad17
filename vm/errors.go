package vm

import "fmt"

// RunErrorKind enumerates the fixed set of ways bytecode execution can
// fail, distinct from a wrapped host-side variant.CallError.
type RunErrorKind string

const (
	IpOutOfBounds          RunErrorKind = "IpOutOfBounds"
	RegisterOutOfBounds    RunErrorKind = "RegisterOutOfBounds"
	NoIterator             RunErrorKind = "NoIterator"
	UndefinedFunction      RunErrorKind = "UndefinedFunction"
	IncorrectArgumentCount RunErrorKind = "IncorrectArgumentCount"
	ArgumentOutOfBounds    RunErrorKind = "ArgumentOutOfBounds"
	IncompatibleType       RunErrorKind = "IncompatibleType"
	NotBoolean             RunErrorKind = "NotBoolean"
	LocalOutOfBounds       RunErrorKind = "LocalOutOfBounds"
	HostCall               RunErrorKind = "HostCall"
)

// RunError is the single runtime error type the VM returns. IP records
// the instruction pointer active when the failure occurred; Err holds
// the wrapped cause when the failure came from a Variant or host call
// (IncompatibleType, NotBoolean, ArgumentOutOfBounds, HostCall).
type RunError struct {
	IP      int
	Kind    RunErrorKind
	Message string
	Err     error
}

func CreateRunError(ip int, kind RunErrorKind, message string) RunError {
	return RunError{IP: ip, Kind: kind, Message: message}
}

func wrapRunError(ip int, kind RunErrorKind, err error) RunError {
	return RunError{IP: ip, Kind: kind, Message: err.Error(), Err: err}
}

func (e RunError) Error() string {
	return fmt.Sprintf("💥 RunError[%s] at ip=%d: %s", e.Kind, e.IP, e.Message)
}

func (e RunError) Unwrap() error { return e.Err }
