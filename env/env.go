// Package env provides the minimal concrete variant.Environment this
// module ships so the CLI and test suite can run scripts end to end
// without an embedder supplying its own host functions.
package env

import (
	"fmt"

	"nilan/variant"
)

// Func is a host function reachable from a script via `env.name(args)`.
type Func func(args []variant.Variant) (variant.Variant, error)

// Env resolves registered host functions by name, the same lookup
// shape as the tree-walking interpreter's variable Environment, now
// keyed by function name instead of variable name.
type Env struct {
	funcs map[string]Func
}

func New() *Env {
	return &Env{funcs: make(map[string]Func)}
}

// Register binds name to fn, overwriting any previous binding.
func (e *Env) Register(name string, fn Func) {
	e.funcs[name] = fn
}

// Call invokes the host function bound to name. An unresolved name
// surfaces as a variant.CallError so the VM reports it the same way it
// reports a failure from inside a successfully resolved call.
func (e *Env) Call(name string, args []variant.Variant) (variant.Variant, error) {
	fn, ok := e.funcs[name]
	if !ok {
		return nil, variant.CallError{Name: name, Err: fmt.Errorf("undefined environment function")}
	}
	result, err := fn(args)
	if err != nil {
		return nil, variant.CallError{Name: name, Err: err}
	}
	return result, nil
}
