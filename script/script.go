// Package script ties the front end and the execution engine together:
// it compiles every function in a parsed ast.Script once, keeps the
// ordered global slot names, and exposes running a function by name
// against a receiver that owns those slots.
package script

import (
	"nilan/ast"
	"nilan/compiler"
	"nilan/variant"
	"nilan/vm"
)

// Script is a compiled unit: one Bytecode per declared function, plus
// the ordered global names those functions' Store/Load instructions
// index into.
type Script struct {
	Globals   []string
	Functions map[string]*compiler.Bytecode

	order []*compiler.Bytecode // functions in CallSelf table order
}

// Compile lowers every function in src, resolving self.field references
// against src's global slots and bare/self function calls against its
// own function table.
func Compile(src *ast.Script) (*Script, error) {
	globals := make(map[string]int, len(src.Globals))
	for i, g := range src.Globals {
		globals[g] = i
	}
	methods := make(map[string]int, len(src.Functions))
	for i, fn := range src.Functions {
		methods[fn.Name] = i
	}

	order := make([]*compiler.Bytecode, len(src.Functions))
	byName := make(map[string]*compiler.Bytecode, len(src.Functions))
	for i := range src.Functions {
		fn := &src.Functions[i]
		bc, err := compiler.Build(fn, methods, globals)
		if err != nil {
			return nil, err
		}
		order[i] = bc
		byName[fn.Name] = bc
	}

	return &Script{
		Globals:   src.Globals,
		Functions: byName,
		order:     order,
	}, nil
}

// NewReceiver builds a fresh receiver with one dictionary slot per
// global, each defaulted the way a freshly declared `var` is.
func (s *Script) NewReceiver() variant.Variant {
	self := variant.NewDictionary(len(s.Globals))
	for i := range s.Globals {
		_ = self.SetIndex(variant.NewInteger(int64(i)), variant.Default())
	}
	return self
}

// Invoke runs the named function against self with args, optionally
// observed by tracer. self may be the zero value from NewReceiver, a
// receiver shared across calls to preserve global state between them,
// or any other Variant a host wants to use as the script's "self".
func (s *Script) Invoke(name string, args []variant.Variant, self variant.Variant, env variant.Environment, tracer vm.Tracer) (variant.Variant, error) {
	fn, ok := s.Functions[name]
	if !ok {
		return nil, vm.CreateRunError(0, vm.UndefinedFunction, "no function named "+name)
	}
	return vm.Run(fn, args, self, s.order, env, tracer)
}
