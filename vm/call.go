package vm

import (
	"errors"

	"nilan/compiler"
	"nilan/variant"
)

// call dispatches Call, CallSelf and CallEnv. A variant.CallError coming
// back from either a host Environment or a Variant's own Call method is
// reported as HostCall so a caller can distinguish a failure inside
// foreign code from a VM-internal one; a RunError from a nested CallSelf
// is returned unchanged, and anything else is IncompatibleType.
func (f *frame) call(ip int, ins compiler.Instruction) error {
	args := make([]variant.Variant, len(ins.Args))
	for i, reg := range ins.Args {
		v, err := f.read(ip, reg)
		if err != nil {
			return err
		}
		args[i] = v
	}

	f.tracer.BeginCall(ins.Name)

	var result variant.Variant
	var err error
	switch ins.Op {
	case compiler.OpCallSelf:
		if ins.Index < 0 || ins.Index >= len(f.functions) {
			return CreateRunError(ip, UndefinedFunction, "no method at table index for "+ins.Name)
		}
		target := f.functions[ins.Index]
		result, err = Run(target, args, f.self, f.functions, f.env, f.tracer)
	case compiler.OpCallEnv:
		if f.env == nil {
			return CreateRunError(ip, UndefinedFunction, "no environment bound for "+ins.Name)
		}
		result, err = f.env.Call(ins.Name, args)
	case compiler.OpCall:
		obj, rerr := f.read(ip, ins.A)
		if rerr != nil {
			return rerr
		}
		result, err = obj.Call(ins.Name, args, f.env)
	}

	if err != nil {
		var callErr variant.CallError
		if errors.As(err, &callErr) {
			return wrapRunError(ip, HostCall, err)
		}
		var runErr RunError
		if errors.As(err, &runErr) {
			return runErr
		}
		return wrapRunError(ip, IncompatibleType, err)
	}

	if !ins.HasStore {
		return nil
	}
	return f.write(ip, ins.Dst, result)
}
