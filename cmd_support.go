package main

import (
	"fmt"
	"strings"

	"nilan/compiler"
	"nilan/env"
	"nilan/variant"
	"nilan/vm"
)

// stdEnv is the small host function table the CLI exposes to scripts.
// The language spec treats env as a pure interface; this is the one
// concrete binding the command-line tools supply.
func stdEnv() *env.Env {
	e := env.New()
	e.Register("print", func(args []variant.Variant) (variant.Variant, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.IntoString()
		}
		fmt.Println(strings.Join(parts, " "))
		return variant.Default(), nil
	})
	return e
}

// printTracer writes one line per executed instruction to stdout,
// backing the -trace flag on run/repl.
type printTracer struct {
	vm.NoopTracer
}

func (printTracer) BeginRun(fn *compiler.Bytecode) {
	fmt.Printf("== %s ==\n", fn.Name)
}

func (printTracer) Step(ip int, ins compiler.Instruction, registers []variant.Variant) {
	fmt.Printf("%4d  %-12s regs=%v\n", ip, ins.Op, registers)
}

func (printTracer) BeginCall(name string) {
	fmt.Printf("      call %s\n", name)
}

func (printTracer) End(result variant.Variant, err error) {
	if err != nil {
		fmt.Printf("== error: %v ==\n", err)
		return
	}
	fmt.Printf("== returned %v ==\n", result)
}

func traceOrNil(enabled bool) vm.Tracer {
	if !enabled {
		return nil
	}
	return printTracer{}
}
