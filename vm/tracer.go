package vm

import (
	"nilan/compiler"
	"nilan/variant"
)

// Tracer observes execution without influencing it. An embedder wanting
// an instruction budget or step-by-step debugging supplies one;
// otherwise Run substitutes NoopTracer, whose Step is still called
// through the interface once per instruction.
type Tracer interface {
	BeginRun(fn *compiler.Bytecode)
	Step(ip int, ins compiler.Instruction, registers []variant.Variant)
	BeginCall(name string)
	End(result variant.Variant, err error)
}

// NoopTracer implements Tracer with no-ops.
type NoopTracer struct{}

func (NoopTracer) BeginRun(fn *compiler.Bytecode)                                    {}
func (NoopTracer) Step(ip int, ins compiler.Instruction, registers []variant.Variant) {}
func (NoopTracer) BeginCall(name string)                                             {}
func (NoopTracer) End(result variant.Variant, err error)                             {}
