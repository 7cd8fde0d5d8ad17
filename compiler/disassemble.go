package compiler

import (
	"fmt"
	"os"
	"strings"
)

// Disassemble renders bc as a human-readable instruction listing, one
// line per instruction prefixed with its index.
func Disassemble(bc *Bytecode) string {
	var out strings.Builder
	fmt.Fprintf(&out, "fn %s(%d params, %d vars, %d max call args)\n", bc.Name, bc.ParamCount, bc.VarCount, bc.MaxCallArgs)
	for i, ins := range bc.Instructions {
		fmt.Fprintf(&out, "%4d  %s\n", i, disassembleInstruction(ins))
	}
	for i, c := range bc.Constants {
		fmt.Fprintf(&out, "const[%d] = %#v\n", i, c)
	}
	return out.String()
}

func disassembleInstruction(ins Instruction) string {
	switch ins.Op {
	case OpJmp, OpJmpIf, OpJmpNotIf, OpIterJmp, OpIterIntJmp:
		return fmt.Sprintf("%-12s r%d -> ip=%d", ins.Op, ins.A, ins.IP)
	case OpBreak:
		return fmt.Sprintf("%-12s pop=%d/%d -> ip=%d", ins.Op, ins.Amount, ins.AmountInt, ins.IP)
	case OpIter:
		return fmt.Sprintf("%-12s r%d = iter(r%d) else ip=%d", ins.Op, ins.Dst, ins.A, ins.IP)
	case OpIterInt:
		return fmt.Sprintf("%-12s r%d = range(r%d, r%d, r%d) else ip=%d", ins.Op, ins.Dst, ins.From, ins.To, ins.Step, ins.IP)
	case OpCall, OpCallSelf, OpCallEnv:
		return fmt.Sprintf("%-12s dst=r%d store=%v obj=r%d %q args=%v", ins.Op, ins.Dst, ins.HasStore, ins.A, ins.Name, ins.Args)
	case OpStore:
		return fmt.Sprintf("%-12s slot[%d]=%q <- r%d", ins.Op, ins.Index, ins.Name, ins.A)
	case OpLoad:
		return fmt.Sprintf("%-12s r%d <- slot[%d]=%q", ins.Op, ins.Dst, ins.Index, ins.Name)
	case OpMove:
		return fmt.Sprintf("%-12s r%d <- r%d", ins.Op, ins.Dst, ins.From)
	case OpGetIndex:
		return fmt.Sprintf("%-12s r%d = r%d[r%d]", ins.Op, ins.Dst, ins.A, ins.B)
	case OpSetIndex:
		return fmt.Sprintf("%-12s r%d[r%d] = r%d", ins.Op, ins.A, ins.B, ins.Dst)
	case OpNewArray, OpNewDictionary:
		return fmt.Sprintf("%-12s r%d (%d)", ins.Op, ins.Dst, ins.Index)
	case OpNeg, OpNot, OpCopySelf:
		return fmt.Sprintf("%-12s r%d <- r%d", ins.Op, ins.Dst, ins.A)
	case OpRetSome:
		return fmt.Sprintf("%-12s r%d", ins.Op, ins.A)
	case OpRetNone:
		return ins.Op.String()
	default:
		return fmt.Sprintf("%-12s r%d = r%d, r%d", ins.Op, ins.Dst, ins.A, ins.B)
	}
}

// WriteDisassembly writes Disassemble(bc)'s output to path.
func WriteDisassembly(bc *Bytecode, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating disassembly file: %s", err.Error())
	}
	defer f.Close()
	_, err = f.WriteString(Disassemble(bc))
	return err
}
