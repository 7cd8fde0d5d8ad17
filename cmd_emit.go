package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"nilan/compiler"
	"nilan/lexer"
	"nilan/parser"
)

// emitCmd implements the emit command: compile a file to bytecode and
// print, or save, its disassembly.
type emitCmd struct {
	out string
}

func (*emitCmd) Name() string     { return "emit" }
func (*emitCmd) Synopsis() string { return "Emit the bytecode disassembly of a source file" }
func (*emitCmd) Usage() string {
	return `emit <file>:
  Compile a Nilan source file to bytecode and print its disassembly, one
  function at a time.
`
}

func (cmd *emitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.out, "out", "", "write the disassembly to this file instead of stdout")
}

func (cmd *emitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	toks, lexErrs := lexer.New(string(data)).Scan()
	if len(lexErrs) > 0 {
		for _, e := range lexErrs {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	parsed, parseErrs := parser.Make(toks).Parse()
	if len(parseErrs) > 0 {
		for _, e := range parseErrs {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	methods := make(map[string]int, len(parsed.Functions))
	for i, fn := range parsed.Functions {
		methods[fn.Name] = i
	}
	globals := make(map[string]int, len(parsed.Globals))
	for i, g := range parsed.Globals {
		globals[g] = i
	}

	var out strings.Builder
	for i := range parsed.Functions {
		fn := &parsed.Functions[i]
		bc, err := compiler.Build(fn, methods, globals)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		out.WriteString(compiler.Disassemble(bc))
	}

	if cmd.out == "" {
		fmt.Print(out.String())
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(cmd.out, []byte(out.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to write disassembly: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
