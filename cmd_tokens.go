package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"nilan/lexer"
)

// tokensCmd implements the tokens command: a debugging aid that
// surfaces the lexer's output directly, supplementing a feature exposed
// by the original implementation's test fixtures but never built into
// a subcommand.
type tokensCmd struct{}

func (*tokensCmd) Name() string     { return "tokens" }
func (*tokensCmd) Synopsis() string { return "Dump the token stream of a source file" }
func (*tokensCmd) Usage() string {
	return `tokens <file>:
  Tokenize a Nilan source file and print every token, one per line.
`
}

func (*tokensCmd) SetFlags(f *flag.FlagSet) {}

func (*tokensCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	for _, tok := range toks {
		fmt.Println(tok)
	}
	if len(lexErrs) > 0 {
		for _, e := range lexErrs {
			fmt.Fprintln(os.Stderr, e)
		}
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
