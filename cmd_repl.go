package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"nilan/lexer"
	"nilan/parser"
	"nilan/script"
)

// replCmd implements the repl command.
type replCmd struct {
	trace bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive register-VM session. Each line is appended to a
  pending block; an empty line submits it for compilation and
  execution.
`
}

func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.trace, "trace", false, "print each executed instruction and its register file")
}

func (cmd *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\nWelcome to Nilan!")

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Println(err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	e := stdEnv()
	tracer := traceOrNil(cmd.trace)
	var buffer strings.Builder

	for {
		prompt := ">>> "
		if buffer.Len() > 0 {
			prompt = "... "
		}
		rl.SetPrompt(prompt)

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Println(err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "" && buffer.Len() == 0 {
			continue
		}
		if strings.TrimSpace(line) != "" {
			buffer.WriteString(line)
			buffer.WriteString("\n")
			continue
		}

		source := buffer.String()
		buffer.Reset()

		toks, lexErrs := lexer.New(source).Scan()
		if len(lexErrs) > 0 {
			for _, lexErr := range lexErrs {
				fmt.Println(lexErr)
			}
			continue
		}

		parsed, parseErrs := parser.Make(toks).Parse()
		if len(parseErrs) > 0 {
			for _, pe := range parseErrs {
				fmt.Println(pe)
			}
			continue
		}

		sc, err := script.Compile(parsed)
		if err != nil {
			fmt.Println(err)
			continue
		}

		if _, ok := sc.Functions["main"]; !ok {
			fmt.Println("no \"main\" function declared in that block")
			continue
		}

		result, runErr := sc.Invoke("main", nil, sc.NewReceiver(), e, tracer)
		if runErr != nil {
			fmt.Println(runErr)
			continue
		}
		fmt.Println(result.IntoString())
	}
}
