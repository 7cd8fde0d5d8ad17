package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nilan/compiler"
	"nilan/lexer"
	"nilan/parser"
	"nilan/variant"
)

// compileScript mirrors the compiler package's own test helper: lex,
// parse, and build every top-level function into bytecode keyed by name.
func compileScript(t *testing.T, src string) (fns map[string]*compiler.Bytecode, globals []string) {
	t.Helper()
	toks, lexErrs := lexer.New(src).Scan()
	require.Empty(t, lexErrs)
	script, parseErrs := parser.Make(toks).Parse()
	require.Empty(t, parseErrs)

	globalSlots := make(map[string]int, len(script.Globals))
	for i, g := range script.Globals {
		globalSlots[g] = i
	}
	methods := make(map[string]int, len(script.Functions))
	for i, fn := range script.Functions {
		methods[fn.Name] = i
	}

	fns = make(map[string]*compiler.Bytecode, len(script.Functions))
	for _, fn := range script.Functions {
		fn := fn
		bc, err := compiler.Build(&fn, methods, globalSlots)
		require.NoError(t, err)
		fns[fn.Name] = bc
	}
	return fns, script.Globals
}

// newSelf builds a receiver with one dictionary slot per global,
// pre-populated with the zero value the way a Script wrapper would.
func newSelf(globals []string) variant.Variant {
	self := variant.NewDictionary(len(globals))
	for i := range globals {
		_ = self.SetIndex(variant.NewInteger(int64(i)), variant.Default())
	}
	return self
}

func runFunc(t *testing.T, fns map[string]*compiler.Bytecode, globals []string, name string, args ...variant.Variant) (variant.Variant, error) {
	t.Helper()
	fn, ok := fns[name]
	require.True(t, ok, "no function named %s", name)

	order := make([]string, len(fns))
	functions := make(Functions, len(fns))
	i := 0
	for n, bc := range fns {
		order[i] = n
		functions[i] = bc
		i++
	}
	// CallSelf resolves by table index, but these single-function tests
	// never call another method, so the table's order is irrelevant.
	return Run(fn, args, newSelf(globals), functions, nil, nil)
}

func TestReturnsArithmeticResult(t *testing.T) {
	fns, globals := compileScript(t, "fn main()\n\treturn 1 + 2\n")
	result, err := runFunc(t, fns, globals, "main")
	require.NoError(t, err)
	i, err := result.AsInteger()
	require.NoError(t, err)
	require.EqualValues(t, 3, i)
}

func TestParamsFlowIntoRegisters(t *testing.T) {
	fns, globals := compileScript(t, "fn f(x)\n\treturn x * x\n")
	result, err := runFunc(t, fns, globals, "f", variant.NewInteger(7))
	require.NoError(t, err)
	i, err := result.AsInteger()
	require.NoError(t, err)
	require.EqualValues(t, 49, i)
}

func TestWrongArgumentCountIsRunError(t *testing.T) {
	fns, globals := compileScript(t, "fn f(x)\n\treturn x * x\n")
	_, err := runFunc(t, fns, globals, "f")
	require.Error(t, err)
	var runErr RunError
	require.ErrorAs(t, err, &runErr)
	require.Equal(t, IncorrectArgumentCount, runErr.Kind)
}

func TestForInSumsRange(t *testing.T) {
	fns, globals := compileScript(t, "fn main()\n\tvar s\n\tfor i in 5\n\t\ts += i\n\treturn s\n")
	result, err := runFunc(t, fns, globals, "main")
	require.NoError(t, err)
	i, err := result.AsInteger()
	require.NoError(t, err)
	require.EqualValues(t, 10, i)
}

func TestForInZeroRunsZeroTimes(t *testing.T) {
	fns, globals := compileScript(t, "fn main()\n\tvar s\n\tfor i in 0\n\t\ts += 1\n\treturn s\n")
	result, err := runFunc(t, fns, globals, "main")
	require.NoError(t, err)
	i, err := result.AsInteger()
	require.NoError(t, err)
	require.EqualValues(t, 0, i)
}

func TestForInNegativeCountsDown(t *testing.T) {
	fns, globals := compileScript(t, "fn main()\n\tvar s\n\tfor i in -3\n\t\ts += i\n\treturn s\n")
	result, err := runFunc(t, fns, globals, "main")
	require.NoError(t, err)
	i, err := result.AsInteger()
	require.NoError(t, err)
	require.EqualValues(t, -3, i) // 0 + -1 + -2
}

func TestBreakInsideForStopsEarly(t *testing.T) {
	src := "fn main()\n\tvar s\n\tfor i in 10\n\t\tif i == 5\n\t\t\tbreak\n\t\ts += i\n\treturn s\n"
	fns, globals := compileScript(t, src)
	result, err := runFunc(t, fns, globals, "main")
	require.NoError(t, err)
	i, err := result.AsInteger()
	require.NoError(t, err)
	require.EqualValues(t, 10, i) // 0+1+2+3+4
}

func TestBreakWithLevelExitsBothLoops(t *testing.T) {
	src := "fn main()\n\tvar s\n\tfor i in 3\n\t\tfor j in 3\n\t\t\ts += 1\n\t\t\tbreak 1\n\treturn s\n"
	fns, globals := compileScript(t, src)
	result, err := runFunc(t, fns, globals, "main")
	require.NoError(t, err)
	i, err := result.AsInteger()
	require.NoError(t, err)
	require.EqualValues(t, 1, i) // the outer loop is exited on its first pass
}

func TestArrayLiteralIndex(t *testing.T) {
	fns, globals := compileScript(t, "fn main()\n\tvar a = [1, 2, 3]\n\treturn a[1]\n")
	result, err := runFunc(t, fns, globals, "main")
	require.NoError(t, err)
	i, err := result.AsInteger()
	require.NoError(t, err)
	require.EqualValues(t, 2, i)
}

func TestDictionaryLiteralIndex(t *testing.T) {
	fns, globals := compileScript(t, `fn main()
	var d = {"a": 7}
	return d["a"]
`)
	result, err := runFunc(t, fns, globals, "main")
	require.NoError(t, err)
	i, err := result.AsInteger()
	require.NoError(t, err)
	require.EqualValues(t, 7, i)
}

func TestArrayIndexOutOfBoundsIsRunError(t *testing.T) {
	fns, globals := compileScript(t, "fn main()\n\tvar a = [1, 2, 3]\n\treturn a[10]\n")
	_, err := runFunc(t, fns, globals, "main")
	require.Error(t, err)
	var runErr RunError
	require.ErrorAs(t, err, &runErr)
	require.Equal(t, ArgumentOutOfBounds, runErr.Kind)
}

func TestSelfFieldRoundTrip(t *testing.T) {
	src := "var total\nfn main()\n\tself.total = 41\n\tself.total += 1\n\treturn self.total\n"
	fns, globals := compileScript(t, src)
	result, err := runFunc(t, fns, globals, "main")
	require.NoError(t, err)
	i, err := result.AsInteger()
	require.NoError(t, err)
	require.EqualValues(t, 42, i)
}

// budgetTracer aborts a run after a fixed number of steps, standing in
// for a host that wants to bound a script with a step=0 integer range
// that would otherwise loop forever.
type budgetTracer struct {
	NoopTracer
	max, steps int
}

func (b *budgetTracer) Step(ip int, ins compiler.Instruction, regs []variant.Variant) {
	b.steps++
	if b.steps > b.max {
		panic("step budget exceeded")
	}
}

func TestIntegerForWithZeroStepLoopsUntilBudgetExhausted(t *testing.T) {
	fns, globals := compileScript(t, "fn main()\n\tvar s\n\tfor i in 0 to 5 step 0\n\t\ts += 1\n\treturn s\n")
	fn := fns["main"]
	require.NotNil(t, fn)

	tracer := &budgetTracer{max: 1000}
	require.Panics(t, func() {
		_, _ = Run(fn, nil, newSelf(globals), Functions{fn}, nil, tracer)
	})
}
