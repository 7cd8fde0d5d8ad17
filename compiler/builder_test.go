package compiler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nilan/lexer"
	"nilan/parser"
)

func compileScript(t *testing.T, src string) map[string]*Bytecode {
	t.Helper()
	toks, lexErrs := lexer.New(src).Scan()
	require.Empty(t, lexErrs)
	script, parseErrs := parser.Make(toks).Parse()
	require.Empty(t, parseErrs)

	globals := make(map[string]int, len(script.Globals))
	for i, g := range script.Globals {
		globals[g] = i
	}
	methods := make(map[string]int, len(script.Functions))
	for i, fn := range script.Functions {
		methods[fn.Name] = i
	}

	out := make(map[string]*Bytecode, len(script.Functions))
	for _, fn := range script.Functions {
		fn := fn
		bc, err := Build(&fn, methods, globals)
		require.NoError(t, err)
		out[fn.Name] = bc
	}
	return out
}

func compileOne(t *testing.T, src string) *Bytecode {
	t.Helper()
	fns := compileScript(t, src)
	require.Len(t, fns, 1)
	for _, bc := range fns {
		return bc
	}
	return nil
}

func countOps(bc *Bytecode, op Opcode) int {
	n := 0
	for _, ins := range bc.Instructions {
		if ins.Op == op {
			n++
		}
	}
	return n
}

func TestReturnConstant(t *testing.T) {
	bc := compileOne(t, "fn f()\n\treturn 42\n")
	require.Equal(t, 1, countOps(bc, OpRetSome))
	require.Len(t, bc.Constants, 1)
	assert.Equal(t, int64(42), bc.Constants[0])
}

func TestParamsOccupyLowRegisters(t *testing.T) {
	bc := compileOne(t, "fn add(a, b)\n\treturn a + b\n")
	assert.Equal(t, 2, bc.ParamCount)
	var add *Instruction
	for i := range bc.Instructions {
		if bc.Instructions[i].Op == OpAdd {
			add = &bc.Instructions[i]
		}
	}
	require.NotNil(t, add)
	assert.ElementsMatch(t, []byte{0, 1}, []byte{add.A, add.B})
}

func TestConstantDeduplication(t *testing.T) {
	bc := compileOne(t, "fn f()\n\tvar x = 1\n\tvar y = 1\n\treturn x + y\n")
	count := 0
	for _, c := range bc.Constants {
		if c == int64(1) {
			count++
		}
	}
	assert.Equal(t, 1, count, "the literal 1 should only appear once in the constant pool")
}

func TestConstantDeduplicationNaN(t *testing.T) {
	nan := math.NaN()
	b := newBuilder(nil, nil)
	r1 := b.constReal(nan)
	r2 := b.constReal(nan)
	assert.Equal(t, r1, r2)
	assert.Len(t, b.consts, 1)
}

func TestDuplicateParameterIsError(t *testing.T) {
	toks, lexErrs := lexer.New("fn f(a, a)\n\tpass\n").Scan()
	require.Empty(t, lexErrs)
	script, parseErrs := parser.Make(toks).Parse()
	require.Empty(t, parseErrs)
	fn := script.Functions[0]
	_, err := Build(&fn, map[string]int{"f": 0}, nil)
	require.Error(t, err)
	se, ok := err.(SemanticError)
	require.True(t, ok)
	assert.Equal(t, DuplicateParameter, se.Kind)
}

func TestUndefinedVariableIsError(t *testing.T) {
	bc, err := buildErr(t, "fn f()\n\treturn nope\n")
	assert.Nil(t, bc)
	require.Error(t, err)
	se, ok := err.(SemanticError)
	require.True(t, ok)
	assert.Equal(t, UndefinedVariable, se.Kind)
}

func buildErr(t *testing.T, src string) (*Bytecode, error) {
	t.Helper()
	toks, lexErrs := lexer.New(src).Scan()
	require.Empty(t, lexErrs)
	script, parseErrs := parser.Make(toks).Parse()
	require.Empty(t, parseErrs)
	fn := script.Functions[0]
	methods := map[string]int{fn.Name: 0}
	return Build(&fn, methods, nil)
}

func TestSelfFieldLoadStore(t *testing.T) {
	toks, lexErrs := lexer.New("var total\nfn bump()\n\tself.total += 1\n").Scan()
	require.Empty(t, lexErrs)
	script, parseErrs := parser.Make(toks).Parse()
	require.Empty(t, parseErrs)
	fn := script.Functions[0]
	bc, err := Build(&fn, map[string]int{"bump": 0}, map[string]int{"total": 0})
	require.NoError(t, err)
	require.Equal(t, 1, countOps(bc, OpLoad))
	require.Equal(t, 1, countOps(bc, OpStore))
	require.Equal(t, 1, countOps(bc, OpAdd))
}

func TestCantAssignToSelf(t *testing.T) {
	toks, lexErrs := lexer.New("fn f()\n\tself = 1\n").Scan()
	require.Empty(t, lexErrs)
	script, parseErrs := parser.Make(toks).Parse()
	require.Empty(t, parseErrs)
	fn := script.Functions[0]
	_, err := Build(&fn, map[string]int{"f": 0}, nil)
	require.Error(t, err)
	se, ok := err.(SemanticError)
	require.True(t, ok)
	assert.Equal(t, CantAssign, se.Kind)
}

func TestIfElseBackpatching(t *testing.T) {
	bc := compileOne(t, "fn f(a)\n\tif a\n\t\treturn 1\n\telse\n\t\treturn 2\n")
	for i, ins := range bc.Instructions {
		if ins.Op == OpJmpIf || ins.Op == OpJmp {
			assert.LessOrEqual(t, int(ins.IP), len(bc.Instructions), "instruction %d jumps out of range", i)
		}
	}
}

func TestWhileLoopBackpatching(t *testing.T) {
	bc := compileOne(t, "fn f(a)\n\twhile a\n\t\ta = a - 1\n\treturn a\n")
	require.Equal(t, 1, countOps(bc, OpJmpNotIf))
	for _, ins := range bc.Instructions {
		if ins.Op == OpJmp || ins.Op == OpJmpNotIf {
			assert.LessOrEqual(t, int(ins.IP), len(bc.Instructions))
		}
	}
}

func TestForIntegerRangeAllForms(t *testing.T) {
	cases := []string{
		"fn f()\n\tvar s = 0\n\tfor i in 10\n\t\ts += i\n\treturn s\n",
		"fn f()\n\tvar s = 0\n\tfor i in 0 to 10\n\t\ts += i\n\treturn s\n",
		"fn f()\n\tvar s = 0\n\tfor i in 0 to 10 step 2\n\t\ts += i\n\treturn s\n",
		"fn f()\n\tvar s = 0\n\tfor i in 10 step 2\n\t\ts += i\n\treturn s\n",
	}
	for _, src := range cases {
		bc := compileOne(t, src)
		assert.Equal(t, 1, countOps(bc, OpIterInt), src)
		assert.Equal(t, 1, countOps(bc, OpIterIntJmp), src)
	}
}

func TestForGenericIteratesExpression(t *testing.T) {
	bc := compileOne(t, "fn f(arr)\n\tvar s = 0\n\tfor x in arr\n\t\ts += x\n\treturn s\n")
	assert.Equal(t, 1, countOps(bc, OpIter))
	assert.Equal(t, 1, countOps(bc, OpIterJmp))
}

func TestBreakAcrossNestedForLoopsPopsIterators(t *testing.T) {
	bc := compileOne(t, "fn f()\n\tfor i in 10\n\t\tfor j in 10\n\t\t\tbreak 1\n\treturn 0\n")
	require.Equal(t, 1, countOps(bc, OpBreak))
	for _, ins := range bc.Instructions {
		if ins.Op == OpBreak {
			// breaking out 1 level up pops both the inner and target
			// integer-range iterators.
			assert.Equal(t, byte(2), ins.AmountInt)
			assert.Equal(t, byte(0), ins.Amount)
		}
	}
}

func TestBreakUnexpectedOutsideLoop(t *testing.T) {
	_, err := buildErr(t, "fn f()\n\tbreak\n")
	require.Error(t, err)
	se, ok := err.(SemanticError)
	require.True(t, ok)
	assert.Equal(t, UnexpectedBreak, se.Kind)
}

func TestContinueUnexpectedOutsideLoop(t *testing.T) {
	_, err := buildErr(t, "fn f()\n\tcontinue\n")
	require.Error(t, err)
	se, ok := err.(SemanticError)
	require.True(t, ok)
	assert.Equal(t, UnexpectedContinue, se.Kind)
}

func TestArrayLiteralLowersToNewArrayAndSetIndex(t *testing.T) {
	bc := compileOne(t, "fn f()\n\treturn [1, 2, 3]\n")
	require.Equal(t, 1, countOps(bc, OpNewArray))
	require.Equal(t, 3, countOps(bc, OpSetIndex))
}

func TestDictionaryLiteralLowersToNewDictionaryAndSetIndex(t *testing.T) {
	bc := compileOne(t, "fn f()\n\treturn {\"a\": 1}\n")
	require.Equal(t, 1, countOps(bc, OpNewDictionary))
	require.Equal(t, 1, countOps(bc, OpSetIndex))
}

func TestShortCircuitAndOrLowerToJumps(t *testing.T) {
	bc := compileOne(t, "fn f(a, b)\n\treturn a && b\n")
	assert.GreaterOrEqual(t, countOps(bc, OpJmpIf)+countOps(bc, OpJmp), 2)

	bc = compileOne(t, "fn f(a, b)\n\treturn a || b\n")
	assert.GreaterOrEqual(t, countOps(bc, OpJmpNotIf)+countOps(bc, OpJmp), 2)
}

func TestGreaterCompilesToSwappedLess(t *testing.T) {
	bc := compileOne(t, "fn f(a, b)\n\treturn a > b\n")
	require.Equal(t, 1, countOps(bc, OpLess))
	for _, ins := range bc.Instructions {
		if ins.Op == OpLess {
			assert.Equal(t, byte(1), ins.A)
			assert.Equal(t, byte(0), ins.B)
		}
	}
}

func TestMethodCallLowersToCallSelf(t *testing.T) {
	bc := compileScript(t, "fn helper(x)\n\treturn x\nfn f()\n\treturn self.helper(1)\n")["f"]
	require.Equal(t, 1, countOps(bc, OpCallSelf))
}

func TestUndefinedFunctionCall(t *testing.T) {
	_, err := buildErr(t, "fn f()\n\tself.nope()\n")
	require.Error(t, err)
	se, ok := err.(SemanticError)
	require.True(t, ok)
	assert.Equal(t, UndefinedFunction, se.Kind)
}

func TestVarCountTracksHighWatermark(t *testing.T) {
	bc := compileOne(t, "fn f(a, b)\n\tvar x = a + b\n\treturn x\n")
	assert.GreaterOrEqual(t, bc.VarCount, 3)
}
