package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"exc/internal/check"
	"exc/internal/frontend"
)

func mustGen(t *testing.T, src string) *Module {
	t.Helper()
	mod, err := frontend.Parse(src)
	require.NoError(t, err)
	require.NoError(t, check.Check(mod))
	return GenModule(mod)
}

// TestWellTypedProgramsGenerate checks that IR generation succeeds without raising for a
// corpus of well-typed programs covering each language feature.
func TestWellTypedProgramsGenerate(t *testing.T) {
	programs := []string{
		`print_int(1 + 2 * 3);`,
		`var x: Int = read_int(); print_int(x * x);`,
		`var i: Int = 0; while i < 3 do { print_int(i); i = i + 1; }`,
		`if true then print_int(1) else print_int(2);`,
		`fun sq(x: Int): Int { return x * x; } print_int(sq(3) + sq(4));`,
		`var i: Int = 0; while true do { if i == 3 then { break; } print_int(i); i = i + 1; }`,
		`print_bool(1 == 1 and not (2 < 1));`,
	}
	for _, src := range programs {
		require.NotPanics(t, func() { mustGen(t, src) }, "program: %s", src)
	}
}

func TestEveryFunctionEndsInReturn(t *testing.T) {
	m := mustGen(t, `fun f(): Int { return 1; } print_int(f());`)
	for _, fn := range append(append([]*Function{}, m.Functions...), m.Main) {
		require.NotEmpty(t, fn.Instrs)
		require.Equal(t, OpReturn, fn.Instrs[len(fn.Instrs)-1].Op)
	}
}

// TestShortCircuitAndLowersToConditionalJump checks that 'and' is lowered to a CondJump rather
// than a Call.
func TestShortCircuitAndLowersToConditionalJump(t *testing.T) {
	m := mustGen(t, `print_bool(read_int() == 0 and read_int() == 1);`)
	var sawCondJump bool
	for _, instr := range m.Main.Instrs {
		if instr.Op == OpCondJump {
			sawCondJump = true
		}
		if instr.Op == OpCall && instr.Callee == "and" {
			t.Fatalf("'and' must not lower to a Call")
		}
	}
	require.True(t, sawCondJump)
}

func TestConstantFoldingCollapsesLiteralArithmetic(t *testing.T) {
	m := mustGen(t, `print_int(1 + 2 * 3);`)
	var loads, calls int
	for _, instr := range m.Main.Instrs {
		switch instr.Op {
		case OpLoadIntConst:
			loads++
			if instr.IntVal == 7 {
				return
			}
		case OpCall:
			if instr.Callee == "+" || instr.Callee == "*" {
				calls++
			}
		}
	}
	t.Fatalf("expected a single LoadIntConst 7, found %d int-const loads and %d arithmetic calls", loads, calls)
}

func TestConstantFoldingSkipsDivisionByLiteralZero(t *testing.T) {
	m := mustGen(t, `print_int(1 / 0);`)
	var sawDivCall bool
	for _, instr := range m.Main.Instrs {
		if instr.Op == OpCall && instr.Callee == "/" {
			sawDivCall = true
		}
	}
	require.True(t, sawDivCall, "division by a literal zero must still reach the runtime idivq trap")
}

func TestBreakMaterializesResultVariable(t *testing.T) {
	m := mustGen(t, `var i: Int = 0; while true do { if i == 0 then { break 5; } i = i + 1; }`)
	var const5, resultVar string
	var sawCopyFromConst5 bool
	for _, instr := range m.Main.Instrs {
		if instr.Op == OpLoadIntConst && instr.IntVal == 5 {
			const5 = instr.Dest
		}
		if instr.Op == OpCopy && const5 != "" && instr.Src == const5 {
			resultVar = instr.Dest
			sawCopyFromConst5 = strings.HasPrefix(resultVar, "brk")
		}
	}
	require.True(t, sawCopyFromConst5)
}
