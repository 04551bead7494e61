package check

import (
	"testing"

	"github.com/stretchr/testify/require"

	"exc/internal/ast"
	"exc/internal/frontend"
)

func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()
	mod, err := frontend.Parse(src)
	require.NoError(t, err)
	return mod
}

// TestTypingTotality checks that after type checking succeeds, every AST node has a non-nil
// type field.
func TestTypingTotality(t *testing.T) {
	mod := mustParse(t, `
		fun sq(x: Int): Int { return x * x; }
		var i: Int = 0;
		while i < 3 do {
			print_int(sq(i));
			i = i + 1;
		}
	`)
	require.NoError(t, Check(mod))

	mod.Walk(func(n *ast.Node) {
		require.NotNil(t, n.Typ, "node %s has no type after checking", n)
	})
}

func TestWellTypedProgramsCheck(t *testing.T) {
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
		mod := mustParse(t, src)
		require.NoError(t, Check(mod), "program: %s", src)
	}
}

// TestBreakConsistency checks that two breaks in the same loop carrying different-typed
// values are rejected.
func TestBreakConsistency(t *testing.T) {
	mod := mustParse(t, `
		var i: Int = 0;
		while true do {
			if i == 0 then { break 1; } else { break true; }
			i = i + 1;
		}
	`)
	err := Check(mod)
	require.Error(t, err)
}

func TestUnboundIdentifier(t *testing.T) {
	mod := mustParse(t, `print_int(y);`)
	require.Error(t, Check(mod))
}

func TestBreakOutsideLoop(t *testing.T) {
	mod := mustParse(t, `break;`)
	require.Error(t, Check(mod))
}

func TestContinueOutsideLoop(t *testing.T) {
	mod := mustParse(t, `continue;`)
	require.Error(t, Check(mod))
}

func TestDuplicateFunctionDefinition(t *testing.T) {
	mod := mustParse(t, `
		fun f(): Int { return 1; }
		fun f(): Int { return 2; }
	`)
	require.Error(t, Check(mod))
}

func TestDuplicateVariableInScope(t *testing.T) {
	mod := mustParse(t, `var x: Int = 1; var x: Int = 2;`)
	require.Error(t, Check(mod))
}

func TestShadowingAcrossScopesIsAllowed(t *testing.T) {
	mod := mustParse(t, `var x: Int = 1; { var x: Bool = true; print_bool(x); } print_int(x);`)
	require.NoError(t, Check(mod))
}

func TestCallArityMismatch(t *testing.T) {
	mod := mustParse(t, `print_int(1, 2);`)
	require.Error(t, Check(mod))
}

func TestEqualityOverloading(t *testing.T) {
	mod := mustParse(t, `print_bool(1 == 1); print_bool(true == false);`)
	require.NoError(t, Check(mod))

	mod = mustParse(t, `print_bool(1 == true);`)
	require.Error(t, Check(mod))
}

func TestReturnTypeMismatch(t *testing.T) {
	mod := mustParse(t, `fun f(): Int { return true; }`)
	require.Error(t, Check(mod))
}

func TestIfBranchTypeMismatch(t *testing.T) {
	mod := mustParse(t, `if true then 1 else true;`)
	require.Error(t, Check(mod))
}
