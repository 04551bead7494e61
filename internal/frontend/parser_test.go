package frontend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"exc/internal/ast"
)

// parseExprString parses src as a single top-level expression and returns the trailing
// expression of the synthesized top-level block.
func parseExprString(t *testing.T, src string) *ast.Node {
	t.Helper()
	mod, err := Parse(src)
	require.NoError(t, err)
	require.NotNil(t, mod.TopLevel)
	require.True(t, mod.TopLevel.TrailingExpr)
	return mod.TopLevel.Children[len(mod.TopLevel.Children)-1]
}

// TestOperatorPrecedence checks one representative pair per adjacent precedence level.
func TestOperatorPrecedence(t *testing.T) {
	// '+' (level 6) binds tighter than '<' (level 5): x + y < z groups as (x+y) < z.
	n := parseExprString(t, "x + y < z")
	require.Equal(t, ast.BinaryOp, n.Kind)
	require.Equal(t, "<", n.Op)
	require.Equal(t, ast.BinaryOp, n.Left.Kind)
	require.Equal(t, "+", n.Left.Op)

	// '*' (level 7) binds tighter than '+' (level 6): x + y * z groups as x + (y*z).
	n = parseExprString(t, "x + y * z")
	require.Equal(t, "+", n.Op)
	require.Equal(t, "*", n.Right.Op)

	// '<' (level 5) binds tighter than '==' (level 4): x < y == z < w groups as (x<y) == (z<w).
	n = parseExprString(t, "x < y == z < w")
	require.Equal(t, "==", n.Op)
	require.Equal(t, "<", n.Left.Op)
	require.Equal(t, "<", n.Right.Op)

	// '==' (level 4) binds tighter than 'and' (level 3).
	n = parseExprString(t, "x == y and z")
	require.Equal(t, "and", n.Op)
	require.Equal(t, "==", n.Left.Op)

	// 'and' (level 3) binds tighter than 'or' (level 2).
	n = parseExprString(t, "x and y or z")
	require.Equal(t, "or", n.Op)
	require.Equal(t, "and", n.Left.Op)

	// 'or' (level 2) binds tighter than '=' (level 1): x = y or z groups as x = (y or z).
	n = parseExprString(t, "x = y or z")
	require.Equal(t, ast.Assign, n.Kind)
	require.Equal(t, ast.BinaryOp, n.Right.Kind)
	require.Equal(t, "or", n.Right.Op)
}

// TestRightAssociativeAssignment checks that a = b = c parses as a = (b = c).
func TestRightAssociativeAssignment(t *testing.T) {
	n := parseExprString(t, "a = b = c")
	require.Equal(t, ast.Assign, n.Kind)
	require.Equal(t, "a", n.Name)
	require.Equal(t, ast.Assign, n.Right.Kind)
	require.Equal(t, "b", n.Right.Name)
	require.Equal(t, ast.Ident, n.Right.Right.Kind)
	require.Equal(t, "c", n.Right.Right.Name)
}

func TestParseLeftAssociativity(t *testing.T) {
	// a - b - c groups as (a-b) - c, not a - (b-c).
	n := parseExprString(t, "a - b - c")
	require.Equal(t, "-", n.Op)
	require.Equal(t, ast.BinaryOp, n.Left.Kind)
	require.Equal(t, "a", n.Left.Left.Name)
	require.Equal(t, "c", n.Right.Name)
}

func TestParseUnaryPrecedence(t *testing.T) {
	n := parseExprString(t, "-a * b")
	require.Equal(t, "*", n.Op)
	require.Equal(t, ast.UnaryOp, n.Left.Kind)
	require.Equal(t, "-", n.Left.Op)
}

func TestParseIfThenElse(t *testing.T) {
	n := parseExprString(t, "if x then 1 else 2")
	require.Equal(t, ast.If, n.Kind)
	require.NotNil(t, n.Else)
	require.Equal(t, int64(1), n.Then.IntVal)
	require.Equal(t, int64(2), n.Else.IntVal)
}

func TestParseIfRequiresThen(t *testing.T) {
	_, err := Parse("if (x) { 1 }")
	require.Error(t, err, "C-style if without 'then' must be rejected")
}

func TestParseWhileRequiresDo(t *testing.T) {
	_, err := Parse("while (x) { 1; }")
	require.Error(t, err, "C-style while without 'do' must be rejected")
}

func TestParseCall(t *testing.T) {
	n := parseExprString(t, "print_int(1 + 2)")
	require.Equal(t, ast.Call, n.Kind)
	require.Equal(t, "print_int", n.Name)
	require.Len(t, n.Children, 1)
}

func TestParseFunDef(t *testing.T) {
	mod, err := Parse("fun sq(x: Int): Int { return x * x; }")
	require.NoError(t, err)
	require.Len(t, mod.Functions, 1)
	fn := mod.Functions[0]
	require.Equal(t, "sq", fn.Name)
	require.Equal(t, "Int", fn.ReturnType)
	require.Len(t, fn.Params, 1)
	require.Equal(t, "x", fn.Params[0].Name)
}

func TestParseBlockTrailingSemicolonOptionalAfterNestedBlock(t *testing.T) {
	mod, err := Parse(`var i: Int = 0; while i < 3 do { i = i + 1; } print_int(i);`)
	require.NoError(t, err)
	require.NotNil(t, mod.TopLevel)
	require.Len(t, mod.TopLevel.Children, 3)
}

func TestParseEmptyProgram(t *testing.T) {
	mod, err := Parse("")
	require.NoError(t, err)
	require.Empty(t, mod.Functions)
	require.Nil(t, mod.TopLevel)
}

func TestParseAssignmentTargetMustBeIdentifier(t *testing.T) {
	_, err := Parse("1 = 2;")
	require.Error(t, err)
}
