package amd64

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"exc/internal/check"
	"exc/internal/frontend"
	"exc/internal/ir"
)

func generate(t *testing.T, src string) string {
	t.Helper()
	mod, err := frontend.Parse(src)
	require.NoError(t, err)
	require.NoError(t, check.Check(mod))
	return Generate(ir.GenModule(mod))
}

func TestGenerateEmitsRequiredSymbols(t *testing.T) {
	out := generate(t, `print_int(1 + 2 * 3);`)
	require.Contains(t, out, ".global main")
	require.Contains(t, out, ".extern print_int")
	require.Contains(t, out, ".extern print_bool")
	require.Contains(t, out, ".extern read_int")
	require.Contains(t, out, "main:")
}

func TestGenerateUserFunctionGetsOwnLabel(t *testing.T) {
	out := generate(t, `fun sq(x: Int): Int { return x * x; } print_int(sq(3));`)
	require.Contains(t, out, "sq:")
	require.Contains(t, out, "call\tsq")
}

func TestGenerateArithmeticLowersToRegisterSequence(t *testing.T) {
	// Non-literal operands, since a fully literal expression is folded to one constant.
	out := generate(t, `print_int(read_int() + 2);`)
	require.Contains(t, out, "addq")
}

func TestGenerateComparisonLowersToSetcc(t *testing.T) {
	out := generate(t, `print_bool(read_int() < 2);`)
	require.Contains(t, out, "setl")
	require.Contains(t, out, "movzbq")
}

func TestGenerateDivisionUsesCqtoIdiv(t *testing.T) {
	out := generate(t, `print_int(read_int() / 3);`)
	require.Contains(t, out, "cqto")
	require.Contains(t, out, "idivq")
}

func TestGenerateFramesAreSixteenByteAligned(t *testing.T) {
	out := generate(t, `fun f(a: Int, b: Int, c: Int): Int { return a + b + c; } print_int(f(1, 2, 3));`)
	found := false
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "subq") {
			continue
		}
		fields := strings.Fields(line)
		amount := strings.TrimSuffix(strings.TrimPrefix(fields[1], "$"), ",")
		n, err := strconv.Atoi(amount)
		require.NoError(t, err)
		require.Zero(t, n%16, "frame size %d is not 16-byte aligned", n)
		found = true
	}
	require.True(t, found, "expected at least one subq $N, %%rsp prologue instruction")
}
