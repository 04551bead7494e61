package frontend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// scanAll drains a lexer's full token stream, excluding the terminating End token.
func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	lx := NewLexer(src)
	var toks []Token
	for {
		tok := lx.Next()
		require.NotEqual(t, tokenError, tok.Kind, "lexical error: %s", tok.Text)
		if tok.Kind == End {
			break
		}
		toks = append(toks, tok)
	}
	return toks
}

func TestLexerBasicTokens(t *testing.T) {
	src := `var x: Int = 1 + 2 * 3;`
	toks := scanAll(t, src)

	require.Equal(t, []Token{
		{Keyword, "var", 1, 1},
		{Identifier, "x", 1, 5},
		{Punct, ":", 1, 6},
		{Identifier, "Int", 1, 8},
		{Operator, "=", 1, 12},
		{IntLiteral, "1", 1, 14},
		{Operator, "+", 1, 16},
		{IntLiteral, "2", 1, 18},
		{Operator, "*", 1, 20},
		{IntLiteral, "3", 1, 22},
		{Punct, ";", 1, 23},
	}, toks)
}

func TestLexerKeywordsAndBooleans(t *testing.T) {
	toks := scanAll(t, `if true then false else not x`)
	kinds := make([]Kind, len(toks))
	texts := make([]string, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
		texts[i] = tok.Text
	}
	require.Equal(t, []Kind{Keyword, BoolLiteral, Keyword, BoolLiteral, Keyword, Keyword, Identifier}, kinds)
	require.Equal(t, []string{"if", "true", "then", "false", "else", "not", "x"}, texts)
}

func TestLexerMultiCharOperators(t *testing.T) {
	toks := scanAll(t, `a == b != c <= d >= e`)
	var ops []string
	for _, tok := range toks {
		if tok.Kind == Operator {
			ops = append(ops, tok.Text)
		}
	}
	require.Equal(t, []string{"==", "!=", "<=", ">="}, ops)
}

func TestLexerComments(t *testing.T) {
	toks := scanAll(t, "1 // a line comment\n+ /* a\nblock comment */ 2")
	require.Len(t, toks, 3)
	require.Equal(t, IntLiteral, toks[0].Kind)
	require.Equal(t, Operator, toks[1].Kind)
	require.Equal(t, IntLiteral, toks[2].Kind)
	require.Equal(t, 3, toks[2].Line)
}

func TestLexerUnrecognizedCharacter(t *testing.T) {
	lx := NewLexer(`1 @ 2`)
	require.Equal(t, IntLiteral, lx.Next().Kind)
	tok := lx.Next()
	require.Equal(t, tokenError, tok.Kind)
}

func TestLexerUnterminatedBlockComment(t *testing.T) {
	lx := NewLexer("1 /* never closed")
	require.Equal(t, IntLiteral, lx.Next().Kind)
	tok := lx.Next()
	require.Equal(t, tokenError, tok.Kind)
}

// TestLexerWhitespaceInvariant checks that two programs differing only in whitespace/comments
// produce equal token streams, ignoring locations.
func TestLexerWhitespaceInvariant(t *testing.T) {
	a := scanAll(t, "var x:Int=1+2;")
	b := scanAll(t, "var   x : Int  =  1 +   2 ; // trailing comment")
	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, a[i].Kind, b[i].Kind)
		require.Equal(t, a[i].Text, b[i].Text)
	}
}
