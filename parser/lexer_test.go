package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestLexer_LineNumberOnlyAtLineStart(t *testing.T) {
	l := NewLexer("10 LET X% = 5 + 10\n", "t.bas")
	toks := l.TokenizeAll()

	require.GreaterOrEqual(t, len(toks), 2)
	assert.Equal(t, TokenLineNum, toks[0].Type)
	assert.Equal(t, int64(10), toks[0].IntVal)

	// The second "10" appears mid-expression and must lex as an ordinary
	// integer literal, not another line number.
	var sawMidExprTen bool
	for _, tok := range toks {
		if tok.Type == TokenIntLit && tok.IntVal == 10 {
			sawMidExprTen = true
		}
	}
	assert.True(t, sawMidExprTen, "mid-expression 10 should lex as TokenIntLit")
}

func TestLexer_StringLiteralWithEmbeddedQuote(t *testing.T) {
	l := NewLexer(`"say ""hi"" now"`, "t.bas")
	tok := l.NextToken()

	require.Equal(t, TokenStrLit, tok.Type)
	assert.Equal(t, `say "hi" now`, tok.Literal)
}

func TestLexer_UnterminatedStringIsLexError(t *testing.T) {
	l := NewLexer(`"unterminated`, "t.bas")
	l.NextToken()

	assert.True(t, l.Errors().HasErrors())
}

func TestLexer_HexAndOctalLiterals(t *testing.T) {
	l := NewLexer("&HFF &O17", "t.bas")
	hex := l.NextToken()
	l.skipWhitespace()
	oct := l.NextToken()

	assert.Equal(t, TokenIntLit, hex.Type)
	assert.Equal(t, int64(255), hex.IntVal)
	assert.Equal(t, TokenIntLit, oct.Type)
	assert.Equal(t, int64(15), oct.IntVal)
}

func TestLexer_NumericSuffixesDeclareType(t *testing.T) {
	cases := []struct {
		src      string
		wantType Type
	}{
		{"3.14#", TypeDouble},
		{"3.14!", TypeSingle},
		{"42%", TypeInteger},
		{"42&", TypeLong},
	}
	for _, c := range cases {
		l := NewLexer(c.src, "t.bas")
		tok := l.NextToken()
		require.True(t, tok.HasDeclared, "literal %q should carry a declared type", c.src)
		assert.Equal(t, c.wantType, tok.DeclaredType, "literal %q", c.src)
	}
}

func TestLexer_ExponentDLetterForcesDouble(t *testing.T) {
	l := NewLexer("1.5D10", "t.bas")
	tok := l.NextToken()

	require.Equal(t, TokenFloatLit, tok.Type)
	assert.Equal(t, TypeDouble, tok.DeclaredType)
	assert.InDelta(t, 1.5e10, tok.FloatVal, 1)
}

func TestLexer_IdentifierSuffixIsPartOfLiteral(t *testing.T) {
	l := NewLexer("Name$", "t.bas")
	tok := l.NextToken()

	require.Equal(t, TokenIdent, tok.Type)
	assert.Equal(t, "Name$", tok.Literal)
}

func TestLexer_RemAndApostropheCommentsRunToEndOfLine(t *testing.T) {
	l := NewLexer("REM this is ignored\nX% = 1 ' trailing comment\n", "t.bas")
	toks := l.TokenizeAll()

	// First real token should be the newline after REM, then the statement.
	types := tokenTypes(toks)
	assert.Contains(t, types, TokenIdent)
	assert.NotContains(t, toks[0].Literal, "this")
}

func TestLexer_TwoCharOperators(t *testing.T) {
	l := NewLexer("<> <= >=", "t.bas")
	ne := l.NextToken()
	l.skipWhitespace()
	le := l.NextToken()
	l.skipWhitespace()
	ge := l.NextToken()

	assert.Equal(t, TokenNe, ne.Type)
	assert.Equal(t, TokenLe, le.Type)
	assert.Equal(t, TokenGe, ge.Type)
}
