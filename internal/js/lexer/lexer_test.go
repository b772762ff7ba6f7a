package lexer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/cipherjs/internal/js/wtf8"
)

func kinds(tokens []Token) []Kind {
	out := make([]Kind, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Kind)
	}
	return out
}

func raws(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t.Kind != EOF {
			out = append(out, t.Raw)
		}
	}
	return out
}

func TestTokenizeBasic(t *testing.T) {
	tokens, err := Tokenize(`var a = b.split("");`)
	require.NoError(t, err)
	assert.Equal(t, []string{"var", "a", "=", "b", ".", "split", "(", `""`, ")", ";"}, raws(tokens))
	assert.Equal(t, []Kind{Keyword, Identifier, Punctuator, Identifier, Punctuator, Identifier,
		Punctuator, String, Punctuator, Punctuator, EOF}, kinds(tokens))
}

func TestTokenizeNumbers(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"0", 0},
		{"42", 42},
		{"3.25", 3.25},
		{".5", 0.5},
		{"1e3", 1000},
		{"2.5E-1", 0.25},
		{"0x1F", 31},
		{"0XfF", 255},
		{"0o17", 15},
		{"0b101", 5},
		{"017", 15},
		{"019", 19},
		{"1_000", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tokens, err := Tokenize(tt.src)
			require.NoError(t, err)
			require.Len(t, tokens, 2)
			assert.Equal(t, Number, tokens[0].Kind)
			assert.Equal(t, tt.want, tokens[0].Num)
		})
	}
}

func TestTokenizeHugeNumber(t *testing.T) {
	tokens, err := Tokenize("1e400")
	require.NoError(t, err)
	assert.True(t, math.IsInf(tokens[0].Num, 1))
}

func TestTokenizeStrings(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "double", src: `"abc"`, want: "abc"},
		{name: "single", src: `'a"b'`, want: `a"b`},
		{name: "escaped quote", src: `"a\"b"`, want: `a"b`},
		{name: "backslash", src: `"a\\b"`, want: `a\b`},
		{name: "control", src: `"\n\t\r\b\f\v"`, want: "\n\t\r\b\f\v"},
		{name: "nul", src: `"\0"`, want: "\x00"},
		{name: "hex", src: `"\x41"`, want: "A"},
		{name: "unicode", src: `"\u00e9"`, want: "é"},
		{name: "code point", src: `"\u{1F600}"`, want: "😀"},
		{name: "pair", src: `"😀"`, want: "😀"},
		{name: "legacy octal", src: `"\101"`, want: "A"},
		{name: "identity", src: `"\q"`, want: "q"},
		{name: "continuation", src: "\"a\\\nb\"", want: "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.src)
			require.NoError(t, err)
			assert.Equal(t, String, tokens[0].Kind)
			assert.Equal(t, tt.want, tokens[0].Text)
		})
	}
}

func TestTokenizeLoneSurrogate(t *testing.T) {
	tokens, err := Tokenize(`"\uD83D"`)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0xD83D}, wtf8.Decode(tokens[0].Text))
}

func TestRegexOrDivide(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		regex bool
	}{
		{name: "start of input", src: `/a/g`, regex: true},
		{name: "after paren", src: `x.split(/a/)`, regex: true},
		{name: "after comma", src: `f(a, /b/)`, regex: true},
		{name: "after assign", src: `a = /b/`, regex: true},
		{name: "after return", src: `return /b/`, regex: true},
		{name: "after identifier", src: `a / b / c`, regex: false},
		{name: "after number", src: `4 / 2`, regex: false},
		{name: "after close paren", src: `(a) / 2`, regex: false},
		{name: "after close bracket", src: `a[0] / 2`, regex: false},
		{name: "after this", src: `this / 2`, regex: false},
		{name: "after block", src: `if (x) {} /re/.test(s)`, regex: true},
		{name: "after if head", src: `if (x) /re/.test(s)`, regex: true},
		{name: "after nested if head", src: `while (f(a)) /b/.exec(s)`, regex: true},
		{name: "after call", src: `f(a) / 2`, regex: false},
		{name: "after object literal", src: `x = {a: {}} / 2`, regex: false},
		{name: "after else block", src: `if (a) {} else {} /b/g`, regex: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.src)
			require.NoError(t, err)
			found := false
			for _, tok := range tokens {
				if tok.Kind == Regex {
					found = true
				}
			}
			assert.Equal(t, tt.regex, found)
		})
	}
}

func TestRegexLiteral(t *testing.T) {
	tokens, err := Tokenize(`a.replace(/[/\]]+\//gi, "")`)
	require.NoError(t, err)
	var re Token
	for _, tok := range tokens {
		if tok.Kind == Regex {
			re = tok
		}
	}
	assert.Equal(t, `[/\]]+\/`, re.Text)
	assert.Equal(t, "gi", re.Flags)
}

func TestNewlineBefore(t *testing.T) {
	tokens, err := Tokenize("a\nb /* x\n */ c // d\ne")
	require.NoError(t, err)
	require.Len(t, tokens, 5)
	assert.False(t, tokens[0].NewlineBefore)
	assert.True(t, tokens[1].NewlineBefore)
	assert.True(t, tokens[2].NewlineBefore)
	assert.True(t, tokens[3].NewlineBefore)
	assert.Equal(t, 4, tokens[3].Pos.Line)
}

func TestPunctuatorsMaximalMunch(t *testing.T) {
	tokens, err := Tokenize(`a>>>=b===c!==d**e??f?.g`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", ">>>=", "b", "===", "c", "!==", "d", "**", "e", "??", "f", "?.", "g"}, raws(tokens))
}

func TestOptionalChainBeforeDigit(t *testing.T) {
	tokens, err := Tokenize(`a?.5:1`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "?", ".5", ":", "1"}, raws(tokens))
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{name: "unterminated string", src: `"abc`, want: ErrUnterminatedString},
		{name: "newline in string", src: "'ab\ncd'", want: ErrUnterminatedString},
		{name: "unterminated regex", src: `x = /abc`, want: ErrUnterminatedRegex},
		{name: "unterminated comment", src: `a /* b`, want: ErrUnterminatedComment},
		{name: "unexpected char", src: `a # b`, want: ErrUnexpectedChar},
		{name: "template literal", src: "`x`", want: ErrUnexpectedChar},
		{name: "identifier after number", src: `3in x`, want: ErrUnexpectedChar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.src)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			var lexErr *LexError
			assert.ErrorAs(t, err, &lexErr)
		})
	}
}

func TestErrorPosition(t *testing.T) {
	_, err := Tokenize("a = 1;\nb = @")
	var lexErr *LexError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 2, lexErr.Pos.Line)
	assert.Equal(t, 5, lexErr.Pos.Column)
	assert.Contains(t, err.Error(), "2:5")
}
