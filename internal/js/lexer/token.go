package lexer

import "fmt"

// Kind classifies a token
type Kind int

const (
	EOF Kind = iota
	Number
	String
	Regex
	Identifier
	Keyword
	Punctuator
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case EOF:
		return "eof"
	case Number:
		return "number"
	case String:
		return "string"
	case Regex:
		return "regex"
	case Identifier:
		return "identifier"
	case Keyword:
		return "keyword"
	case Punctuator:
		return "punctuator"
	default:
		return "unknown"
	}
}

// Position locates a token in the source text
type Position struct {
	Offset int // byte offset
	Line   int // 1-based
	Column int // 1-based, in runes
}

// String returns line:column
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Pos returns p. Syntax nodes embed a Position and get their location from it.
func (p Position) Pos() Position {
	return p
}

// Token is a single lexical unit.
//
// Raw holds the source text of the token. For strings, Text is the decoded
// value; for regex literals Text is the pattern and Flags the flags; for
// numbers Num is the decoded value.
type Token struct {
	Kind  Kind
	Raw   string
	Text  string
	Num   float64
	Flags string
	Pos   Position

	// NewlineBefore is set when a line terminator separates this token from
	// the previous one. The parser uses it for semicolon insertion.
	NewlineBefore bool
}

// Is reports whether the token is the punctuator or keyword raw
func (t Token) Is(raw string) bool {
	return (t.Kind == Punctuator || t.Kind == Keyword) && t.Raw == raw
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "<eof>"
	case Punctuator:
		return fmt.Sprintf("<%s>", t.Raw)
	default:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Raw)
	}
}

var keywords = map[string]bool{
	"var":        true,
	"let":        true,
	"const":      true,
	"function":   true,
	"return":     true,
	"if":         true,
	"else":       true,
	"for":        true,
	"while":      true,
	"do":         true,
	"switch":     true,
	"case":       true,
	"default":    true,
	"break":      true,
	"continue":   true,
	"throw":      true,
	"try":        true,
	"catch":      true,
	"finally":    true,
	"new":        true,
	"typeof":     true,
	"void":       true,
	"delete":     true,
	"in":         true,
	"instanceof": true,
	"this":       true,
	"null":       true,
	"true":       true,
	"false":      true,
	"class":      true,
	"with":       true,
	"debugger":   true,
}

// IsKeyword reports whether ident is a reserved word
func IsKeyword(ident string) bool {
	return keywords[ident]
}

// punctuators sorted longest first so the scanner can take the maximal munch.
var punctuators = []string{
	">>>=",
	"...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>", "**",
	"{", "}", "(", ")", "[", "]", ";", ",", "<", ">", "+", "-", "*", "/",
	"%", "&", "|", "^", "!", "~", "?", ":", "=", ".",
}
