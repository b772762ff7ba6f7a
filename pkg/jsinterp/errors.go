package jsinterp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/GriffinCanCode/cipherjs/internal/js/engine"
	"github.com/GriffinCanCode/cipherjs/internal/js/lexer"
	"github.com/GriffinCanCode/cipherjs/internal/js/parser"
)

// Position is a location in source text
type Position = lexer.Position

// Error types wrapped by *Error, for use with errors.As
type (
	LexError         = lexer.LexError
	ParseError       = parser.ParseError
	InterpreterError = engine.InterpreterError
)

var (
	ErrUnterminatedString  = lexer.ErrUnterminatedString
	ErrUnterminatedRegex   = lexer.ErrUnterminatedRegex
	ErrUnterminatedComment = lexer.ErrUnterminatedComment
	ErrUnexpectedChar      = lexer.ErrUnexpectedChar
	ErrInvalidNumber       = lexer.ErrInvalidNumber
	ErrInvalidEscape       = lexer.ErrInvalidEscape

	ErrUnexpectedToken         = parser.ErrUnexpectedToken
	ErrUnexpectedEOF           = parser.ErrUnexpectedEOF
	ErrInvalidAssignmentTarget = parser.ErrInvalidAssignmentTarget
	ErrFunctionNotFound        = parser.ErrFunctionNotFound
	ErrObjectNotFound          = parser.ErrObjectNotFound
	ErrUnsupportedSyntax       = parser.ErrUnsupported

	ErrUndefinedIdentifier = engine.ErrUndefinedIdentifier
	ErrNotCallable         = engine.ErrNotCallable
	ErrPropertyOfNullish   = engine.ErrPropertyOfNullish
	ErrUnsupported         = engine.ErrUnsupported
	ErrRecursionLimit      = engine.ErrRecursionLimit
	ErrStepBudget          = engine.ErrStepBudget
	ErrCanceled            = engine.ErrCanceled
	ErrUncaught            = engine.ErrUncaught

	ErrUnsupportedValue = errors.New("unsupported host value")
	ErrPoolClosed       = errors.New("interpreter pool is closed")
	ErrAcquireTimeout   = errors.New("interpreter acquisition timeout")
)

// Error reports a failed operation. Err is the lexer, parser or
// interpreter error underneath.
type Error struct {
	Op   string // parse, extract, call, eval, convert
	Name string // function or object name, when there is one
	Pos  Position

	// Excerpt is the source line at Pos with a caret under the column
	Excerpt string

	// Thrown is the host form of the value of an uncaught exception
	Thrown any

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("jsinterp: ")
	b.WriteString(e.Op)
	if e.Name != "" {
		b.WriteByte(' ')
		b.WriteString(e.Name)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Pretty returns the message followed by the source excerpt
func (e *Error) Pretty() string {
	if e.Excerpt == "" {
		return e.Error()
	}
	return e.Error() + "\n" + e.Excerpt
}

// errorPos finds the source position carried by err
func errorPos(err error) (Position, bool) {
	var le *lexer.LexError
	if errors.As(err, &le) {
		return le.Pos, true
	}
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return pe.Pos, true
	}
	var ie *engine.InterpreterError
	if errors.As(err, &ie) && ie.Pos.Line > 0 {
		return ie.Pos, true
	}
	return Position{}, false
}

// excerptWidth is the number of runes shown on each side of the caret.
// Player scripts are often a single minified line.
const excerptWidth = 40

// excerpt renders the line of src at pos with a caret under the column.
func excerpt(src string, pos Position) string {
	if pos.Line < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if pos.Line > len(lines) {
		return ""
	}
	line := []rune(strings.TrimRight(lines[pos.Line-1], "\r"))
	col := max(pos.Column-1, 0)
	col = min(col, len(line))

	start, end := max(col-excerptWidth, 0), min(col+excerptWidth, len(line))
	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(line) {
		suffix = "..."
	}

	shown := string(line[start:end])
	var pad strings.Builder
	pad.WriteString(strings.Repeat(" ", utf8.RuneCountInString(prefix)))
	for _, r := range line[start:col] {
		if r == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}

	num := strconv.Itoa(pos.Line)
	gutter := strings.Repeat(" ", len(num))
	return fmt.Sprintf("%s | %s%s%s\n%s | %s^", num, prefix, shown, suffix, gutter, pad.String())
}
