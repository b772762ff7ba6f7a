package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/GriffinCanCode/cipherjs/internal/js/wtf8"
)

var (
	ErrUnterminatedString  = errors.New("unterminated string literal")
	ErrUnterminatedRegex   = errors.New("unterminated regular expression literal")
	ErrUnterminatedComment = errors.New("unterminated comment")
	ErrUnexpectedChar      = errors.New("unexpected character")
	ErrInvalidNumber       = errors.New("invalid numeric literal")
	ErrInvalidEscape       = errors.New("invalid escape sequence")
)

// LexError reports a malformed token and where it starts
type LexError struct {
	Pos  Position
	Char rune
	Err  error
}

func (e *LexError) Error() string {
	if errors.Is(e.Err, ErrUnexpectedChar) {
		return fmt.Sprintf("%s: %v %q", e.Pos, e.Err, e.Char)
	}
	return fmt.Sprintf("%s: %v", e.Pos, e.Err)
}

func (e *LexError) Unwrap() error {
	return e.Err
}

const (
	lsquare   = '['
	rsquare   = ']'
	squote    = '\''
	dquote    = '"'
	backtick  = '`'
	backslash = '\\'
	slash     = '/'
	star      = '*'
	dot       = '.'
	nl        = '\n'
	cr        = '\r'
	dollar    = '$'
	under     = '_'
)

// Lexer scans JavaScript source into tokens
type Lexer struct {
	src  string
	pos  int
	line int
	col  int

	prev    *Token
	newline bool

	// open brackets, true for a block brace or a control statement head
	braces []bool
	parens []bool
	// prev closed a block or a control statement head
	closedStmt bool
}

// New creates a lexer over src
func New(src string) *Lexer {
	src = strings.TrimPrefix(src, "\ufeff")
	return &Lexer{
		src:  src,
		line: 1,
		col:  1,
	}
}

// Tokenize scans the whole source. The returned slice always ends with an
// EOF token.
func Tokenize(src string) ([]Token, error) {
	lx := New(src)
	var tokens []Token
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

// Next returns the next significant token
func (lx *Lexer) Next() (Token, error) {
	lx.newline = false
	if err := lx.skipBlank(); err != nil {
		return Token{}, err
	}

	tok := Token{
		Pos:           lx.position(),
		NewlineBefore: lx.newline,
	}
	if lx.done() {
		tok.Kind = EOF
		return tok, nil
	}

	var (
		c   = lx.peek()
		err error
	)
	switch {
	case c == squote || c == dquote:
		err = lx.scanString(&tok)
	case c == backtick:
		err = lx.fail(ErrUnexpectedChar, c)
	case isDigit(c) || (c == dot && isDigit(lx.peekAt(1))):
		err = lx.scanNumber(&tok)
	case isIdentStart(c):
		lx.scanIdent(&tok)
	case c == slash && lx.regexAllowed():
		err = lx.scanRegex(&tok)
	default:
		err = lx.scanPunct(&tok)
	}
	if err != nil {
		return Token{}, err
	}
	tok.Raw = lx.src[tok.Pos.Offset:lx.pos]
	lx.track(&tok)
	lx.prev = &tok
	return tok, nil
}

// track keeps the bracket stacks that tell a block from an object literal
// and a control statement head from a parenthesized expression.
func (lx *Lexer) track(tok *Token) {
	lx.closedStmt = false
	if tok.Kind != Punctuator {
		return
	}
	switch tok.Raw {
	case "{":
		lx.braces = append(lx.braces, lx.opensBlock())
	case "(":
		lx.parens = append(lx.parens, lx.prev != nil && lx.prev.Kind == Keyword &&
			(lx.prev.Raw == "if" || lx.prev.Raw == "while" || lx.prev.Raw == "for" || lx.prev.Raw == "with"))
	case "}":
		lx.closedStmt = pop(&lx.braces)
	case ")":
		lx.closedStmt = pop(&lx.parens)
	}
}

// opensBlock guesses from the previous token whether a brace starts a block
// rather than an object literal.
func (lx *Lexer) opensBlock() bool {
	if lx.prev == nil {
		return true
	}
	switch lx.prev.Kind {
	case Punctuator:
		switch lx.prev.Raw {
		case ";", "{", "}", ")", "=>":
			return true
		}
	case Keyword:
		switch lx.prev.Raw {
		case "else", "do", "try", "finally":
			return true
		}
	}
	return false
}

func pop(stack *[]bool) bool {
	n := len(*stack)
	if n == 0 {
		return false
	}
	v := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return v
}

// regexAllowed decides whether a slash starts a regular expression, based on
// the previous significant token. After a closing brace or parenthesis it
// depends on whether that bracket ended a statement part, as in
// "if (x) {} /re/.test(s)".
func (lx *Lexer) regexAllowed() bool {
	if lx.prev == nil {
		return true
	}
	switch lx.prev.Kind {
	case Punctuator:
		switch lx.prev.Raw {
		case ")", "}":
			return lx.closedStmt
		case "]", "++", "--":
			return false
		}
		return true
	case Keyword:
		switch lx.prev.Raw {
		case "this", "true", "false", "null":
			return false
		}
		return true
	default:
		return false
	}
}

func (lx *Lexer) skipBlank() error {
	for !lx.done() {
		c := lx.peek()
		switch {
		case c == nl || c == cr || c == '\u2028' || c == '\u2029':
			lx.newline = true
			lx.read()
		case isSpace(c):
			lx.read()
		case c == slash && lx.peekAt(1) == slash:
			for !lx.done() && !isNL(lx.peek()) {
				lx.read()
			}
		case c == slash && lx.peekAt(1) == star:
			start := lx.position()
			lx.read()
			lx.read()
			closed := false
			for !lx.done() {
				if lx.peek() == star && lx.peekAt(1) == slash {
					lx.read()
					lx.read()
					closed = true
					break
				}
				if isNL(lx.peek()) {
					lx.newline = true
				}
				lx.read()
			}
			if !closed {
				return &LexError{Pos: start, Err: ErrUnterminatedComment}
			}
		default:
			return nil
		}
	}
	return nil
}

func (lx *Lexer) scanString(tok *Token) error {
	quote := lx.read()
	var units []uint16
	for {
		if lx.done() || isNL(lx.peek()) {
			return &LexError{Pos: tok.Pos, Err: ErrUnterminatedString}
		}
		c := lx.read()
		if c == quote {
			break
		}
		if c != backslash {
			units = utf16.AppendRune(units, c)
			continue
		}
		if lx.done() {
			return &LexError{Pos: tok.Pos, Err: ErrUnterminatedString}
		}
		var err error
		if units, err = lx.scanEscape(units); err != nil {
			return err
		}
	}
	tok.Kind = String
	tok.Text = wtf8.Encode(units)
	return nil
}

func (lx *Lexer) scanEscape(units []uint16) ([]uint16, error) {
	c := lx.read()
	switch c {
	case 'n':
		return append(units, '\n'), nil
	case 't':
		return append(units, '\t'), nil
	case 'r':
		return append(units, '\r'), nil
	case 'b':
		return append(units, '\b'), nil
	case 'f':
		return append(units, '\f'), nil
	case 'v':
		return append(units, '\v'), nil
	case '0':
		if isDigit(lx.peek()) {
			return lx.scanLegacyOctal(units, c)
		}
		return append(units, 0), nil
	case '1', '2', '3', '4', '5', '6', '7':
		return lx.scanLegacyOctal(units, c)
	case cr:
		if lx.peek() == nl {
			lx.read()
		}
		return units, nil
	case nl, '\u2028', '\u2029':
		return units, nil
	case 'x':
		v, err := lx.scanHex(2)
		if err != nil {
			return nil, err
		}
		return append(units, uint16(v)), nil
	case 'u':
		if lx.peek() == '{' {
			lx.read()
			var v int64
			n := 0
			for !lx.done() && lx.peek() != '}' {
				d, ok := hexValue(lx.read())
				if !ok {
					return nil, lx.fail(ErrInvalidEscape, c)
				}
				v = v*16 + int64(d)
				n++
				if v > unicode.MaxRune {
					return nil, lx.fail(ErrInvalidEscape, c)
				}
			}
			if lx.done() || n == 0 {
				return nil, lx.fail(ErrInvalidEscape, c)
			}
			lx.read()
			return utf16.AppendRune(units, rune(v)), nil
		}
		v, err := lx.scanHex(4)
		if err != nil {
			return nil, err
		}
		return append(units, uint16(v)), nil
	default:
		return utf16.AppendRune(units, c), nil
	}
}

func (lx *Lexer) scanLegacyOctal(units []uint16, first rune) ([]uint16, error) {
	v := int(first - '0')
	for i := 0; i < 2 && lx.peek() >= '0' && lx.peek() <= '7'; i++ {
		next := v*8 + int(lx.peek()-'0')
		if next > 0xFF {
			break
		}
		v = next
		lx.read()
	}
	return append(units, uint16(v)), nil
}

func (lx *Lexer) scanHex(n int) (int, error) {
	v := 0
	for i := 0; i < n; i++ {
		if lx.done() {
			return 0, lx.fail(ErrInvalidEscape, 0)
		}
		c := lx.read()
		d, ok := hexValue(c)
		if !ok {
			return 0, lx.fail(ErrInvalidEscape, c)
		}
		v = v*16 + d
	}
	return v, nil
}

func (lx *Lexer) scanNumber(tok *Token) error {
	tok.Kind = Number
	start := lx.pos
	if lx.peek() == '0' {
		base := 0
		switch lx.peekAt(1) {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			lx.read()
			lx.read()
			digits := lx.pos
			for !lx.done() && (isHexDigit(lx.peek()) || lx.peek() == under) {
				lx.read()
			}
			v, err := parseInteger(lx.src[digits:lx.pos], base)
			if err != nil {
				return &LexError{Pos: tok.Pos, Err: ErrInvalidNumber}
			}
			tok.Num = v
			return lx.checkNumberEnd(tok)
		}
		if isDigit(lx.peekAt(1)) {
			for !lx.done() && isDigit(lx.peek()) {
				lx.read()
			}
			text := lx.src[start:lx.pos]
			if v, err := parseInteger(text[1:], 8); err == nil {
				tok.Num = v
				return lx.checkNumberEnd(tok)
			}
			if lx.peek() != dot && lx.peek() != 'e' && lx.peek() != 'E' {
				v, _ := strconv.ParseFloat(text, 64)
				tok.Num = v
				return lx.checkNumberEnd(tok)
			}
		}
	}
	lx.digits()
	if lx.peek() == dot {
		lx.read()
		lx.digits()
	}
	if c := lx.peek(); c == 'e' || c == 'E' {
		lx.read()
		if c := lx.peek(); c == '+' || c == '-' {
			lx.read()
		}
		if !isDigit(lx.peek()) {
			return &LexError{Pos: tok.Pos, Err: ErrInvalidNumber}
		}
		lx.digits()
	}
	text := strings.ReplaceAll(lx.src[start:lx.pos], "_", "")
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		var num *strconv.NumError
		if !errors.As(err, &num) || !errors.Is(num.Err, strconv.ErrRange) {
			return &LexError{Pos: tok.Pos, Err: ErrInvalidNumber}
		}
	}
	tok.Num = v
	return lx.checkNumberEnd(tok)
}

// checkNumberEnd rejects literals such as 3in or 1x.
func (lx *Lexer) checkNumberEnd(tok *Token) error {
	if c := lx.peek(); !lx.done() && (isIdentStart(c) || isDigit(c)) {
		return lx.fail(ErrUnexpectedChar, c)
	}
	return nil
}

func (lx *Lexer) digits() {
	for !lx.done() && (isDigit(lx.peek()) || lx.peek() == under) {
		lx.read()
	}
}

func (lx *Lexer) scanIdent(tok *Token) {
	start := lx.pos
	for !lx.done() && isIdentPart(lx.peek()) {
		lx.read()
	}
	tok.Text = lx.src[start:lx.pos]
	tok.Kind = Identifier
	if IsKeyword(tok.Text) {
		tok.Kind = Keyword
	}
}

func (lx *Lexer) scanRegex(tok *Token) error {
	lx.read()
	var (
		start = lx.pos
		class bool
	)
	for {
		if lx.done() || isNL(lx.peek()) {
			return &LexError{Pos: tok.Pos, Err: ErrUnterminatedRegex}
		}
		c := lx.read()
		switch {
		case c == backslash:
			if lx.done() || isNL(lx.peek()) {
				return &LexError{Pos: tok.Pos, Err: ErrUnterminatedRegex}
			}
			lx.read()
			continue
		case c == lsquare:
			class = true
		case c == rsquare:
			class = false
		case c == slash && !class:
			tok.Text = lx.src[start : lx.pos-1]
			flags := lx.pos
			for !lx.done() && isIdentPart(lx.peek()) {
				lx.read()
			}
			tok.Flags = lx.src[flags:lx.pos]
			tok.Kind = Regex
			return nil
		}
	}
}

func (lx *Lexer) scanPunct(tok *Token) error {
	rest := lx.src[lx.pos:]
	for _, p := range punctuators {
		if !strings.HasPrefix(rest, p) {
			continue
		}
		// a?.5:1 is a conditional, not optional chaining
		if p == "?." && len(rest) > 2 && isDigit(rune(rest[2])) {
			continue
		}
		for range p {
			lx.read()
		}
		tok.Kind = Punctuator
		return nil
	}
	return lx.fail(ErrUnexpectedChar, lx.peek())
}

func (lx *Lexer) fail(err error, c rune) error {
	return &LexError{Pos: lx.position(), Char: c, Err: err}
}

func (lx *Lexer) position() Position {
	return Position{Offset: lx.pos, Line: lx.line, Column: lx.col}
}

func (lx *Lexer) done() bool {
	return lx.pos >= len(lx.src)
}

func (lx *Lexer) peek() rune {
	return lx.peekAt(0)
}

// peekAt returns the rune n runes ahead, or utf8.RuneError past the end.
func (lx *Lexer) peekAt(n int) rune {
	off := lx.pos
	for i := 0; ; i++ {
		if off >= len(lx.src) {
			return utf8.RuneError
		}
		r, w := utf8.DecodeRuneInString(lx.src[off:])
		if i == n {
			return r
		}
		off += w
	}
}

func (lx *Lexer) read() rune {
	r, w := utf8.DecodeRuneInString(lx.src[lx.pos:])
	lx.pos += w
	if r == nl {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}
	return r
}

func parseInteger(digits string, base int) (float64, error) {
	digits = strings.ReplaceAll(digits, "_", "")
	if digits == "" {
		return 0, ErrInvalidNumber
	}
	var v float64
	for _, c := range digits {
		d, ok := hexValue(c)
		if !ok || d >= base {
			return 0, ErrInvalidNumber
		}
		v = v*float64(base) + float64(d)
	}
	return v, nil
}

func hexValue(c rune) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	default:
		return 0, false
	}
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c rune) bool {
	_, ok := hexValue(c)
	return ok
}

func isIdentStart(c rune) bool {
	return c == dollar || c == under || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c > utf8.RuneSelf && c != utf8.RuneError && unicode.IsLetter(c))
}

func isIdentPart(c rune) bool {
	return isIdentStart(c) || isDigit(c) || (c > utf8.RuneSelf && (unicode.IsDigit(c) || unicode.Is(unicode.Mn, c)))
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\v' || c == '\f' || c == '\u00a0' || c == '\ufeff' ||
		(c > utf8.RuneSelf && unicode.Is(unicode.Zs, c))
}

func isNL(c rune) bool {
	return c == nl || c == cr || c == '\u2028' || c == '\u2029'
}
