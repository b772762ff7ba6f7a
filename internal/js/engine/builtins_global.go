package engine

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/GriffinCanCode/cipherjs/internal/js/wtf8"
)

var errorNames = []string{"Error", "TypeError", "RangeError", "SyntaxError", "ReferenceError", "URIError", "EvalError"}

// setupGlobals builds the prototype tables and binds every builtin in the
// global frame.
func (it *Interpreter) setupGlobals() {
	it.objectProto = NewObject(nil)
	it.functionProto = NewObject(it.objectProto)
	it.arrayProto = NewObject(it.objectProto)
	it.stringProto = NewObject(it.objectProto)
	it.numberProto = NewObject(it.objectProto)
	it.booleanProto = NewObject(it.objectProto)
	it.regexpProto = NewObject(it.objectProto)
	it.dateProto = NewObject(it.objectProto)
	it.errorProtos = make(map[string]*Object, len(errorNames))

	g := it.global
	g.Declare("NaN", nan)
	g.Declare("Infinity", Number(math.Inf(1)))
	g.Declare("undefined", undefined)

	it.setupObject()
	it.setupFunction()
	it.setupArray()
	it.setupString()
	it.setupNumber()
	it.setupBoolean()
	it.setupRegExp()
	it.setupErrors()
	it.setupMath()
	it.setupJSON()
	it.setupDate()

	for name, fn := range map[string]NativeFunc{
		"parseInt":           builtinParseInt,
		"parseFloat":         builtinParseFloat,
		"isNaN":              builtinIsNaN,
		"isFinite":           builtinIsFinite,
		"encodeURIComponent": uriEncoder(uriUnreserved),
		"encodeURI":          uriEncoder(uriUnreserved + uriReserved),
		"decodeURIComponent": uriDecoder(""),
		"decodeURI":          uriDecoder(uriReserved),
		"escape":             builtinEscape,
		"unescape":           builtinUnescape,
	} {
		g.Declare(name, native(name, fn))
	}

	// globalThis is a snapshot of the builtins
	global := NewObject(it.objectProto)
	for name, v := range g.vars {
		global.Set(name, v)
	}
	global.Set("globalThis", global)
	g.Declare("globalThis", global)
}

// constructor binds a builtin constructor whose prototype property is proto.
func (it *Interpreter) constructor(name string, proto *Object, call, construct NativeFunc) *Function {
	f := &Function{Name: name, Native: call, Construct: construct}
	if proto != nil {
		f.Props().Set("prototype", proto)
		proto.Set("constructor", f)
	}
	it.global.Declare(name, f)
	return f
}

func (it *Interpreter) setupErrors() {
	base := NewObject(it.objectProto)
	for _, name := range errorNames {
		proto := base
		if name != "Error" {
			proto = NewObject(base)
		}
		proto.Class = ClassError
		proto.Set("name", String(name))
		proto.Set("message", String(""))
		it.errorProtos[name] = proto

		construct := func(it *Interpreter, _ Value, args []Value) (Value, error) {
			msg := ""
			if m := arg(args, 0); m != undefined {
				s, err := it.toString(m)
				if err != nil {
					return nil, err
				}
				msg = string(s)
			}
			return it.newError(name, msg), nil
		}
		it.constructor(name, proto, construct, construct)
	}
	method(base, "toString", func(it *Interpreter, this Value, _ []Value) (Value, error) {
		if isNullish(this) {
			return nil, it.throwError("TypeError", "Error.prototype.toString called on null or undefined")
		}
		name, err := it.getMember(this, "name")
		if err != nil {
			return nil, err
		}
		msg, err := it.getMember(this, "message")
		if err != nil {
			return nil, err
		}
		n, m := String("Error"), String("")
		if name != undefined {
			if n, err = it.toString(name); err != nil {
				return nil, err
			}
		}
		if msg != undefined {
			if m, err = it.toString(msg); err != nil {
				return nil, err
			}
		}
		switch {
		case m == "":
			return n, nil
		case n == "":
			return m, nil
		}
		return n + ": " + m, nil
	})
}

func builtinParseInt(it *Interpreter, _ Value, args []Value) (Value, error) {
	str, err := it.toString(arg(args, 0))
	if err != nil {
		return nil, err
	}
	radix := 0
	if r := arg(args, 1); r != undefined {
		n, err := it.toNumber(r)
		if err != nil {
			return nil, err
		}
		radix = int(ToInt32(n))
	}
	return Number(parseInt(string(str), radix)), nil
}

func parseInt(s string, radix int) float64 {
	s = trimSpace(s)
	sign := 1.0
	if s != "" && (s[0] == '-' || s[0] == '+') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	stripPrefix := true
	switch {
	case radix == 0:
		radix = 10
	case radix < 2 || radix > 36:
		return math.NaN()
	case radix != 16:
		stripPrefix = false
	}
	if stripPrefix && len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
		radix = 16
	}
	end := 0
	for end < len(s) {
		d := digitValue(s[end])
		if d < 0 || d >= radix {
			break
		}
		end++
	}
	if end == 0 {
		return math.NaN()
	}
	if radix == 10 {
		f, _ := strconv.ParseFloat(s[:end], 64)
		return sign * f
	}
	return sign * parseDigits(s[:end], radix)
}

func builtinParseFloat(it *Interpreter, _ Value, args []Value) (Value, error) {
	str, err := it.toString(arg(args, 0))
	if err != nil {
		return nil, err
	}
	return Number(parseFloatPrefix(trimSpace(string(str)))), nil
}

// parseFloatPrefix parses the longest prefix of s that is a decimal literal.
func parseFloatPrefix(s string) float64 {
	rest, sign := s, 1.0
	if rest != "" && (rest[0] == '-' || rest[0] == '+') {
		if rest[0] == '-' {
			sign = -1
		}
		rest = rest[1:]
	}
	if strings.HasPrefix(rest, "Infinity") {
		return sign * math.Inf(1)
	}
	best := math.NaN()
	for end := 1; end <= len(s); end++ {
		switch c := s[end-1]; {
		case isDigit(c), c == '.', c == 'e', c == 'E', c == '+', c == '-':
		default:
			return best
		}
		if isDecimalLiteral(s[:end]) {
			best, _ = strconv.ParseFloat(s[:end], 64)
		}
	}
	return best
}

func builtinIsNaN(it *Interpreter, _ Value, args []Value) (Value, error) {
	n, err := it.toNumber(arg(args, 0))
	if err != nil {
		return nil, err
	}
	return Bool(math.IsNaN(n)), nil
}

func builtinIsFinite(it *Interpreter, _ Value, args []Value) (Value, error) {
	n, err := it.toNumber(arg(args, 0))
	if err != nil {
		return nil, err
	}
	return Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
}

const (
	uriUnreserved = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_.!~*'()"
	uriReserved   = ";/?:@&=+$,#"
	hexUpper      = "0123456789ABCDEF"
)

func uriEncoder(keep string) NativeFunc {
	return func(it *Interpreter, _ Value, args []Value) (Value, error) {
		str, err := it.toString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		for _, r := range toRunes(string(str)) {
			if r < utf8.RuneSelf && strings.IndexByte(keep, byte(r)) >= 0 {
				b.WriteByte(byte(r))
				continue
			}
			if r >= 0xd800 && r < 0xe000 {
				return nil, it.throwError("URIError", "URI malformed")
			}
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], r)
			for _, c := range buf[:n] {
				b.WriteByte('%')
				b.WriteByte(hexUpper[c>>4])
				b.WriteByte(hexUpper[c&15])
			}
		}
		return String(b.String()), nil
	}
}

// uriDecoder decodes percent escapes, leaving escapes of the reserved set
// intact.
func uriDecoder(reserved string) NativeFunc {
	return func(it *Interpreter, _ Value, args []Value) (Value, error) {
		str, err := it.toString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		s := string(str)
		var b strings.Builder
		for i := 0; i < len(s); i++ {
			if s[i] != '%' {
				b.WriteByte(s[i])
				continue
			}
			start := i
			c, ok := hexByte(s, i+1)
			if !ok {
				return nil, it.throwError("URIError", "URI malformed")
			}
			i += 2
			if c < utf8.RuneSelf {
				if strings.IndexByte(reserved, c) >= 0 {
					b.WriteString(s[start : i+1])
				} else {
					b.WriteByte(c)
				}
				continue
			}
			seq := []byte{c}
			for len(seq) < seqLen(c) {
				if i+1 >= len(s) || s[i+1] != '%' {
					return nil, it.throwError("URIError", "URI malformed")
				}
				c2, ok := hexByte(s, i+2)
				if !ok {
					return nil, it.throwError("URIError", "URI malformed")
				}
				seq = append(seq, c2)
				i += 3
			}
			if !utf8.Valid(seq) {
				return nil, it.throwError("URIError", "URI malformed")
			}
			b.Write(seq)
		}
		return String(b.String()), nil
	}
}

func hexByte(s string, i int) (byte, bool) {
	if i+2 > len(s) {
		return 0, false
	}
	hi, lo := digitValue(s[i]), digitValue(s[i+1])
	if hi < 0 || hi > 15 || lo < 0 || lo > 15 {
		return 0, false
	}
	return byte(hi<<4 | lo), true
}

const escapeKeep = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789@*_+-./"

func builtinEscape(it *Interpreter, _ Value, args []Value) (Value, error) {
	str, err := it.toString(arg(args, 0))
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, u := range str.Units() {
		switch {
		case u < utf8.RuneSelf && strings.IndexByte(escapeKeep, byte(u)) >= 0:
			b.WriteByte(byte(u))
		case u < 256:
			b.WriteByte('%')
			b.WriteByte(hexUpper[u>>4])
			b.WriteByte(hexUpper[u&15])
		default:
			b.WriteString("%u")
			for shift := 12; shift >= 0; shift -= 4 {
				b.WriteByte(hexUpper[(u>>shift)&15])
			}
		}
	}
	return String(b.String()), nil
}

func builtinUnescape(it *Interpreter, _ Value, args []Value) (Value, error) {
	str, err := it.toString(arg(args, 0))
	if err != nil {
		return nil, err
	}
	units := str.Units()
	out := make([]uint16, 0, len(units))
	hex := func(i, n int) (uint16, bool) {
		if i+n > len(units) {
			return 0, false
		}
		var v uint16
		for _, u := range units[i : i+n] {
			if u >= utf8.RuneSelf {
				return 0, false
			}
			d := digitValue(byte(u))
			if d < 0 || d > 15 {
				return 0, false
			}
			v = v<<4 | uint16(d)
		}
		return v, true
	}
	for i := 0; i < len(units); i++ {
		if units[i] == '%' {
			if i+1 < len(units) && units[i+1] == 'u' {
				if v, ok := hex(i+2, 4); ok {
					out = append(out, v)
					i += 5
					continue
				}
			} else if v, ok := hex(i+1, 2); ok {
				out = append(out, v)
				i += 2
				continue
			}
		}
		out = append(out, units[i])
	}
	return String(wtf8.Encode(out)), nil
}
