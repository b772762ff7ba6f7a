package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/GriffinCanCode/cipherjs/internal/js/lexer"
)

func (it *Interpreter) setupJSON() {
	j := NewObject(it.objectProto)
	j.Class = "JSON"
	method(j, "parse", builtinJSONParse)
	method(j, "stringify", builtinJSONStringify)
	it.global.Declare("JSON", j)
}

func builtinJSONParse(it *Interpreter, _ Value, args []Value) (Value, error) {
	text, err := it.toString(arg(args, 0))
	if err != nil {
		return nil, err
	}
	toks, err := lexer.Tokenize(string(text))
	if err != nil {
		return nil, it.throwError("SyntaxError", "JSON.parse: "+err.Error())
	}
	p := &jsonParser{it: it, toks: toks}
	v, err := p.value()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != lexer.EOF {
		return nil, p.unexpected()
	}
	reviver, ok := arg(args, 1).(*Function)
	if !ok {
		return v, nil
	}
	root := NewObject(it.objectProto)
	root.Set("", v)
	return it.revive(reviver, root, "")
}

// jsonParser reads JSON text from JavaScript tokens, rejecting the
// JavaScript-only forms.
type jsonParser struct {
	it   *Interpreter
	toks []lexer.Token
	pos  int
}

func (p *jsonParser) peek() lexer.Token {
	return p.toks[p.pos]
}

func (p *jsonParser) next() lexer.Token {
	tok := p.toks[p.pos]
	if tok.Kind != lexer.EOF {
		p.pos++
	}
	return tok
}

func (p *jsonParser) unexpected() error {
	tok := p.peek()
	if tok.Kind == lexer.EOF {
		return p.it.throwError("SyntaxError", "Unexpected end of JSON input")
	}
	return p.it.throwError("SyntaxError", "Unexpected token "+tok.Raw+" in JSON at position "+strconv.Itoa(tok.Pos.Offset))
}

func (p *jsonParser) value() (Value, error) {
	tok := p.next()
	switch {
	case tok.Kind == lexer.String && tok.Raw[0] == '"':
		return String(tok.Text), nil
	case tok.Kind == lexer.Number && jsonNumber(tok.Raw):
		return Number(tok.Num), nil
	case tok.Is("-"):
		num := p.next()
		if num.Kind != lexer.Number || !jsonNumber(num.Raw) || num.Pos.Offset != tok.Pos.Offset+1 {
			p.pos--
			return nil, p.unexpected()
		}
		return Number(-num.Num), nil
	case tok.Raw == "true" || tok.Raw == "false":
		return Bool(tok.Raw == "true"), nil
	case tok.Raw == "null":
		return null, nil
	case tok.Is("["):
		return p.array()
	case tok.Is("{"):
		return p.object()
	}
	p.pos--
	return nil, p.unexpected()
}

func (p *jsonParser) array() (Value, error) {
	arr := NewArray()
	if p.peek().Is("]") {
		p.next()
		return arr, nil
	}
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, v)
		switch tok := p.next(); {
		case tok.Is(","):
		case tok.Is("]"):
			return arr, nil
		default:
			p.pos--
			return nil, p.unexpected()
		}
	}
}

func (p *jsonParser) object() (Value, error) {
	obj := NewObject(p.it.objectProto)
	if p.peek().Is("}") {
		p.next()
		return obj, nil
	}
	for {
		key := p.next()
		if key.Kind != lexer.String || key.Raw[0] != '"' {
			p.pos--
			return nil, p.unexpected()
		}
		if !p.next().Is(":") {
			p.pos--
			return nil, p.unexpected()
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		obj.Set(key.Text, v)
		switch tok := p.next(); {
		case tok.Is(","):
		case tok.Is("}"):
			return obj, nil
		default:
			p.pos--
			return nil, p.unexpected()
		}
	}
}

// jsonNumber reports whether raw is in the JSON number grammar.
func jsonNumber(raw string) bool {
	if raw == "" || raw[0] == '.' || strings.ContainsAny(raw, "xXoObB_") {
		return false
	}
	if len(raw) > 1 && raw[0] == '0' && isDigit(raw[1]) {
		return false
	}
	return !strings.HasSuffix(raw, ".") && !strings.Contains(raw, ".e") && !strings.Contains(raw, ".E")
}

func (it *Interpreter) revive(reviver *Function, holder Value, key string) (Value, error) {
	v, err := it.getMember(holder, key)
	if err != nil {
		return nil, err
	}
	switch o := v.(type) {
	case *Array:
		for i := range o.Elems {
			nv, err := it.revive(reviver, o, strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			o.Elems[i] = nv
		}
	case *Object:
		for _, k := range o.Keys() {
			nv, err := it.revive(reviver, o, k)
			if err != nil {
				return nil, err
			}
			if nv == undefined {
				o.Delete(k)
			} else {
				o.Set(k, nv)
			}
		}
	}
	return it.callFunction(reviver, holder, []Value{String(key), v})
}

func builtinJSONStringify(it *Interpreter, _ Value, args []Value) (Value, error) {
	s := &jsonWriter{it: it, seen: make(map[Value]bool)}
	switch r := arg(args, 1).(type) {
	case *Function:
		s.replacer = r
	case *Array:
		s.allow = make(map[string]bool)
		for _, v := range r.Elems {
			switch v.(type) {
			case String, Number:
				k, err := it.toString(v)
				if err != nil {
					return nil, err
				}
				s.allow[string(k)] = true
			}
		}
	}
	switch sp := arg(args, 2).(type) {
	case Number:
		s.indent = strings.Repeat(" ", clampIndex(float64(sp), 10))
	case String:
		s.indent = string(sp)
		if len(s.indent) > 10 {
			s.indent = s.indent[:10]
		}
	}

	holder := NewObject(it.objectProto)
	holder.Set("", arg(args, 0))
	var b strings.Builder
	ok, err := s.write(&b, holder, "", arg(args, 0), "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return undefined, nil
	}
	return String(b.String()), nil
}

type jsonWriter struct {
	it       *Interpreter
	replacer *Function
	allow    map[string]bool
	indent   string
	seen     map[Value]bool
}

// write serializes v, reporting false when v has no JSON representation.
func (s *jsonWriter) write(b *strings.Builder, holder Value, key string, v Value, prefix string) (bool, error) {
	it := s.it
	if isObjectLike(v) {
		if m, err := it.getMember(v, "toJSON"); err != nil {
			return false, err
		} else if fn, ok := m.(*Function); ok {
			if v, err = it.callFunction(fn, v, []Value{String(key)}); err != nil {
				return false, err
			}
		}
	}
	if s.replacer != nil {
		var err error
		if v, err = it.callFunction(s.replacer, holder, []Value{String(key), v}); err != nil {
			return false, err
		}
	}

	switch v := v.(type) {
	case Null:
		b.WriteString("null")
	case Bool:
		b.WriteString(strconv.FormatBool(bool(v)))
	case Number:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			b.WriteString("null")
		} else {
			b.WriteString(FormatNumber(float64(v)))
		}
	case String:
		quoteJSON(b, v)
	case *Array:
		return true, s.writeArray(b, v, prefix)
	case *Object:
		return true, s.writeObject(b, v, prefix)
	case *RegExp:
		b.WriteString("{}")
	default:
		return false, nil
	}
	return true, nil
}

func (s *jsonWriter) enter(v Value) error {
	if s.seen[v] {
		return s.it.throwError("TypeError", "Converting circular structure to JSON")
	}
	s.seen[v] = true
	return nil
}

func (s *jsonWriter) writeArray(b *strings.Builder, a *Array, prefix string) error {
	if err := s.enter(a); err != nil {
		return err
	}
	defer delete(s.seen, a)
	if len(a.Elems) == 0 {
		b.WriteString("[]")
		return nil
	}
	inner := prefix + s.indent
	b.WriteByte('[')
	for i := range a.Elems {
		if i > 0 {
			b.WriteByte(',')
		}
		s.newline(b, inner)
		ok, err := s.write(b, a, strconv.Itoa(i), a.At(i), inner)
		if err != nil {
			return err
		}
		if !ok {
			b.WriteString("null")
		}
	}
	s.newline(b, prefix)
	b.WriteByte(']')
	return nil
}

func (s *jsonWriter) writeObject(b *strings.Builder, o *Object, prefix string) error {
	if err := s.enter(o); err != nil {
		return err
	}
	defer delete(s.seen, o)
	inner := prefix + s.indent
	b.WriteByte('{')
	n := 0
	for _, k := range o.Keys() {
		if s.allow != nil && !s.allow[k] {
			continue
		}
		v, _ := o.Own(k)
		var part strings.Builder
		ok, err := s.write(&part, o, k, v, inner)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if n > 0 {
			b.WriteByte(',')
		}
		s.newline(b, inner)
		quoteJSON(b, String(k))
		b.WriteByte(':')
		if s.indent != "" {
			b.WriteByte(' ')
		}
		b.WriteString(part.String())
		n++
	}
	if n > 0 {
		s.newline(b, prefix)
	}
	b.WriteByte('}')
	return nil
}

func (s *jsonWriter) newline(b *strings.Builder, prefix string) {
	if s.indent == "" {
		return
	}
	b.WriteByte('\n')
	b.WriteString(prefix)
}

// quoteJSON writes s as a JSON string literal. Lone surrogates are escaped.
func quoteJSON(b *strings.Builder, s String) {
	units := s.Units()
	b.WriteByte('"')
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case u == '"':
			b.WriteString(`\"`)
		case u == '\\':
			b.WriteString(`\\`)
		case u == '\b':
			b.WriteString(`\b`)
		case u == '\f':
			b.WriteString(`\f`)
		case u == '\n':
			b.WriteString(`\n`)
		case u == '\r':
			b.WriteString(`\r`)
		case u == '\t':
			b.WriteString(`\t`)
		case u < 0x20:
			b.WriteString(`\u00`)
			b.WriteByte(hexLower[u>>4])
			b.WriteByte(hexLower[u&15])
		case u >= 0xd800 && u < 0xdc00 && i+1 < len(units) && units[i+1] >= 0xdc00 && units[i+1] < 0xe000:
			b.WriteString(string(stringFromUnits(units[i : i+2])))
			i++
		case u >= 0xd800 && u < 0xe000:
			b.WriteString(`\u`)
			for shift := 12; shift >= 0; shift -= 4 {
				b.WriteByte(hexLower[(u>>shift)&15])
			}
		default:
			b.WriteString(string(stringFromUnits(units[i : i+1])))
		}
	}
	b.WriteByte('"')
}

const hexLower = "0123456789abcdef"
