package engine

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/GriffinCanCode/cipherjs/internal/js/wtf8"
)

func (it *Interpreter) setupString() {
	p := it.stringProto
	ctor := it.constructor("String", p, stringCall, stringCall)

	statics := ctor.Props()
	method(statics, "fromCharCode", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		units := make([]uint16, len(args))
		for i, a := range args {
			n, err := it.toNumber(a)
			if err != nil {
				return nil, err
			}
			units[i] = uint16(ToUint32(n))
		}
		return stringFromUnits(units), nil
	})
	method(statics, "fromCodePoint", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		var units []uint16
		for _, a := range args {
			n, err := it.toNumber(a)
			if err != nil {
				return nil, err
			}
			if n != math.Trunc(n) || n < 0 || n > 0x10ffff {
				return nil, it.throwError("RangeError", "Invalid code point "+FormatNumber(n))
			}
			r := rune(n)
			if r >= 0x10000 {
				hi, lo := utf16.EncodeRune(r)
				units = append(units, uint16(hi), uint16(lo))
			} else {
				units = append(units, uint16(r))
			}
		}
		return stringFromUnits(units), nil
	})

	str := func(name string, fn func(it *Interpreter, s String, args []Value) (Value, error)) {
		method(p, name, func(it *Interpreter, this Value, args []Value) (Value, error) {
			if isNullish(this) {
				return nil, it.throwError("TypeError", "String.prototype."+name+" called on null or undefined")
			}
			s, err := it.toString(this)
			if err != nil {
				return nil, err
			}
			return fn(it, s, args)
		})
	}

	str("toString", func(_ *Interpreter, s String, _ []Value) (Value, error) { return s, nil })
	str("valueOf", func(_ *Interpreter, s String, _ []Value) (Value, error) { return s, nil })
	str("charAt", func(it *Interpreter, s String, args []Value) (Value, error) {
		i, err := it.intArg(args, 0)
		if err != nil {
			return nil, err
		}
		if i < 0 || i >= float64(s.Len()) {
			return String(""), nil
		}
		if c, ok := charAt(s, int(i)).(String); ok {
			return c, nil
		}
		return String(""), nil
	})
	str("charCodeAt", func(it *Interpreter, s String, args []Value) (Value, error) {
		i, err := it.intArg(args, 0)
		if err != nil {
			return nil, err
		}
		units := s.Units()
		if i < 0 || i >= float64(len(units)) {
			return nan, nil
		}
		return Number(units[int(i)]), nil
	})
	str("codePointAt", func(it *Interpreter, s String, args []Value) (Value, error) {
		i, err := it.intArg(args, 0)
		if err != nil {
			return nil, err
		}
		units := s.Units()
		if i < 0 || i >= float64(len(units)) {
			return undefined, nil
		}
		u := units[int(i)]
		if utf16.IsSurrogate(rune(u)) && int(i)+1 < len(units) {
			if r := utf16.DecodeRune(rune(u), rune(units[int(i)+1])); r != unicode.ReplacementChar {
				return Number(r), nil
			}
		}
		return Number(u), nil
	})
	str("at", func(it *Interpreter, s String, args []Value) (Value, error) {
		i, err := it.intArg(args, 0)
		if err != nil {
			return nil, err
		}
		if i < 0 {
			i += float64(s.Len())
		}
		if i < 0 || i >= float64(s.Len()) {
			return undefined, nil
		}
		return charAt(s, int(i)), nil
	})
	str("slice", func(it *Interpreter, s String, args []Value) (Value, error) {
		sb := newSubject(s)
		start, end, err := it.sliceRange(args, sb.Len())
		if err != nil {
			return nil, err
		}
		return sb.slice(start, end), nil
	})
	str("substring", func(it *Interpreter, s String, args []Value) (Value, error) {
		sb := newSubject(s)
		n := sb.Len()
		start, end := 0, n
		if v := arg(args, 0); v != undefined {
			f, err := it.toNumber(v)
			if err != nil {
				return nil, err
			}
			start = clampIndex(f, n)
		}
		if v := arg(args, 1); v != undefined {
			f, err := it.toNumber(v)
			if err != nil {
				return nil, err
			}
			end = clampIndex(f, n)
		}
		if start > end {
			start, end = end, start
		}
		return sb.slice(start, end), nil
	})
	str("substr", func(it *Interpreter, s String, args []Value) (Value, error) {
		sb := newSubject(s)
		n := sb.Len()
		start, err := it.fromIndex(args, 0, n, 0)
		if err != nil {
			return nil, err
		}
		count := n - start
		if v := arg(args, 1); v != undefined {
			f, err := it.toNumber(v)
			if err != nil {
				return nil, err
			}
			count = clampIndex(f, n-start)
		}
		return sb.slice(start, start+count), nil
	})
	str("indexOf", func(it *Interpreter, s String, args []Value) (Value, error) {
		needle, err := it.toString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		hay := s.Units()
		from, err := it.intArg(args, 1)
		if err != nil {
			return nil, err
		}
		return Number(indexUnits(hay, needle.Units(), clampIndex(from, len(hay)))), nil
	})
	str("lastIndexOf", func(it *Interpreter, s String, args []Value) (Value, error) {
		needle, err := it.toString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		hay, pat := s.Units(), needle.Units()
		from := len(hay)
		if v := arg(args, 1); v != undefined {
			f, err := it.toNumber(v)
			if err != nil {
				return nil, err
			}
			if !math.IsNaN(f) {
				from = clampIndex(f, len(hay))
			}
		}
		for i := min(from, len(hay)-len(pat)); i >= 0; i-- {
			if unitsEqual(hay[i:i+len(pat)], pat) {
				return Number(i), nil
			}
		}
		return Number(-1), nil
	})
	str("includes", func(it *Interpreter, s String, args []Value) (Value, error) {
		if _, ok := arg(args, 0).(*RegExp); ok {
			return nil, it.throwError("TypeError", "First argument to String.prototype.includes must not be a regular expression")
		}
		needle, err := it.toString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		from, err := it.intArg(args, 1)
		if err != nil {
			return nil, err
		}
		hay := s.Units()
		return Bool(indexUnits(hay, needle.Units(), clampIndex(from, len(hay))) >= 0), nil
	})
	str("startsWith", func(it *Interpreter, s String, args []Value) (Value, error) {
		needle, err := it.toString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		hay := s.Units()
		from, err := it.intArg(args, 1)
		if err != nil {
			return nil, err
		}
		start, pat := clampIndex(from, len(hay)), needle.Units()
		return Bool(start+len(pat) <= len(hay) && unitsEqual(hay[start:start+len(pat)], pat)), nil
	})
	str("endsWith", func(it *Interpreter, s String, args []Value) (Value, error) {
		needle, err := it.toString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		hay, pat := s.Units(), needle.Units()
		end := len(hay)
		if v := arg(args, 1); v != undefined {
			f, err := it.toNumber(v)
			if err != nil {
				return nil, err
			}
			end = clampIndex(f, len(hay))
		}
		start := end - len(pat)
		return Bool(start >= 0 && unitsEqual(hay[start:end], pat)), nil
	})
	str("toLowerCase", func(_ *Interpreter, s String, _ []Value) (Value, error) {
		return mapRunes(s, strings.ToLower), nil
	})
	str("toUpperCase", func(_ *Interpreter, s String, _ []Value) (Value, error) {
		return mapRunes(s, strings.ToUpper), nil
	})
	str("toLocaleLowerCase", func(_ *Interpreter, s String, _ []Value) (Value, error) {
		return mapRunes(s, strings.ToLower), nil
	})
	str("toLocaleUpperCase", func(_ *Interpreter, s String, _ []Value) (Value, error) {
		return mapRunes(s, strings.ToUpper), nil
	})
	str("trim", func(_ *Interpreter, s String, _ []Value) (Value, error) {
		return String(strings.TrimFunc(string(s), isJSSpace)), nil
	})
	str("trimStart", func(_ *Interpreter, s String, _ []Value) (Value, error) {
		return String(strings.TrimLeftFunc(string(s), isJSSpace)), nil
	})
	str("trimEnd", func(_ *Interpreter, s String, _ []Value) (Value, error) {
		return String(strings.TrimRightFunc(string(s), isJSSpace)), nil
	})
	str("padStart", func(it *Interpreter, s String, args []Value) (Value, error) {
		return it.pad(s, args, true)
	})
	str("padEnd", func(it *Interpreter, s String, args []Value) (Value, error) {
		return it.pad(s, args, false)
	})
	str("repeat", func(it *Interpreter, s String, args []Value) (Value, error) {
		n, err := it.intArg(args, 0)
		if err != nil {
			return nil, err
		}
		if n < 0 || math.IsInf(n, 0) || n*float64(len(s)) > 1<<28 {
			return nil, it.throwError("RangeError", "Invalid count value: "+FormatNumber(n))
		}
		return String(strings.Repeat(string(s), int(n))), nil
	})
	str("concat", func(it *Interpreter, s String, args []Value) (Value, error) {
		var b strings.Builder
		b.WriteString(string(s))
		for _, a := range args {
			part, err := it.toString(a)
			if err != nil {
				return nil, err
			}
			b.WriteString(string(part))
		}
		return String(b.String()), nil
	})
	str("split", func(it *Interpreter, s String, args []Value) (Value, error) {
		limit := uint32(math.MaxUint32)
		if v := arg(args, 1); v != undefined {
			n, err := it.toNumber(v)
			if err != nil {
				return nil, err
			}
			limit = ToUint32(n)
		}
		switch sep := arg(args, 0).(type) {
		case *RegExp:
			return it.splitRegExp(s, sep, limit)
		case Undefined:
			if limit == 0 {
				return NewArray(), nil
			}
			return NewArray(s), nil
		default:
			sepStr, err := it.toString(sep)
			if err != nil {
				return nil, err
			}
			return splitString(s, sepStr, limit), nil
		}
	})
	str("replace", func(it *Interpreter, s String, args []Value) (Value, error) {
		return it.replace(s, arg(args, 0), arg(args, 1), false)
	})
	str("replaceAll", func(it *Interpreter, s String, args []Value) (Value, error) {
		return it.replace(s, arg(args, 0), arg(args, 1), true)
	})
	str("match", func(it *Interpreter, s String, args []Value) (Value, error) {
		r, err := it.toRegExp(arg(args, 0))
		if err != nil {
			return nil, err
		}
		if !r.Global() {
			m, err := it.regexpExec(r, s)
			if err != nil {
				return nil, err
			}
			return it.matchResult(m, s), nil
		}
		matches, err := it.allMatches(r, newSubject(s))
		r.LastIndex = 0
		if err != nil || len(matches) == 0 {
			return null, err
		}
		out := make([]Value, len(matches))
		for i, m := range matches {
			out[i] = m.groups[0]
		}
		return NewArray(out...), nil
	})
	str("search", func(it *Interpreter, s String, args []Value) (Value, error) {
		r, err := it.toRegExp(arg(args, 0))
		if err != nil {
			return nil, err
		}
		m, err := it.matchAt(r, newSubject(s), 0)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return Number(-1), nil
		}
		return Number(m.start), nil
	})
}

func stringCall(it *Interpreter, _ Value, args []Value) (Value, error) {
	if len(args) == 0 {
		return String(""), nil
	}
	return it.toString(args[0])
}

// intArg converts an optional argument with ToIntegerOrInfinity.
func (it *Interpreter) intArg(args []Value, i int) (float64, error) {
	n, err := it.toNumber(arg(args, i))
	if err != nil {
		return 0, err
	}
	return toInteger(n), nil
}

// toRegExp coerces a match or search argument to a RegExp.
func (it *Interpreter) toRegExp(v Value) (*RegExp, error) {
	switch v := v.(type) {
	case *RegExp:
		return v, nil
	case Undefined:
		return it.newRegExp("(?:)", "")
	default:
		s, err := it.toString(v)
		if err != nil {
			return nil, err
		}
		return it.newRegExp(string(s), "")
	}
}

func splitString(s, sep String, limit uint32) *Array {
	out := NewArray()
	if limit == 0 {
		return out
	}
	if sep == "" {
		units := s.Units()
		for i := range units {
			if uint32(i) == limit {
				break
			}
			out.Elems = append(out.Elems, stringFromUnits(units[i:i+1]))
		}
		return out
	}
	for _, part := range strings.Split(string(s), string(sep)) {
		if uint32(len(out.Elems)) == limit {
			break
		}
		out.Elems = append(out.Elems, String(part))
	}
	return out
}

func indexUnits(hay, pat []uint16, from int) int {
	for i := from; i+len(pat) <= len(hay); i++ {
		if unitsEqual(hay[i:i+len(pat)], pat) {
			return i
		}
	}
	return -1
}

func unitsEqual(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// mapRunes applies a case mapping while keeping lone surrogates intact.
func mapRunes(s String, fn func(string) string) String {
	if wtf8.IsASCII(string(s)) {
		return String(fn(string(s)))
	}
	runes := toRunes(string(s))
	var b strings.Builder
	for _, r := range runes {
		if r >= 0xd800 && r < 0xe000 {
			b.WriteString(runesToString([]rune{r}))
			continue
		}
		b.WriteString(fn(string(r)))
	}
	return String(b.String())
}

func (it *Interpreter) pad(s String, args []Value, start bool) (Value, error) {
	n, err := it.intArg(args, 0)
	if err != nil {
		return nil, err
	}
	fill := String(" ")
	if v := arg(args, 1); v != undefined {
		if fill, err = it.toString(v); err != nil {
			return nil, err
		}
	}
	have := s.Len()
	if n <= float64(have) || fill == "" {
		return s, nil
	}
	if n > 1<<28 {
		return nil, it.throwError("RangeError", "Invalid string length")
	}
	need := int(n) - have
	units := fill.Units()
	padding := make([]uint16, 0, need)
	for len(padding) < need {
		padding = append(padding, units[:min(len(units), need-len(padding))]...)
	}
	if start {
		return stringFromUnits(padding) + s, nil
	}
	return s + stringFromUnits(padding), nil
}
