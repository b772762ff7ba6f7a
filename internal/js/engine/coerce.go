package engine

import (
	"math"
	"slices"
	"strconv"

	"github.com/GriffinCanCode/cipherjs/internal/js/wtf8"
)

const (
	hintDefault = ""
	hintNumber  = "number"
	hintString  = "string"
)

// toPrimitive implements ToPrimitive through valueOf and toString.
func (it *Interpreter) toPrimitive(v Value, hint string) (Value, error) {
	if !isObjectLike(v) {
		return v, nil
	}
	if hint == hintDefault {
		hint = hintNumber
		if o, ok := v.(*Object); ok && o.Class == ClassDate {
			hint = hintString
		}
	}
	order := [2]string{"valueOf", "toString"}
	if hint == hintString {
		order = [2]string{"toString", "valueOf"}
	}
	for _, name := range order {
		m, err := it.getMember(v, name)
		if err != nil {
			return nil, err
		}
		fn, ok := m.(*Function)
		if !ok {
			continue
		}
		res, err := it.callFunction(fn, v, nil)
		if err != nil {
			return nil, err
		}
		if !isObjectLike(res) {
			return res, nil
		}
	}
	return nil, it.throwError("TypeError", "Cannot convert object to primitive value")
}

func (it *Interpreter) toNumber(v Value) (float64, error) {
	switch v := v.(type) {
	case Number:
		return float64(v), nil
	case String:
		return StringToNumber(string(v)), nil
	case Bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case Null:
		return 0, nil
	case Undefined:
		return math.NaN(), nil
	default:
		p, err := it.toPrimitive(v, hintNumber)
		if err != nil {
			return 0, err
		}
		return it.toNumber(p)
	}
}

func (it *Interpreter) toString(v Value) (String, error) {
	switch v := v.(type) {
	case String:
		return v, nil
	case Number:
		return String(FormatNumber(float64(v))), nil
	case Bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case Null:
		return "null", nil
	case Undefined:
		return "undefined", nil
	default:
		p, err := it.toPrimitive(v, hintString)
		if err != nil {
			return "", err
		}
		return it.toString(p)
	}
}

func (it *Interpreter) toPropertyKey(v Value) (string, error) {
	switch v := v.(type) {
	case String:
		return string(v), nil
	case Number:
		f := float64(v)
		if f >= 0 && f < 1<<31 && f == math.Trunc(f) {
			return strconv.Itoa(int(f)), nil
		}
		return FormatNumber(f), nil
	}
	s, err := it.toString(v)
	return string(s), err
}

// StrictEqual implements ===
func StrictEqual(a, b Value) bool {
	switch a := a.(type) {
	case Number:
		y, ok := b.(Number)
		return ok && a == y
	case String:
		y, ok := b.(String)
		return ok && a == y
	case Bool:
		y, ok := b.(Bool)
		return ok && a == y
	case Undefined:
		_, ok := b.(Undefined)
		return ok
	case Null:
		_, ok := b.(Null)
		return ok
	default:
		return a == b
	}
}

// sameValueZero is StrictEqual with NaN equal to itself.
func sameValueZero(a, b Value) bool {
	x, ok1 := a.(Number)
	y, ok2 := b.(Number)
	if ok1 && ok2 && math.IsNaN(float64(x)) && math.IsNaN(float64(y)) {
		return true
	}
	return StrictEqual(a, b)
}

// looseEqual implements ==
func (it *Interpreter) looseEqual(a, b Value) (bool, error) {
	for {
		if sameType(a, b) {
			return StrictEqual(a, b), nil
		}
		if isNullish(a) || isNullish(b) {
			return isNullish(a) && isNullish(b), nil
		}
		switch x := a.(type) {
		case Number:
			if y, ok := b.(String); ok {
				return float64(x) == StringToNumber(string(y)), nil
			}
		case String:
			if y, ok := b.(Number); ok {
				return StringToNumber(string(x)) == float64(y), nil
			}
		}
		if x, ok := a.(Bool); ok {
			a = boolNumber(x)
			continue
		}
		if y, ok := b.(Bool); ok {
			b = boolNumber(y)
			continue
		}
		switch {
		case isObjectLike(a) && !isObjectLike(b):
			p, err := it.toPrimitive(a, hintDefault)
			if err != nil {
				return false, err
			}
			a = p
		case isObjectLike(b) && !isObjectLike(a):
			p, err := it.toPrimitive(b, hintDefault)
			if err != nil {
				return false, err
			}
			b = p
		default:
			return false, nil
		}
	}
}

func sameType(a, b Value) bool {
	if isObjectLike(a) && isObjectLike(b) {
		return true
	}
	return a.Type() == b.Type() && isNullish(a) == isNullish(b) && !isObjectLike(a) && !isObjectLike(b)
}

func boolNumber(b Bool) Number {
	if b {
		return 1
	}
	return 0
}

// compare implements the relational operators. NaN operands make every
// comparison false.
func (it *Interpreter) compare(op string, l, r Value) (Value, error) {
	pl, err := it.toPrimitive(l, hintNumber)
	if err != nil {
		return nil, err
	}
	pr, err := it.toPrimitive(r, hintNumber)
	if err != nil {
		return nil, err
	}
	if x, ok := pl.(String); ok {
		if y, ok := pr.(String); ok {
			c := compareUnits(x, y)
			switch op {
			case "<":
				return Bool(c < 0), nil
			case ">":
				return Bool(c > 0), nil
			case "<=":
				return Bool(c <= 0), nil
			default:
				return Bool(c >= 0), nil
			}
		}
	}
	x, err := it.toNumber(pl)
	if err != nil {
		return nil, err
	}
	y, err := it.toNumber(pr)
	if err != nil {
		return nil, err
	}
	switch op {
	case "<":
		return Bool(x < y), nil
	case ">":
		return Bool(x > y), nil
	case "<=":
		return Bool(x <= y), nil
	default:
		return Bool(x >= y), nil
	}
}

// compareUnits orders strings by UTF-16 code units.
func compareUnits(a, b String) int {
	if wtf8.IsASCII(string(a)) && wtf8.IsASCII(string(b)) {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return slices.Compare(a.Units(), b.Units())
}
