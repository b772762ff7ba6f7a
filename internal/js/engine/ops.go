package engine

import (
	"math"
)

// binary applies a binary operator to evaluated operands.
func (it *Interpreter) binary(op string, l, r Value) (Value, error) {
	switch op {
	case "+":
		return it.add(l, r)
	case "===":
		return Bool(StrictEqual(l, r)), nil
	case "!==":
		return Bool(!StrictEqual(l, r)), nil
	case "==", "!=":
		eq, err := it.looseEqual(l, r)
		if err != nil {
			return nil, err
		}
		return Bool(eq == (op == "==")), nil
	case "<", ">", "<=", ">=":
		return it.compare(op, l, r)
	case "in":
		key, err := it.toPropertyKey(l)
		if err != nil {
			return nil, err
		}
		ok, err := it.hasProperty(r, key)
		if err != nil {
			return nil, err
		}
		return Bool(ok), nil
	case "instanceof":
		return it.instanceOf(l, r)
	}

	x, err := it.toNumber(l)
	if err != nil {
		return nil, err
	}
	y, err := it.toNumber(r)
	if err != nil {
		return nil, err
	}
	switch op {
	case "-":
		return Number(x - y), nil
	case "*":
		return Number(x * y), nil
	case "/":
		return Number(x / y), nil
	case "%":
		return Number(math.Mod(x, y)), nil
	case "**":
		return Number(pow(x, y)), nil
	case "&":
		return Number(ToInt32(x) & ToInt32(y)), nil
	case "|":
		return Number(ToInt32(x) | ToInt32(y)), nil
	case "^":
		return Number(ToInt32(x) ^ ToInt32(y)), nil
	case "<<":
		return Number(ToInt32(x) << (ToUint32(y) & 31)), nil
	case ">>":
		return Number(ToInt32(x) >> (ToUint32(y) & 31)), nil
	case ">>>":
		return Number(ToUint32(x) >> (ToUint32(y) & 31)), nil
	default:
		return nil, it.fail(ErrUnsupported, "binary operator %s", op)
	}
}

func (it *Interpreter) add(l, r Value) (Value, error) {
	if x, ok := l.(Number); ok {
		if y, ok := r.(Number); ok {
			return x + y, nil
		}
	}
	pl, err := it.toPrimitive(l, hintDefault)
	if err != nil {
		return nil, err
	}
	pr, err := it.toPrimitive(r, hintDefault)
	if err != nil {
		return nil, err
	}
	_, ls := pl.(String)
	_, rs := pr.(String)
	if ls || rs {
		x, err := it.toString(pl)
		if err != nil {
			return nil, err
		}
		y, err := it.toString(pr)
		if err != nil {
			return nil, err
		}
		return x + y, nil
	}
	x, err := it.toNumber(pl)
	if err != nil {
		return nil, err
	}
	y, err := it.toNumber(pr)
	if err != nil {
		return nil, err
	}
	return Number(x + y), nil
}

func (it *Interpreter) instanceOf(l, r Value) (Value, error) {
	f, ok := r.(*Function)
	if !ok {
		return nil, it.throwError("TypeError", "Right-hand side of 'instanceof' is not callable")
	}
	for f.bound != nil {
		f = f.bound
	}
	proto := it.functionPrototype(f)
	if proto == nil {
		return nil, it.throwError("TypeError", "Function has non-object prototype in instanceof check")
	}
	for p := it.protoOf(l); p != nil; p = p.Proto {
		if p == proto {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}
