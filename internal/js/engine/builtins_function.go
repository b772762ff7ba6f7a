package engine

import "strconv"

func (it *Interpreter) setupFunction() {
	p := it.functionProto
	unsupported := func(it *Interpreter, _ Value, _ []Value) (Value, error) {
		return nil, it.fail(ErrUnsupported, "Function constructor")
	}
	it.constructor("Function", p, unsupported, unsupported)

	method(p, "call", func(it *Interpreter, this Value, args []Value) (Value, error) {
		f, err := it.thisFunction(this, "call")
		if err != nil {
			return nil, err
		}
		return it.callFunction(f, arg(args, 0), rest(args, 1))
	})
	method(p, "apply", func(it *Interpreter, this Value, args []Value) (Value, error) {
		f, err := it.thisFunction(this, "apply")
		if err != nil {
			return nil, err
		}
		list, err := it.arrayLike(arg(args, 1))
		if err != nil {
			return nil, err
		}
		return it.callFunction(f, arg(args, 0), list)
	})
	method(p, "bind", func(it *Interpreter, this Value, args []Value) (Value, error) {
		f, err := it.thisFunction(this, "bind")
		if err != nil {
			return nil, err
		}
		return &Function{
			Name:      "bound " + f.Name,
			bound:     f,
			boundThis: arg(args, 0),
			boundArgs: joinArgs(nil, rest(args, 1)),
		}, nil
	})
	method(p, "toString", func(it *Interpreter, this Value, _ []Value) (Value, error) {
		f, err := it.thisFunction(this, "toString")
		if err != nil {
			return nil, err
		}
		return String(functionSource(f)), nil
	})
}

func (it *Interpreter) thisFunction(this Value, name string) (*Function, error) {
	f, ok := this.(*Function)
	if !ok {
		return nil, it.throwError("TypeError", "Function.prototype."+name+" called on "+describe(this))
	}
	return f, nil
}

func functionSource(f *Function) string {
	if f.Lit != nil {
		return f.Lit.Source
	}
	return "function " + f.Name + "() { [native code] }"
}

// arrayLike copies the elements of an apply argument list.
func (it *Interpreter) arrayLike(v Value) ([]Value, error) {
	switch v := v.(type) {
	case Undefined, Null:
		return nil, nil
	case *Array:
		out := make([]Value, len(v.Elems))
		for i := range v.Elems {
			out[i] = v.At(i)
		}
		return out, nil
	case *Object:
		n, err := it.lengthOf(v)
		if err != nil {
			return nil, err
		}
		out := make([]Value, n)
		for i := range out {
			if out[i], err = it.getMember(v, strconv.Itoa(i)); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, it.throwError("TypeError", "CreateListFromArrayLike called on non-object")
	}
}

// lengthOf reads and clamps the length property of an array-like.
func (it *Interpreter) lengthOf(v Value) (int, error) {
	l, err := it.getMember(v, "length")
	if err != nil {
		return 0, err
	}
	n, err := it.toNumber(l)
	if err != nil {
		return 0, err
	}
	return clampIndex(n, 1<<24), nil
}
