package engine

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

func (it *Interpreter) setupArray() {
	p := it.arrayProto
	ctor := it.constructor("Array", p, arrayConstruct, arrayConstruct)

	statics := ctor.Props()
	method(statics, "isArray", func(_ *Interpreter, _ Value, args []Value) (Value, error) {
		_, ok := arg(args, 0).(*Array)
		return Bool(ok), nil
	})
	method(statics, "of", func(_ *Interpreter, _ Value, args []Value) (Value, error) {
		return NewArray(joinArgs(nil, args)...), nil
	})
	method(statics, "from", arrayFrom)

	method(p, "push", mutating("push", func(_ *Interpreter, a *Array, args []Value) (Value, error) {
		a.Elems = append(a.Elems, args...)
		return Number(len(a.Elems)), nil
	}))
	method(p, "pop", mutating("pop", func(_ *Interpreter, a *Array, _ []Value) (Value, error) {
		if len(a.Elems) == 0 {
			return undefined, nil
		}
		v := a.At(len(a.Elems) - 1)
		a.SetLength(len(a.Elems) - 1)
		return v, nil
	}))
	method(p, "shift", mutating("shift", func(_ *Interpreter, a *Array, _ []Value) (Value, error) {
		if len(a.Elems) == 0 {
			return undefined, nil
		}
		v := a.At(0)
		a.Elems = slices.Delete(a.Elems, 0, 1)
		return v, nil
	}))
	method(p, "unshift", mutating("unshift", func(_ *Interpreter, a *Array, args []Value) (Value, error) {
		a.Elems = slices.Insert(a.Elems, 0, args...)
		return Number(len(a.Elems)), nil
	}))
	method(p, "slice", func(it *Interpreter, this Value, args []Value) (Value, error) {
		a, err := it.thisArray(this, "slice")
		if err != nil {
			return nil, err
		}
		start, end, err := it.sliceRange(args, len(a.Elems))
		if err != nil {
			return nil, err
		}
		return NewArray(slices.Clone(a.Elems[start:end])...), nil
	})
	method(p, "splice", mutating("splice", spliceArray))
	method(p, "join", func(it *Interpreter, this Value, args []Value) (Value, error) {
		a, err := it.thisArray(this, "join")
		if err != nil {
			return nil, err
		}
		sep := String(",")
		if s := arg(args, 0); s != undefined {
			if sep, err = it.toString(s); err != nil {
				return nil, err
			}
		}
		return it.join(a, sep)
	})
	method(p, "toString", func(it *Interpreter, this Value, _ []Value) (Value, error) {
		a, ok := this.(*Array)
		if !ok {
			return String("[object " + classOf(this) + "]"), nil
		}
		return it.join(a, ",")
	})
	method(p, "reverse", mutating("reverse", func(_ *Interpreter, a *Array, _ []Value) (Value, error) {
		slices.Reverse(a.Elems)
		return a, nil
	}))
	method(p, "concat", func(it *Interpreter, this Value, args []Value) (Value, error) {
		var out []Value
		switch v := this.(type) {
		case *Array:
			out = slices.Clone(v.Elems)
		case Undefined, Null:
			return nil, it.throwError("TypeError", "Array.prototype.concat called on null or undefined")
		default:
			out = []Value{v}
		}
		for _, v := range args {
			if other, ok := v.(*Array); ok {
				out = append(out, other.Elems...)
			} else {
				out = append(out, v)
			}
		}
		return NewArray(out...), nil
	})
	method(p, "indexOf", func(it *Interpreter, this Value, args []Value) (Value, error) {
		a, err := it.thisArray(this, "indexOf")
		if err != nil {
			return nil, err
		}
		from, err := it.fromIndex(args, 1, len(a.Elems), 0)
		if err != nil {
			return nil, err
		}
		for i := from; i < len(a.Elems); i++ {
			if a.Elems[i] != nil && StrictEqual(a.Elems[i], arg(args, 0)) {
				return Number(i), nil
			}
		}
		return Number(-1), nil
	})
	method(p, "lastIndexOf", func(it *Interpreter, this Value, args []Value) (Value, error) {
		a, err := it.thisArray(this, "lastIndexOf")
		if err != nil {
			return nil, err
		}
		from := len(a.Elems) - 1
		if len(args) > 1 {
			n, err := it.toNumber(args[1])
			if err != nil {
				return nil, err
			}
			n = toInteger(n)
			if n < 0 {
				n += float64(len(a.Elems))
			}
			from = int(math.Min(n, float64(len(a.Elems)-1)))
		}
		for i := from; i >= 0; i-- {
			if a.Elems[i] != nil && StrictEqual(a.Elems[i], arg(args, 0)) {
				return Number(i), nil
			}
		}
		return Number(-1), nil
	})
	method(p, "includes", func(it *Interpreter, this Value, args []Value) (Value, error) {
		a, err := it.thisArray(this, "includes")
		if err != nil {
			return nil, err
		}
		from, err := it.fromIndex(args, 1, len(a.Elems), 0)
		if err != nil {
			return nil, err
		}
		for i := from; i < len(a.Elems); i++ {
			if sameValueZero(a.At(i), arg(args, 0)) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	})
	method(p, "at", func(it *Interpreter, this Value, args []Value) (Value, error) {
		a, err := it.thisArray(this, "at")
		if err != nil {
			return nil, err
		}
		n, err := it.toNumber(arg(args, 0))
		if err != nil {
			return nil, err
		}
		i := int(toInteger(n))
		if i < 0 {
			i += len(a.Elems)
		}
		return a.At(i), nil
	})
	method(p, "fill", mutating("fill", func(it *Interpreter, a *Array, args []Value) (Value, error) {
		start, end, err := it.sliceRange(rest(args, 1), len(a.Elems))
		if err != nil {
			return nil, err
		}
		for i := start; i < end; i++ {
			a.Elems[i] = arg(args, 0)
		}
		return a, nil
	}))
	method(p, "sort", mutating("sort", sortArray))

	iterators := map[string]iterFunc{
		"forEach":   arrayForEach,
		"map":       arrayMap,
		"filter":    arrayFilter,
		"some":      arraySome,
		"every":     arrayEvery,
		"find":      arrayFind(false),
		"findIndex": arrayFind(true),
	}
	for name, iter := range iterators {
		method(p, name, func(it *Interpreter, this Value, args []Value) (Value, error) {
			a, err := it.thisArray(this, name)
			if err != nil {
				return nil, err
			}
			fn, err := it.callback(args, 0, "Array.prototype."+name)
			if err != nil {
				return nil, err
			}
			return iter(it, a, this, fn, arg(args, 1))
		})
	}
	method(p, "reduce", arrayReduce(false))
	method(p, "reduceRight", arrayReduce(true))
}

// iterFunc runs a callback method over a. self is the receiver the
// callback sees as its third argument.
type iterFunc func(it *Interpreter, a *Array, self Value, fn *Function, thisArg Value) (Value, error)

// thisArray returns the receiver of an Array method as an array. Strings
// and other array-likes are copied into a fresh array, keeping holes for
// missing indexes; other primitives are empty.
func (it *Interpreter) thisArray(this Value, name string) (*Array, error) {
	switch v := this.(type) {
	case *Array:
		return v, nil
	case Undefined, Null:
		return nil, it.throwError("TypeError", "Array.prototype."+name+" called on null or undefined")
	case String:
		units := v.Units()
		elems := make([]Value, len(units))
		for i := range units {
			elems[i] = stringFromUnits(units[i : i+1])
		}
		return NewArray(elems...), nil
	case *Object, *Function:
		n, err := it.lengthOf(v)
		if err != nil {
			return nil, err
		}
		elems := make([]Value, n)
		for i := range elems {
			key := strconv.Itoa(i)
			ok, err := it.hasProperty(v, key)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			if elems[i], err = it.getMember(v, key); err != nil {
				return nil, err
			}
		}
		return NewArray(elems...), nil
	default:
		return NewArray(), nil
	}
}

// mutating adapts an in-place array method to any receiver. Changes made
// to the copy of an array-like are written back to it.
func mutating(name string, fn func(it *Interpreter, a *Array, args []Value) (Value, error)) NativeFunc {
	return func(it *Interpreter, this Value, args []Value) (Value, error) {
		a, err := it.thisArray(this, name)
		if err != nil {
			return nil, err
		}
		if _, ok := this.(*Array); ok {
			return fn(it, a, args)
		}
		n := len(a.Elems)
		v, err := fn(it, a, args)
		if err != nil {
			return nil, err
		}
		if err := it.storeArrayLike(this, a, n); err != nil {
			return nil, err
		}
		if v == Value(a) {
			return this, nil
		}
		return v, nil
	}
}

// storeArrayLike writes the elements and length of a back to obj, deleting
// holes and indexes past the new length up to old.
func (it *Interpreter) storeArrayLike(obj Value, a *Array, old int) error {
	switch obj.(type) {
	case *Object:
	case String, *Function:
		return it.throwError("TypeError", "Cannot assign to read only property 'length' of "+describe(obj))
	default:
		return nil
	}
	for i, v := range a.Elems {
		key := strconv.Itoa(i)
		if v == nil {
			if _, err := it.deleteMember(obj, key); err != nil {
				return err
			}
			continue
		}
		if err := it.setMember(obj, key, v); err != nil {
			return err
		}
	}
	for i := len(a.Elems); i < old; i++ {
		if _, err := it.deleteMember(obj, strconv.Itoa(i)); err != nil {
			return err
		}
	}
	return it.setMember(obj, "length", Number(len(a.Elems)))
}

func arrayConstruct(it *Interpreter, _ Value, args []Value) (Value, error) {
	if len(args) == 1 {
		if n, ok := args[0].(Number); ok {
			if n < 0 || float64(n) != float64(uint32(n)) {
				return nil, it.throwError("RangeError", "Invalid array length")
			}
			return NewArray(make([]Value, int(n))...), nil
		}
	}
	return NewArray(joinArgs(nil, args)...), nil
}

func arrayFrom(it *Interpreter, _ Value, args []Value) (Value, error) {
	var items []Value
	switch src := arg(args, 0).(type) {
	case String:
		var err error
		if items, err = it.iterate(src); err != nil {
			return nil, err
		}
	case Undefined, Null:
		return nil, it.throwError("TypeError", describe(src)+" is not iterable")
	default:
		var err error
		if items, err = it.arrayLike(src); err != nil {
			return nil, err
		}
	}
	if fn, ok := arg(args, 1).(*Function); ok {
		for i, v := range items {
			mapped, err := it.callFunction(fn, arg(args, 2), []Value{v, Number(i)})
			if err != nil {
				return nil, err
			}
			items[i] = mapped
		}
	}
	return NewArray(items...), nil
}

// sliceRange resolves relative start and end arguments against n.
func (it *Interpreter) sliceRange(args []Value, n int) (int, int, error) {
	start, end := 0, n
	if v := arg(args, 0); v != undefined {
		f, err := it.toNumber(v)
		if err != nil {
			return 0, 0, err
		}
		start = relativeIndex(f, n)
	}
	if v := arg(args, 1); v != undefined {
		f, err := it.toNumber(v)
		if err != nil {
			return 0, 0, err
		}
		end = relativeIndex(f, n)
	}
	if end < start {
		end = start
	}
	return start, end, nil
}

// fromIndex resolves an optional relative search start.
func (it *Interpreter) fromIndex(args []Value, i, n, def int) (int, error) {
	v := arg(args, i)
	if v == undefined {
		return def, nil
	}
	f, err := it.toNumber(v)
	if err != nil {
		return 0, err
	}
	return relativeIndex(f, n), nil
}

func spliceArray(it *Interpreter, a *Array, args []Value) (Value, error) {
	n := len(a.Elems)
	if len(args) == 0 {
		return NewArray(), nil
	}
	f, err := it.toNumber(args[0])
	if err != nil {
		return nil, err
	}
	start := relativeIndex(f, n)
	count := n - start
	if len(args) > 1 {
		f, err := it.toNumber(args[1])
		if err != nil {
			return nil, err
		}
		count = clampIndex(f, n-start)
	}
	removed := slices.Clone(a.Elems[start : start+count])
	a.Elems = slices.Replace(a.Elems, start, start+count, rest(args, 2)...)
	return NewArray(removed...), nil
}

// join implements Array.prototype.join. A cyclic reference renders as the
// empty string.
func (it *Interpreter) join(a *Array, sep String) (Value, error) {
	if it.joining[a] {
		return String(""), nil
	}
	if it.joining == nil {
		it.joining = make(map[*Array]bool)
	}
	it.joining[a] = true
	defer delete(it.joining, a)

	var b strings.Builder
	for i, v := range a.Elems {
		if i > 0 {
			b.WriteString(string(sep))
		}
		if v == nil || isNullish(v) {
			continue
		}
		s, err := it.toString(v)
		if err != nil {
			return nil, err
		}
		b.WriteString(string(s))
	}
	return String(b.String()), nil
}

func sortArray(it *Interpreter, a *Array, args []Value) (Value, error) {
	cmp, _ := arg(args, 0).(*Function)
	if cmp == nil && arg(args, 0) != undefined {
		return nil, it.throwError("TypeError", "The comparison function must be either a function or undefined")
	}

	var vals []Value
	undefs, holes := 0, 0
	for _, v := range a.Elems {
		switch {
		case v == nil:
			holes++
		case v == undefined:
			undefs++
		default:
			vals = append(vals, v)
		}
	}

	var sortErr error
	slices.SortStableFunc(vals, func(x, y Value) int {
		if sortErr != nil {
			return 0
		}
		if cmp != nil {
			r, err := it.callFunction(cmp, undefined, []Value{x, y})
			if err != nil {
				sortErr = err
				return 0
			}
			n, err := it.toNumber(r)
			if err != nil {
				sortErr = err
				return 0
			}
			switch {
			case n < 0:
				return -1
			case n > 0:
				return 1
			}
			return 0
		}
		sx, err := it.toString(x)
		if err != nil {
			sortErr = err
			return 0
		}
		sy, err := it.toString(y)
		if err != nil {
			sortErr = err
			return 0
		}
		return compareUnits(sx, sy)
	})
	if sortErr != nil {
		return nil, sortErr
	}
	for range undefs {
		vals = append(vals, undefined)
	}
	a.Elems = append(vals, make([]Value, holes)...)
	return a, nil
}

func (it *Interpreter) visit(a *Array, self Value, fn *Function, thisArg Value, i int) (Value, error) {
	return it.callFunction(fn, thisArg, []Value{a.At(i), Number(i), self})
}

func arrayForEach(it *Interpreter, a *Array, self Value, fn *Function, thisArg Value) (Value, error) {
	n := len(a.Elems)
	for i := 0; i < n && i < len(a.Elems); i++ {
		if a.Elems[i] == nil {
			continue
		}
		if _, err := it.visit(a, self, fn, thisArg, i); err != nil {
			return nil, err
		}
	}
	return undefined, nil
}

func arrayMap(it *Interpreter, a *Array, self Value, fn *Function, thisArg Value) (Value, error) {
	n := len(a.Elems)
	out := make([]Value, n)
	for i := 0; i < n && i < len(a.Elems); i++ {
		if a.Elems[i] == nil {
			continue
		}
		v, err := it.visit(a, self, fn, thisArg, i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return NewArray(out...), nil
}

func arrayFilter(it *Interpreter, a *Array, self Value, fn *Function, thisArg Value) (Value, error) {
	var out []Value
	n := len(a.Elems)
	for i := 0; i < n && i < len(a.Elems); i++ {
		el := a.Elems[i]
		if el == nil {
			continue
		}
		v, err := it.visit(a, self, fn, thisArg, i)
		if err != nil {
			return nil, err
		}
		if Truthy(v) {
			out = append(out, el)
		}
	}
	return NewArray(out...), nil
}

func arraySome(it *Interpreter, a *Array, self Value, fn *Function, thisArg Value) (Value, error) {
	n := len(a.Elems)
	for i := 0; i < n && i < len(a.Elems); i++ {
		if a.Elems[i] == nil {
			continue
		}
		v, err := it.visit(a, self, fn, thisArg, i)
		if err != nil {
			return nil, err
		}
		if Truthy(v) {
			return Bool(true), nil
		}
	}
	return Bool(false), nil
}

func arrayEvery(it *Interpreter, a *Array, self Value, fn *Function, thisArg Value) (Value, error) {
	n := len(a.Elems)
	for i := 0; i < n && i < len(a.Elems); i++ {
		if a.Elems[i] == nil {
			continue
		}
		v, err := it.visit(a, self, fn, thisArg, i)
		if err != nil {
			return nil, err
		}
		if !Truthy(v) {
			return Bool(false), nil
		}
	}
	return Bool(true), nil
}

func arrayFind(index bool) iterFunc {
	return func(it *Interpreter, a *Array, self Value, fn *Function, thisArg Value) (Value, error) {
		n := len(a.Elems)
		for i := 0; i < n; i++ {
			el := a.At(i)
			v, err := it.visit(a, self, fn, thisArg, i)
			if err != nil {
				return nil, err
			}
			if !Truthy(v) {
				continue
			}
			if index {
				return Number(i), nil
			}
			return el, nil
		}
		if index {
			return Number(-1), nil
		}
		return undefined, nil
	}
}

func arrayReduce(right bool) NativeFunc {
	name := "reduce"
	if right {
		name = "reduceRight"
	}
	return func(it *Interpreter, this Value, args []Value) (Value, error) {
		a, err := it.thisArray(this, name)
		if err != nil {
			return nil, err
		}
		fn, err := it.callback(args, 0, "Array.prototype."+name)
		if err != nil {
			return nil, err
		}
		idx := make([]int, 0, len(a.Elems))
		for i, v := range a.Elems {
			if v != nil {
				idx = append(idx, i)
			}
		}
		if right {
			slices.Reverse(idx)
		}
		var acc Value
		if len(args) > 1 {
			acc = args[1]
		} else {
			if len(idx) == 0 {
				return nil, it.throwError("TypeError", "Reduce of empty array with no initial value")
			}
			acc = a.Elems[idx[0]]
			idx = idx[1:]
		}
		for _, i := range idx {
			if i >= len(a.Elems) || a.Elems[i] == nil {
				continue
			}
			if acc, err = it.callFunction(fn, undefined, []Value{acc, a.Elems[i], Number(i), this}); err != nil {
				return nil, err
			}
		}
		return acc, nil
	}
}
