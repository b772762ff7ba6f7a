package engine

import (
	"strconv"

	"github.com/GriffinCanCode/cipherjs/internal/js/wtf8"
)

// maxDenseGap bounds how far past the end an index write may grow an array.
// Writes beyond it are kept as named properties.
const maxDenseGap = 1 << 20

func (it *Interpreter) getMember(obj Value, key string) (Value, error) {
	switch o := obj.(type) {
	case *Object:
		if v, ok := o.Get(key); ok {
			return v, nil
		}
		return undefined, nil
	case *Array:
		if key == "length" {
			return Number(len(o.Elems)), nil
		}
		if i, ok := arrayIndex(key); ok && i < len(o.Elems) {
			return o.At(i), nil
		}
		if o.props != nil {
			if v, ok := o.props.Own(key); ok {
				return v, nil
			}
		}
		return protoGet(it.arrayProto, key), nil
	case String:
		if key == "length" {
			return Number(o.Len()), nil
		}
		if i, ok := arrayIndex(key); ok {
			return charAt(o, i), nil
		}
		return protoGet(it.stringProto, key), nil
	case Number:
		return protoGet(it.numberProto, key), nil
	case Bool:
		return protoGet(it.booleanProto, key), nil
	case *Function:
		if f := o.props; f != nil {
			if v, ok := f.Own(key); ok {
				return v, nil
			}
		}
		switch key {
		case "name":
			return String(o.Name), nil
		case "length":
			return Number(o.arity()), nil
		case "prototype":
			if p := it.functionPrototype(o); p != nil {
				return p, nil
			}
			return undefined, nil
		}
		return protoGet(it.functionProto, key), nil
	case *RegExp:
		switch key {
		case "source":
			return String(o.Source), nil
		case "flags":
			return String(o.Flags), nil
		case "global":
			return Bool(o.hasFlag('g')), nil
		case "ignoreCase":
			return Bool(o.hasFlag('i')), nil
		case "multiline":
			return Bool(o.hasFlag('m')), nil
		case "sticky":
			return Bool(o.hasFlag('y')), nil
		case "lastIndex":
			return Number(o.LastIndex), nil
		}
		return protoGet(it.regexpProto, key), nil
	default:
		return nil, it.fail(ErrPropertyOfNullish, "cannot read property %q of %s", key, describe(obj))
	}
}

func protoGet(proto *Object, key string) Value {
	if proto == nil {
		return undefined
	}
	if v, ok := proto.Get(key); ok {
		return v
	}
	return undefined
}

// charAt returns the code unit at i as a one-unit string, or undefined.
func charAt(s String, i int) Value {
	if i < 0 {
		return undefined
	}
	if wtf8.IsASCII(string(s)) {
		if i >= len(s) {
			return undefined
		}
		return s[i : i+1]
	}
	units := s.Units()
	if i >= len(units) {
		return undefined
	}
	return stringFromUnits(units[i : i+1])
}

func (it *Interpreter) setMember(obj Value, key string, v Value) error {
	switch o := obj.(type) {
	case *Object:
		o.Set(key, v)
	case *Array:
		if key == "length" {
			n, err := it.toNumber(v)
			if err != nil {
				return err
			}
			if n < 0 || n != float64(uint32(n)) {
				return it.throwError("RangeError", "Invalid array length")
			}
			o.SetLength(int(n))
			return nil
		}
		if i, ok := arrayIndex(key); ok && i < len(o.Elems)+maxDenseGap {
			o.SetAt(i, v)
			return nil
		}
		if o.props == nil {
			o.props = NewObject(nil)
		}
		o.props.Set(key, v)
	case *Function:
		if key == "name" {
			if s, ok := v.(String); ok {
				o.Name = string(s)
			}
		}
		o.Props().Set(key, v)
	case *RegExp:
		if key == "lastIndex" {
			n, err := it.toNumber(v)
			if err != nil {
				return err
			}
			o.LastIndex = int(toInteger(n))
		}
	case Undefined, Null:
		return it.fail(ErrPropertyOfNullish, "cannot set property %q of %s", key, describe(obj))
	}
	return nil
}

func (it *Interpreter) deleteMember(obj Value, key string) (Value, error) {
	switch o := obj.(type) {
	case *Object:
		o.Delete(key)
	case *Array:
		if i, ok := arrayIndex(key); ok {
			if i < len(o.Elems) {
				o.Elems[i] = nil
			}
			return Bool(true), nil
		}
		if key == "length" {
			return Bool(false), nil
		}
		if o.props != nil {
			o.props.Delete(key)
		}
	case *Function:
		if o.props != nil {
			o.props.Delete(key)
		}
	case Undefined, Null:
		return nil, it.fail(ErrPropertyOfNullish, "cannot delete property %q of %s", key, describe(obj))
	}
	return Bool(true), nil
}

// hasProperty implements the in operator.
func (it *Interpreter) hasProperty(obj Value, key string) (bool, error) {
	switch o := obj.(type) {
	case *Object:
		return o.Has(key), nil
	case *Array:
		if key == "length" {
			return true, nil
		}
		if i, ok := arrayIndex(key); ok && i < len(o.Elems) {
			return o.Elems[i] != nil, nil
		}
		if o.props != nil && o.props.Has(key) {
			return true, nil
		}
		return it.arrayProto.Has(key), nil
	case *Function:
		if o.props != nil && o.props.Has(key) {
			return true, nil
		}
		switch key {
		case "name", "length":
			return true, nil
		case "prototype":
			return it.functionPrototype(o) != nil, nil
		}
		return it.functionProto.Has(key), nil
	case *RegExp:
		switch key {
		case "source", "flags", "global", "ignoreCase", "multiline", "sticky", "lastIndex":
			return true, nil
		}
		return it.regexpProto.Has(key), nil
	default:
		return false, it.throwError("TypeError", "cannot use 'in' operator to search for '"+key+"' in "+describe(obj))
	}
}

// ownKeys lists the enumerable own keys of a container.
func ownKeys(v Value) []string {
	switch v := v.(type) {
	case *Object:
		return v.Keys()
	case *Array:
		var keys []string
		for i, e := range v.Elems {
			if e != nil {
				keys = append(keys, strconv.Itoa(i))
			}
		}
		if v.props != nil {
			keys = append(keys, v.props.Keys()...)
		}
		return keys
	case String:
		keys := make([]string, v.Len())
		for i := range keys {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	case *Function:
		if v.props != nil {
			return v.props.Keys()
		}
	}
	return nil
}

// protoOf returns the object instanceof walks for v.
func (it *Interpreter) protoOf(v Value) *Object {
	switch v := v.(type) {
	case *Object:
		return v.Proto
	case *Array:
		return it.arrayProto
	case *Function:
		return it.functionProto
	case *RegExp:
		return it.regexpProto
	default:
		return nil
	}
}
