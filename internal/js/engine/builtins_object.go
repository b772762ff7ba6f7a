package engine

func (it *Interpreter) setupObject() {
	p := it.objectProto
	ctor := it.constructor("Object", p, objectCall, objectCall)

	statics := ctor.Props()
	method(statics, "keys", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		keys, err := it.keysOf(arg(args, 0))
		if err != nil {
			return nil, err
		}
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = String(k)
		}
		return NewArray(out...), nil
	})
	method(statics, "values", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		obj := arg(args, 0)
		keys, err := it.keysOf(obj)
		if err != nil {
			return nil, err
		}
		out := make([]Value, len(keys))
		for i, k := range keys {
			if out[i], err = it.getMember(obj, k); err != nil {
				return nil, err
			}
		}
		return NewArray(out...), nil
	})
	method(statics, "entries", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		obj := arg(args, 0)
		keys, err := it.keysOf(obj)
		if err != nil {
			return nil, err
		}
		out := make([]Value, len(keys))
		for i, k := range keys {
			v, err := it.getMember(obj, k)
			if err != nil {
				return nil, err
			}
			out[i] = NewArray(String(k), v)
		}
		return NewArray(out...), nil
	})
	method(statics, "assign", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		target := arg(args, 0)
		if isNullish(target) {
			return nil, it.throwError("TypeError", "Cannot convert undefined or null to object")
		}
		for _, src := range rest(args, 1) {
			for _, k := range ownKeys(src) {
				v, err := it.getMember(src, k)
				if err != nil {
					return nil, err
				}
				if err := it.setMember(target, k, v); err != nil {
					return nil, err
				}
			}
		}
		return target, nil
	})
	method(statics, "create", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		switch proto := arg(args, 0).(type) {
		case Null:
			return NewObject(nil), nil
		case *Object:
			return NewObject(proto), nil
		default:
			return nil, it.throwError("TypeError", "Object prototype may only be an Object or null: "+describe(proto))
		}
	})
	method(statics, "getPrototypeOf", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		v := arg(args, 0)
		if isNullish(v) {
			return nil, it.throwError("TypeError", "Cannot convert undefined or null to object")
		}
		var proto *Object
		switch v.(type) {
		case String:
			proto = it.stringProto
		case Number:
			proto = it.numberProto
		case Bool:
			proto = it.booleanProto
		default:
			proto = it.protoOf(v)
		}
		if proto == nil {
			return null, nil
		}
		return proto, nil
	})
	method(statics, "freeze", func(_ *Interpreter, _ Value, args []Value) (Value, error) {
		return arg(args, 0), nil
	})
	method(statics, "defineProperty", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		obj := arg(args, 0)
		if !isObjectLike(obj) {
			return nil, it.throwError("TypeError", "Object.defineProperty called on non-object")
		}
		key, err := it.toPropertyKey(arg(args, 1))
		if err != nil {
			return nil, err
		}
		desc, ok := arg(args, 2).(*Object)
		if !ok {
			return nil, it.throwError("TypeError", "Property description must be an object")
		}
		if desc.Has("get") || desc.Has("set") {
			return nil, it.fail(ErrUnsupported, "accessor property %q", key)
		}
		v, _ := desc.Get("value")
		if v == nil {
			v = undefined
		}
		return obj, it.setMember(obj, key, v)
	})

	method(p, "hasOwnProperty", func(it *Interpreter, this Value, args []Value) (Value, error) {
		key, err := it.toPropertyKey(arg(args, 0))
		if err != nil {
			return nil, err
		}
		return Bool(hasOwn(this, key)), nil
	})
	method(p, "toString", func(_ *Interpreter, this Value, _ []Value) (Value, error) {
		return String("[object " + classOf(this) + "]"), nil
	})
	method(p, "valueOf", func(_ *Interpreter, this Value, _ []Value) (Value, error) {
		return this, nil
	})
}

func objectCall(it *Interpreter, _ Value, args []Value) (Value, error) {
	v := arg(args, 0)
	if isNullish(v) {
		return NewObject(it.objectProto), nil
	}
	return v, nil
}

// keysOf implements the key listing of Object.keys.
func (it *Interpreter) keysOf(v Value) ([]string, error) {
	if isNullish(v) {
		return nil, it.throwError("TypeError", "Cannot convert undefined or null to object")
	}
	return ownKeys(v), nil
}

func hasOwn(v Value, key string) bool {
	switch o := v.(type) {
	case *Object:
		_, ok := o.Own(key)
		return ok
	case *Array:
		if key == "length" {
			return true
		}
		if i, ok := arrayIndex(key); ok && i < len(o.Elems) {
			return o.Elems[i] != nil
		}
		if o.props != nil {
			_, ok := o.props.Own(key)
			return ok
		}
	case String:
		if key == "length" {
			return true
		}
		i, ok := arrayIndex(key)
		return ok && i < o.Len()
	case *Function:
		if key == "name" || key == "length" {
			return true
		}
		if o.props != nil {
			_, ok := o.props.Own(key)
			return ok
		}
	case *RegExp:
		return key == "lastIndex"
	}
	return false
}

func classOf(v Value) string {
	switch v := v.(type) {
	case Undefined:
		return "Undefined"
	case Null:
		return "Null"
	case Bool:
		return "Boolean"
	case Number:
		return "Number"
	case String:
		return "String"
	case *Array:
		return "Array"
	case *Function:
		return "Function"
	case *RegExp:
		return "RegExp"
	case *Object:
		return v.Class
	default:
		return "Object"
	}
}
