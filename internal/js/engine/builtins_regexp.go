package engine

func (it *Interpreter) setupRegExp() {
	p := it.regexpProto
	it.constructor("RegExp", p, regexpConstruct, regexpConstruct)

	method(p, "exec", func(it *Interpreter, this Value, args []Value) (Value, error) {
		r, s, err := it.regexpArgs(this, args, "exec")
		if err != nil {
			return nil, err
		}
		m, err := it.regexpExec(r, s)
		if err != nil {
			return nil, err
		}
		return it.matchResult(m, s), nil
	})
	method(p, "test", func(it *Interpreter, this Value, args []Value) (Value, error) {
		r, s, err := it.regexpArgs(this, args, "test")
		if err != nil {
			return nil, err
		}
		m, err := it.regexpExec(r, s)
		return Bool(m != nil), err
	})
	method(p, "toString", func(it *Interpreter, this Value, _ []Value) (Value, error) {
		r, ok := this.(*RegExp)
		if !ok {
			return nil, it.throwError("TypeError", "RegExp.prototype.toString requires that 'this' be a RegExp")
		}
		return String("/" + r.Source + "/" + r.Flags), nil
	})
}

// regexpConstruct serves both RegExp(pattern, flags) and new RegExp.
func regexpConstruct(it *Interpreter, _ Value, args []Value) (Value, error) {
	var source, flags string
	switch p := arg(args, 0).(type) {
	case *RegExp:
		if arg(args, 1) == undefined {
			return it.newRegExp(p.Source, p.Flags)
		}
		source = p.Source
	case Undefined:
		source = "(?:)"
	default:
		s, err := it.toString(p)
		if err != nil {
			return nil, err
		}
		source = string(s)
		if source == "" {
			source = "(?:)"
		}
	}
	if f := arg(args, 1); f != undefined {
		s, err := it.toString(f)
		if err != nil {
			return nil, err
		}
		flags = string(s)
	}
	return it.newRegExp(source, flags)
}

func (it *Interpreter) regexpArgs(this Value, args []Value, name string) (*RegExp, String, error) {
	r, ok := this.(*RegExp)
	if !ok {
		return nil, "", it.throwError("TypeError", "RegExp.prototype."+name+" requires that 'this' be a RegExp")
	}
	s, err := it.toString(arg(args, 0))
	return r, s, err
}
