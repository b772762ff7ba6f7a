package engine

import (
	"github.com/GriffinCanCode/cipherjs/internal/js/ast"
	"github.com/GriffinCanCode/cipherjs/internal/js/lexer"
)

func (it *Interpreter) call(fn Value, this Value, args []Value, pos lexer.Position) (Value, error) {
	f, ok := fn.(*Function)
	if !ok {
		return nil, fault(pos, ErrNotCallable, "%s is not a function", describe(fn))
	}
	return it.callFunction(f, this, args)
}

// callFunction invokes f. A throw completion escaping the body is returned
// as an *Exception.
func (it *Interpreter) callFunction(f *Function, this Value, args []Value) (Value, error) {
	if f.bound != nil {
		return it.callFunction(f.bound, f.boundThis, joinArgs(f.boundArgs, args))
	}
	if f.Native != nil {
		return f.Native(it, this, args)
	}
	if f.Lit == nil {
		return nil, it.fail(ErrNotCallable, "%s is not a function", describe(f))
	}

	it.depth++
	defer func() { it.depth-- }()
	if it.depth > it.opts.MaxDepth {
		return nil, it.fail(ErrRecursionLimit, "depth %d in %s", it.opts.MaxDepth, f.Name)
	}

	lit := f.Lit
	var env *Env
	if lit.Arrow {
		env = NewFunctionEnv(f.Env, nil)
	} else {
		env = NewFunctionEnv(f.Env, this)
		env.Declare("arguments", NewArray(joinArgs(nil, args)...))
	}
	for i, name := range lit.Params {
		env.Declare(name, arg(args, i))
	}
	it.hoist(lit.Scope, env)

	if lit.Expr != nil {
		return it.eval(lit.Expr, env)
	}
	sig, err := it.execBlock(lit.Body, env)
	if err != nil {
		return nil, err
	}
	switch sig.kind {
	case returned:
		return sig.value, nil
	case threw:
		return nil, &Exception{Value: sig.value, Pos: it.pos}
	default:
		return undefined, nil
	}
}

// construct implements new.
func (it *Interpreter) construct(callee Value, args []Value, x *ast.Call) (Value, error) {
	f, ok := callee.(*Function)
	if !ok {
		return nil, fault(x.Pos(), ErrNotCallable, "%s is not a constructor", exprName(x.Callee))
	}
	for f.bound != nil {
		args = joinArgs(f.boundArgs, args)
		f = f.bound
	}
	if f.Construct != nil {
		return f.Construct(it, undefined, args)
	}
	if f.Lit == nil || f.Lit.Arrow {
		return nil, fault(x.Pos(), ErrNotCallable, "%s is not a constructor", exprName(x.Callee))
	}
	obj := NewObject(it.functionPrototype(f))
	res, err := it.callFunction(f, obj, args)
	if err != nil {
		return nil, err
	}
	if isObjectLike(res) {
		return res, nil
	}
	return obj, nil
}

func (it *Interpreter) closure(lit *ast.FunctionLit, env *Env) *Function {
	return &Function{Name: lit.Name, Lit: lit, Env: env}
}

// functionPrototype returns the prototype property of a constructor,
// creating it on first use. Arrow functions and plain builtins have none.
func (it *Interpreter) functionPrototype(f *Function) *Object {
	if f.props != nil {
		if v, ok := f.props.Own("prototype"); ok {
			p, _ := v.(*Object)
			return p
		}
	}
	if f.Lit == nil || f.Lit.Arrow {
		return nil
	}
	p := NewObject(it.objectProto)
	p.Set("constructor", f)
	f.Props().Set("prototype", p)
	return p
}

// nameFunction gives an anonymous closure the name it is bound to.
func (it *Interpreter) nameFunction(v Value, name string) {
	if f, ok := v.(*Function); ok && f.Name == "" && f.Lit != nil {
		f.Name = name
	}
}

// throwError raises a catchable error object of the named constructor.
func (it *Interpreter) throwError(name, msg string) error {
	return &Exception{Value: it.newError(name, msg), Pos: it.pos}
}

func (it *Interpreter) newError(name, msg string) *Object {
	proto, ok := it.errorProtos[name]
	if !ok {
		proto = it.errorProtos["Error"]
	}
	o := NewObject(proto)
	o.Class = ClassError
	if msg != "" {
		o.Set("message", String(msg))
	}
	return o
}

func native(name string, fn NativeFunc) *Function {
	return &Function{Name: name, Native: fn}
}

// method installs a native function on obj under name.
func method(obj *Object, name string, fn NativeFunc) {
	obj.Set(name, native(name, fn))
}

func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return undefined
}

// rest returns args from i on
func rest(args []Value, i int) []Value {
	if i >= len(args) {
		return nil
	}
	return args[i:]
}

func joinArgs(a, b []Value) []Value {
	out := make([]Value, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

// callback resolves a function argument of a builtin.
func (it *Interpreter) callback(args []Value, i int, who string) (*Function, error) {
	f, ok := arg(args, i).(*Function)
	if !ok {
		return nil, it.throwError("TypeError", describe(arg(args, i))+" is not a function in "+who)
	}
	return f, nil
}
