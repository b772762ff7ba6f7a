package engine

import (
	"github.com/GriffinCanCode/cipherjs/internal/js/ast"
)

func (it *Interpreter) eval(x ast.Expr, env *Env) (Value, error) {
	if err := it.tick(x.Pos()); err != nil {
		return nil, err
	}
	switch x := x.(type) {
	case *ast.Literal:
		return literal(x), nil
	case *ast.Identifier:
		return it.evalIdentifier(x, env)
	case *ast.Member:
		obj, err := it.eval(x.Object, env)
		if err != nil {
			return nil, err
		}
		if x.Optional && isNullish(obj) {
			return undefined, nil
		}
		key, err := it.memberKey(x, env)
		if err != nil {
			return nil, err
		}
		return it.getMember(obj, key)
	case *ast.Call:
		return it.evalCall(x, env)
	case *ast.Binary:
		left, err := it.eval(x.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := it.eval(x.Right, env)
		if err != nil {
			return nil, err
		}
		return it.binary(x.Op, left, right)
	case *ast.Logical:
		return it.evalLogical(x, env)
	case *ast.Unary:
		return it.evalUnary(x, env)
	case *ast.Update:
		return it.evalUpdate(x, env)
	case *ast.Assign:
		return it.evalAssign(x, env)
	case *ast.Ternary:
		cond, err := it.eval(x.Cond, env)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return it.eval(x.Then, env)
		}
		return it.eval(x.Else, env)
	case *ast.Sequence:
		var last Value = undefined
		for _, e := range x.List {
			v, err := it.eval(e, env)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	case *ast.This:
		return env.This(), nil
	case *ast.ArrayLit:
		return it.evalArray(x, env)
	case *ast.ObjectLit:
		return it.evalObject(x, env)
	case *ast.FunctionLit:
		return it.evalFunction(x, env), nil
	case *ast.RegexLit:
		return it.newRegExp(x.Pattern, x.Flags)
	default:
		return nil, fault(x.Pos(), ErrUnsupported, "expression %T", x)
	}
}

func literal(x *ast.Literal) Value {
	switch x.Kind {
	case ast.NumberLit:
		return Number(x.Num)
	case ast.StringLit:
		return String(x.Str)
	case ast.BoolLit:
		return Bool(x.Bool)
	default:
		return null
	}
}

func (it *Interpreter) evalIdentifier(x *ast.Identifier, env *Env) (Value, error) {
	v, ok, err := env.Resolve(x.Name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault(x.Pos(), ErrUndefinedIdentifier, "%s is not defined", x.Name)
	}
	return v, nil
}

func (it *Interpreter) memberKey(x *ast.Member, env *Env) (string, error) {
	if !x.Computed {
		return x.Property.(*ast.Identifier).Name, nil
	}
	key, err := it.eval(x.Property, env)
	if err != nil {
		return "", err
	}
	return it.toPropertyKey(key)
}

func (it *Interpreter) evalArray(x *ast.ArrayLit, env *Env) (Value, error) {
	elems := make([]Value, len(x.Elems))
	for i, e := range x.Elems {
		if e == nil {
			continue
		}
		v, err := it.eval(e, env)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return NewArray(elems...), nil
}

func (it *Interpreter) evalObject(x *ast.ObjectLit, env *Env) (Value, error) {
	obj := NewObject(it.objectProto)
	for _, p := range x.Props {
		key := p.Key
		if p.Computed != nil {
			k, err := it.eval(p.Computed, env)
			if err != nil {
				return nil, err
			}
			if key, err = it.toPropertyKey(k); err != nil {
				return nil, err
			}
		}
		v, err := it.eval(p.Value, env)
		if err != nil {
			return nil, err
		}
		it.nameFunction(v, key)
		obj.Set(key, v)
	}
	return obj, nil
}

// evalFunction creates a closure. A named function expression can refer to
// itself through a frame holding only its name.
func (it *Interpreter) evalFunction(x *ast.FunctionLit, env *Env) Value {
	if x.Name == "" || x.Arrow {
		return it.closure(x, env)
	}
	own := NewBlockEnv(env)
	fn := it.closure(x, own)
	own.DeclareLexical(x.Name, fn)
	return fn
}

func (it *Interpreter) evalCall(x *ast.Call, env *Env) (Value, error) {
	if x.New {
		callee, err := it.eval(x.Callee, env)
		if err != nil {
			return nil, err
		}
		args, err := it.evalArgs(x.Args, env)
		if err != nil {
			return nil, err
		}
		return it.construct(callee, args, x)
	}

	var (
		fn   Value
		this = undefined
		err  error
	)
	if m, ok := x.Callee.(*ast.Member); ok {
		obj, err := it.eval(m.Object, env)
		if err != nil {
			return nil, err
		}
		if m.Optional && isNullish(obj) {
			return undefined, nil
		}
		key, err := it.memberKey(m, env)
		if err != nil {
			return nil, err
		}
		if fn, err = it.getMember(obj, key); err != nil {
			return nil, err
		}
		this = obj
	} else if fn, err = it.eval(x.Callee, env); err != nil {
		return nil, err
	}

	args, err := it.evalArgs(x.Args, env)
	if err != nil {
		return nil, err
	}
	f, ok := fn.(*Function)
	if !ok {
		return nil, fault(x.Pos(), ErrNotCallable, "%s is not a function", exprName(x.Callee))
	}
	return it.callFunction(f, this, args)
}

func (it *Interpreter) evalArgs(list []ast.Expr, env *Env) ([]Value, error) {
	if len(list) == 0 {
		return nil, nil
	}
	args := make([]Value, len(list))
	for i, e := range list {
		v, err := it.eval(e, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (it *Interpreter) evalLogical(x *ast.Logical, env *Env) (Value, error) {
	left, err := it.eval(x.Left, env)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "&&":
		if !Truthy(left) {
			return left, nil
		}
	case "||":
		if Truthy(left) {
			return left, nil
		}
	case "??":
		if !isNullish(left) {
			return left, nil
		}
	}
	return it.eval(x.Right, env)
}

func (it *Interpreter) evalUnary(x *ast.Unary, env *Env) (Value, error) {
	switch x.Op {
	case "typeof":
		if id, ok := x.X.(*ast.Identifier); ok {
			v, found, err := env.Resolve(id.Name)
			if err != nil {
				return nil, err
			}
			if !found {
				return String("undefined"), nil
			}
			return String(v.Type()), nil
		}
	case "delete":
		switch target := x.X.(type) {
		case *ast.Member:
			obj, err := it.eval(target.Object, env)
			if err != nil {
				return nil, err
			}
			key, err := it.memberKey(target, env)
			if err != nil {
				return nil, err
			}
			return it.deleteMember(obj, key)
		case *ast.Identifier:
			return Bool(false), nil
		}
	}

	v, err := it.eval(x.X, env)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "typeof":
		return String(v.Type()), nil
	case "delete":
		return Bool(true), nil
	case "void":
		return undefined, nil
	case "!":
		return Bool(!Truthy(v)), nil
	}
	n, err := it.toNumber(v)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "-":
		return Number(-n), nil
	case "+":
		return Number(n), nil
	case "~":
		return Number(^ToInt32(n)), nil
	default:
		return nil, fault(x.Pos(), ErrUnsupported, "unary operator %s", x.Op)
	}
}

// reference is an assignable location: a binding or an object property.
type reference struct {
	name string
	env  *Env

	obj Value
	key string
}

func (it *Interpreter) evalReference(target ast.Expr, env *Env) (reference, error) {
	switch t := target.(type) {
	case *ast.Identifier:
		return reference{name: t.Name, env: env}, nil
	case *ast.Member:
		obj, err := it.eval(t.Object, env)
		if err != nil {
			return reference{}, err
		}
		key, err := it.memberKey(t, env)
		if err != nil {
			return reference{}, err
		}
		return reference{obj: obj, key: key}, nil
	default:
		return reference{}, fault(target.Pos(), ErrUnsupported, "assignment to %T", target)
	}
}

func (it *Interpreter) getReference(ref reference, pos ast.Node) (Value, error) {
	if ref.env == nil {
		return it.getMember(ref.obj, ref.key)
	}
	v, ok, err := ref.env.Resolve(ref.name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fault(pos.Pos(), ErrUndefinedIdentifier, "%s is not defined", ref.name)
	}
	return v, nil
}

func (it *Interpreter) putReference(ref reference, v Value) error {
	if ref.env == nil {
		return it.setMember(ref.obj, ref.key, v)
	}
	it.nameFunction(v, ref.name)
	ref.env.Assign(ref.name, v)
	return nil
}

func (it *Interpreter) assignTo(target ast.Expr, v Value, env *Env) error {
	ref, err := it.evalReference(target, env)
	if err != nil {
		return err
	}
	return it.putReference(ref, v)
}

func (it *Interpreter) evalAssign(x *ast.Assign, env *Env) (Value, error) {
	ref, err := it.evalReference(x.Target, env)
	if err != nil {
		return nil, err
	}
	if x.Op == "=" {
		v, err := it.eval(x.Value, env)
		if err != nil {
			return nil, err
		}
		return v, it.putReference(ref, v)
	}

	old, err := it.getReference(ref, x)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "&&=":
		if !Truthy(old) {
			return old, nil
		}
	case "||=":
		if Truthy(old) {
			return old, nil
		}
	case "??=":
		if !isNullish(old) {
			return old, nil
		}
	}
	right, err := it.eval(x.Value, env)
	if err != nil {
		return nil, err
	}
	v := right
	switch x.Op {
	case "&&=", "||=", "??=":
	default:
		if v, err = it.binary(x.Op[:len(x.Op)-1], old, right); err != nil {
			return nil, err
		}
	}
	return v, it.putReference(ref, v)
}

func (it *Interpreter) evalUpdate(x *ast.Update, env *Env) (Value, error) {
	ref, err := it.evalReference(x.X, env)
	if err != nil {
		return nil, err
	}
	old, err := it.getReference(ref, x)
	if err != nil {
		return nil, err
	}
	n, err := it.toNumber(old)
	if err != nil {
		return nil, err
	}
	next := n + 1
	if x.Op == "--" {
		next = n - 1
	}
	if err := it.putReference(ref, Number(next)); err != nil {
		return nil, err
	}
	if x.Prefix {
		return Number(next), nil
	}
	return Number(n), nil
}

// exprName renders a callee for error messages.
func exprName(x ast.Expr) string {
	switch x := x.(type) {
	case *ast.Identifier:
		return x.Name
	case *ast.This:
		return "this"
	case *ast.Member:
		if !x.Computed {
			return exprName(x.Object) + "." + x.Property.(*ast.Identifier).Name
		}
		if lit, ok := x.Property.(*ast.Literal); ok && lit.Kind == ast.StringLit {
			return exprName(x.Object) + "[\"" + lit.Str + "\"]"
		}
		return exprName(x.Object) + "[...]"
	case *ast.Call:
		return exprName(x.Callee) + "(...)"
	default:
		return "expression"
	}
}
