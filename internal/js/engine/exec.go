package engine

import (
	"slices"

	"github.com/GriffinCanCode/cipherjs/internal/js/ast"
)

type completion int

const (
	normal completion = iota
	returned
	broke
	continued
	threw
)

// signal is the completion record of a statement. A nil value is an empty
// completion, which leaves the value of the enclosing statement list alone.
type signal struct {
	kind  completion
	value Value
	label string
}

var sigNormal = signal{}

// exec runs a statement. A JavaScript exception raised while evaluating an
// expression becomes a throw completion here; every other error is fatal.
func (it *Interpreter) exec(s ast.Stmt, env *Env) (signal, error) {
	sig, err := it.execStmt(s, env)
	if ex, ok := err.(*Exception); ok {
		return signal{kind: threw, value: ex.Value}, nil
	}
	return sig, err
}

func (it *Interpreter) execStmt(s ast.Stmt, env *Env) (signal, error) {
	if err := it.tick(s.Pos()); err != nil {
		return sigNormal, err
	}
	switch s := s.(type) {
	case *ast.ExprStmt:
		v, err := it.eval(s.X, env)
		if err != nil {
			return sigNormal, err
		}
		return signal{value: v}, nil
	case *ast.VarDecl:
		return sigNormal, it.execVarDecl(s, env)
	case *ast.Return:
		if s.Value == nil {
			return signal{kind: returned, value: undefined}, nil
		}
		v, err := it.eval(s.Value, env)
		if err != nil {
			return sigNormal, err
		}
		return signal{kind: returned, value: v}, nil
	case *ast.If:
		cond, err := it.eval(s.Cond, env)
		if err != nil {
			return sigNormal, err
		}
		branch := s.Else
		if Truthy(cond) {
			branch = s.Then
		}
		if branch == nil {
			return signal{value: undefined}, nil
		}
		sig, err := it.exec(branch, env)
		return sig.orValue(undefined), err
	case *ast.Block:
		return it.execBlock(s.Body, NewBlockEnv(env))
	case *ast.For, *ast.ForIn, *ast.While, *ast.DoWhile:
		return it.execLoop(s, env, nil)
	case *ast.Switch:
		return it.execSwitch(s, env)
	case *ast.Try:
		return it.execTry(s, env)
	case *ast.Throw:
		v, err := it.eval(s.Value, env)
		if err != nil {
			return sigNormal, err
		}
		return signal{kind: threw, value: v}, nil
	case *ast.Break:
		return signal{kind: broke, label: s.Label}, nil
	case *ast.Continue:
		return signal{kind: continued, label: s.Label}, nil
	case *ast.Labeled:
		return it.execLabeled(s, env)
	case *ast.FunctionDecl, *ast.Empty:
		return sigNormal, nil
	default:
		return sigNormal, fault(s.Pos(), ErrUnsupported, "statement %T", s)
	}
}

// orValue fills an empty completion with v. Return and throw completions
// always carry their own value.
func (sig signal) orValue(v Value) signal {
	if sig.value == nil {
		sig.value = v
	}
	return sig
}

func (it *Interpreter) execBlock(body []ast.Stmt, env *Env) (signal, error) {
	var last Value
	for _, s := range body {
		sig, err := it.exec(s, env)
		if err != nil {
			return sig, err
		}
		if sig.kind != normal {
			return sig.orValue(last), nil
		}
		if sig.value != nil {
			last = sig.value
		}
	}
	return signal{value: last}, nil
}

func (it *Interpreter) execVarDecl(s *ast.VarDecl, env *Env) error {
	for _, d := range s.Decls {
		if d.Init == nil {
			if s.Kind == "var" {
				env.Declare(d.Name, nil)
			} else {
				env.DeclareLexical(d.Name, undefined)
			}
			continue
		}
		v, err := it.eval(d.Init, env)
		if err != nil {
			return err
		}
		it.nameFunction(v, d.Name)
		if s.Kind == "var" {
			env.Declare(d.Name, v)
		} else {
			env.DeclareLexical(d.Name, v)
		}
	}
	return nil
}

func (it *Interpreter) execLabeled(s *ast.Labeled, env *Env) (signal, error) {
	labels := []string{s.Label}
	body := s.Body
	for {
		inner, ok := body.(*ast.Labeled)
		if !ok {
			break
		}
		labels = append(labels, inner.Label)
		body = inner.Body
	}

	var (
		sig signal
		err error
	)
	switch body.(type) {
	case *ast.For, *ast.ForIn, *ast.While, *ast.DoWhile:
		sig, err = it.execLoop(body, env, labels)
	default:
		sig, err = it.exec(body, env)
	}
	if err != nil {
		return sig, err
	}
	if sig.kind == broke && slices.Contains(labels, sig.label) {
		return signal{value: sig.value}, nil
	}
	return sig, nil
}

// loopControl interprets the completion of a loop body. It reports whether
// the loop stops and the completion the loop itself produces. last holds
// the value of the most recent non-empty body completion.
func loopControl(sig signal, labels []string, last *Value) (bool, signal) {
	if sig.kind == returned || sig.kind == threw {
		return true, sig
	}
	if sig.value != nil {
		*last = sig.value
	}
	own := sig.label == "" || slices.Contains(labels, sig.label)
	switch sig.kind {
	case broke:
		if own {
			return true, signal{value: *last}
		}
		return true, signal{kind: broke, label: sig.label, value: *last}
	case continued:
		if own {
			return false, signal{}
		}
		return true, signal{kind: continued, label: sig.label, value: *last}
	default:
		return false, signal{}
	}
}

func (it *Interpreter) execLoop(s ast.Stmt, env *Env, labels []string) (signal, error) {
	switch s := s.(type) {
	case *ast.For:
		return it.execFor(s, env, labels)
	case *ast.ForIn:
		return it.execForIn(s, env, labels)
	case *ast.While:
		last := undefined
		for {
			cond, err := it.eval(s.Cond, env)
			if err != nil {
				return sigNormal, err
			}
			if !Truthy(cond) {
				return signal{value: last}, nil
			}
			sig, err := it.exec(s.Body, env)
			if err != nil {
				return sig, err
			}
			if stop, out := loopControl(sig, labels, &last); stop {
				return out, nil
			}
		}
	case *ast.DoWhile:
		last := undefined
		for {
			sig, err := it.exec(s.Body, env)
			if err != nil {
				return sig, err
			}
			if stop, out := loopControl(sig, labels, &last); stop {
				return out, nil
			}
			cond, err := it.eval(s.Cond, env)
			if err != nil {
				return sigNormal, err
			}
			if !Truthy(cond) {
				return signal{value: last}, nil
			}
		}
	default:
		return it.exec(s, env)
	}
}

// execFor runs a for loop. A let declaration in the head gets a fresh copy
// of its bindings for every iteration, so closures created in the body keep
// the value of their own iteration.
func (it *Interpreter) execFor(s *ast.For, env *Env, labels []string) (signal, error) {
	loopEnv := NewBlockEnv(env)
	if s.Init != nil {
		sig, err := it.exec(s.Init, loopEnv)
		if err != nil || sig.kind != normal {
			return sig, err
		}
	}
	decl, ok := s.Init.(*ast.VarDecl)
	perIteration := ok && decl.Kind == "let"
	if perIteration {
		loopEnv = loopEnv.copyFrame()
	}

	last := undefined
	for {
		if s.Cond != nil {
			cond, err := it.eval(s.Cond, loopEnv)
			if err != nil {
				return sigNormal, err
			}
			if !Truthy(cond) {
				return signal{value: last}, nil
			}
		}
		sig, err := it.exec(s.Body, loopEnv)
		if err != nil {
			return sig, err
		}
		if stop, out := loopControl(sig, labels, &last); stop {
			return out, nil
		}
		if perIteration {
			loopEnv = loopEnv.copyFrame()
		}
		if s.Update != nil {
			if _, err := it.eval(s.Update, loopEnv); err != nil {
				return sigNormal, err
			}
		}
	}
}

func (it *Interpreter) execForIn(s *ast.ForIn, env *Env, labels []string) (signal, error) {
	obj, err := it.eval(s.Object, env)
	if err != nil {
		return sigNormal, err
	}
	var items []Value
	if s.Of {
		items, err = it.iterate(obj)
	} else {
		items = enumerate(obj)
	}
	if err != nil {
		return sigNormal, err
	}

	last := undefined
	for _, item := range items {
		iterEnv := env
		switch s.Kind {
		case "":
			if err := it.assignTo(s.Target, item, env); err != nil {
				return sigNormal, err
			}
		case "var":
			env.Declare(s.Target.(*ast.Identifier).Name, item)
		default:
			iterEnv = NewBlockEnv(env)
			iterEnv.DeclareLexical(s.Target.(*ast.Identifier).Name, item)
		}
		sig, err := it.exec(s.Body, iterEnv)
		if err != nil {
			return sig, err
		}
		if stop, out := loopControl(sig, labels, &last); stop {
			return out, nil
		}
	}
	return signal{value: last}, nil
}

// enumerate lists the keys visited by for-in.
func enumerate(v Value) []Value {
	keys := ownKeys(v)
	out := make([]Value, len(keys))
	for i, k := range keys {
		out[i] = String(k)
	}
	return out
}

// iterate lists the values visited by for-of.
func (it *Interpreter) iterate(v Value) ([]Value, error) {
	switch v := v.(type) {
	case *Array:
		items := make([]Value, len(v.Elems))
		for i := range v.Elems {
			items[i] = v.At(i)
		}
		return items, nil
	case String:
		var items []Value
		for _, r := range toRunes(string(v)) {
			items = append(items, String(runesToString([]rune{r})))
		}
		return items, nil
	default:
		return nil, it.throwError("TypeError", describe(v)+" is not iterable")
	}
}

func (it *Interpreter) execSwitch(s *ast.Switch, env *Env) (signal, error) {
	disc, err := it.eval(s.Disc, env)
	if err != nil {
		return sigNormal, err
	}

	start := -1
	for i, c := range s.Cases {
		if c.Test == nil {
			continue
		}
		v, err := it.eval(c.Test, env)
		if err != nil {
			return sigNormal, err
		}
		if StrictEqual(disc, v) {
			start = i
			break
		}
	}
	if start < 0 {
		start = slices.IndexFunc(s.Cases, func(c *ast.Case) bool { return c.Test == nil })
		if start < 0 {
			return signal{value: undefined}, nil
		}
	}

	blockEnv := NewBlockEnv(env)
	last := undefined
	for _, c := range s.Cases[start:] {
		sig, err := it.execBlock(c.Body, blockEnv)
		if err != nil {
			return sig, err
		}
		if sig.value != nil && sig.kind != returned && sig.kind != threw {
			last = sig.value
		}
		switch {
		case sig.kind == broke && sig.label == "":
			return signal{value: last}, nil
		case sig.kind == broke || sig.kind == continued:
			return sig.orValue(last), nil
		case sig.kind != normal:
			return sig, nil
		}
	}
	return signal{value: last}, nil
}

// execTry runs the protected block, the handler for a throw completion and
// then the finalizer. A finalizer that completes abruptly replaces the
// pending completion.
func (it *Interpreter) execTry(s *ast.Try, env *Env) (signal, error) {
	sig, err := it.exec(s.Block, env)
	if err != nil {
		return sig, err
	}
	if sig.kind == threw && s.Catch != nil {
		catchEnv := NewBlockEnv(env)
		if s.Param != "" {
			catchEnv.DeclareLexical(s.Param, sig.value)
		}
		sig, err = it.execBlock(s.Catch.Body, catchEnv)
		if err != nil {
			return sig, err
		}
	}
	if s.Finally != nil {
		fin, err := it.exec(s.Finally, env)
		if err != nil {
			return fin, err
		}
		if fin.kind != normal {
			return fin, nil
		}
	}
	return sig.orValue(undefined), nil
}
