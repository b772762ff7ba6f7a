package jsinterp

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/cipherjs/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/cipherjs/internal/js/ast"
	"github.com/GriffinCanCode/cipherjs/internal/js/engine"
	"github.com/GriffinCanCode/cipherjs/internal/js/parser"
	"github.com/GriffinCanCode/cipherjs/internal/shared/id"
)

// Interpreter evaluates functions of one parsed source. The program is
// never run as a whole: top-level definitions are evaluated the first time
// a call refers to them. Calls on one Interpreter are serialized.
type Interpreter struct {
	id      id.InterpID
	src     string
	prog    *ast.Program
	eng     *engine.Interpreter
	log     *zap.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	handles map[string]*FunctionHandle
}

// New tokenizes and parses source.
func New(source string, opts ...Option) (*Interpreter, error) {
	o := newOptions(opts)
	prog, err := parse(source, o)
	if err != nil {
		return nil, err
	}
	return newInterpreter(source, prog, o), nil
}

func parse(source string, o options) (*ast.Program, error) {
	start := time.Now()
	prog, err := parser.ParseSource(source)
	if err != nil {
		o.metrics.RecordParse(monitoring.StatusError)
		o.logger.Warn("parse failed", zap.Int("source_bytes", len(source)), zap.Error(err))
		return nil, newError("parse", "", source, err)
	}
	o.metrics.RecordParse(monitoring.StatusOK)
	o.logger.Debug("parsed source",
		zap.Int("source_bytes", len(source)),
		zap.Int("statements", len(prog.Body)),
		zap.Duration("duration", time.Since(start)),
	)
	return prog, nil
}

func newInterpreter(source string, prog *ast.Program, o options) *Interpreter {
	in := &Interpreter{
		id:      id.NewInterpID(),
		src:     source,
		prog:    prog,
		eng:     engine.New(prog, o.engine),
		metrics: o.metrics,
		handles: make(map[string]*FunctionHandle),
	}
	in.log = o.logger.With(zap.String("interp_id", in.id.String()))
	return in
}

// ID returns the instance ID used in logs
func (in *Interpreter) ID() string {
	return in.id.String()
}

// Source returns the source text the interpreter was created from
func (in *Interpreter) Source() string {
	return in.src
}

// ExtractFunction finds the function name is bound to. Declarations,
// var/let/const initializers and assignments are recognized, at the top
// level first and then inside nested functions.
func (in *Interpreter) ExtractFunction(name string) (*FunctionHandle, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if h, ok := in.handles[name]; ok {
		return h, nil
	}
	lit, err := parser.ExtractFunction(in.prog, name)
	if err != nil {
		return nil, newError("extract", name, in.src, err)
	}
	h := &FunctionHandle{in: in, name: name, fn: in.eng.Closure(lit)}
	in.handles[name] = h
	return h, nil
}

// ExtractObject evaluates the object literal name is bound to.
func (in *Interpreter) ExtractObject(name string) (map[string]any, error) {
	return in.ExtractObjectContext(context.Background(), name)
}

// ExtractObjectContext is ExtractObject bounded by ctx
func (in *Interpreter) ExtractObjectContext(ctx context.Context, name string) (map[string]any, error) {
	lit, err := parser.ExtractObject(in.prog, name)
	if err != nil {
		return nil, newError("extract", name, in.src, err)
	}
	v, err := in.run(ctx, "extract", name, in.src, func(ctx context.Context) (engine.Value, error) {
		return in.eng.Evaluate(ctx, lit)
	})
	if err != nil {
		return nil, err
	}
	obj, _ := v.(map[string]any)
	return obj, nil
}

// CallFunction calls the function name is bound to with args.
func (in *Interpreter) CallFunction(name string, args ...any) (any, error) {
	return in.CallFunctionContext(context.Background(), name, args...)
}

// CallFunctionContext is CallFunction bounded by ctx
func (in *Interpreter) CallFunctionContext(ctx context.Context, name string, args ...any) (any, error) {
	h, err := in.ExtractFunction(name)
	if err != nil {
		return nil, err
	}
	return h.CallContext(ctx, args...)
}

// Eval evaluates a snippet against the globals and returns its completion
// value, so Eval("if (x) { 1 } else { 2 }") yields 1 or 2. var declarations of the snippet become
// globals.
func (in *Interpreter) Eval(src string) (any, error) {
	return in.EvalContext(context.Background(), src)
}

// EvalContext is Eval bounded by ctx
func (in *Interpreter) EvalContext(ctx context.Context, src string) (any, error) {
	prog, err := parser.ParseSource(src)
	if err != nil {
		return nil, newError("eval", "", src, err)
	}
	return in.run(ctx, "eval", "", src, func(ctx context.Context) (engine.Value, error) {
		return in.eng.Run(ctx, prog)
	})
}

// Define binds a host value as a global, replacing any lazily resolved
// definition of the same name.
func (in *Interpreter) Define(name string, value any) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	v, err := in.toValue(value)
	if err != nil {
		return &Error{Op: "define", Name: name, Err: err}
	}
	in.eng.Globals().Declare(name, v)
	return nil
}

// run executes fn under the instance lock with logging and metrics. src is
// the text that fault positions refer to.
func (in *Interpreter) run(ctx context.Context, op, name, src string, fn func(context.Context) (engine.Value, error)) (any, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	label := name
	if label == "" {
		label = op
	}
	log := in.log.With(zap.String("call_id", id.NewCallID().String()), zap.String("function", label))
	log.Debug("call started", zap.String("op", op))

	timer := monitoring.NewTimer(in.metrics, label)
	v, err := fn(ctx)
	steps := in.eng.Steps()
	if err != nil {
		duration := timer.Stop(monitoring.StatusError, steps)
		log.Warn("call failed",
			zap.String("op", op),
			zap.Duration("duration", duration),
			zap.Int64("steps", steps),
			zap.Error(err),
		)
		e := newError(op, name, src, err)
		if ie := (*engine.InterpreterError)(nil); errors.As(err, &ie) && errors.Is(ie.Err, engine.ErrUncaught) {
			e.Thrown = in.fromValue(ie.Value)
		}
		return nil, e
	}
	duration := timer.Stop(monitoring.StatusOK, steps)
	log.Debug("call finished",
		zap.String("op", op),
		zap.Duration("duration", duration),
		zap.Int64("steps", steps),
	)
	return in.fromValue(v), nil
}

func newError(op, name, src string, err error) *Error {
	e := &Error{Op: op, Name: name, Err: err}
	if pos, ok := errorPos(err); ok {
		e.Pos = pos
		e.Excerpt = excerpt(src, pos)
	}
	return e
}

// FunctionHandle is a callable JavaScript function of an Interpreter.
type FunctionHandle struct {
	in   *Interpreter
	name string
	fn   *engine.Function
}

// Name returns the name the function was extracted under
func (h *FunctionHandle) Name() string {
	return h.name
}

// Source returns the source text of the function, if it has any
func (h *FunctionHandle) Source() string {
	if h.fn.Lit == nil {
		return ""
	}
	return h.fn.Lit.Source
}

// Call calls the function with args and an undefined this.
func (h *FunctionHandle) Call(args ...any) (any, error) {
	return h.CallContext(context.Background(), args...)
}

// CallContext is Call bounded by ctx
func (h *FunctionHandle) CallContext(ctx context.Context, args ...any) (any, error) {
	in := h.in
	return in.run(ctx, "call", h.name, in.src, func(ctx context.Context) (engine.Value, error) {
		vals := make([]engine.Value, 0, len(args))
		for _, a := range args {
			v, err := in.toValue(a)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return in.eng.Call(ctx, h.fn, engine.Undefined{}, vals)
	})
}
