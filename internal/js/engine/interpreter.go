package engine

import (
	"context"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/GriffinCanCode/cipherjs/internal/js/ast"
	"github.com/GriffinCanCode/cipherjs/internal/js/lexer"
	"github.com/GriffinCanCode/cipherjs/internal/js/parser"
)

const (
	DefaultMaxDepth = 256
	DefaultMaxSteps = 10_000_000

	// checkEvery is the number of steps between deadline checks
	checkEvery = 1024
)

// Options bounds and parameterizes an Interpreter
type Options struct {
	// MaxDepth limits nested calls. Zero means DefaultMaxDepth.
	MaxDepth int

	// MaxSteps limits evaluated nodes per entry call. Zero means no limit.
	MaxSteps int64

	// Timeout limits the wall-clock time of an entry call. Zero means none.
	Timeout time.Duration

	// Clock backs Date.now and new Date(). Defaults to time.Now.
	Clock func() time.Time

	// Seed initializes Math.random
	Seed uint64
}

// Interpreter evaluates syntax trees against one global environment.
// It is not safe for concurrent use.
type Interpreter struct {
	prog   *ast.Program
	global *Env
	opts   Options

	ctx      context.Context
	deadline time.Time
	steps    int64
	depth    int
	pos      lexer.Position

	resolving map[string]bool
	regexps   map[string]*regexp2.Regexp
	random    *rand.Rand
	joining   map[*Array]bool

	objectProto   *Object
	functionProto *Object
	arrayProto    *Object
	stringProto   *Object
	numberProto   *Object
	booleanProto  *Object
	regexpProto   *Object
	dateProto     *Object
	errorProtos   map[string]*Object
}

// New creates an interpreter. When prog is not nil its top-level
// definitions become lazily resolved globals: nothing runs until a name is
// first looked up.
func New(prog *ast.Program, opts Options) *Interpreter {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	it := &Interpreter{
		prog:      prog,
		global:    NewGlobal(),
		opts:      opts,
		ctx:       context.Background(),
		resolving: make(map[string]bool),
		regexps:   make(map[string]*regexp2.Regexp),
		random:    rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
	it.setupGlobals()
	if prog != nil {
		it.global.SetResolver(it.resolveGlobal)
	}
	return it
}

// Globals returns the global environment
func (it *Interpreter) Globals() *Env {
	return it.global
}

// Steps returns the number of steps used by the last entry call
func (it *Interpreter) Steps() int64 {
	return it.steps
}

// PlainObject returns an empty object inheriting Object.prototype.
func (it *Interpreter) PlainObject() *Object {
	return NewObject(it.objectProto)
}

// NewDate returns a Date holding ms milliseconds since the epoch.
func (it *Interpreter) NewDate(ms float64) *Object {
	return it.newDate(ms)
}

// Closure creates a function value for lit over the global environment.
func (it *Interpreter) Closure(lit *ast.FunctionLit) *Function {
	return it.closure(lit, it.global)
}

// Call invokes fn with the given receiver and arguments.
func (it *Interpreter) Call(ctx context.Context, fn Value, this Value, args []Value) (Value, error) {
	it.begin(ctx)
	v, err := it.call(fn, this, args, it.pos)
	return it.finish(v, err)
}

// Evaluate evaluates a single expression in the global environment.
func (it *Interpreter) Evaluate(ctx context.Context, x ast.Expr) (Value, error) {
	it.begin(ctx)
	v, err := it.eval(x, it.global)
	return it.finish(v, err)
}

// Lookup resolves a global name, materializing it when needed.
func (it *Interpreter) Lookup(ctx context.Context, name string) (Value, bool, error) {
	it.begin(ctx)
	v, ok, err := it.global.Resolve(name)
	_, err = it.finish(v, err)
	return v, ok, err
}

// Run executes prog in the global environment and returns its completion
// value: the value of the last statement that produced one, as in eval.
func (it *Interpreter) Run(ctx context.Context, prog *ast.Program) (Value, error) {
	it.begin(ctx)
	it.hoist(prog.Scope, it.global)

	result := undefined
	for _, stmt := range prog.Body {
		// execStmt keeps the position of an exception raised by an expression
		sig, err := it.execStmt(stmt, it.global)
		if err != nil {
			return it.finish(nil, err)
		}
		switch sig.kind {
		case threw:
			return it.finish(nil, &Exception{Value: sig.value, Pos: stmt.Pos()})
		case returned:
			return it.finish(sig.value, nil)
		}
		if sig.value != nil {
			result = sig.value
		}
	}
	return it.finish(result, nil)
}

func (it *Interpreter) begin(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	it.ctx = ctx
	it.steps = 0
	it.depth = 0
	it.deadline = time.Time{}
	if it.opts.Timeout > 0 {
		it.deadline = time.Now().Add(it.opts.Timeout)
	}
}

// finish turns an escaping exception into a fatal error.
func (it *Interpreter) finish(v Value, err error) (Value, error) {
	if err == nil {
		return v, nil
	}
	if ex, ok := err.(*Exception); ok {
		return nil, &InterpreterError{
			Pos:    ex.Pos,
			Err:    ErrUncaught,
			Detail: describe(ex.Value),
			Value:  ex.Value,
		}
	}
	return nil, err
}

// tick accounts for one evaluation step at pos.
func (it *Interpreter) tick(pos lexer.Position) error {
	it.pos = pos
	it.steps++
	if it.opts.MaxSteps > 0 && it.steps > it.opts.MaxSteps {
		return fault(pos, ErrStepBudget, "more than %d steps", it.opts.MaxSteps)
	}
	if it.steps%checkEvery == 0 {
		if err := it.ctx.Err(); err != nil {
			return fault(pos, ErrCanceled, "%v", err)
		}
		if !it.deadline.IsZero() && time.Now().After(it.deadline) {
			return fault(pos, ErrCanceled, "timeout after %s", it.opts.Timeout)
		}
	}
	return nil
}

// fail reports a fault at the position of the current step.
func (it *Interpreter) fail(err error, format string, args ...any) error {
	return fault(it.pos, err, format, args...)
}

// resolveGlobal evaluates the definition of name found in the program.
func (it *Interpreter) resolveGlobal(name string) (Value, bool, error) {
	if it.resolving[name] {
		return nil, false, nil
	}
	defs := parser.TopLevel(it.prog, name)
	if len(defs) == 0 {
		defs = parser.Nested(it.prog, name)
	}
	if len(defs) == 0 {
		if slices.Contains(it.prog.Vars, name) {
			it.global.Declare(name, undefined)
			return undefined, true, nil
		}
		return nil, false, nil
	}

	def := defs[0]
	for _, d := range defs {
		if _, ok := d.Node.(*ast.FunctionDecl); ok {
			def = d
			break
		}
	}

	it.resolving[name] = true
	defer delete(it.resolving, name)

	v, err := it.eval(def.Value, it.global)
	if err != nil {
		return nil, false, err
	}
	it.global.Declare(name, v)
	return v, true, nil
}

// hoist binds the var names and function declarations of scope in env.
func (it *Interpreter) hoist(scope ast.Scope, env *Env) {
	for _, name := range scope.Vars {
		env.Declare(name, nil)
	}
	for _, decl := range scope.Funcs {
		env.Declare(decl.Func.Name, it.closure(decl.Func, env))
	}
}
