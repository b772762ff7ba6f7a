package engine

// Resolver supplies a global binding on its first lookup
type Resolver func(name string) (Value, bool, error)

// Env is a scope frame. Function frames receive var declarations and the
// this binding; block frames only hold let and const.
type Env struct {
	vars   map[string]Value
	parent *Env

	function bool
	this     Value
	resolver Resolver
}

// NewGlobal creates the outermost frame
func NewGlobal() *Env {
	return &Env{
		vars:     make(map[string]Value),
		function: true,
		this:     undefined,
	}
}

// NewFunctionEnv creates the frame of a call. Arrow functions have no this
// of their own and pass a nil this.
func NewFunctionEnv(parent *Env, this Value) *Env {
	return &Env{
		vars:     make(map[string]Value),
		parent:   parent,
		function: true,
		this:     this,
	}
}

// NewBlockEnv creates a frame for let and const
func NewBlockEnv(parent *Env) *Env {
	return &Env{parent: parent}
}

// copyFrame returns a sibling of a block frame holding copies of its
// bindings.
func (e *Env) copyFrame() *Env {
	out := &Env{parent: e.parent, vars: make(map[string]Value, len(e.vars))}
	for k, v := range e.vars {
		out.vars[k] = v
	}
	return out
}

func (e *Env) SetResolver(r Resolver) {
	e.resolver = r
}

// Lookup walks the chain outwards
func (e *Env) Lookup(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Resolve is Lookup followed by the resolver of the global frame.
func (e *Env) Resolve(name string) (Value, bool, error) {
	if v, ok := e.Lookup(name); ok {
		return v, true, nil
	}
	g := e.Global()
	if g.resolver == nil {
		return nil, false, nil
	}
	return g.resolver(name)
}

// Declare binds a var in the nearest function frame. An existing binding
// keeps its value when v is nil.
func (e *Env) Declare(name string, v Value) {
	fn := e.scope()
	if _, ok := fn.vars[name]; ok && v == nil {
		return
	}
	if v == nil {
		v = undefined
	}
	fn.vars[name] = v
}

// DeclareLexical binds a let or const in this frame
func (e *Env) DeclareLexical(name string, v Value) {
	if e.vars == nil {
		e.vars = make(map[string]Value)
	}
	e.vars[name] = v
}

// Assign updates the nearest frame holding name, or creates a global.
func (e *Env) Assign(name string, v Value) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = v
			return
		}
	}
	e.Global().vars[name] = v
}

// Has reports whether name is bound in this frame only
func (e *Env) Has(name string) bool {
	_, ok := e.vars[name]
	return ok
}

// This returns the this binding of the nearest non-arrow function frame.
func (e *Env) This() Value {
	for env := e; env != nil; env = env.parent {
		if env.this != nil {
			return env.this
		}
	}
	return undefined
}

func (e *Env) Global() *Env {
	env := e
	for env.parent != nil {
		env = env.parent
	}
	return env
}

func (e *Env) scope() *Env {
	env := e
	for !env.function && env.parent != nil {
		env = env.parent
	}
	return env
}
