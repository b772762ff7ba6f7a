package engine

import (
	"math"
	"slices"

	"github.com/dlclark/regexp2"

	"github.com/GriffinCanCode/cipherjs/internal/js/ast"
	"github.com/GriffinCanCode/cipherjs/internal/js/wtf8"
)

// Value is a JavaScript value. Primitives are plain Go values; Array,
// Object, Function and RegExp are pointers so aliases share state.
type Value interface {
	// Type returns the typeof name of the value.
	Type() string
}

type Undefined struct{}

type Null struct{}

type Bool bool

type Number float64

// String holds UTF-16 code units encoded as WTF-8, see package wtf8.
type String string

var (
	undefined Value = Undefined{}
	null      Value = Null{}
	nan             = Number(math.NaN())
)

func (Undefined) Type() string { return "undefined" }
func (Null) Type() string      { return "object" }
func (Bool) Type() string      { return "boolean" }
func (Number) Type() string    { return "number" }
func (String) Type() string    { return "string" }

// Len returns the number of UTF-16 code units.
func (s String) Len() int {
	if wtf8.IsASCII(string(s)) {
		return len(s)
	}
	return wtf8.Len(string(s))
}

// Units returns the UTF-16 code units of s.
func (s String) Units() []uint16 {
	return wtf8.Decode(string(s))
}

func stringFromUnits(units []uint16) String {
	return String(wtf8.Encode(units))
}

// Array is a sparse-capable list; holes are nil.
type Array struct {
	Elems []Value
	props *Object
}

func NewArray(elems ...Value) *Array {
	return &Array{Elems: elems}
}

func (*Array) Type() string { return "object" }

// At returns the element at i, or undefined for holes and out of range.
func (a *Array) At(i int) Value {
	if i < 0 || i >= len(a.Elems) || a.Elems[i] == nil {
		return undefined
	}
	return a.Elems[i]
}

// SetAt stores v at i, growing the array with holes when needed.
func (a *Array) SetAt(i int, v Value) {
	if i >= len(a.Elems) {
		a.Elems = append(a.Elems, make([]Value, i-len(a.Elems)+1)...)
	}
	a.Elems[i] = v
}

func (a *Array) SetLength(n int) {
	if n <= len(a.Elems) {
		clear(a.Elems[n:])
		a.Elems = a.Elems[:n]
		return
	}
	a.Elems = append(a.Elems, make([]Value, n-len(a.Elems))...)
}

// Object is an insertion-ordered string-keyed map.
//
// Class distinguishes ordinary objects from Date and Error instances;
// Internal holds the time value of a Date.
type Object struct {
	Class    string
	Proto    *Object
	Internal any

	keys  []string
	props map[string]Value
}

const (
	ClassObject = "Object"
	ClassDate   = "Date"
	ClassError  = "Error"
)

func NewObject(proto *Object) *Object {
	return &Object{
		Class: ClassObject,
		Proto: proto,
		props: make(map[string]Value),
	}
}

func (*Object) Type() string { return "object" }

// Own returns an own property
func (o *Object) Own(key string) (Value, bool) {
	v, ok := o.props[key]
	return v, ok
}

// Get looks key up on o and its prototype chain
func (o *Object) Get(key string) (Value, bool) {
	for obj := o; obj != nil; obj = obj.Proto {
		if v, ok := obj.props[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func (o *Object) Set(key string, v Value) {
	if _, ok := o.props[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.props[key] = v
}

func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

func (o *Object) Delete(key string) bool {
	if _, ok := o.props[key]; !ok {
		return true
	}
	delete(o.props, key)
	o.keys = slices.DeleteFunc(o.keys, func(k string) bool { return k == key })
	return true
}

// Keys returns own keys in property order: integer keys ascending, then
// string keys in insertion order.
func (o *Object) Keys() []string {
	var ints, strs []string
	for _, k := range o.keys {
		if _, ok := arrayIndex(k); ok {
			ints = append(ints, k)
		} else {
			strs = append(strs, k)
		}
	}
	if len(ints) == 0 {
		return strs
	}
	slices.SortFunc(ints, func(a, b string) int {
		x, _ := arrayIndex(a)
		y, _ := arrayIndex(b)
		return x - y
	})
	return append(ints, strs...)
}

// NativeFunc implements a builtin. this is the receiver of the call.
type NativeFunc func(it *Interpreter, this Value, args []Value) (Value, error)

// Function is a builtin or a closure over the environment it was created in.
type Function struct {
	Name string

	Native    NativeFunc
	Construct NativeFunc

	Lit *ast.FunctionLit
	Env *Env

	bound     *Function
	boundThis Value
	boundArgs []Value

	props *Object
}

func (*Function) Type() string { return "function" }

// Props returns the property bag of the function, creating it on first use.
func (f *Function) Props() *Object {
	if f.props == nil {
		f.props = NewObject(nil)
	}
	return f.props
}

func (f *Function) arity() int {
	switch {
	case f.Lit != nil:
		return len(f.Lit.Params)
	case f.bound != nil:
		return max(0, f.bound.arity()-len(f.boundArgs))
	default:
		return 0
	}
}

// RegExp is a compiled regular expression literal or RegExp instance.
type RegExp struct {
	Source    string
	Flags     string
	LastIndex int

	re *regexp2.Regexp
}

func (*RegExp) Type() string { return "object" }

func (r *RegExp) Global() bool {
	return r.hasFlag('g')
}

func (r *RegExp) hasFlag(c byte) bool {
	for i := 0; i < len(r.Flags); i++ {
		if r.Flags[i] == c {
			return true
		}
	}
	return false
}

// arrayIndex parses a canonical array index such as "0" or "17".
func arrayIndex(key string) (int, bool) {
	if key == "" || len(key) > 10 || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n := 0
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if n > math.MaxUint32-1 {
		return 0, false
	}
	return n, true
}

func isNullish(v Value) bool {
	switch v.(type) {
	case Undefined, Null:
		return true
	default:
		return false
	}
}

func isObjectLike(v Value) bool {
	switch v.(type) {
	case *Object, *Array, *Function, *RegExp:
		return true
	default:
		return false
	}
}

// Truthy implements ToBoolean
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Undefined, Null:
		return false
	case Bool:
		return bool(v)
	case Number:
		return v != 0 && !math.IsNaN(float64(v))
	case String:
		return v != ""
	default:
		return true
	}
}
