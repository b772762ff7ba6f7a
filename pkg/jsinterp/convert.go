package jsinterp

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/GriffinCanCode/cipherjs/internal/js/engine"
)

// NullType is the type of Null
type NullType struct{}

// Null is the host form of JavaScript null. nil stands for undefined.
var Null NullType

func (NullType) String() string { return "null" }

// toValue converts a host value for the interpreter. It accepts nil, Null,
// strings, booleans, every integer and float type, slices, string-keyed
// maps and function handles of the same interpreter.
func (in *Interpreter) toValue(v any) (engine.Value, error) {
	switch v := v.(type) {
	case nil:
		return engine.Undefined{}, nil
	case NullType:
		return engine.Null{}, nil
	case engine.Undefined, engine.Null, engine.Bool, engine.Number, engine.String,
		*engine.Array, *engine.Object, *engine.Function, *engine.RegExp:
		return v.(engine.Value), nil
	case *FunctionHandle:
		if v.in != in {
			return nil, fmt.Errorf("%w: function handle of another interpreter", ErrUnsupportedValue)
		}
		return v.fn, nil
	case string:
		return engine.String(v), nil
	case bool:
		return engine.Bool(v), nil
	case float64:
		return engine.Number(v), nil
	case int:
		return engine.Number(v), nil
	case []any:
		arr := engine.NewArray()
		for _, e := range v {
			ev, err := in.toValue(e)
			if err != nil {
				return nil, err
			}
			arr.Elems = append(arr.Elems, ev)
		}
		return arr, nil
	case map[string]any:
		obj := in.eng.PlainObject()
		for _, k := range sortedKeys(v) {
			ev, err := in.toValue(v[k])
			if err != nil {
				return nil, err
			}
			obj.Set(k, ev)
		}
		return obj, nil
	case time.Time:
		return in.eng.NewDate(float64(v.UnixMilli())), nil
	}
	return in.reflectValue(reflect.ValueOf(v))
}

func (in *Interpreter) reflectValue(rv reflect.Value) (engine.Value, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return engine.Number(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return engine.Number(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return engine.Number(rv.Float()), nil
	case reflect.String:
		return engine.String(rv.String()), nil
	case reflect.Bool:
		return engine.Bool(rv.Bool()), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return engine.Null{}, nil
		}
		arr := engine.NewArray()
		for i := range rv.Len() {
			ev, err := in.toValue(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			arr.Elems = append(arr.Elems, ev)
		}
		return arr, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		if rv.IsNil() {
			return engine.Null{}, nil
		}
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(a.String(), b.String())
		})
		obj := in.eng.PlainObject()
		for _, k := range keys {
			ev, err := in.toValue(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, err
			}
			obj.Set(k.String(), ev)
		}
		return obj, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return engine.Null{}, nil
		}
		return in.toValue(rv.Elem().Interface())
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, rv.Type())
}

// fromValue converts an interpreter value for the host. Numbers become
// float64, arrays []any, objects map[string]any, dates time.Time and
// functions *FunctionHandle.
func (in *Interpreter) fromValue(v engine.Value) any {
	return in.export(v, make(map[engine.Value]any))
}

func (in *Interpreter) export(v engine.Value, seen map[engine.Value]any) any {
	switch v := v.(type) {
	case engine.Undefined:
		return nil
	case engine.Null:
		return Null
	case engine.Bool:
		return bool(v)
	case engine.Number:
		return float64(v)
	case engine.String:
		return string(v)
	case *engine.Array:
		if out, ok := seen[v]; ok {
			return out
		}
		out := make([]any, len(v.Elems))
		seen[v] = out
		for i := range v.Elems {
			out[i] = in.export(v.At(i), seen)
		}
		return out
	case *engine.Object:
		if v.Class == engine.ClassDate {
			ms, _ := v.Internal.(float64)
			if math.IsNaN(ms) {
				return time.Time{}
			}
			return time.UnixMilli(int64(ms)).UTC()
		}
		if out, ok := seen[v]; ok {
			return out
		}
		out := make(map[string]any)
		seen[v] = out
		for _, k := range v.Keys() {
			ev, _ := v.Own(k)
			out[k] = in.export(ev, seen)
		}
		if v.Class == engine.ClassError {
			for _, k := range []string{"name", "message"} {
				if _, ok := out[k]; !ok {
					ev, _ := v.Get(k)
					out[k] = in.export(ev, seen)
				}
			}
		}
		return out
	case *engine.Function:
		return &FunctionHandle{in: in, name: v.Name, fn: v}
	case *engine.RegExp:
		return "/" + v.Source + "/" + v.Flags
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
