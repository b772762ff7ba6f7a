package engine

import (
	"math"
)

func (it *Interpreter) setupMath() {
	m := NewObject(it.objectProto)
	m.Class = "Math"
	for name, v := range map[string]float64{
		"PI":      math.Pi,
		"E":       math.E,
		"LN2":     math.Ln2,
		"LN10":    math.Ln10,
		"LOG2E":   math.Log2E,
		"LOG10E":  math.Log10E,
		"SQRT2":   math.Sqrt2,
		"SQRT1_2": math.Sqrt2 / 2,
	} {
		m.Set(name, Number(v))
	}

	unary := map[string]func(float64) float64{
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"trunc": math.Trunc,
		"sqrt":  math.Sqrt,
		"cbrt":  math.Cbrt,
		"log":   math.Log,
		"log2":  math.Log2,
		"log10": math.Log10,
		"log1p": math.Log1p,
		"exp":   math.Exp,
		"expm1": math.Expm1,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"asin":  math.Asin,
		"acos":  math.Acos,
		"atan":  math.Atan,
		"sinh":  math.Sinh,
		"cosh":  math.Cosh,
		"tanh":  math.Tanh,
		"round": round,
		"sign":  sign,
		"fround": func(x float64) float64 {
			return float64(float32(x))
		},
	}
	for name, fn := range unary {
		method(m, name, func(it *Interpreter, _ Value, args []Value) (Value, error) {
			x, err := it.toNumber(arg(args, 0))
			if err != nil {
				return nil, err
			}
			return Number(fn(x)), nil
		})
	}

	method(m, "atan2", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		y, err := it.toNumber(arg(args, 0))
		if err != nil {
			return nil, err
		}
		x, err := it.toNumber(arg(args, 1))
		if err != nil {
			return nil, err
		}
		return Number(math.Atan2(y, x)), nil
	})
	method(m, "pow", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		x, err := it.toNumber(arg(args, 0))
		if err != nil {
			return nil, err
		}
		y, err := it.toNumber(arg(args, 1))
		if err != nil {
			return nil, err
		}
		return Number(pow(x, y)), nil
	})
	method(m, "max", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		return it.fold(args, math.Inf(-1), math.Max)
	})
	method(m, "min", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		return it.fold(args, math.Inf(1), math.Min)
	})
	method(m, "hypot", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		return it.fold(args, 0, math.Hypot)
	})
	method(m, "random", func(it *Interpreter, _ Value, _ []Value) (Value, error) {
		return Number(it.random.Float64()), nil
	})

	it.global.Declare("Math", m)
}

// fold reduces numeric arguments. math.Max and math.Min already
// propagate NaN.
func (it *Interpreter) fold(args []Value, acc float64, fn func(a, b float64) float64) (Value, error) {
	for _, a := range args {
		x, err := it.toNumber(a)
		if err != nil {
			return nil, err
		}
		acc = fn(acc, x)
	}
	return Number(acc), nil
}

// round rounds half up, as Math.round does.
func round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r := math.Floor(x)
	if x-r >= 0.5 {
		r++
	}
	if r == 0 && x < 0 {
		return math.Copysign(0, -1)
	}
	return r
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return x
	}
}
