package engine

import (
	"math"
	"strconv"
	"strings"
)

func (it *Interpreter) setupNumber() {
	p := it.numberProto
	ctor := it.constructor("Number", p, numberCall, numberCall)

	statics := ctor.Props()
	statics.Set("MAX_SAFE_INTEGER", Number(1<<53-1))
	statics.Set("MIN_SAFE_INTEGER", Number(-(1<<53 - 1)))
	statics.Set("MAX_VALUE", Number(math.MaxFloat64))
	statics.Set("MIN_VALUE", Number(5e-324))
	statics.Set("EPSILON", Number(math.Nextafter(1, 2)-1))
	statics.Set("POSITIVE_INFINITY", Number(math.Inf(1)))
	statics.Set("NEGATIVE_INFINITY", Number(math.Inf(-1)))
	statics.Set("NaN", nan)
	statics.Set("parseInt", native("parseInt", builtinParseInt))
	statics.Set("parseFloat", native("parseFloat", builtinParseFloat))
	method(statics, "isInteger", func(_ *Interpreter, _ Value, args []Value) (Value, error) {
		n, ok := arg(args, 0).(Number)
		f := float64(n)
		return Bool(ok && !math.IsInf(f, 0) && f == math.Trunc(f)), nil
	})
	method(statics, "isSafeInteger", func(_ *Interpreter, _ Value, args []Value) (Value, error) {
		n, ok := arg(args, 0).(Number)
		f := float64(n)
		return Bool(ok && f == math.Trunc(f) && math.Abs(f) <= 1<<53-1), nil
	})
	method(statics, "isFinite", func(_ *Interpreter, _ Value, args []Value) (Value, error) {
		n, ok := arg(args, 0).(Number)
		return Bool(ok && !math.IsInf(float64(n), 0) && !math.IsNaN(float64(n))), nil
	})
	method(statics, "isNaN", func(_ *Interpreter, _ Value, args []Value) (Value, error) {
		n, ok := arg(args, 0).(Number)
		return Bool(ok && math.IsNaN(float64(n))), nil
	})

	method(p, "toString", func(it *Interpreter, this Value, args []Value) (Value, error) {
		n, err := it.thisNumber(this, "toString")
		if err != nil {
			return nil, err
		}
		radix := 10
		if r := arg(args, 0); r != undefined {
			f, err := it.toNumber(r)
			if err != nil {
				return nil, err
			}
			radix = int(toInteger(f))
			if radix < 2 || radix > 36 {
				return nil, it.throwError("RangeError", "toString() radix must be between 2 and 36")
			}
		}
		if radix == 10 {
			return String(FormatNumber(n)), nil
		}
		return String(formatRadix(n, radix)), nil
	})
	method(p, "toFixed", func(it *Interpreter, this Value, args []Value) (Value, error) {
		n, err := it.thisNumber(this, "toFixed")
		if err != nil {
			return nil, err
		}
		digits, err := it.intArg(args, 0)
		if err != nil {
			return nil, err
		}
		if digits < 0 || digits > 100 {
			return nil, it.throwError("RangeError", "toFixed() digits argument must be between 0 and 100")
		}
		if math.IsNaN(n) || math.Abs(n) >= 1e21 {
			return String(FormatNumber(n)), nil
		}
		return String(toFixed(n, int(digits))), nil
	})
	method(p, "toPrecision", func(it *Interpreter, this Value, args []Value) (Value, error) {
		n, err := it.thisNumber(this, "toPrecision")
		if err != nil {
			return nil, err
		}
		if arg(args, 0) == undefined || math.IsNaN(n) || math.IsInf(n, 0) {
			return String(FormatNumber(n)), nil
		}
		prec, err := it.intArg(args, 0)
		if err != nil {
			return nil, err
		}
		if prec < 1 || prec > 100 {
			return nil, it.throwError("RangeError", "toPrecision() argument must be between 1 and 100")
		}
		e := 0
		if n != 0 {
			e = int(math.Floor(math.Log10(math.Abs(n))))
		}
		if e < -6 || e >= int(prec) {
			mant, exp, _ := strings.Cut(strconv.FormatFloat(n, 'e', int(prec)-1, 64), "e")
			return String(mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")), nil
		}
		return String(strconv.FormatFloat(n, 'f', int(prec)-1-e, 64)), nil
	})
	method(p, "valueOf", func(it *Interpreter, this Value, _ []Value) (Value, error) {
		n, err := it.thisNumber(this, "valueOf")
		return Number(n), err
	})
}

func numberCall(it *Interpreter, _ Value, args []Value) (Value, error) {
	if len(args) == 0 {
		return Number(0), nil
	}
	n, err := it.toNumber(args[0])
	return Number(n), err
}

func (it *Interpreter) thisNumber(this Value, name string) (float64, error) {
	n, ok := this.(Number)
	if !ok {
		return 0, it.throwError("TypeError", "Number.prototype."+name+" requires that 'this' be a Number")
	}
	return float64(n), nil
}

func (it *Interpreter) setupBoolean() {
	p := it.booleanProto
	call := func(_ *Interpreter, _ Value, args []Value) (Value, error) {
		return Bool(Truthy(arg(args, 0))), nil
	}
	it.constructor("Boolean", p, call, call)

	method(p, "toString", func(it *Interpreter, this Value, _ []Value) (Value, error) {
		b, ok := this.(Bool)
		if !ok {
			return nil, it.throwError("TypeError", "Boolean.prototype.toString requires that 'this' be a Boolean")
		}
		return it.toString(b)
	})
	method(p, "valueOf", func(it *Interpreter, this Value, _ []Value) (Value, error) {
		b, ok := this.(Bool)
		if !ok {
			return nil, it.throwError("TypeError", "Boolean.prototype.valueOf requires that 'this' be a Boolean")
		}
		return b, nil
	})
}
