package engine

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/cipherjs/internal/js/lexer"
)

var (
	ErrUndefinedIdentifier = errors.New("undefined identifier")
	ErrNotCallable         = errors.New("value is not callable")
	ErrPropertyOfNullish   = errors.New("cannot access property of null or undefined")
	ErrUnsupported         = errors.New("unsupported")
	ErrRecursionLimit      = errors.New("recursion limit exceeded")
	ErrStepBudget          = errors.New("step budget exhausted")
	ErrCanceled            = errors.New("evaluation canceled")
	ErrUncaught            = errors.New("uncaught exception")
)

// InterpreterError is a fatal evaluation fault. JavaScript code cannot
// catch it.
type InterpreterError struct {
	Pos    lexer.Position
	Err    error
	Detail string

	// Value is the thrown value for ErrUncaught
	Value Value
}

func (e *InterpreterError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Pos.Line == 0 {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, msg)
}

func (e *InterpreterError) Unwrap() error {
	return e.Err
}

// Exception carries a thrown JavaScript value through expression
// evaluation until a statement turns it into a throw completion.
type Exception struct {
	Value Value
	Pos   lexer.Position
}

func (e *Exception) Error() string {
	return "exception: " + describe(e.Value)
}

func fault(pos lexer.Position, err error, format string, args ...any) error {
	return &InterpreterError{
		Pos:    pos,
		Err:    err,
		Detail: fmt.Sprintf(format, args...),
	}
}

// describe renders a value for error messages without running user code.
func describe(v Value) string {
	switch v := v.(type) {
	case String:
		return string(v)
	case Number:
		return FormatNumber(float64(v))
	case *Object:
		if v.Class == ClassError {
			name, _ := v.Get("name")
			msg, _ := v.Get("message")
			if s, ok := msg.(String); ok && s != "" {
				return fmt.Sprintf("%s: %s", describe(name), s)
			}
			return describe(name)
		}
		return "[object Object]"
	case *Array:
		return fmt.Sprintf("[array %d]", len(v.Elems))
	case *Function:
		return "function " + v.Name
	case *RegExp:
		return "/" + v.Source + "/" + v.Flags
	case Bool:
		if v {
			return "true"
		}
		return "false"
	case Null:
		return "null"
	case nil:
		return "<nil>"
	default:
		return "undefined"
	}
}
