package jsinterp

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// playerJS mimics the shape of a player script: everything lives in an
// IIFE that touches browser globals, so it cannot run top to bottom.
const playerJS = `(function(g) {
var Xy = {
  ab: function(a, b) { a.splice(0, b) },
  cd: function(a) { a.reverse() },
  ef: function(a, b) { var c = a[0]; a[0] = a[b % a.length]; a[b % a.length] = c }
};
var sig = function(a) {
  a = a.split("");
  Xy.ef(a, 3);
  Xy.ab(a, 2);
  Xy.cd(a, 41);
  Xy.ef(a, 10);
  return a.join("")
};
var cfg = {n: 1, s: "x", list: [1, 2], nested: {ok: true}, none: null};
g.document.title = sig("boot");
})(window);
`

const helpersJS = `
function echo(x) { return x }
function mk() { return function(x) { return x * 2 } }
function boom() { throw new TypeError("bad") }
function raise(v) { throw v }
function nope() { return missing }
function spin() { while (true) {} }
function deep(n) { return deep(n + 1) }
function add(a, b) { return a + b }
`

func newInterp(t *testing.T, src string, opts ...Option) *Interpreter {
	t.Helper()
	in, err := New(src, opts...)
	require.NoError(t, err)
	return in
}

func TestCallFunction(t *testing.T) {
	in := newInterp(t, playerJS)

	got, err := in.CallFunction("sig", "abcdefghij")
	require.NoError(t, err)
	assert.Equal(t, "hijgfeac", got)

	again, err := in.CallFunction("sig", "abcdefghij")
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestExtractFunction(t *testing.T) {
	in := newInterp(t, playerJS)

	h, err := in.ExtractFunction("sig")
	require.NoError(t, err)
	assert.Equal(t, "sig", h.Name())
	assert.True(t, strings.HasPrefix(h.Source(), "function(a)"), h.Source())

	got, err := h.Call("0123456789")
	require.NoError(t, err)
	assert.Equal(t, "78965402", got)

	same, err := in.ExtractFunction("sig")
	require.NoError(t, err)
	assert.Same(t, h, same)

	_, err = in.ExtractFunction("absent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFunctionNotFound)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "extract", e.Op)
	assert.Equal(t, "absent", e.Name)
}

func TestExtractObject(t *testing.T) {
	in := newInterp(t, playerJS)

	cfg, err := in.ExtractObject("cfg")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"n":      1.0,
		"s":      "x",
		"list":   []any{1.0, 2.0},
		"nested": map[string]any{"ok": true},
		"none":   Null,
	}, cfg)

	helpers, err := in.ExtractObject("Xy")
	require.NoError(t, err)
	require.Contains(t, helpers, "cd")
	reverse, ok := helpers["cd"].(*FunctionHandle)
	require.True(t, ok)
	arr := []any{"a", "b"}
	_, err = reverse.Call(arr)
	require.NoError(t, err)

	_, err = in.ExtractObject("sig")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestHostConversion(t *testing.T) {
	in := newInterp(t, helpersJS)
	day := time.UnixMilli(86_400_000).UTC()
	s := "ptr"

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"null", Null, Null},
		{"int", 3, 3.0},
		{"int64", int64(-5), -5.0},
		{"uint8", uint8(7), 7.0},
		{"float32", float32(1.5), 1.5},
		{"string", "s", "s"},
		{"bool", true, true},
		{"any slice", []any{1, "a", nil}, []any{1.0, "a", nil}},
		{"typed slice", []string{"x", "y"}, []any{"x", "y"}},
		{"array", [2]int{4, 5}, []any{4.0, 5.0}},
		{"any map", map[string]any{"a": 1}, map[string]any{"a": 1.0}},
		{"typed map", map[string]int{"b": 2}, map[string]any{"b": 2.0}},
		{"pointer", &s, "ptr"},
		{"nil slice", []int(nil), Null},
		{"time", day, day},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := in.CallFunction("echo", tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnsupportedHostValue(t *testing.T) {
	in := newInterp(t, helpersJS)

	for _, v := range []any{make(chan int), struct{}{}, map[int]string{1: "a"}, func() {}} {
		_, err := in.CallFunction("echo", v)
		assert.ErrorIs(t, err, ErrUnsupportedValue, "%T", v)
	}
}

func TestFunctionValues(t *testing.T) {
	in := newInterp(t, helpersJS)

	v, err := in.CallFunction("mk")
	require.NoError(t, err)
	double, ok := v.(*FunctionHandle)
	require.True(t, ok)

	got, err := double.Call(21)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got)

	// A handle passed back in is the same function.
	same, err := in.CallFunction("echo", double)
	require.NoError(t, err)
	assert.Equal(t, double.fn, same.(*FunctionHandle).fn)

	other := newInterp(t, helpersJS)
	_, err = other.CallFunction("echo", double)
	assert.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestMissingArgumentsAreUndefined(t *testing.T) {
	in := newInterp(t, helpersJS)

	got, err := in.CallFunction("add", 1)
	require.NoError(t, err)
	f, ok := got.(float64)
	require.True(t, ok)
	assert.True(t, math.IsNaN(f))

	got, err = in.CallFunction("add", "a", 1)
	require.NoError(t, err)
	assert.Equal(t, "a1", got)
}

func TestEval(t *testing.T) {
	in := newInterp(t, playerJS)

	got, err := in.Eval("1 + 2")
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	got, err = in.Eval(`sig("abcdefghij")`)
	require.NoError(t, err)
	assert.Equal(t, "hijgfeac", got)

	_, err = in.Eval("var g = 5")
	require.NoError(t, err)
	got, err = in.Eval("g * 2")
	require.NoError(t, err)
	assert.Equal(t, 10.0, got)

	got, err = in.Eval(`if (g > 1) { "big" } else { "small" }`)
	require.NoError(t, err)
	assert.Equal(t, "big", got)

	got, err = in.Eval(`try { null.x } catch (e) { "caught" }`)
	require.Error(t, err)
	assert.Nil(t, got)

	got, err = in.Eval(`try { JSON.parse("{") } catch (e) { e.name }`)
	require.NoError(t, err)
	assert.Equal(t, "SyntaxError", got)

	_, err = in.Eval("1 +")
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "eval", e.Op)
	assert.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestDefine(t *testing.T) {
	in := newInterp(t, helpersJS)

	require.NoError(t, in.Define("host", map[string]any{"k": "v"}))
	got, err := in.Eval("host.k + echo('!')")
	require.NoError(t, err)
	assert.Equal(t, "v!", got)

	assert.ErrorIs(t, in.Define("bad", make(chan int)), ErrUnsupportedValue)
}

func TestParseError(t *testing.T) {
	_, err := New("var a = 1;\nvar b = ;\n")
	require.Error(t, err)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "parse", e.Op)
	assert.Equal(t, 2, e.Pos.Line)
	assert.Contains(t, e.Excerpt, "var b = ;")
	assert.Contains(t, e.Excerpt, "^")
	assert.ErrorIs(t, err, ErrUnexpectedToken)

	var pe *ParseError
	assert.ErrorAs(t, err, &pe)

	_, err = New(`var s = "open`)
	assert.ErrorIs(t, err, ErrUnterminatedString)
	var le *LexError
	assert.ErrorAs(t, err, &le)
}

func TestFaults(t *testing.T) {
	tests := []struct {
		name string
		fn   string
		opts []Option
		want error
	}{
		{"undefined identifier", "nope", nil, ErrUndefinedIdentifier},
		{"uncaught", "boom", nil, ErrUncaught},
		{"step budget", "spin", []Option{WithMaxSteps(1000)}, ErrStepBudget},
		{"timeout", "spin", []Option{WithMaxSteps(0), WithTimeout(20 * time.Millisecond)}, ErrCanceled},
		{"recursion", "deep", []Option{WithMaxDepth(10)}, ErrRecursionLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newInterp(t, helpersJS, tt.opts...)
			_, err := in.CallFunction(tt.fn, 0)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, "call", e.Op)
			assert.Equal(t, tt.fn, e.Name)
			assert.Positive(t, e.Pos.Line)
			assert.NotEmpty(t, e.Excerpt)

			var ie *InterpreterError
			assert.ErrorAs(t, err, &ie)
		})
	}
}

func TestUncaughtThrownValue(t *testing.T) {
	in := newInterp(t, helpersJS)

	_, err := in.CallFunction("boom")
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, map[string]any{"name": "TypeError", "message": "bad"}, e.Thrown)

	_, err = in.CallFunction("raise", "plain")
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "plain", e.Thrown)
	assert.Contains(t, e.Pretty(), "throw v")
}

func TestContextCancel(t *testing.T) {
	in := newInterp(t, helpersJS, WithMaxSteps(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := in.CallFunctionContext(ctx, "spin")
	assert.ErrorIs(t, err, ErrCanceled)

	// The instance stays usable after a fault.
	got, err := in.CallFunction("add", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)
}

func TestWithClock(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	in := newInterp(t, helpersJS, WithClock(func() time.Time { return now }))

	got, err := in.Eval("Date.now()")
	require.NoError(t, err)
	assert.Equal(t, float64(now.UnixMilli()), got)

	got, err = in.Eval("new Date()")
	require.NoError(t, err)
	assert.Equal(t, now, got)
}

func TestConcurrentCallsAreSerialized(t *testing.T) {
	in := newInterp(t, playerJS)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				got, err := in.CallFunction("sig", "abcdefghij")
				if err != nil {
					errs <- err
					return
				}
				if got != "hijgfeac" {
					errs <- errors.New("unexpected result")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	in := newInterp(t, helpersJS, WithLogger(zap.New(core)))

	require.Equal(t, 1, logs.FilterMessage("parsed source").Len())

	_, err := in.CallFunction("add", 1, 2)
	require.NoError(t, err)

	finished := logs.FilterMessage("call finished").All()
	require.Len(t, finished, 1)
	fields := finished[0].ContextMap()
	assert.Equal(t, in.ID(), fields["interp_id"])
	assert.Equal(t, "add", fields["function"])
	assert.Contains(t, fields, "duration")
	assert.Positive(t, fields["steps"])

	_, err = in.CallFunction("boom")
	require.Error(t, err)
	failed := logs.FilterMessage("call failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
	assert.Contains(t, failed[0].ContextMap(), "error")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	in := newInterp(t, helpersJS, WithRegisterer(reg))

	for range 2 {
		_, err := in.CallFunction("add", 1, 2)
		require.NoError(t, err)
	}
	_, err := in.CallFunction("boom")
	require.Error(t, err)

	expected := `
# HELP cipherjs_calls_total Total number of interpreter entry calls
# TYPE cipherjs_calls_total counter
cipherjs_calls_total{function="add",status="ok"} 2
cipherjs_calls_total{function="boom",status="error"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "cipherjs_calls_total"))

	expected = `
# HELP cipherjs_parse_total Total number of parsed sources
# TYPE cipherjs_parse_total counter
cipherjs_parse_total{status="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "cipherjs_parse_total"))

	// A second interpreter on the same registry shares the collectors.
	_, err = New("function f() {}", WithRegisterer(reg))
	require.NoError(t, err)
	_, err = New("function (", WithRegisterer(reg))
	require.Error(t, err)

	expected = `
# HELP cipherjs_parse_total Total number of parsed sources
# TYPE cipherjs_parse_total counter
cipherjs_parse_total{status="error"} 1
cipherjs_parse_total{status="ok"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "cipherjs_parse_total"))
}
