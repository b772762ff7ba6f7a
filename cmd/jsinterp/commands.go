package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/cipherjs/internal/cache"
	"github.com/GriffinCanCode/cipherjs/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/cipherjs/internal/js/lexer"
	"github.com/GriffinCanCode/cipherjs/internal/signature"
	"github.com/GriffinCanCode/cipherjs/pkg/jsinterp"
)

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("jsinterp "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parse parses args and turns flag errors into usage errors
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return err
		}
		return usagef("%s: %v", fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return usagef("%s: unexpected argument %q", fs.Name(), fs.Arg(0))
	}
	return nil
}

func (a *app) call(ctx context.Context, args []string) error {
	fs := a.flags("call")
	file := fs.String("f", "", "Script file, - for stdin")
	name := fs.String("fn", "", "Function to call")
	argsJSON := fs.String("args", "[]", "Arguments as a JSON array")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *name == "" {
		return usagef("call: -fn is required")
	}
	var callArgs []any
	if err := sonic.UnmarshalString(*argsJSON, &callArgs); err != nil {
		return usagef("call: -args must be a JSON array: %v", err)
	}
	for i, v := range callArgs {
		callArgs[i] = jsArg(v)
	}
	src, err := a.readSource(*file, true)
	if err != nil {
		return err
	}

	in, err := jsinterp.New(src, a.options()...)
	if err != nil {
		return err
	}
	result, err := in.CallFunctionContext(ctx, *name, callArgs...)
	if err != nil {
		return err
	}
	return a.emit(map[string]any{"result": hostJSON(result)})
}

func (a *app) eval(ctx context.Context, args []string) error {
	fs := a.flags("eval")
	file := fs.String("f", "", "Script file the expression may refer to, - for stdin")
	expr := fs.String("e", "", "Expression or statements to evaluate")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *expr == "" {
		return usagef("eval: -e is required")
	}
	src, err := a.readSource(*file, false)
	if err != nil {
		return err
	}

	in, err := jsinterp.New(src, a.options()...)
	if err != nil {
		return err
	}
	result, err := in.EvalContext(ctx, *expr)
	if err != nil {
		return err
	}
	return a.emit(map[string]any{"result": hostJSON(result)})
}

func (a *app) sig(ctx context.Context, args []string) error {
	fs := a.flags("sig")
	file := fs.String("f", "", "Player script, - for stdin")
	name := fs.String("fn", "", "Cipher function name")
	player := fs.String("player", "", "Player version for the cache key (default: file name)")
	scrambled := fs.String("s", "", "Signature to decrypt")
	cachePath := fs.String("cache", "", "Spec cache file (default: CACHE_PATH)")
	noCache := fs.Bool("no-cache", false, "Do not read or write the spec cache")
	if err := parse(fs, args); err != nil {
		return err
	}
	switch {
	case *name == "":
		return usagef("sig: -fn is required")
	case *scrambled == "":
		return usagef("sig: -s is required")
	}
	src, err := a.readSource(*file, true)
	if err != nil {
		return err
	}
	if *player == "" {
		*player = strings.TrimSuffix(filepath.Base(*file), filepath.Ext(*file))
	}

	solver := &signature.Solver{
		Logger:  a.log.Component("signature"),
		Metrics: a.metrics,
		Options: a.options(),
	}
	if a.cfg.Cache.Enabled && !*noCache {
		path := a.cfg.Cache.Path
		if *cachePath != "" {
			path = *cachePath
		}
		store, err := cache.Open(path, a.cfg.Cache.TTL)
		if err != nil {
			// run uncached rather than fail
			a.log.Warn("spec cache unavailable", zap.String("path", path), zap.Error(err))
		} else {
			defer store.Close()
			solver.Cache = store
			solver.Breaker = resilience.New("spec-cache", resilience.Settings{
				Threshold: 3,
				OnStateChange: func(name string, from, to resilience.State) {
					a.log.Warn("circuit breaker state changed",
						zap.String("breaker", name),
						zap.Stringer("from", from),
						zap.Stringer("to", to),
					)
				},
			})
		}
	}

	spec, err := solver.Spec(ctx, *player, src, *name, utf8.RuneCountInString(*scrambled))
	if err != nil {
		return err
	}
	out, err := signature.Decrypt(spec, *scrambled)
	if err != nil {
		return err
	}
	return a.emit(map[string]any{"signature": out, "spec": spec})
}

type tokenJSON struct {
	Kind   string `json:"kind"`
	Raw    string `json:"raw"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (a *app) tokens(_ context.Context, args []string) error {
	fs := a.flags("tokens")
	file := fs.String("f", "", "Script file, - for stdin")
	if err := parse(fs, args); err != nil {
		return err
	}
	src, err := a.readSource(*file, true)
	if err != nil {
		return err
	}

	toks, err := lexer.Tokenize(src)
	if err != nil {
		return err
	}
	out := make([]tokenJSON, 0, len(toks))
	for _, t := range toks {
		if t.Kind == lexer.EOF {
			break
		}
		out = append(out, tokenJSON{Kind: t.Kind.String(), Raw: t.Raw, Line: t.Pos.Line, Column: t.Pos.Column})
	}
	return a.emit(out)
}

func (a *app) readSource(path string, required bool) (string, error) {
	switch path {
	case "":
		if required {
			return "", usagef("-f is required")
		}
		return "", nil
	case "-":
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

func (a *app) emit(v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(a.stdout, string(data))
	return err
}

// jsArg maps JSON null, which decodes to nil, to JavaScript null at any
// depth. A nil argument would otherwise arrive as undefined.
func jsArg(v any) any {
	switch v := v.(type) {
	case nil:
		return jsinterp.Null
	case []any:
		for i, e := range v {
			v[i] = jsArg(e)
		}
	case map[string]any:
		for k, e := range v {
			v[k] = jsArg(e)
		}
	}
	return v
}

// hostJSON rewrites values JSON cannot hold: Null becomes nil, non-finite
// numbers their JavaScript spelling and functions their source.
func hostJSON(v any) any {
	switch v := v.(type) {
	case jsinterp.NullType:
		return nil
	case float64:
		switch {
		case math.IsNaN(v):
			return "NaN"
		case math.IsInf(v, 1):
			return "Infinity"
		case math.IsInf(v, -1):
			return "-Infinity"
		}
		return v
	case *jsinterp.FunctionHandle:
		if src := v.Source(); src != "" {
			return src
		}
		return "function " + v.Name() + "() { [native code] }"
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = hostJSON(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = hostJSON(e)
		}
		return out
	}
	return v
}
