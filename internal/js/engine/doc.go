/*
Package engine evaluates ast trees.

Values are Undefined, Null, Bool, Number, String, *Array, *Object,
*Function and *RegExp. Strings hold WTF-8 so lone surrogates produced by
charCodeAt arithmetic survive a round trip; lengths and indexes are in
UTF-16 code units.

Top-level bindings of the program are resolved lazily. An identifier that
is not yet bound is looked up among the program's declarations and
assignments and only that definition is evaluated, so a cipher function
can be called without running the rest of the script.

Every evaluated node costs one step. An entry call fails with
ErrStepBudget past MaxSteps, ErrRecursionLimit past MaxDepth and
ErrCanceled when its context is done or Timeout elapses.

	it := engine.New(prog, engine.Options{MaxSteps: 1_000_000})
	v, err := it.Call(ctx, fn, engine.Undefined{}, []engine.Value{engine.String("abc")})
*/
package engine
