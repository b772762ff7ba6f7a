// Package jsinterp evaluates signature-cipher functions extracted from
// media player scripts without a browser or a full JavaScript engine.
//
// A source is parsed once by New. Nothing runs until a function is called:
// helper objects and functions the cipher refers to are evaluated on first
// use, so the rest of the player script never executes.
//
//	in, err := jsinterp.New(playerJS, jsinterp.WithTimeout(time.Second))
//	if err != nil {
//		return err
//	}
//	sig, err := in.CallFunction("Xy", scrambled)
//
// Host values map to JavaScript values as follows:
//
//	nil             undefined
//	jsinterp.Null   null
//	bool            boolean
//	string          string
//	integer, float  number (float64 on the way back)
//	slice, array    Array ([]any on the way back)
//	map[string]T    Object (map[string]any on the way back)
//	time.Time       Date
//	*FunctionHandle function
//
// Every failure is an *Error that unwraps to the lexer, parser or
// interpreter error underneath, so errors.Is works with the exported
// sentinels. An Interpreter serializes its calls; use a Pool for
// concurrent callers.
package jsinterp
