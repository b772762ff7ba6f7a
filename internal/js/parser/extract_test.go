package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/cipherjs/internal/js/ast"
)

const playerSource = `
var Xy = {
	ab: function(a, b) { a.splice(0, b) },
	cd: function(a) { a.reverse() }
};
function decl(a) { return a }
var expr = function(a) { return a + 1 }, other = 2;
assigned = function(a) { return a * 2 };
one = two = function() { return 3 };
(function() {
	var hidden = function(a) { return a.split("") };
	var inner = { k: 1 };
})();
`

func TestExtractFunction(t *testing.T) {
	prog, err := ParseSource(playerSource)
	require.NoError(t, err)

	tests := []struct {
		name   string
		params []string
	}{
		{name: "decl", params: []string{"a"}},
		{name: "expr", params: []string{"a"}},
		{name: "assigned", params: []string{"a"}},
		{name: "one"},
		{name: "two"},
		{name: "hidden", params: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn, err := ExtractFunction(prog, tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.params, fn.Params)
		})
	}
}

func TestExtractFunctionNotFound(t *testing.T) {
	prog, err := ParseSource(playerSource)
	require.NoError(t, err)

	_, err = ExtractFunction(prog, "missing")
	assert.ErrorIs(t, err, ErrFunctionNotFound)
	assert.Contains(t, err.Error(), "missing")

	// other is bound, but not to a function
	_, err = ExtractFunction(prog, "other")
	assert.ErrorIs(t, err, ErrFunctionNotFound)
}

func TestExtractObject(t *testing.T) {
	prog, err := ParseSource(playerSource)
	require.NoError(t, err)

	obj, err := ExtractObject(prog, "Xy")
	require.NoError(t, err)
	require.Len(t, obj.Props, 2)
	assert.Equal(t, "ab", obj.Props[0].Key)
	assert.Equal(t, "cd", obj.Props[1].Key)

	obj, err = ExtractObject(prog, "inner")
	require.NoError(t, err)
	assert.Len(t, obj.Props, 1)

	_, err = ExtractObject(prog, "decl")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestTopLevelDefinitions(t *testing.T) {
	prog, err := ParseSource(`var a; a = 1, b = 2; var a = 3;`)
	require.NoError(t, err)

	defs := TopLevel(prog, "a")
	require.Len(t, defs, 2)
	assert.Equal(t, float64(1), defs[0].Value.(*ast.Literal).Num)
	assert.Equal(t, float64(3), defs[1].Value.(*ast.Literal).Num)

	assert.Len(t, TopLevel(prog, "b"), 1)
	assert.Empty(t, TopLevel(prog, "hidden"))
}

func TestTopLevelPrefersOuter(t *testing.T) {
	prog, err := ParseSource(`
		function wrap() { function f() { return "inner" } }
		function f() { return "outer" }
	`)
	require.NoError(t, err)
	fn, err := ExtractFunction(prog, "f")
	require.NoError(t, err)
	ret := fn.Body[0].(*ast.Return)
	assert.Equal(t, "outer", ret.Value.(*ast.Literal).Str)
}
