package jsinterp

import (
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Expressions whose string form must agree with goja.
var differentialExprs = []string{
	`1 + 2 * 3`,
	`7 / 2`,
	`-7 % 3`,
	`0.1 + 0.2`,
	`1 / 3`,
	`1e21`,
	`1e-7`,
	`0.000001234`,
	`123456789 * 1000000`,
	`(255).toString(2)`,
	`(25).toString(36)`,
	`(3.5).toFixed(2)`,
	`1 / 0`,
	`-1 / 0`,
	`0 * -1`,
	`"abc".split("")`,
	`[1, 2, 3].join("-")`,
	`[3, 1, 10, 2].sort()`,
	`[1, 2, 3].reverse()`,
	`[1, 2, 3, 4].splice(1, 2)`,
	`[1, [2, 3]].concat([4], 5)`,
	`[1, 2, 3].map(function(x) { return x * x }).filter(function(x) { return x > 1 })`,
	`[1, 2, 3].indexOf(4)`,
	`"a,b,,c".split(",").length`,
	`"Hello".charCodeAt(1)`,
	`String.fromCharCode(72, 105)`,
	`"abcdef".slice(-3, -1)`,
	`"abcdef".substr(1, 3)`,
	`"abcdef".substring(4, 1)`,
	`"abc".at(-1)`,
	`"x".padStart(3, "ab")`,
	`"ab".repeat(3)`,
	`"é".length`,
	`"😀".length`,
	`"😀".charCodeAt(0)`,
	`String.fromCharCode(0xd83d).length`,
	`parseInt("08")`,
	`parseInt("0x1f")`,
	`parseFloat("3.14abc")`,
	`Number("  12 ")`,
	`Number("")`,
	`isNaN("abc")`,
	`typeof function() {}`,
	`typeof []`,
	`null + 1`,
	`undefined + 1`,
	`"3" + 4 + 5`,
	`3 + 4 + "5"`,
	`[] == false`,
	`"" == 0`,
	`NaN === NaN`,
	`~5`,
	`5 & 3 | 8`,
	`1 << 33`,
	`-1 >>> 28`,
	`"aXbXc".replace(/X/g, "-")`,
	`"abc".replace("b", "$&$&")`,
	`/(\d+)-(\d+)/.exec("10-20")`,
	`JSON.stringify({a: [1, "x", null], b: {c: true}})`,
	`Math.max(1, 5, 3)`,
	`Math.abs(-2.5)`,
	`Math.round(2.5)`,
	`Math.round(-2.5)`,
	`encodeURIComponent("ü/?")`,
	`Object.keys({b: 1, 2: 0, a: 1, 1: 0})`,
	`new Date(0).toISOString()`,
}

func TestDifferentialExpressions(t *testing.T) {
	vm := goja.New()
	in := newInterp(t, "")

	for _, expr := range differentialExprs {
		t.Run(expr, func(t *testing.T) {
			src := "String(" + expr + ")"
			want, err := vm.RunString(src)
			require.NoError(t, err)

			got, err := in.Eval(src)
			require.NoError(t, err)
			assert.Equal(t, want.String(), got)
		})
	}
}

const cipherDefs = `
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
`

func TestDifferentialCipher(t *testing.T) {
	vm := goja.New()
	_, err := vm.RunString(cipherDefs)
	require.NoError(t, err)
	sig, ok := goja.AssertFunction(vm.Get("sig"))
	require.True(t, ok)

	// the wrapped script must give the same answers as the bare definitions
	in := newInterp(t, playerJS)

	for _, input := range []string{
		"abcdefghij",
		"0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ",
		"AOq0QJ8wRQIhAKBmMOGiD37Z8jRTZvjRzkbeKRgGgHDaN1ZSsRKAaETlAiBcLyRBQQ",
	} {
		want, err := sig(goja.Undefined(), vm.ToValue(input))
		require.NoError(t, err)

		got, err := in.CallFunction("sig", input)
		require.NoError(t, err)
		assert.Equal(t, want.String(), got, input)
	}
}
