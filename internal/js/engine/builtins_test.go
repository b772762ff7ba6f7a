package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArrayBuiltins(t *testing.T) {
	runCases(t, []valueCase{
		{"push pop", `var a = [1]; a.push(2, 3); a.pop() + a.length`, Number(5)},
		{"shift unshift", `var a = [2, 3]; a.unshift(0, 1); a.shift(); a.join("")`, String("123")},
		{"slice negative", `[1, 2, 3, 4].slice(-2).join()`, String("3,4")},
		{"slice range", `[1, 2, 3, 4].slice(1, 3).join()`, String("2,3")},
		{"splice", `var a = [1, 2, 3, 4]; var r = a.splice(1, 2, "x"); r.join() + "|" + a.join()`, String("2,3|1,x,4")},
		{"reverse", `[1, 2, 3].reverse().join("")`, String("321")},
		{"concat", `[1].concat([2, 3], 4).join()`, String("1,2,3,4")},
		{"index of", `[1, 2, 3, 2].indexOf(2) * 10 + [1, 2, 3, 2].lastIndexOf(2)`, Number(13)},
		{"includes nan", `[NaN].includes(NaN) && [NaN].indexOf(NaN) == -1`, Bool(true)},
		{"map", `[1, 2, 3].map(function(x){ return x * 2 }).join()`, String("2,4,6")},
		{"filter", `[1, 2, 3, 4].filter(function(x){ return x % 2 == 0 }).join()`, String("2,4")},
		{"reduce", `[1, 2, 3].reduce(function(a, b){ return a + b }, 10)`, Number(16)},
		{"reduce right", `["a", "b", "c"].reduceRight(function(a, b){ return a + b })`, String("cba")},
		{"some every", `[1, 2].some(function(x){ return x > 1 }) && ![1, 2].every(function(x){ return x > 1 })`, Bool(true)},
		{"find", `[5, 12, 8].find(function(x){ return x > 10 })`, Number(12)},
		{"find index", `[5, 12, 8].findIndex(function(x){ return x > 100 })`, Number(-1)},
		{"sort default", `[10, 9, 1].sort().join()`, String("1,10,9")},
		{"sort comparator", `[10, 9, 1].sort(function(a, b){ return a - b }).join()`, String("1,9,10")},
		{"sort undefined last", `JSON.stringify([3, undefined, 1].sort())`, String("[1,3,null]")},
		{"fill", `[1, 2, 3].fill(0, 1).join()`, String("1,0,0")},
		{"at", `[1, 2, 3].at(-1)`, Number(3)},
		{"length write truncates", `var a = [1, 2, 3]; a.length = 1; a.join()`, String("1")},
		{"index write grows", `var a = []; a[3] = 1; a.length`, Number(4)},
		{"holes join", `[1, , 3].join("-")`, String("1--3")},
		{"holes skipped", `var n = 0; [1, , 3].forEach(function(){ n++ }); n`, Number(2)},
		{"to string", `String([1, [2, 3]])`, String("1,2,3")},
		{"is array", `Array.isArray([]) && !Array.isArray({})`, Bool(true)},
		{"from string", `Array.from("abc").join("-")`, String("a-b-c")},
		{"from map", `Array.from([1, 2], function(x){ return x * 3 }).join()`, String("3,6")},
		{"of", `Array.of(7).length`, Number(1)},
		{"constructor length", `new Array(3).length`, Number(3)},
		{"constructor elements", `Array(1, 2).join()`, String("1,2")},
		{"join cycle", `var a = [1]; a.push(a); a.join()`, String("1,")},
	})
}

func TestArrayGenericReceivers(t *testing.T) {
	runCases(t, []valueCase{
		{"join array-like", `Array.prototype.join.call({length: 2, 0: "a", 1: "b"}, "+")`, String("a+b")},
		{"slice string", `JSON.stringify([].slice.call("xyz"))`, String(`["x","y","z"]`)},
		{"slice utf16 units", `[].slice.call("😀").length`, Number(2)},
		{"map array-like", `[].map.call({length: 2, 0: 1, 1: 2}, function(x){ return x * 10 }).join()`, String("10,20")},
		{"callback sees receiver", `var o = {length: 1, 0: "a"}; var seen; [].forEach.call(o, function(v, i, self){ seen = self }); seen === o`, Bool(true)},
		{"index of array-like", `[].indexOf.call({length: 3, 0: "a", 2: "c"}, "c")`, Number(2)},
		{"missing index is a hole", `var n = 0; [].forEach.call({length: 3, 1: "b"}, function(){ n++ }); n`, Number(1)},
		{"no length is empty", `[].join.call({0: "a"})`, String("")},
		{"number receiver", `[].join.call(5)`, String("")},
		{"reduce array-like", `[].reduce.call({length: 3, 0: 1, 1: 2, 2: 3}, function(a, b){ return a + b })`, Number(6)},
		{"push writes back", `var o = {length: 1, 0: "a"}; var n = [].push.call(o, "b"); n + "," + o.length + o[1]`, String("2,2b")},
		{"pop writes back", `var o = {length: 2, 0: "a", 1: "b"}; var v = [].pop.call(o); v + o.length + (1 in o)`, String("b1false")},
		{"reverse returns receiver", `var o = {length: 2, 0: "a", 1: "b"}; [].reverse.call(o) === o && o[0] + o[1]`, String("ba")},
		{"splice writes back", `var o = {length: 3, 0: 1, 1: 2, 2: 3}; var r = [].splice.call(o, 0, 2); r.join() + "|" + o.length + o[0]`, String("1,2|13")},
		{"concat object receiver", `[].concat.call({a: 1}, [2]).length`, Number(2)},
		{"arguments", `function f(){ return Array.prototype.slice.call(arguments, 1).join() } f(1, 2, 3)`, String("2,3")},
	})
}

func TestArrayGenericReceiverErrors(t *testing.T) {
	runCases(t, []valueCase{
		{"null receiver", `try { [].join.call(null) } catch (e) { e.name }`, String("TypeError")},
		{"push on string", `try { [].push.call("ab", "c") } catch (e) { e.name }`, String("TypeError")},
	})
}

func TestStringBuiltins(t *testing.T) {
	runCases(t, []valueCase{
		{"char code at", `"abc".charCodeAt(1)`, Number(98)},
		{"char code out of range", `"abc".charCodeAt(9)`, nan},
		{"char at", `"abc".charAt(2)`, String("c")},
		{"code point at", `"😀".codePointAt(0)`, Number(0x1F600)},
		{"length utf16", `"😀".length`, Number(2)},
		{"slice negative", `"hello".slice(-3)`, String("llo")},
		{"substring swaps", `"abcdef".substring(4, 1)`, String("bcd")},
		{"substr", `"abcdef".substr(1, 2)`, String("bc")},
		{"index of", `"hello".indexOf("l") * 10 + "hello".lastIndexOf("l")`, Number(23)},
		{"includes", `"hello".includes("ell") && "hello".startsWith("he") && "hello".endsWith("lo")`, Bool(true)},
		{"case", `"aBc".toUpperCase() + "aBc".toLowerCase()`, String("ABCabc")},
		{"trim", `"[" + "  x ".trim() + "|" + " y ".trimStart() + "|" + " z ".trimEnd() + "]"`, String("[x|y | z]")},
		{"pad", `"5".padStart(3, "0") + "5".padEnd(3, "ab")`, String("0055ab")},
		{"repeat", `"ab".repeat(3)`, String("ababab")},
		{"concat", `"a".concat("b", 1)`, String("ab1")},
		{"split string", `JSON.stringify("a,b,,c".split(","))`, String(`["a","b","","c"]`)},
		{"split limit", `"a,b,c".split(",", 2).join("|")`, String("a|b")},
		{"split empty", `"abc".split("").join("|")`, String("a|b|c")},
		{"split surrogates", `"😀".split("").length`, Number(2)},
		{"split undefined", `"abc".split().length`, Number(1)},
		{"replace string first", `"a.b.c".replace(".", "-")`, String("a-b.c")},
		{"replace all string", `"a.b.c".replaceAll(".", "-")`, String("a-b-c")},
		{"replace groups", `"john smith".replace(/(\w+)\s(\w+)/, "$2 $1")`, String("smith john")},
		{"replace specials", `"abc".replace("b", "[$&|$` + "`" + `|$'|$$]")`, String("a[b|a|c|$]c")},
		{"replace named", `"2024-05".replace(/(?<y>\d+)-(?<m>\d+)/, "$<m>/$<y>")`, String("05/2024")},
		{"replace function", `"abc".replace(/b/, function(m, off){ return m.toUpperCase() + off })`, String("aB1c")},
		{"replace all regexp", `"aaa".replaceAll(/a/g, "b")`, String("bbb")},
		{"match global", `"a1b22".match(/\d+/g).join("|")`, String("1|22")},
		{"match groups", `"key=val".match(/(\w+)=(\w+)/)[2]`, String("val")},
		{"match none", `"abc".match(/\d/)`, null},
		{"search", `"abc1".search(/\d/)`, Number(3)},
		{"from char code", `String.fromCharCode(72, 105)`, String("Hi")},
		{"from code point", `String.fromCodePoint(0x1F600).length`, Number(2)},
		{"string call", `String(12) + String(null) + String(true)`, String("12nulltrue")},
		{"at", `"abc".at(-1)`, String("c")},
		{"unbound slice", `String.prototype.slice.call("hello", 1, 3)`, String("el")},
	})
}

func TestRegExpBuiltins(t *testing.T) {
	runCases(t, []valueCase{
		{"literal after block", `var s = "abc"; if (s) {} /b/.test(s)`, Bool(true)},
		{"test", `/^a.c$/.test("abc")`, Bool(true)},
		{"ignore case", `/ABC/i.test("abc")`, Bool(true)},
		{"exec index", `/b+/.exec("abbbc").index`, Number(1)},
		{"exec array", `/(b)(c)?/.exec("ab").length`, Number(3)},
		{"exec global advances", `var r = /\d/g; r.exec("a1b2"); r.exec("a1b2")[0] + r.lastIndex`, String("24")},
		{"exec null", `/x/.exec("abc")`, null},
		{"source flags", `var r = /a.b/gi; r.source + " " + r.flags + " " + r.global`, String("a.b gi true")},
		{"constructor", `new RegExp("a+", "g").test("caat")`, Bool(true)},
		{"constructor from regexp", `RegExp(/x/g).flags`, String("g")},
		{"to string", `String(/a\/b/m)`, String(`/a\/b/m`)},
		{"multiline", `"a\nb".replace(/^b/m, "B")`, String("a\nB")},
		{"dot all", `/a.b/s.test("a\nb")`, Bool(true)},
		{"instanceof", `/x/ instanceof RegExp`, Bool(true)},
	})
}

func TestRegExpErrors(t *testing.T) {
	runCases(t, []valueCase{
		{"bad flags", `try { new RegExp("a", "gg") } catch (e) { e.name }`, String("SyntaxError")},
		{"bad pattern", `try { new RegExp("(") } catch (e) { e.name }`, String("SyntaxError")},
		{"replace all needs global", `try { "a".replaceAll(/a/, "b") } catch (e) { e.name }`, String("TypeError")},
	})
}

func TestNumberBuiltins(t *testing.T) {
	runCases(t, []valueCase{
		{"to string radix", `(255).toString(16)`, String("ff")},
		{"to string binary", `(5).toString(2)`, String("101")},
		{"to string negative radix", `(-255).toString(36)`, String("-73")},
		{"to fixed", `(1.005).toFixed(2)`, String("1.00")},
		{"to fixed half up", `(2.5).toFixed(0)`, String("3")},
		{"to fixed pads", `(1).toFixed(3)`, String("1.000")},
		{"to precision", `(123.456).toPrecision(4)`, String("123.5")},
		{"to precision exponent", `(123456).toPrecision(2)`, String("1.2e+5")},
		{"format large", `String(1e21)`, String("1e+21")},
		{"format small", `String(0.000001)`, String("0.000001")},
		{"format tiny", `String(1e-7)`, String("1e-7")},
		{"format negative zero", `String(-0)`, String("0")},
		{"parse int hex", `parseInt("0x1f")`, Number(31)},
		{"parse int prefix", `parseInt("12px")`, Number(12)},
		{"parse int radix", `parseInt("z", 36)`, Number(35)},
		{"parse int invalid", `parseInt("px")`, nan},
		{"parse float", `parseFloat("3.14abc")`, Number(3.14)},
		{"parse float exponent", `parseFloat("1e3x")`, Number(1000)},
		{"number call", `Number("  12  ")`, Number(12)},
		{"number invalid", `Number("12px")`, nan},
		{"is integer", `Number.isInteger(5) && !Number.isInteger(5.5) && !Number.isInteger("5")`, Bool(true)},
		{"global is nan", `isNaN("abc") && !Number.isNaN("abc")`, Bool(true)},
		{"is finite", `isFinite("12") && !isFinite(Infinity)`, Bool(true)},
		{"max safe", `Number.MAX_SAFE_INTEGER`, Number(9007199254740991)},
		{"boolean", `Boolean("") + "" + Boolean("x")`, String("falsetrue")},
		{"boolean to string", `true.toString()`, String("true")},
	})
}

func TestMathBuiltins(t *testing.T) {
	runCases(t, []valueCase{
		{"round half up", `Math.round(2.5)`, Number(3)},
		{"round negative half", `Math.round(-2.5)`, Number(-2)},
		{"floor ceil", `Math.floor(-1.5) + Math.ceil(1.2)`, Number(0)},
		{"trunc sign", `Math.trunc(-4.7) * Math.sign(-3)`, Number(4)},
		{"max min", `Math.max(1, 3, 2) - Math.min(4, -1)`, Number(4)},
		{"max empty", `Math.max()`, Number(math.Inf(-1))},
		{"max nan", `Math.max(1, NaN)`, nan},
		{"pow", `Math.pow(2, 8)`, Number(256)},
		{"pow nan", `Math.pow(1, Infinity)`, nan},
		{"sqrt", `Math.sqrt(16) + Math.sqrt(9)`, Number(7)},
		{"hypot", `Math.hypot(3, 4)`, Number(5)},
		{"abs", `Math.abs(-7)`, Number(7)},
		{"log2", `Math.log2(8)`, Number(3)},
		{"pi", `Math.PI`, Number(math.Pi)},
		{"atan2", `Math.atan2(0, 1)`, Number(0)},
	})
}

func TestObjectBuiltins(t *testing.T) {
	runCases(t, []valueCase{
		{"keys order", `Object.keys({b: 1, a: 2, c: 3}).join()`, String("b,a,c")},
		{"values", `Object.values({a: 1, b: 2}).join()`, String("1,2")},
		{"entries", `JSON.stringify(Object.entries({a: 1}))`, String(`[["a",1]]`)},
		{"assign", `var o = Object.assign({a: 1}, {b: 2}, {a: 3}); o.a + o.b`, Number(5)},
		{"create null", `var o = Object.create(null); o.x = 1; typeof o.hasOwnProperty`, String("undefined")},
		{"create proto", `var p = {greet: function(){ return "hi" }}; Object.create(p).greet()`, String("hi")},
		{"has own", `var o = {a: 1}; o.hasOwnProperty("a") && !o.hasOwnProperty("toString")`, Bool(true)},
		{"to string tag", `Object.prototype.toString.call([])`, String("[object Array]")},
		{"get prototype", `Object.getPrototypeOf([]) === Array.prototype`, Bool(true)},
		{"define property", `var o = {}; Object.defineProperty(o, "k", {value: 4}); o.k`, Number(4)},
		{"object call", `typeof Object()`, String("object")},
		{"numeric keys", `var o = {}; o[1] = "a"; o["1"]`, String("a")},
		{"constructor property", `({}).constructor === Object`, Bool(true)},
	})
}

func TestErrorBuiltins(t *testing.T) {
	runCases(t, []valueCase{
		{"message", `try { throw new Error("m") } catch (e) { e.message }`, String("m")},
		{"to string", `String(new RangeError("r"))`, String("RangeError: r")},
		{"hierarchy", `var e = new TypeError("t"); (e instanceof TypeError) && (e instanceof Error) && !(e instanceof RangeError)`, Bool(true)},
		{"call without new", `Error("x").message`, String("x")},
		{"builtin throws catchable", `try { [].reduce(function(){}) } catch (e) { e.name }`, String("TypeError")},
		{"thrown primitive", `try { throw "s" } catch (e) { typeof e }`, String("string")},
		{"invalid length", `try { [].length = -1 } catch (e) { e.name }`, String("RangeError")},
		{"name", `new SyntaxError().name`, String("SyntaxError")},
	})
}

func TestJSONBuiltins(t *testing.T) {
	runCases(t, []valueCase{
		{"stringify", `JSON.stringify({a: [1, "x", null, true], b: undefined, f: function(){}})`, String(`{"a":[1,"x",null,true]}`)},
		{"stringify array holes", `JSON.stringify([undefined, function(){}, NaN])`, String(`[null,null,null]`)},
		{"stringify top undefined", `typeof JSON.stringify(undefined)`, String("undefined")},
		{"stringify escapes", `JSON.stringify("a\"b\\c\n\u0001")`, String(`"a\"b\\c\n\u0001"`)},
		{"stringify indent", `JSON.stringify({a: 1, b: [1, 2]}, null, 2)`, String("{\n  \"a\": 1,\n  \"b\": [\n    1,\n    2\n  ]\n}")},
		{"stringify replacer array", `JSON.stringify({a: 1, b: 2, c: 3}, ["a", "c"])`, String(`{"a":1,"c":3}`)},
		{"stringify replacer function", `JSON.stringify({a: 1, b: 2}, function(k, v){ return k == "b" ? undefined : v })`, String(`{"a":1}`)},
		{"stringify to json", `JSON.stringify({d: new Date(0)})`, String(`{"d":"1970-01-01T00:00:00.000Z"}`)},
		{"stringify cycle", `var o = {}; o.o = o; try { JSON.stringify(o) } catch (e) { e.name }`, String("TypeError")},
		{"stringify lone surrogate", `JSON.stringify("\ud800")`, String(`"\ud800"`)},
		{"parse nested", `JSON.parse('{"a":[1,2,{"b":"c"}]}').a[2].b`, String("c")},
		{"parse negative", `JSON.parse("-5.5e1")`, Number(-55)},
		{"parse literals", `var v = JSON.parse("[true,false,null]"); v[0] && !v[1] && v[2] === null`, Bool(true)},
		{"parse unicode escape", `JSON.parse('"\\u0041"')`, String("A")},
		{"parse reviver", `JSON.parse('{"a":1,"b":2}', function(k, v){ return typeof v == "number" ? v * 10 : v }).b`, Number(20)},
		{"parse key order", `Object.keys(JSON.parse('{"z":1,"a":2}')).join()`, String("z,a")},
		{"parse trailing comma", `try { JSON.parse("[1,]") } catch (e) { e.name }`, String("SyntaxError")},
		{"parse single quotes", `try { JSON.parse("'a'") } catch (e) { e.name }`, String("SyntaxError")},
		{"parse hex", `try { JSON.parse("0x10") } catch (e) { e.name }`, String("SyntaxError")},
		{"parse trailing data", `try { JSON.parse("1 2") } catch (e) { e.name }`, String("SyntaxError")},
		{"parse identifier", `try { JSON.parse("undefined") } catch (e) { e.name }`, String("SyntaxError")},
		{"round trip", `JSON.stringify(JSON.parse('{"k":[1.5,"s"]}'))`, String(`{"k":[1.5,"s"]}`)},
	})
}

func TestGlobalFunctions(t *testing.T) {
	runCases(t, []valueCase{
		{"encode component", `encodeURIComponent("a b&c=d/é")`, String("a%20b%26c%3Dd%2F%C3%A9")},
		{"encode uri keeps reserved", `encodeURI("http://x.y/a b?q=1")`, String("http://x.y/a%20b?q=1")},
		{"decode component", `decodeURIComponent("a%20b%C3%A9")`, String("a bé")},
		{"decode uri keeps reserved", `decodeURI("a%2Fb%20c")`, String("a%2Fb c")},
		{"decode malformed", `try { decodeURIComponent("%E0%A4%A") } catch (e) { e.name }`, String("URIError")},
		{"escape", `escape("a b+ü")`, String("a%20b+%FC")},
		{"unescape", `unescape("%u0041%42c")`, String("ABc")},
		{"global this", `globalThis.Math === Math`, Bool(true)},
		{"infinity", `-Infinity < 0 && Infinity > 0`, Bool(true)},
	})
}

func TestDateBuiltins(t *testing.T) {
	runCases(t, []valueCase{
		{"weekday form", `new Date('Wednesday 31 December 1969 18:01:26 MDT') - 0`, Number(86000)},
		{"slash form", `Date.parse('12/31/1969 18:01:26 MDT')`, Number(86000)},
		{"utc form", `Date.parse('1 January 1970 00:00:00 UTC')`, Number(0)},
		{"iso", `Date.parse("1970-01-02T00:00:00Z")`, Number(86400000)},
		{"iso date only", `Date.parse("1970-01-02")`, Number(86400000)},
		{"invalid", `Date.parse("not a date")`, nan},
		{"utc fields", `Date.UTC(1970, 0, 1, 0, 0, 1)`, Number(1000)},
		{"fields constructor", `new Date(2020, 0, 1) - new Date(2019, 11, 31)`, Number(86400000)},
		{"month overflow", `new Date(2020, 12, 1).getFullYear()`, Number(2021)},
		{"now", `Date.now()`, Number(float64(fixedNow.UnixMilli()))},
		{"new date now", `new Date().getTime() === Date.now()`, Bool(true)},
		{"ms constructor", `new Date(86000).getTime()`, Number(86000)},
		{"getters", `var d = new Date(Date.UTC(2021, 5, 15, 10, 20, 30, 40)); [d.getFullYear(), d.getMonth(), d.getDate(), d.getDay(), d.getHours(), d.getMinutes(), d.getSeconds(), d.getMilliseconds()].join()`, String("2021,5,15,2,10,20,30,40")},
		{"iso string", `new Date(0).toISOString()`, String("1970-01-01T00:00:00.000Z")},
		{"to string", `String(new Date(0))`, String("Thu Jan 01 1970 00:00:00 GMT+0000 (Coordinated Universal Time)")},
		{"invalid string", `String(new Date(NaN))`, String("Invalid Date")},
		{"concat uses string", `typeof (new Date(0) + 1)`, String("string")},
		{"two digit year", `new Date(99, 0).getFullYear()`, Number(1999)},
	})
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"Wednesday 31 December 1969 18:01:26 MDT", 86000},
		{"12/31/1969 18:01:26 MDT", 86000},
		{"1 January 1970 00:00:00 UTC", 0},
		{"Thu, 01 Jan 1970 00:00:00 GMT", 0},
		{"January 1 1970 01:00:00 +0100", 0},
		{"Jan 1, 1970 00:00:00 GMT+0000", 0},
		{"1970/01/01", 0},
		{"1970-01-01T01:00:00+01:00", 0},
		{"Thu Jan 01 1970 00:00:10 GMT+0000 (Coordinated Universal Time)", 10000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDate(tt.in))
		})
	}
	assert.True(t, math.IsNaN(ParseDate("")))
}

func TestContainersShareState(t *testing.T) {
	v := run(t, `var a = [1]; var b = a; b.push(2); var o = {l: a}; o.l.push(3); a.join()`)
	require.Equal(t, Value(String("1,2,3")), v)
}
