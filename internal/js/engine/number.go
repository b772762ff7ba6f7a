package engine

import (
	"errors"
	"math"
	"math/big"
	"strconv"
	"strings"
)

const twoTo32 = 4294967296

// FormatNumber implements Number::toString for radix 10.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case f == 0:
		return "0"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f < 0:
		return "-" + FormatNumber(-f)
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(s, "e")
	digits := strings.Replace(mant, ".", "", 1)
	e, _ := strconv.Atoi(exp)
	k, n := len(digits), e+1

	switch {
	case k <= n && n <= 21:
		return digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		return digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		return "0." + strings.Repeat("0", -n) + digits
	}

	sign := "+"
	if n-1 < 0 {
		sign = "-"
	}
	exponent := strconv.Itoa(abs(n - 1))
	if k == 1 {
		return digits + "e" + sign + exponent
	}
	return digits[:1] + "." + digits[1:] + "e" + sign + exponent
}

// formatRadix implements Number.prototype.toString(radix) for radix != 10.
func formatRadix(f float64, radix int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	neg := f < 0
	f = math.Abs(f)
	ip, fp := math.Modf(f)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if ip < 1<<63 {
		b.WriteString(strconv.FormatInt(int64(ip), radix))
	} else {
		var digits []byte
		for ip >= 1 {
			d := math.Mod(ip, float64(radix))
			digits = append(digits, strconv.FormatInt(int64(d), radix)[0])
			ip = math.Floor(ip / float64(radix))
		}
		for i := len(digits) - 1; i >= 0; i-- {
			b.WriteByte(digits[i])
		}
	}
	if fp > 0 {
		b.WriteByte('.')
		for i := 0; i < 52 && fp > 0; i++ {
			fp *= float64(radix)
			d := int64(fp)
			b.WriteString(strconv.FormatInt(d, radix))
			fp -= float64(d)
		}
	}
	return b.String()
}

// toFixed formats f with digits fraction digits, rounding ties away from
// zero on the exact binary value.
func toFixed(f float64, digits int) string {
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	exact := new(big.Float).SetFloat64(f).Text('f', 1074)
	whole, frac, _ := strings.Cut(exact, ".")
	digitsStr := []byte(whole + frac[:digits])
	if frac[digits] >= '5' {
		i := len(digitsStr) - 1
		for ; i >= 0 && digitsStr[i] == '9'; i-- {
			digitsStr[i] = '0'
		}
		if i < 0 {
			digitsStr = append([]byte{'1'}, digitsStr...)
		} else {
			digitsStr[i]++
		}
	}
	cut := len(digitsStr) - digits
	if digits == 0 {
		return sign + string(digitsStr)
	}
	return sign + string(digitsStr[:cut]) + "." + string(digitsStr[cut:])
}

// StringToNumber implements ToNumber applied to a string.
func StringToNumber(s string) float64 {
	s = trimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			return parseDigits(s[2:], base)
		}
	}
	if !isDecimalLiteral(s) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}

func parseDigits(s string, base int) float64 {
	if s == "" {
		return math.NaN()
	}
	var v float64
	for i := 0; i < len(s); i++ {
		d := digitValue(s[i])
		if d < 0 || d >= base {
			return math.NaN()
		}
		v = v*float64(base) + float64(d)
	}
	return v
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// isDecimalLiteral matches [+-]? (digits [. digits?] | . digits) ([eE] [+-]? digits)?
func isDecimalLiteral(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intDigits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		intDigits++
	}
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			fracDigits++
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expDigits := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// trimSpace removes JavaScript white space and line terminators.
func trimSpace(s string) string {
	return strings.TrimFunc(s, isJSSpace)
}

func isJSSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r', '\u00a0', '\u1680', '\u2028', '\u2029',
		'\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}

// ToInt32 implements the ECMAScript ToInt32 conversion.
func ToInt32(f float64) int32 {
	return int32(ToUint32(f))
}

// ToUint32 implements the ECMAScript ToUint32 conversion.
func ToUint32(f float64) uint32 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Mod(math.Trunc(f), twoTo32)
	if f < 0 {
		f += twoTo32
	}
	return uint32(f)
}

// toInteger implements ToIntegerOrInfinity.
func toInteger(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return math.Trunc(f)
}

// relativeIndex resolves a possibly negative start/end argument against n.
func relativeIndex(f float64, n int) int {
	f = toInteger(f)
	switch {
	case f < 0:
		return int(math.Max(float64(n)+f, 0))
	case f > float64(n):
		return n
	default:
		return int(f)
	}
}

// clampIndex limits an integer argument to [0, n].
func clampIndex(f float64, n int) int {
	f = toInteger(f)
	switch {
	case f < 0:
		return 0
	case f > float64(n):
		return n
	default:
		return int(f)
	}
}

func pow(x, y float64) float64 {
	if math.IsNaN(y) {
		return math.NaN()
	}
	if math.IsInf(y, 0) && math.Abs(x) == 1 {
		return math.NaN()
	}
	return math.Pow(x, y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
