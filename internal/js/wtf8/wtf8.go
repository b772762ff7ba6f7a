// Package wtf8 stores JavaScript strings (sequences of UTF-16 code units) in
// Go strings.
//
// Well-formed surrogate pairs are encoded as regular UTF-8. Lone surrogates,
// which JavaScript allows and Go's UTF-8 cannot represent, use the 3-byte
// generalized encoding (WTF-8) so that a split such as "😀".split("")
// survives a round trip.
package wtf8

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Encode converts UTF-16 code units to WTF-8 text.
func Encode(units []uint16) string {
	var b strings.Builder
	b.Grow(len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		switch {
		case isHigh(u) && i+1 < len(units) && isLow(units[i+1]):
			b.WriteRune(utf16.DecodeRune(rune(u), rune(units[i+1])))
			i++
		case isHigh(u) || isLow(u):
			b.WriteByte(0xE0 | byte(u>>12))
			b.WriteByte(0x80 | byte((u>>6)&0x3F))
			b.WriteByte(0x80 | byte(u&0x3F))
		default:
			b.WriteRune(rune(u))
		}
	}
	return b.String()
}

// Decode converts WTF-8 text back into UTF-16 code units.
func Decode(s string) []uint16 {
	units := make([]uint16, 0, len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			units = append(units, uint16(c))
			i++
			continue
		}
		if u, ok := surrogateAt(s, i); ok {
			units = append(units, u)
			i += 3
			continue
		}
		r, n := utf8.DecodeRuneInString(s[i:])
		units = utf16.AppendRune(units, r)
		i += n
	}
	return units
}

// Len reports the number of UTF-16 code units in s without allocating.
func Len(s string) int {
	n := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			n++
			i++
			continue
		}
		if _, ok := surrogateAt(s, i); ok {
			n++
			i += 3
			continue
		}
		r, w := utf8.DecodeRuneInString(s[i:])
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
		i += w
	}
	return n
}

// FromRune encodes a single code point, keeping surrogate code points.
func FromRune(r rune) string {
	if r >= 0xD800 && r <= 0xDFFF {
		return Encode([]uint16{uint16(r)})
	}
	return string(r)
}

// IsASCII reports whether every code unit of s is below 0x80.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func surrogateAt(s string, i int) (uint16, bool) {
	if s[i] != 0xED || i+2 >= len(s) {
		return 0, false
	}
	b1, b2 := s[i+1], s[i+2]
	if b1 < 0xA0 || b1 > 0xBF || b2&0xC0 != 0x80 {
		return 0, false
	}
	return uint16(s[i]&0x0F)<<12 | uint16(b1&0x3F)<<6 | uint16(b2&0x3F), true
}

func isHigh(u uint16) bool {
	return u >= 0xD800 && u <= 0xDBFF
}

func isLow(u uint16) bool {
	return u >= 0xDC00 && u <= 0xDFFF
}
