package wtf8

import (
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		units []uint16
	}{
		{name: "ascii", units: utf16.Encode([]rune("test"))},
		{name: "bmp", units: utf16.Encode([]rune("héllo"))},
		{name: "pair", units: utf16.Encode([]rune("😀"))},
		{name: "lone high", units: []uint16{0xD83D}},
		{name: "lone low", units: []uint16{'a', 0xDE00, 'b'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Encode(tt.units)
			assert.Equal(t, tt.units, Decode(s))
			assert.Equal(t, len(tt.units), Len(s))
		})
	}
}

func TestPairIsUTF8(t *testing.T) {
	assert.Equal(t, "😀", Encode([]uint16{0xD83D, 0xDE00}))
	halves := append(Decode(FromRune(0xD83D)), Decode(FromRune(0xDE00))...)
	assert.Equal(t, "😀", Encode(halves))
}
