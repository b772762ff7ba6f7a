package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	h := DefaultHasher()

	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h.HashString("abc"))
	assert.Equal(t, h.HashString("abc"), NewHasher("unknown").HashString("abc"))
}

func TestHashFields(t *testing.T) {
	h := DefaultHasher()

	assert.Equal(t, h.HashFields("a", "b"), h.HashFields("a", "b"))
	assert.NotEqual(t, h.HashFields("ab", "c"), h.HashFields("a", "bc"))
	assert.NotEqual(t, h.HashFields("a", "b"), h.HashFields("b", "a"))
}

func TestHashJSON(t *testing.T) {
	h := DefaultHasher()

	a, err := h.HashJSON(map[string]any{"x": 1, "y": []int{1, 2}})
	require.NoError(t, err)
	b, err := h.HashJSON(map[string]any{"y": []int{1, 2}, "x": 1})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = h.HashJSON(func() {})
	assert.Error(t, err)
}

func TestSpecKey(t *testing.T) {
	k := SpecKey("player_ias.vflset/en_US/base.js", "sig", 92)

	assert.True(t, strings.HasPrefix(k, "spec:"))
	assert.Len(t, k, len("spec:")+64)
	assert.Equal(t, k, SpecKey("player_ias.vflset/en_US/base.js", "sig", 92))
	assert.NotEqual(t, k, SpecKey("player_ias.vflset/en_US/base.js", "sig", 93))
	assert.NotEqual(t, k, SpecKey("player_ias.vflset/en_US/base.js", "sig2", 92))
}
