package jsinterp

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("a", 60) + "X" + strings.Repeat("b", 60)

	tests := []struct {
		name string
		src  string
		pos  Position
		want string
	}{
		{
			name: "first line",
			src:  "var a = ;",
			pos:  Position{Line: 1, Column: 9},
			want: "1 | var a = ;\n  |         ^",
		},
		{
			name: "second line",
			src:  "x\r\nfoo(bar",
			pos:  Position{Line: 2, Column: 4},
			want: "2 | foo(bar\n  |    ^",
		},
		{
			name: "tabs kept",
			src:  "\tx = ;",
			pos:  Position{Line: 1, Column: 6},
			want: "1 | \tx = ;\n  | \t    ^",
		},
		{
			name: "column past end",
			src:  "ab",
			pos:  Position{Line: 1, Column: 10},
			want: "1 | ab\n  |   ^",
		},
		{
			name: "long line",
			src:  long,
			pos:  Position{Line: 1, Column: 61},
			want: "1 | ..." + strings.Repeat("a", 40) + "X" + strings.Repeat("b", 39) + "...\n  | " +
				strings.Repeat(" ", 43) + "^",
		},
		{
			name: "wide gutter",
			src:  strings.Repeat("\n", 9) + "z",
			pos:  Position{Line: 10, Column: 1},
			want: "10 | z\n   | ^",
		},
		{"no line", "x", Position{}, ""},
		{"line out of range", "x", Position{Line: 3, Column: 1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, excerpt(tt.src, tt.pos))
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	e := &Error{Op: "call", Name: "sig", Err: ErrStepBudget}
	assert.Equal(t, "jsinterp: call sig: "+ErrStepBudget.Error(), e.Error())
	assert.Equal(t, e.Error(), e.Pretty())
	assert.True(t, errors.Is(e, ErrStepBudget))

	e = &Error{Op: "eval", Err: ErrUnexpectedEOF, Excerpt: "1 | 1 +\n  |    ^"}
	assert.Equal(t, "jsinterp: eval: "+ErrUnexpectedEOF.Error(), e.Error())
	assert.Equal(t, e.Error()+"\n1 | 1 +\n  |    ^", e.Pretty())
}
