package jsinterp

import (
	"os"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type corpusCase struct {
	Name string `yaml:"name"`
	Src  string `yaml:"src"`
	Call string `yaml:"call"`
	Args []any  `yaml:"args"`
	Expr string `yaml:"expr"`
	Want string `yaml:"want"`
	Err  string `yaml:"err"`
}

var sentinels = map[string]error{
	"ErrUnterminatedString":  ErrUnterminatedString,
	"ErrUnexpectedToken":     ErrUnexpectedToken,
	"ErrUnsupportedSyntax":   ErrUnsupportedSyntax,
	"ErrFunctionNotFound":    ErrFunctionNotFound,
	"ErrUndefinedIdentifier": ErrUndefinedIdentifier,
	"ErrNotCallable":         ErrNotCallable,
	"ErrPropertyOfNullish":   ErrPropertyOfNullish,
	"ErrUncaught":            ErrUncaught,
}

func loadCorpus(t *testing.T) []corpusCase {
	t.Helper()
	data, err := os.ReadFile("testdata/corpus.yaml")
	require.NoError(t, err)
	var cases []corpusCase
	require.NoError(t, yaml.Unmarshal(data, &cases))
	require.NotEmpty(t, cases)
	return cases
}

func TestCorpus(t *testing.T) {
	for _, c := range loadCorpus(t) {
		t.Run(c.Name, func(t *testing.T) {
			got, err := runCase(c)
			if c.Err != "" {
				want, ok := sentinels[c.Err]
				require.True(t, ok, "unknown sentinel %s", c.Err)
				assert.ErrorIs(t, err, want)
				return
			}
			require.NoError(t, err)

			out, err := sonic.ConfigStd.Marshal(normalize(got))
			require.NoError(t, err)
			assert.JSONEq(t, c.Want, string(out))
		})
	}
}

func runCase(c corpusCase) (any, error) {
	in, err := New(c.Src)
	if err != nil {
		return nil, err
	}
	if c.Call != "" {
		return in.CallFunction(c.Call, c.Args...)
	}
	return in.Eval(c.Expr)
}

// normalize turns Null into nil so results marshal as JSON
func normalize(v any) any {
	switch v := v.(type) {
	case NullType:
		return nil
	case []any:
		for i := range v {
			v[i] = normalize(v[i])
		}
	case map[string]any:
		for k, e := range v {
			v[k] = normalize(e)
		}
	}
	return v
}
