package csvstore

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/lequel/pkg/langid"
	"github.com/umputun/lequel/pkg/trigram"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, trigram.Profile{"abc": 2, "a,b": 1, "the": 5, " qu": 2})
	require.NoError(t, err)
	assert.Equal(t, "the,5\n\" qu\",2\nabc,2\n\"a,b\",1\n", buf.String())
}

func TestRoundTrip(t *testing.T) {
	corpus := trigram.Text{
		"The quick brown fox, \"jumps\" over the lazy dog.\r",
		"Ñandú, ÇA VA?  cœur; déjà-vu",
		"Съешь же ещё этих мягких французских булок",
		"ab",
	}
	raw, err := langid.BuildLanguageProfile(corpus)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "trigrams", "xx.csv")
	require.NoError(t, WriteProfile(path, raw))

	back, err := ReadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRoundTrip_CarriageReturns(t *testing.T) {
	raw, err := langid.BuildLanguageProfile(trigram.Text{"x\ry\rz,\r", "a\r\rb\r"})
	require.NoError(t, err)
	assert.Contains(t, raw, "x\ry")

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, raw))
	back, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	// "\r\n" inside a quoted field would come back as "\n", such lines never reach a profile
	_, err = langid.BuildLanguageProfile(trigram.Text{"x\r\ny"})
	assert.ErrorIs(t, err, trigram.ErrLineBreak)
}

func TestWriteProfile_Overwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en.csv")
	require.NoError(t, WriteProfile(path, trigram.Profile{"abc": 1}))
	require.NoError(t, WriteProfile(path, trigram.Profile{"xyz": 7}))

	data, err := os.ReadFile(path) //nolint:gosec // test file
	require.NoError(t, err)
	assert.Equal(t, "xyz,7\n", string(data))
}

func TestWriteProfile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "en.csv")
	err := WriteProfile(path, trigram.Profile{})
	require.ErrorIs(t, err, trigram.ErrEmptyProfile)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  string
	}{
		{name: "bad count", in: "abc,x\n", err: `count "x"`},
		{name: "wrong field count", in: "abc,1,2\n", err: "wrong number of fields"},
		{name: "short trigram", in: "ab,1\n", err: "invalid trigram row"},
		{name: "zero count", in: "abc,0\n", err: "invalid trigram row"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestReadProfile_Missing(t *testing.T) {
	_, err := ReadProfile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
