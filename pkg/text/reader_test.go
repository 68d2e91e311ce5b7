package text

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/lequel/pkg/trigram"
)

func TestReader_Read(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want trigram.Text
	}{
		{name: "empty", in: "", want: trigram.Text{}},
		{name: "single line no newline", in: "abc", want: trigram.Text{"abc"}},
		{name: "lines", in: "abc\ndef\n", want: trigram.Text{"abc", "def"}},
		{name: "crlf kept", in: "abc\r\ndef\r\n", want: trigram.Text{"abc\r", "def\r"}},
		{name: "empty lines", in: "abc\n\n\nxyz", want: trigram.Text{"abc", "", "", "xyz"}},
	}

	r := NewReader(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Read(strings.NewReader(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReader_Encoding(t *testing.T) {
	t.Run("windows-1252", func(t *testing.T) {
		r := NewReader(Options{Encoding: "windows-1252"})
		got, err := r.Read(strings.NewReader("caf\xe9\r\nna\xefve"))
		require.NoError(t, err)
		assert.Equal(t, trigram.Text{"café\r", "naïve"}, got)
	})

	t.Run("utf-8 label passes through", func(t *testing.T) {
		r := NewReader(Options{Encoding: "UTF-8"})
		got, err := r.Read(strings.NewReader("café"))
		require.NoError(t, err)
		assert.Equal(t, trigram.Text{"café"}, got)
	})

	t.Run("unknown encoding", func(t *testing.T) {
		r := NewReader(Options{Encoding: "no-such-encoding"})
		_, err := r.Read(strings.NewReader("abc"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported encoding")
	})
}

func TestReader_LineTooLong(t *testing.T) {
	r := NewReader(Options{MaxLineSize: 8})
	_, err := r.Read(strings.NewReader("short\n" + strings.Repeat("x", 100)))
	require.Error(t, err)
	assert.ErrorIs(t, err, bufio.ErrTooLong)
}

func TestReader_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.txt")
	require.NoError(t, os.WriteFile(path, []byte("The quick brown fox\r\njumps over\n"), 0o600))

	r := NewReader(Options{})
	got, err := r.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, trigram.Text{"The quick brown fox\r", "jumps over"}, got)

	_, err = r.ReadFile(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReader_ReadFileInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "latin1.txt")
	require.NoError(t, os.WriteFile(path, []byte("caf\xe9 au lait"), 0o600))

	// the reader doesn't validate, the builder rejects the line
	got, err := NewReader(Options{}).ReadFile(path)
	require.NoError(t, err)
	_, err = trigram.Build(got)
	assert.ErrorIs(t, err, trigram.ErrInvalidUTF8)
}
