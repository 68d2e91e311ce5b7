package trigram

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		text Text
		want Profile
	}{
		{name: "empty", text: nil, want: Profile{}},
		{name: "short lines skipped", text: Text{"", "a", "ab", "ab\r"}, want: Profile{}},
		{name: "single trigram", text: Text{"abc"}, want: Profile{"abc": 1}},
		{name: "trailing cr stripped", text: Text{"abc\r"}, want: Profile{"abc": 1}},
		{name: "only one cr stripped", text: Text{"ab\r\r"}, want: Profile{"ab\r": 1}},
		{name: "repeated", text: Text{"abcabc"}, want: Profile{"abc": 2, "bca": 1, "cab": 1}},
		{name: "no cross-line windows", text: Text{"ab", "cd", "abc"}, want: Profile{"abc": 1}},
		{name: "counts across lines", text: Text{"abc", "xabc"}, want: Profile{"abc": 2, "xab": 1}},
		{name: "spaces kept", text: Text{"a b"}, want: Profile{"a b": 1}},
		{name: "multibyte runes", text: Text{"ñandú"}, want: Profile{"ñan": 1, "and": 1, "ndú": 1}},
		{name: "case folded", text: Text{"ÑANDÚ"}, want: Profile{"ñan": 1, "and": 1, "ndú": 1}},
		{name: "cyrillic", text: Text{"Мир"}, want: Profile{"мир": 1}},
		{name: "short multibyte line", text: Text{"ññ"}, want: Profile{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Build(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild_WindowCount(t *testing.T) {
	got, err := Build(Text{"The quick brown fox"})
	require.NoError(t, err)

	var total float64
	for _, v := range got {
		total += v
	}
	assert.InDelta(t, float64(len([]rune("The quick brown fox"))-2), total, 0)
	for k := range got {
		assert.Len(t, []rune(k), Size)
	}
}

func TestBuild_CaseInsensitive(t *testing.T) {
	upper, err := Build(Text{"ABC"})
	require.NoError(t, err)
	lower, err := Build(Text{"abc"})
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}

func TestBuild_Deterministic(t *testing.T) {
	text := Text{"Lorem ipsum dolor sit amet", "consectetur adipiscing elit\r", "ÀÉÎÕÜ"}
	first, err := Build(text)
	require.NoError(t, err)
	for range 5 {
		next, err := Build(text)
		require.NoError(t, err)
		assert.Equal(t, first, next)
	}
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	text := Text{"ABC\r", "Déjà"}
	_, err := Build(text)
	require.NoError(t, err)
	assert.Equal(t, Text{"ABC\r", "Déjà"}, text)
}

func TestBuild_InvalidUTF8(t *testing.T) {
	got, err := Build(Text{"hello", "ab\xffcd"})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, ErrInvalidUTF8))

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, 2, decodeErr.Line)
	assert.Equal(t, "line 2: invalid utf-8", err.Error())
}

func TestBuild_LineBreak(t *testing.T) {
	got, err := Build(Text{"first line", "x\r\ny"})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrLineBreak)
	assert.Equal(t, "line 2: line break inside a line", err.Error())

	// a lone '\r' inside a line is an ordinary character
	got, err = Build(Text{"a\rb"})
	require.NoError(t, err)
	assert.Equal(t, Profile{"a\rb": 1}, got)
}

func TestProfile_Keys(t *testing.T) {
	assert.Equal(t, []string{" ab", "abc", "xyz"}, Profile{"xyz": 1, "abc": 5, " ab": 2}.Keys())
	assert.Empty(t, Profile{}.Keys())
}

func TestProfile_NormalizeDeterministic(t *testing.T) {
	var lines Text
	for i := range 60 {
		lines = append(lines, fmt.Sprintf("line %d with some words, mots français et ещё кириллица %d", i, i*7))
	}
	raw, err := Build(lines)
	require.NoError(t, err)

	want := raw.Clone()
	require.NoError(t, want.Normalize())
	text := Profile{"lin": 3, "ine": 3, "wor": 1, "фра": 1, "кир": 2}
	require.NoError(t, text.Normalize())
	wantScore := CosineSimilarity(text, want)

	for range 200 {
		p := raw.Clone()
		require.NoError(t, p.Normalize())
		require.Equal(t, want, p)
		require.Equal(t, wantScore, CosineSimilarity(text, p)) //nolint:testifylint // bit-identical score expected
	}
}

func TestDot(t *testing.T) {
	text := Profile{"abc": 2, "bcd": 3, "zzz": 1}
	lang := Profile{"abc": 4, "bcd": 1, "qqq": 9}
	assert.InDelta(t, 11.0, Dot(text.Keys(), text, lang), 1e-12)
	assert.InDelta(t, 8.0, Dot([]string{"abc"}, text, lang), 1e-12)
	assert.Zero(t, Dot(nil, text, lang))
}

func TestProfile_Normalize(t *testing.T) {
	t.Run("unit norm", func(t *testing.T) {
		p := Profile{"abc": 3, "bcd": 4}
		require.NoError(t, p.Normalize())
		assert.InDelta(t, 0.6, p["abc"], 1e-12)
		assert.InDelta(t, 0.8, p["bcd"], 1e-12)
	})

	t.Run("sum of squares is one", func(t *testing.T) {
		p, err := Build(Text{"The quick brown fox jumps over the lazy dog", "Pack my box with five dozen liquor jugs"})
		require.NoError(t, err)
		require.NoError(t, p.Normalize())

		var sumSquares float64
		for _, v := range p {
			sumSquares += v * v
		}
		assert.InDelta(t, 1.0, sumSquares, 1e-9)
	})

	t.Run("empty profile", func(t *testing.T) {
		p := Profile{}
		err := p.Normalize()
		assert.ErrorIs(t, err, ErrEmptyProfile)
		assert.Empty(t, p)
	})

	t.Run("zero weights left untouched", func(t *testing.T) {
		p := Profile{"abc": 0, "bcd": 0}
		err := p.Normalize()
		assert.ErrorIs(t, err, ErrEmptyProfile)
		assert.Equal(t, Profile{"abc": 0, "bcd": 0}, p)
		for _, v := range p {
			assert.False(t, math.IsNaN(v))
		}
	})
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("self similarity", func(t *testing.T) {
		p, err := Build(Text{"El veloz murciélago hindú comía feliz cardillo y kiwi"})
		require.NoError(t, err)
		require.NoError(t, p.Normalize())
		assert.InDelta(t, 1.0, CosineSimilarity(p, p), 1e-9)
	})

	t.Run("disjoint", func(t *testing.T) {
		a := Profile{"abc": 1}
		b := Profile{"xyz": 1}
		assert.Zero(t, CosineSimilarity(a, b))
	})

	t.Run("only text keys visited", func(t *testing.T) {
		text := Profile{"abc": 0.6, "bcd": 0.8}
		lang := Profile{"abc": 0.5, "zzz": 100}
		assert.InDelta(t, 0.3, CosineSimilarity(text, lang), 1e-12)
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Zero(t, CosineSimilarity(Profile{}, Profile{"abc": 1}))
	})
}

func TestProfile_CloneAndAdd(t *testing.T) {
	p := Profile{"abc": 2}
	c := p.Clone()
	c["abc"] = 10
	c["xyz"] = 1
	assert.Equal(t, Profile{"abc": 2}, p)

	p.Add(Profile{"abc": 1, "bcd": 4})
	assert.Equal(t, Profile{"abc": 3, "bcd": 4}, p)
}

func TestProfile_Rows(t *testing.T) {
	p := Profile{"xyz": 2, "abc": 2, "bcd": 5}
	assert.Equal(t, []Row{{"bcd", 5}, {"abc", 2}, {"xyz", 2}}, p.Rows())
	assert.Empty(t, Profile{}.Rows())
}

func TestFromRows(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		p, err := FromRows([]Row{{"abc", 2}, {"ñan", 1}, {"abc", 3}})
		require.NoError(t, err)
		assert.Equal(t, Profile{"abc": 5, "ñan": 1}, p)
	})

	t.Run("round trip", func(t *testing.T) {
		orig, err := Build(Text{"round trip through rows, with commas, \"quotes\" and ünïcödé"})
		require.NoError(t, err)
		back, err := FromRows(orig.Rows())
		require.NoError(t, err)
		assert.Equal(t, orig, back)
	})

	tests := []struct {
		name string
		row  Row
	}{
		{name: "short trigram", row: Row{"ab", 1}},
		{name: "long trigram", row: Row{"abcd", 1}},
		{name: "zero count", row: Row{"abc", 0}},
		{name: "negative count", row: Row{"abc", -1}},
		{name: "invalid utf8", row: Row{"a\xffb", 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRows([]Row{tt.row})
			assert.ErrorIs(t, err, ErrInvalidRow)
		})
	}
}
