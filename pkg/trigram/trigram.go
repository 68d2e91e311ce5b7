// Package trigram builds character trigram frequency profiles and compares them.
//
// A profile maps every 3-rune sequence of a text to the number of times it occurs.
// Windows are taken over runes, not bytes, and never span line boundaries. Raw
// profiles hold integer counts; Normalize turns a profile into an L2 unit vector so
// that CosineSimilarity of two normalized profiles is their cosine similarity.
package trigram

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Size is the number of runes in a single trigram.
const Size = 3

// ErrEmptyProfile is returned when a profile has no weight to work with.
var ErrEmptyProfile = errors.New("empty trigram profile")

// ErrInvalidUTF8 is wrapped by DecodeError.
var ErrInvalidUTF8 = errors.New("invalid utf-8")

// ErrLineBreak is returned for a line with an embedded '\n', lines must be split beforehand.
var ErrLineBreak = errors.New("line break inside a line")

// DecodeError reports a line that can't be decoded as UTF-8
type DecodeError struct {
	Line int // 1-based
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, ErrInvalidUTF8)
}

// Unwrap returns ErrInvalidUTF8
func (e *DecodeError) Unwrap() error {
	return ErrInvalidUTF8
}

// Text is an ordered list of lines
type Text []string

// Profile maps a trigram to its frequency
type Profile map[string]float64

// Build counts all trigrams of text. Each line has a single trailing '\r' removed,
// is lower-cased rune by rune and contributes len(runes)-2 trigrams. Lines shorter
// than Size runes are skipped. A line with invalid UTF-8 or an embedded '\n' fails
// the whole build.
func Build(text Text) (Profile, error) {
	profile := Profile{}
	for i, line := range text {
		line = strings.TrimSuffix(line, "\r")
		if !utf8.ValidString(line) {
			return nil, &DecodeError{Line: i + 1}
		}
		if strings.ContainsRune(line, '\n') {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrLineBreak)
		}

		runes := []rune(line)
		if len(runes) < Size {
			continue
		}
		for j, r := range runes {
			runes[j] = unicode.ToLower(r)
		}
		for j := 0; j <= len(runes)-Size; j++ {
			profile[string(runes[j:j+Size])]++
		}
	}
	return profile, nil
}

// Keys returns the trigrams of the profile in sorted order
func (p Profile) Keys() []string {
	return slices.Sorted(maps.Keys(p))
}

// Normalize scales the profile in place to unit L2 norm.
// A profile with zero norm is left untouched and ErrEmptyProfile is returned.
// The norm is summed in key order, equal profiles normalize to identical values.
func (p Profile) Normalize() error {
	var sumSquares float64
	for _, k := range p.Keys() {
		sumSquares += p[k] * p[k]
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return ErrEmptyProfile
	}
	for k, v := range p {
		p[k] = v / norm
	}
	return nil
}

// CosineSimilarity returns the dot product of text and language over the trigrams of text.
//
// Both profiles must already be normalized; the result is their cosine similarity
// only under that precondition. Only the keys of text are visited, trigrams found
// solely in language contribute nothing, so the cost is linear in the size of the
// (usually much smaller) text profile.
func CosineSimilarity(text, language Profile) float64 {
	return Dot(text.Keys(), text, language)
}

// Dot sums text[k]*language[k] over keys, in the order given. Callers scoring one
// text against many languages pass text.Keys() once, a fixed order makes equal
// language profiles score bit-identical.
func Dot(keys []string, text, language Profile) float64 {
	var sum float64
	for _, k := range keys {
		if lv, ok := language[k]; ok {
			sum += text[k] * lv
		}
	}
	return sum
}

// Clone returns an independent copy of the profile
func (p Profile) Clone() Profile {
	res := make(Profile, len(p))
	for k, v := range p {
		res[k] = v
	}
	return res
}

// Add sums the counts of other into p
func (p Profile) Add(other Profile) {
	for k, v := range other {
		p[k] += v
	}
}
