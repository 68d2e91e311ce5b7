// Package langid identifies the language of a text against a catalog of language profiles.
//
// Each catalog entry holds a normalized trigram profile. The text is turned into a
// normalized profile too and compared with every entry by cosine similarity. The
// entry with the highest similarity wins, ties go to the entry listed first.
//
// All functions are pure and safe for concurrent use, a Catalog is never modified
// by identification.
package langid

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/umputun/lequel/pkg/trigram"
)

// NoMatch is the language code reported when no catalog entry matches the text
const NoMatch = "---"

// LanguageProfile pairs a language code with its normalized trigram profile.
// It is immutable, the profile map is owned exclusively by the entry.
type LanguageProfile struct {
	code    string
	profile trigram.Profile
}

// NewLanguageProfile makes a catalog entry from a raw profile. The raw profile is
// copied before normalization, so the caller keeps ownership of it.
func NewLanguageProfile(code string, raw trigram.Profile) (LanguageProfile, error) {
	if code == "" {
		return LanguageProfile{}, errors.New("empty language code")
	}
	profile := raw.Clone()
	if err := profile.Normalize(); err != nil {
		return LanguageProfile{}, fmt.Errorf("language %s: %w", code, err)
	}
	return LanguageProfile{code: code, profile: profile}, nil
}

// Code returns the language code
func (l LanguageProfile) Code() string { return l.code }

// Trigrams returns the number of distinct trigrams in the profile
func (l LanguageProfile) Trigrams() int { return len(l.profile) }

// Similarity returns the cosine similarity between a normalized text profile and this language
func (l LanguageProfile) Similarity(text trigram.Profile) float64 {
	return trigram.CosineSimilarity(text, l.profile)
}

// Catalog is an ordered list of language profiles, order defines tie-break priority
type Catalog []LanguageProfile

// Codes returns language codes in catalog order
func (c Catalog) Codes() []string {
	res := make([]string, len(c))
	for i, l := range c {
		res[i] = l.code
	}
	return res
}

// Score is the similarity of a text to one language
type Score struct {
	Code       string  `json:"code"`
	Similarity float64 `json:"similarity"`
}

// Result is the outcome of identification
type Result struct {
	Code  string  `json:"code"`
	Score float64 `json:"score"`
}

// Matched reports whether a catalog language was selected
func (r Result) Matched() bool {
	return r.Code != NoMatch
}

// String renders the result as "en (0.412345)", or just the code when nothing matched
func (r Result) String() string {
	if !r.Matched() {
		return r.Code
	}
	return fmt.Sprintf("%s (%f)", r.Code, r.Score)
}

// Identify returns the catalog language most similar to text.
// Only a similarity strictly greater than the best seen so far replaces it, so
// equal scores keep the earlier entry. When nothing scores above zero, including
// an empty catalog or a text without trigrams, the NoMatch result is returned.
func Identify(text trigram.Text, catalog Catalog) (Result, error) {
	res, _, err := Analyze(text, catalog)
	return res, err
}

// Rank scores text against every catalog language. Scores are sorted by descending
// similarity; the sort is stable, equal scores stay in catalog order. A text without
// trigrams gets a zero score for every language.
func Rank(text trigram.Text, catalog Catalog) ([]Score, error) {
	_, scores, err := Analyze(text, catalog)
	return scores, err
}

// Analyze returns both the Identify result and the Rank scores computed from a
// single text profile. The result is the first entry of scores whenever it matched.
func Analyze(text trigram.Text, catalog Catalog) (Result, []Score, error) {
	profile, err := textProfile(text)
	if err != nil && !errors.Is(err, trigram.ErrEmptyProfile) {
		return Result{}, nil, err
	}
	keys := profile.Keys()

	best := Result{Code: NoMatch}
	scores := make([]Score, len(catalog))
	for i, lang := range catalog {
		scores[i] = Score{Code: lang.code, Similarity: trigram.Dot(keys, profile, lang.profile)}
		if scores[i].Similarity > best.Score {
			best = Result{Code: lang.code, Score: scores[i].Similarity}
		}
	}
	slices.SortStableFunc(scores, func(a, b Score) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	return best, scores, nil
}

// BuildLanguageProfile returns the raw (not normalized) trigram counts of a corpus,
// the form persisted for a new catalog language.
func BuildLanguageProfile(corpus trigram.Text) (trigram.Profile, error) {
	return trigram.Build(corpus)
}

func textProfile(text trigram.Text) (trigram.Profile, error) {
	profile, err := trigram.Build(text)
	if err != nil {
		return nil, fmt.Errorf("build text profile: %w", err)
	}
	if err := profile.Normalize(); err != nil {
		return trigram.Profile{}, err
	}
	return profile, nil
}
