package trigram

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
	"unicode/utf8"
)

// ErrInvalidRow is returned by FromRows for a row that can't be part of a raw profile
var ErrInvalidRow = errors.New("invalid trigram row")

// Row is a single trigram with its integer count, the tabular form of a raw profile
type Row struct {
	Trigram string `db:"trigram"`
	Count   int    `db:"count"`
}

// Rows returns the profile as rows ordered by descending count, then by trigram.
// Values are rounded to integers, only raw profiles should be converted.
func (p Profile) Rows() []Row {
	rows := make([]Row, 0, len(p))
	for k, v := range p {
		rows = append(rows, Row{Trigram: k, Count: int(math.Round(v))})
	}
	slices.SortFunc(rows, func(a, b Row) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Trigram, b.Trigram)
	})
	return rows
}

// FromRows builds a raw profile from rows. Duplicated trigrams are summed.
func FromRows(rows []Row) (Profile, error) {
	profile := make(Profile, len(rows))
	for i, row := range rows {
		if !utf8.ValidString(row.Trigram) || utf8.RuneCountInString(row.Trigram) != Size {
			return nil, fmt.Errorf("row %d, trigram %q: %w", i+1, row.Trigram, ErrInvalidRow)
		}
		if row.Count <= 0 {
			return nil, fmt.Errorf("row %d, count %d: %w", i+1, row.Count, ErrInvalidRow)
		}
		profile[row.Trigram] += float64(row.Count)
	}
	return profile, nil
}
