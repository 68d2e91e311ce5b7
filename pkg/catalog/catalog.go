// Package catalog assembles a langid.Catalog from stored raw language profiles.
package catalog

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/umputun/lequel/pkg/config"
	"github.com/umputun/lequel/pkg/csvstore"
	"github.com/umputun/lequel/pkg/langid"
	"github.com/umputun/lequel/pkg/trigram"
)

// Source provides raw profiles by language code
type Source interface {
	LoadProfile(ctx context.Context, code string) (trigram.Profile, error)
}

// Load builds the catalog for langs, keeping their order
func Load(ctx context.Context, src Source, langs []config.Language) (langid.Catalog, error) {
	res := make(langid.Catalog, 0, len(langs))
	for _, l := range langs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := src.LoadProfile(ctx, l.Code)
		if err != nil {
			return nil, fmt.Errorf("load profile %s: %w", l.Code, err)
		}
		lp, err := langid.NewLanguageProfile(l.Code, raw)
		if err != nil {
			return nil, fmt.Errorf("make profile %s: %w", l.Code, err)
		}
		res = append(res, lp)
	}
	return res, nil
}

// CSVSource reads profiles from CSV files, one per language
type CSVSource struct {
	Dir   string
	Files map[string]string // explicit file per code, overrides <Dir>/<code>.csv
}

// NewCSVSource makes a CSVSource for the configured languages
func NewCSVSource(dir string, langs []config.Language) *CSVSource {
	res := &CSVSource{Dir: dir, Files: map[string]string{}}
	for _, l := range langs {
		if l.File != "" {
			res.Files[l.Code] = l.File
		}
	}
	return res
}

// Path returns the CSV file of the language
func (s *CSVSource) Path(code string) string {
	if f, ok := s.Files[code]; ok {
		return f
	}
	return filepath.Join(s.Dir, code+".csv")
}

// LoadProfile reads the raw profile of the language
func (s *CSVSource) LoadProfile(_ context.Context, code string) (trigram.Profile, error) {
	return csvstore.ReadProfile(s.Path(code))
}
