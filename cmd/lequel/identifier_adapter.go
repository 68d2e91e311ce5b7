package main

import (
	"github.com/umputun/lequel/pkg/langid"
	"github.com/umputun/lequel/pkg/trigram"
)

// CatalogIdentifier adapts a loaded catalog to the server.Identifier interface
type CatalogIdentifier struct {
	catalog langid.Catalog
}

// NewCatalogIdentifier creates a new catalog identifier
func NewCatalogIdentifier(catalog langid.Catalog) *CatalogIdentifier {
	return &CatalogIdentifier{catalog: catalog}
}

// Analyze returns the best matching catalog language and similarities with all of them
func (c *CatalogIdentifier) Analyze(text trigram.Text) (langid.Result, []langid.Score, error) {
	return langid.Analyze(text, c.catalog)
}

// Languages returns catalog language codes
func (c *CatalogIdentifier) Languages() []string {
	return c.catalog.Codes()
}
