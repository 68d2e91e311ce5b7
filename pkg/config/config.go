package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// catalog sources
const (
	SourceCSV    = "csv"
	SourceSQLite = "sqlite"
)

// Config holds the application configuration
type Config struct {
	Catalog CatalogConfig `yaml:"catalog" json:"catalog" jsonschema:"description=Language catalog configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:lequel.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=4,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=2,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Text struct {
		Encoding    string `yaml:"encoding" json:"encoding" jsonschema:"description=Encoding of input texts (e.g. windows-1252) or empty for utf-8"`
		MaxLineSize int    `yaml:"max_line_size" json:"max_line_size" jsonschema:"default=1048576,description=Longest accepted input line in bytes"`
	} `yaml:"text" json:"text" jsonschema:"description=Input text settings"`

	Identify struct {
		Workers int `yaml:"workers" json:"workers" jsonschema:"default=4,minimum=1,description=Number of texts identified concurrently"`
	} `yaml:"identify" json:"identify" jsonschema:"description=Identification settings"`
}

// CatalogConfig describes where language profiles come from
type CatalogConfig struct {
	Source    string     `yaml:"source" json:"source" jsonschema:"default=csv,enum=csv,enum=sqlite,description=Where language profiles are loaded from"`
	Dir       string     `yaml:"dir" json:"dir" jsonschema:"default=resources/trigrams,description=Directory with per-language CSV profiles"`
	Languages []Language `yaml:"languages" json:"languages" jsonschema:"required,description=Catalog languages in tie-break priority order"`
}

// Language is a single catalog entry
type Language struct {
	Code string `yaml:"code" json:"code" jsonschema:"required,description=Language code (e.g. en)"`
	Name string `yaml:"name" json:"name" jsonschema:"description=Human readable language name"`
	File string `yaml:"file" json:"file" jsonschema:"description=CSV profile file (default <dir>/<code>.csv)"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	// set defaults for catalog
	if c.Catalog.Source == "" {
		c.Catalog.Source = SourceCSV
	}
	if c.Catalog.Dir == "" {
		c.Catalog.Dir = "resources/trigrams"
	}

	// set defaults for database
	if c.Database.DSN == "" {
		c.Database.DSN = "file:lequel.db?cache=shared&mode=rwc&_txlock=immediate"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 4
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 2
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	// set defaults for server
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}

	if c.Text.MaxLineSize == 0 {
		c.Text.MaxLineSize = 1024 * 1024
	}
	if c.Identify.Workers == 0 {
		c.Identify.Workers = 4
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if err := Verify(cfg); err != nil {
		return err
	}

	seen := make(map[string]bool, len(cfg.Catalog.Languages))
	for _, l := range cfg.Catalog.Languages {
		if seen[l.Code] {
			return fmt.Errorf("catalog.languages: duplicate code %q", l.Code)
		}
		seen[l.Code] = true
	}

	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Text.MaxLineSize < 0 {
		return fmt.Errorf("text.max_line_size must be non-negative")
	}

	return nil
}

// GetServerConfig returns server listen address and timeout
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// Codes returns configured language codes in catalog order
func (c *Config) Codes() []string {
	res := make([]string, len(c.Catalog.Languages))
	for i, l := range c.Catalog.Languages {
		res[i] = l.Code
	}
	return res
}
