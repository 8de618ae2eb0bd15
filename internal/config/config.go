package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/codex-src/heroicons-viewer/internal/catalog"
)

// Config is read from an optional JSON file and then overridden by
// HEROICONS_* environment variables.
type Config struct {
	Site           string `json:"site" env:"HEROICONS_SITE"`
	CatalogPath    string `json:"catalog_path" env:"HEROICONS_CATALOG_PATH"`
	PublicDir      string `json:"public_dir" env:"HEROICONS_PUBLIC_DIR"`
	DefaultVariant string `json:"default_variant" env:"HEROICONS_DEFAULT_VARIANT"`
	DebounceMS     int    `json:"debounce_ms" env:"HEROICONS_DEBOUNCE_MS"`
	SearchRate     int    `json:"search_rate_limit" env:"HEROICONS_SEARCH_RATE_LIMIT"`
	SearchBurst    int    `json:"search_burst" env:"HEROICONS_SEARCH_BURST"`
	MaxResults     int    `json:"max_results" env:"HEROICONS_MAX_RESULTS"`
}

func Default() *Config {
	return &Config{
		Site:           "http://localhost:8080",
		PublicDir:      "public",
		DefaultVariant: "outline",
		DebounceMS:     10,
		SearchRate:     50,
		SearchBurst:    100,
	}
}

// DefaultPath is the config file named by HEROICONS_CONFIG_FILE, or empty
// for built-in defaults.
func DefaultPath() string {
	return os.Getenv("HEROICONS_CONFIG_FILE")
}

// Load applies the JSON file at path (if any) and the environment on top of
// Default, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Site == "" {
		return errors.New("config site is required")
	}
	if _, err := catalog.ParseVariant(c.DefaultVariant); err != nil {
		return fmt.Errorf("config default_variant: %w", err)
	}
	if c.DebounceMS < 0 {
		return errors.New("config debounce_ms must not be negative")
	}
	if c.SearchRate < 0 || c.SearchBurst < 0 {
		return errors.New("config search rate limit must not be negative")
	}
	if c.SearchRate > 0 && c.SearchBurst == 0 {
		return errors.New("config search_burst is required when search_rate_limit is set")
	}
	if c.MaxResults < 0 {
		return errors.New("config max_results must not be negative")
	}
	return nil
}

func (c *Config) SiteURL() string {
	return strings.TrimRight(c.Site, "/")
}

func (c *Config) Variant() catalog.Variant {
	v, _ := catalog.ParseVariant(c.DefaultVariant)
	return v
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// FailuresPath is where ingest writes icons it could not convert.
func (c *Config) FailuresPath() string {
	return filepath.Join(c.PublicDir, "ingest-failures.log")
}

// GlyphDir is where ingest exports normalized SVG files.
func (c *Config) GlyphDir() string {
	return filepath.Join(c.PublicDir, "icons")
}

// CatalogDBPath is the catalog database ingest writes when catalog_path is
// not set.
func (c *Config) CatalogDBPath() string {
	if strings.HasSuffix(c.CatalogPath, ".db") {
		return c.CatalogPath
	}
	return filepath.Join(c.PublicDir, "catalog.db")
}

// SitemapDir holds the sitemap files written by ingest.
func (c *Config) SitemapDir() string {
	return filepath.Join(c.PublicDir, "sitemaps")
}
