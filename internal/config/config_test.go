package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codex-src/heroicons-viewer/internal/catalog"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Variant() != catalog.Outline {
		t.Errorf("default variant = %v, want outline", cfg.Variant())
	}
	if cfg.Debounce() != 10*time.Millisecond {
		t.Errorf("debounce = %v, want 10ms", cfg.Debounce())
	}
	if cfg.CatalogPath != "" {
		t.Errorf("catalog path = %q, want bundled", cfg.CatalogPath)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `{"site":"https://icons.example.com/","default_variant":"solid","debounce_ms":25,"public_dir":"/srv/www"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.SiteURL(); got != "https://icons.example.com" {
		t.Errorf("SiteURL = %q", got)
	}
	if cfg.Variant() != catalog.Solid {
		t.Errorf("variant = %v, want solid", cfg.Variant())
	}
	if cfg.Debounce() != 25*time.Millisecond {
		t.Errorf("debounce = %v", cfg.Debounce())
	}
	if cfg.SearchRate != 50 {
		t.Errorf("unset fields should keep defaults, got rate %d", cfg.SearchRate)
	}
	if got := cfg.CatalogDBPath(); got != "/srv/www/catalog.db" {
		t.Errorf("CatalogDBPath = %q", got)
	}
	if got := cfg.GlyphDir(); got != "/srv/www/icons" {
		t.Errorf("GlyphDir = %q", got)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `{"site":"https://icons.example.com","default_variant":"solid"}`)
	t.Setenv("HEROICONS_DEFAULT_VARIANT", "outline")
	t.Setenv("HEROICONS_CATALOG_PATH", "/data/icons.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Variant() != catalog.Outline {
		t.Errorf("env should override file variant")
	}
	if got := cfg.CatalogDBPath(); got != "/data/icons.db" {
		t.Errorf("CatalogDBPath = %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	if _, err := Load(writeConfig(t, `{`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty site", func(c *Config) { c.Site = "" }},
		{"bad variant", func(c *Config) { c.DefaultVariant = "duotone" }},
		{"negative debounce", func(c *Config) { c.DebounceMS = -1 }},
		{"negative rate", func(c *Config) { c.SearchRate = -1 }},
		{"rate without burst", func(c *Config) { c.SearchBurst = 0 }},
		{"negative max results", func(c *Config) { c.MaxResults = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("HEROICONS_CONFIG_FILE", "/etc/heroicons/config.json")
	if got := DefaultPath(); got != "/etc/heroicons/config.json" {
		t.Errorf("DefaultPath = %q", got)
	}
}
