package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunking.Size != 4000 || cfg.Chunking.Overlap != 200 {
		t.Errorf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.Indexing.Cleanup != "full" {
		t.Errorf("default cleanup = %q, want full", cfg.Indexing.Cleanup)
	}
	if cfg.Indexing.SourceIDKey != "source" {
		t.Errorf("default source id key = %q", cfg.Indexing.SourceIDKey)
	}
	if cfg.Indexing.ForceUpdate {
		t.Error("force update must default to false")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docsync.yaml")
	content := `
sources:
  - type: sitemap
    url: https://docs.example.com/sitemap.xml
    includes: ["/docs/**"]
chunking:
  size: 1000
  overlap: 100
indexing:
  cleanup: incremental
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Type != "sitemap" {
		t.Errorf("sources not loaded: %+v", cfg.Sources)
	}
	if cfg.Chunking.Size != 1000 || cfg.Chunking.Overlap != 100 {
		t.Errorf("chunking not loaded: %+v", cfg.Chunking)
	}
	if cfg.Indexing.Cleanup != "incremental" {
		t.Errorf("cleanup = %q", cfg.Indexing.Cleanup)
	}
	// Untouched sections keep their defaults.
	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("embedding defaults lost: %+v", cfg.Embedding)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Chunking.Size != 4000 {
		t.Errorf("expected defaults, got %+v", cfg.Chunking)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CHROMA_URL", "http://chroma.internal:9000")
	t.Setenv("CHROMA_API_KEY", "secret")
	t.Setenv("DOCSYNC_LEDGER_PATH", "/var/lib/docsync/ledger.db")
	t.Setenv("FORCE_UPDATE", "TRUE")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.VectorStore.URL != "http://chroma.internal:9000" {
		t.Errorf("CHROMA_URL not applied: %q", cfg.VectorStore.URL)
	}
	if cfg.VectorStore.APIKey != "secret" {
		t.Errorf("CHROMA_API_KEY not applied")
	}
	if cfg.Ledger.Path != "/var/lib/docsync/ledger.db" {
		t.Errorf("DOCSYNC_LEDGER_PATH not applied: %q", cfg.Ledger.Path)
	}
	if !cfg.Indexing.ForceUpdate {
		t.Error("FORCE_UPDATE=TRUE not applied")
	}
}

func TestValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.Sources = []SourceConfig{{Type: "sitemap", URL: "https://docs.example.com/sitemap.xml"}}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no sources", func(c *Config) { c.Sources = nil }},
		{"bad source type", func(c *Config) { c.Sources[0].Type = "ftp" }},
		{"missing url", func(c *Config) { c.Sources[0].URL = "" }},
		{"bad cleanup", func(c *Config) { c.Indexing.Cleanup = "sometimes" }},
		{"zero chunk size", func(c *Config) { c.Chunking.Size = 0 }},
		{"overlap >= size", func(c *Config) { c.Chunking.Overlap = c.Chunking.Size }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Sources = []SourceConfig{{Type: "sitemap", URL: "https://docs.example.com/sitemap.xml"}}
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
