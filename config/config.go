package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"docsync/internal/domain"
)

// Config holds all configuration for the docsync tool. It is loaded once at
// startup (file, then environment overrides) and treated as immutable.
type Config struct {
	Sources     []SourceConfig    `yaml:"sources"`
	Chunking    ChunkingConfig    `yaml:"chunking"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Ledger      LedgerConfig      `yaml:"ledger"`
	Indexing    IndexingConfig    `yaml:"indexing"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// SourceConfig describes one upstream documentation source.
type SourceConfig struct {
	Type     string   `yaml:"type"` // "sitemap" or "crawl"
	URL      string   `yaml:"url"`
	Includes []string `yaml:"includes"` // URL path patterns, e.g. "/docs/**"
	Excludes []string `yaml:"excludes"`
	MaxDepth int      `yaml:"max_depth"` // crawl only
	MaxPages int      `yaml:"max_pages"` // crawl only, 0 = unbounded
}

// ChunkingConfig holds text splitting configuration.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "openai", "ollama", "mock"
	Model     string `yaml:"model"`       // e.g. "text-embedding-3-small"
	APIKeyEnv string `yaml:"api_key_env"` // environment variable for the API key
	BaseURL   string `yaml:"base_url"`    // override for self-hosted endpoints
	Dimension int    `yaml:"dimension"`   // mock provider only
}

// VectorStoreConfig holds vector store configuration.
type VectorStoreConfig struct {
	Backend    string `yaml:"backend"` // "chroma" or "bolt"
	URL        string `yaml:"url"`     // chroma endpoint
	APIKey     string `yaml:"-"`       // from CHROMA_API_KEY, never the file
	Collection string `yaml:"collection"`
	Path       string `yaml:"path"` // bolt backend only
}

// LedgerConfig holds record ledger configuration.
type LedgerConfig struct {
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// IndexingConfig holds reconciliation configuration.
type IndexingConfig struct {
	Cleanup          string `yaml:"cleanup"` // "none", "incremental", "full"
	SourceIDKey      string `yaml:"source_id_key"`
	BatchSize        int    `yaml:"batch_size"`
	CleanupBatchSize int    `yaml:"cleanup_batch_size"`
	ForceUpdate      bool   `yaml:"force_update"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			Size:    4000,
			Overlap: 200,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
		},
		VectorStore: VectorStoreConfig{
			Backend:    "chroma",
			URL:        "http://localhost:8000",
			Collection: "docs",
		},
		Ledger: LedgerConfig{
			Path:      "docsync.db",
			Namespace: "chroma/docs",
		},
		Indexing: IndexingConfig{
			Cleanup:          string(domain.CleanupFull),
			SourceIDKey:      domain.MetaSource,
			BatchSize:        100,
			CleanupBatchSize: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file and applies environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for docsync.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "docsync.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	cfg := DefaultConfig()
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays process environment settings on the file configuration.
func (c *Config) applyEnv() {
	if v := os.Getenv("CHROMA_URL"); v != "" {
		c.VectorStore.URL = v
	}
	if v := os.Getenv("CHROMA_API_KEY"); v != "" {
		c.VectorStore.APIKey = v
	}
	if v := os.Getenv("DOCSYNC_LEDGER_PATH"); v != "" {
		c.Ledger.Path = v
	}
	if v := os.Getenv("FORCE_UPDATE"); v != "" {
		c.Indexing.ForceUpdate = strings.EqualFold(v, "true")
	}
}

// Validate checks settings the adapters cannot default their way around.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no sources configured")
	}
	for i, s := range c.Sources {
		switch s.Type {
		case "sitemap", "crawl":
		default:
			return fmt.Errorf("source %d: unknown type %q", i, s.Type)
		}
		if s.URL == "" {
			return fmt.Errorf("source %d: url is required", i)
		}
	}
	if !domain.CleanupMode(c.Indexing.Cleanup).Valid() {
		return fmt.Errorf("unknown cleanup mode %q", c.Indexing.Cleanup)
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking size must be positive")
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking overlap must be in [0, size)")
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
