// Package config loads the service configuration from YAML with
// sensible defaults, so the binary runs without a config file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// PathsConfig locates the document corpus and the persisted index.
type PathsConfig struct {
	DocsDir  string `yaml:"docs_dir"`
	IndexDir string `yaml:"index_dir"`
}

// EmbedderConfig configures the embeddings client.
type EmbedderConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// LLMConfig configures answer generation.
type LLMConfig struct {
	Model string `yaml:"model"`
}

// RetrieverConfig configures query-time retrieval.
type RetrieverConfig struct {
	TopK int `yaml:"top_k"`
}

// CitationConfig tunes the citation gate.
type CitationConfig struct {
	MinMatches int `yaml:"min_matches"`
}

// QdrantConfig contains connection details for the remote store.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	Type   string        `yaml:"type"` // "local" (default) or "qdrant"
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Paths     PathsConfig     `yaml:"paths"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	LLM       LLMConfig       `yaml:"llm"`
	Retriever RetrieverConfig `yaml:"retriever"`
	Citation  CitationConfig  `yaml:"citation"`
	Store     StoreConfig     `yaml:"store"`
}

// Load reads the config at path. A missing file yields defaults; a
// present but unparsable file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := &Config{}
			applyDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Paths.DocsDir == "" {
		cfg.Paths.DocsDir = "data/policies"
	}
	if cfg.Paths.IndexDir == "" {
		cfg.Paths.IndexDir = "vector_store"
	}
	if cfg.Retriever.TopK == 0 {
		cfg.Retriever.TopK = 6
	}
	if cfg.Citation.MinMatches == 0 {
		cfg.Citation.MinMatches = 3
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "local"
	}
	if cfg.Store.Type == "qdrant" {
		if cfg.Store.Qdrant == nil {
			cfg.Store.Qdrant = &QdrantConfig{}
		}
		if cfg.Store.Qdrant.Host == "" {
			cfg.Store.Qdrant.Host = "localhost"
		}
		if cfg.Store.Qdrant.Port == 0 {
			cfg.Store.Qdrant.Port = 6334
		}
		if cfg.Store.Qdrant.Collection == "" {
			cfg.Store.Qdrant.Collection = "policy_chunks"
		}
	}
}

func validate(cfg *Config) error {
	switch cfg.Store.Type {
	case "local", "qdrant":
	default:
		return fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
	return nil
}
