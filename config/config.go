// Package config holds the runtime settings shared by the chat and serve commands.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/w-h-a/pdfrag/chunker"
	"github.com/w-h-a/pdfrag/errs"
)

const DefaultAnchorLabel = "2005-06 Budget Paper No. 3"

// Config is populated by kong from flags, environment and an optional YAML
// file, then validated once at startup.
type Config struct {
	// Model credentials
	ApiKey          string `name:"api-key" help:"OpenAI API key" env:"OPENAI_API_KEY" yaml:"api_key"`
	AnthropicApiKey string `name:"anthropic-api-key" help:"Anthropic API key" env:"ANTHROPIC_API_KEY" yaml:"anthropic_api_key"`
	GoogleApiKey    string `name:"google-api-key" help:"Google AI API key" env:"GOOGLE_API_KEY" yaml:"google_api_key"`

	// Generation
	Provider    string  `help:"Chat model provider" enum:"openai,anthropic,google" default:"openai" yaml:"provider"`
	Model       string  `help:"Chat model (gpt-4o-mini for openai when empty)" default:"" yaml:"model"`
	Temperature float64 `help:"Sampling temperature" default:"0" yaml:"temperature"`

	// Embedding
	EmbeddingProvider   string `help:"Embedding provider" enum:"openai,google" default:"openai" yaml:"embedding_provider"`
	EmbeddingModel      string `help:"Embedding model (text-embedding-3-large for openai when empty)" default:"" yaml:"embedding_model"`
	EmbeddingDimensions int    `help:"Vector size, required by the qdrant index store" default:"3072" yaml:"embedding_dimensions"`

	// Chunking and retrieval
	ChunkSize     int    `help:"Maximum characters per chunk" default:"1000" yaml:"chunk_size"`
	ChunkOverlap  int    `help:"Characters shared by consecutive chunks" default:"100" yaml:"chunk_overlap"`
	FooterPattern string `help:"Regular expression matching the page footer to copy into every chunk (derived from --anchor-label when empty)" default:"" yaml:"footer_pattern"`
	AnchorLabel   string `help:"Footer text followed by the printed page number, used for citations" default:"2005-06 Budget Paper No. 3" yaml:"anchor_label"`
	TopK          int    `name:"top-k" help:"Chunks retrieved per query" default:"5" yaml:"top_k"`

	// Storage
	IndexStore       string `help:"Where document indices are kept" enum:"memory,file,postgres,qdrant" default:"file" yaml:"index_store"`
	HistoryStore     string `help:"Where chat histories are kept" enum:"memory,file,sqlite,postgres" default:"file" yaml:"history_store"`
	DataDir          string `help:"Directory for file and sqlite stores and uploads" default:"./data" type:"path" yaml:"data_dir"`
	PostgresDSN      string `name:"postgres-dsn" help:"Postgres connection string" env:"POSTGRES_DSN" default:"" yaml:"postgres_dsn"`
	QdrantURL        string `name:"qdrant-url" help:"Qdrant base URL" default:"http://localhost:6333" yaml:"qdrant_url"`
	QdrantApiKey     string `name:"qdrant-api-key" help:"Qdrant API key" env:"QDRANT_API_KEY" default:"" yaml:"qdrant_api_key"`
	QdrantCollection string `name:"qdrant-collection" help:"Qdrant collection" default:"pdfrag" yaml:"qdrant_collection"`

	// Service
	Address        string        `help:"HTTP listen address" default:":8080" yaml:"address"`
	RequestTimeout time.Duration `help:"Upper bound for answering one query" default:"60s" yaml:"request_timeout"`
	LogLevel       string        `help:"Log level" enum:"debug,info,warn,error" default:"info" yaml:"log_level"`
	LogFormat      string        `help:"Log format" enum:"text,json" default:"text" yaml:"log_format"`
}

// Validate reports every startup misconfiguration as ErrConfig.
func (c Config) Validate() error {
	if err := c.requireKey(c.Provider, "chat"); err != nil {
		return err
	}

	if err := c.requireKey(c.EmbeddingProvider, "embedding"); err != nil {
		return err
	}

	if _, err := chunker.New(c.ChunkerOptions()...); err != nil {
		return err
	}

	if c.TopK < 1 {
		return fmt.Errorf("%w: top-k must be at least 1, got %d", errs.ErrConfig, c.TopK)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", errs.ErrConfig)
	}

	if (c.IndexStore == "postgres" || c.HistoryStore == "postgres") && len(c.PostgresDSN) == 0 {
		return fmt.Errorf("%w: postgres store selected without --postgres-dsn", errs.ErrConfig)
	}

	if c.IndexStore == "qdrant" {
		if len(c.QdrantURL) == 0 || len(c.QdrantCollection) == 0 {
			return fmt.Errorf("%w: qdrant index store needs --qdrant-url and --qdrant-collection", errs.ErrConfig)
		}
		if c.EmbeddingDimensions < 1 {
			return fmt.Errorf("%w: qdrant index store needs --embedding-dimensions", errs.ErrConfig)
		}
	}

	return nil
}

func (c Config) requireKey(provider string, purpose string) error {
	var key, flag string

	switch provider {
	case "openai":
		key, flag = c.ApiKey, "OPENAI_API_KEY"
	case "anthropic":
		key, flag = c.AnthropicApiKey, "ANTHROPIC_API_KEY"
	case "google":
		key, flag = c.GoogleApiKey, "GOOGLE_API_KEY"
	default:
		return fmt.Errorf("%w: unknown %s provider %q", errs.ErrConfig, purpose, provider)
	}

	if len(strings.TrimSpace(key)) == 0 {
		return fmt.Errorf("%w: %s not set for %s provider %s", errs.ErrConfig, flag, purpose, provider)
	}

	return nil
}

func (c Config) ChunkerOptions() []chunker.Option {
	return []chunker.Option{
		chunker.WithChunkSize(c.ChunkSize),
		chunker.WithChunkOverlap(c.ChunkOverlap),
		chunker.WithFooterPattern(c.Footer()),
	}
}

// Footer is the footer pattern chunks are anchored with. Without an explicit
// pattern it is the anchor label followed by a page number.
func (c Config) Footer() string {
	if len(c.FooterPattern) > 0 {
		return c.FooterPattern
	}

	if len(strings.TrimSpace(c.AnchorLabel)) == 0 {
		return ""
	}

	return regexp.QuoteMeta(strings.TrimSpace(c.AnchorLabel)) + `\s+\d+`
}

func (c Config) IndexDir() string {
	return filepath.Join(c.DataDir, "vector_stores")
}

func (c Config) HistoryDir() string {
	return filepath.Join(c.DataDir, "chat_histories")
}

func (c Config) UploadDir() string {
	return filepath.Join(c.DataDir, "uploads")
}
