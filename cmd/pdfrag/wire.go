package main

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/w-h-a/pdfrag"
	"github.com/w-h-a/pdfrag/config"
	"github.com/w-h-a/pdfrag/embedder"
	googleembedder "github.com/w-h-a/pdfrag/embedder/google"
	openaiembedder "github.com/w-h-a/pdfrag/embedder/openai"
	"github.com/w-h-a/pdfrag/extractor/pdf"
	"github.com/w-h-a/pdfrag/generator"
	"github.com/w-h-a/pdfrag/generator/anthropic"
	googlegenerator "github.com/w-h-a/pdfrag/generator/google"
	openaigenerator "github.com/w-h-a/pdfrag/generator/openai"
	"github.com/w-h-a/pdfrag/history"
	filehistory "github.com/w-h-a/pdfrag/history/file"
	memoryhistory "github.com/w-h-a/pdfrag/history/memory"
	postgreshistory "github.com/w-h-a/pdfrag/history/postgres"
	sqlitehistory "github.com/w-h-a/pdfrag/history/sqlite"
	"github.com/w-h-a/pdfrag/storer"
	filestorer "github.com/w-h-a/pdfrag/storer/file"
	memorystorer "github.com/w-h-a/pdfrag/storer/memory"
	postgresstorer "github.com/w-h-a/pdfrag/storer/postgres"
	qdrantstorer "github.com/w-h-a/pdfrag/storer/qdrant"
)

func newRAG(cfg *config.Config) *pdfrag.RAG {
	return pdfrag.New(
		pdf.NewExtractor(),
		newEmbedder(cfg),
		newStorer(cfg),
		newHistoryStore(cfg),
		newGenerator(cfg),
		pdfrag.WithChunking(cfg.ChunkerOptions()...),
		pdfrag.WithTopK(cfg.TopK),
		pdfrag.WithAnchorLabel(cfg.AnchorLabel),
		pdfrag.WithUploadDir(cfg.UploadDir()),
		pdfrag.WithRequestTimeout(cfg.RequestTimeout),
	)
}

func newGenerator(cfg *config.Config) generator.Generator {
	opts := []generator.Option{
		generator.WithModel(cfg.Model),
		generator.WithTemperature(cfg.Temperature),
	}

	switch cfg.Provider {
	case "anthropic":
		return anthropic.NewGenerator(append(opts, generator.WithApiKey(cfg.AnthropicApiKey))...)
	case "google":
		return googlegenerator.NewGenerator(append(opts, generator.WithApiKey(cfg.GoogleApiKey))...)
	default:
		return openaigenerator.NewGenerator(append(opts, generator.WithApiKey(cfg.ApiKey))...)
	}
}

func newEmbedder(cfg *config.Config) embedder.Embedder {
	opts := []embedder.Option{
		embedder.WithModel(cfg.EmbeddingModel),
	}

	if cfg.IndexStore == "qdrant" {
		opts = append(opts, embedder.WithDimensions(cfg.EmbeddingDimensions))
	}

	switch cfg.EmbeddingProvider {
	case "google":
		return googleembedder.NewEmbedder(append(opts, embedder.WithApiKey(cfg.GoogleApiKey))...)
	default:
		return openaiembedder.NewEmbedder(append(opts, embedder.WithApiKey(cfg.ApiKey))...)
	}
}

func newStorer(cfg *config.Config) storer.Storer {
	switch cfg.IndexStore {
	case "memory":
		return memorystorer.NewStorer()
	case "postgres":
		return postgresstorer.NewStorer(storer.WithLocation(cfg.PostgresDSN))
	case "qdrant":
		return qdrantstorer.NewStorer(
			storer.WithLocation(cfg.QdrantURL),
			storer.WithApiKey(cfg.QdrantApiKey),
			storer.WithCollection(cfg.QdrantCollection),
			storer.WithVectorSize(cfg.EmbeddingDimensions),
		)
	default:
		return filestorer.NewStorer(storer.WithLocation(cfg.IndexDir()))
	}
}

func newHistoryStore(cfg *config.Config) history.Store {
	switch cfg.HistoryStore {
	case "memory":
		return memoryhistory.NewStore()
	case "sqlite":
		return sqlitehistory.NewStore(history.WithLocation(cfg.DataDir))
	case "postgres":
		return postgreshistory.NewStore(history.WithLocation(cfg.PostgresDSN))
	default:
		return filehistory.NewStore(history.WithLocation(cfg.HistoryDir()))
	}
}

// fingerprint names a document by its content so a re-opened PDF reuses its
// persisted index.
func fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil))[:32], nil
}
