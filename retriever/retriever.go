// Package retriever builds and queries the per-document vector index.
package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/w-h-a/pdfrag/chunker"
	"github.com/w-h-a/pdfrag/embedder"
	"github.com/w-h-a/pdfrag/errs"
	"github.com/w-h-a/pdfrag/storer"
)

// Searcher returns the k chunks most relevant to a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]chunker.Chunk, error)
}

type Retriever struct {
	embedder embedder.Embedder
	storer   storer.Storer
}

// Build embeds every chunk and persists the document's index in one Save.
// Nothing is written when embedding fails.
func (r *Retriever) Build(ctx context.Context, documentId string, chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("%w: document %s has no extractable text", errs.ErrInvalid, documentId)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return errs.Upstream("embed chunks", err)
	}

	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: embed chunks: got %d vectors for %d chunks", errs.ErrGeneration, len(vectors), len(chunks))
	}

	records := make([]storer.Record, len(chunks))
	for i, c := range chunks {
		records[i] = storer.Record{
			DocumentId: documentId,
			Content:    c.Content,
			Metadata:   storer.CopyMetadata(c.Metadata),
			Embedding:  vectors[i],
		}
	}

	if err := r.storer.Save(ctx, documentId, records); err != nil {
		return err
	}

	slog.InfoContext(ctx, "index built", "document_id", documentId, "chunks", len(records))

	return nil
}

func (r *Retriever) Exists(ctx context.Context, documentId string) (bool, error) {
	return r.storer.Exists(ctx, documentId)
}

// Load returns a handle over a previously built index, or ErrNotFound.
func (r *Retriever) Load(ctx context.Context, documentId string) (*Index, error) {
	ok, err := r.storer.Exists(ctx, documentId)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%w: index for document %s", errs.ErrNotFound, documentId)
	}

	return &Index{documentId: documentId, retriever: r}, nil
}

func New(e embedder.Embedder, s storer.Storer) *Retriever {
	return &Retriever{
		embedder: e,
		storer:   s,
	}
}
