package retriever

import (
	"context"
	"fmt"

	"github.com/w-h-a/pdfrag/chunker"
	"github.com/w-h-a/pdfrag/storer"
)

// Index is a read-only view of one document's embedded chunks.
type Index struct {
	documentId string
	retriever  *Retriever
}

func (i *Index) DocumentId() string {
	return i.documentId
}

func (i *Index) Search(ctx context.Context, query string, k int) ([]chunker.Chunk, error) {
	if k < 1 {
		return nil, nil
	}

	vector, err := i.retriever.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	records, err := i.retriever.storer.Search(ctx, i.documentId, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	chunks := make([]chunker.Chunk, 0, len(records))
	for _, rec := range records {
		chunks = append(chunks, chunker.Chunk{
			Content:  rec.Content,
			Metadata: storer.CopyMetadata(rec.Metadata),
		})
	}

	return chunks, nil
}
