package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/pdfrag/storer"
)

func TestPostgresStorer(t *testing.T) {
	dsn := os.Getenv("PDFRAG_TEST_POSTGRES_DSN")
	if len(dsn) == 0 {
		t.Skip("PDFRAG_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	s := NewStorer(storer.WithLocation(dsn))
	id := uuid.NewString()

	ok, err := s.Exists(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.Save(ctx, id, []storer.Record{
		{Content: "alpha", Metadata: map[string]any{"page_number": 1}, Embedding: []float32{1, 0, 0}},
		{Content: "beta", Metadata: map[string]any{"page_number": 2}, Embedding: []float32{0, 1, 0}},
	})
	require.NoError(t, err)

	err = s.Save(ctx, id, nil)
	assert.ErrorIs(t, err, storer.ErrExists)

	records, err := s.Search(ctx, id, []float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "beta", records[0].Content)
	assert.Equal(t, float64(2), records[0].Metadata["page_number"])
}
