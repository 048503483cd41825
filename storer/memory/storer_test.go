package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/pdfrag/storer"
)

func TestStorer(t *testing.T) {
	ctx := context.Background()
	s := NewStorer()

	ok, err := s.Exists(ctx, "budget")
	require.NoError(t, err)
	assert.False(t, ok)

	records := []storer.Record{
		{Content: "net interest cost", Metadata: map[string]any{"page_number": 12}, Embedding: []float32{1, 0}},
		{Content: "table of contents", Metadata: map[string]any{"page_number": 1}, Embedding: []float32{0, 1}},
	}
	require.NoError(t, s.Save(ctx, "budget", records))

	ok, err = s.Exists(ctx, "budget")
	require.NoError(t, err)
	assert.True(t, ok)

	err = s.Save(ctx, "budget", records)
	assert.ErrorIs(t, err, storer.ErrExists)

	// mutating the caller's slice must not reach the stored index
	records[0].Content = "changed"
	records[0].Metadata["page_number"] = 99

	got, err := s.Search(ctx, "budget", []float32{1, 0.1}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "net interest cost", got[0].Content)
	assert.Equal(t, 12, got[0].Metadata["page_number"])
	assert.Equal(t, "budget", got[0].DocumentId)

	got, err = s.Search(ctx, "other", []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
