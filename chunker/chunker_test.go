package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/pdfrag/errs"
	"github.com/w-h-a/pdfrag/extractor"
)

const budgetFooter = `2005-06 Budget Paper No\. 3\s+\d+`

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "zero size", opts: []Option{WithChunkSize(0)}},
		{name: "negative overlap", opts: []Option{WithChunkOverlap(-1)}},
		{name: "overlap equals size", opts: []Option{WithChunkSize(100), WithChunkOverlap(100)}},
		{name: "overlap above size", opts: []Option{WithChunkSize(100), WithChunkOverlap(150)}},
		{name: "bad footer pattern", opts: []Option{WithFooterPattern("(unclosed")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.opts...)
			assert.ErrorIs(t, err, errs.ErrConfig)
			assert.Nil(t, c)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSize, c.options.ChunkSize)
	assert.Equal(t, DefaultChunkOverlap, c.options.ChunkOverlap)
	assert.Nil(t, c.anchor)
}

func TestSplit_BudgetPaperFooter(t *testing.T) {
	c, err := New(WithChunkSize(1000), WithFooterPattern(budgetFooter))
	require.NoError(t, err)

	chunks, err := c.Split([]extractor.Page{
		{Number: 12, Text: "Net interest cost was $5M. 2005-06 Budget Paper No. 3 12"},
	})
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Content, "2005-06 Budget Paper No. 3 12")
	assert.Equal(t, 12, chunks[0].PageNumber())
	assert.Equal(t, 1, strings.Count(chunks[0].Content, "2005-06 Budget Paper No. 3 12"))
}

func TestSplit_FooterInjectedIntoEveryChunk(t *testing.T) {
	var body strings.Builder
	for i := 0; i < 40; i++ {
		body.WriteString("Net interest cost for the general government sector is forecast to rise.\n")
	}
	footer := "2005-06 Budget Paper No. 3 47"
	page := extractor.Page{Number: 47, Text: body.String() + footer}

	c, err := New(WithChunkSize(300), WithChunkOverlap(50), WithFooterPattern(budgetFooter))
	require.NoError(t, err)

	chunks, err := c.Split([]extractor.Page{page})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 3)

	for i, chunk := range chunks {
		assert.Contains(t, chunk.Content, footer, "chunk %d", i)
		assert.LessOrEqual(t, runeLen(chunk.Content), 300, "chunk %d", i)
		assert.Equal(t, 47, chunk.PageNumber())
	}
}

func TestSplit_NoFooterOnPage(t *testing.T) {
	c, err := New(WithChunkSize(1000), WithFooterPattern(budgetFooter))
	require.NoError(t, err)

	chunks, err := c.Split([]extractor.Page{{Number: 2, Text: "Contents"}})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Contents", chunks[0].Content)
}

func TestSplit_PagesStaySeparate(t *testing.T) {
	c, err := New(WithChunkSize(1000), WithChunkOverlap(100))
	require.NoError(t, err)

	chunks, err := c.Split([]extractor.Page{
		{Number: 1, Text: "first page"},
		{Number: 3, Text: "third page"},
	})
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, "first page", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].PageNumber())
	assert.Equal(t, "third page", chunks[1].Content)
	assert.Equal(t, 3, chunks[1].PageNumber())
}

func TestSplit_MetadataIsCopied(t *testing.T) {
	c, err := New(WithChunkSize(20), WithChunkOverlap(5))
	require.NoError(t, err)

	chunks, err := c.Split([]extractor.Page{{Number: 5, Text: "one two three four five six seven eight"}})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	chunks[0].Metadata[PageNumberKey] = 99
	chunks[0].Metadata["extra"] = true

	assert.Equal(t, 5, chunks[1].PageNumber())
	assert.NotContains(t, chunks[1].Metadata, "extra")
}

func TestSplit_OverlapWithinPage(t *testing.T) {
	c, err := New(WithChunkSize(10), WithChunkOverlap(4))
	require.NoError(t, err)

	text := strings.Repeat("0123456789", 5)
	chunks, err := c.Split([]extractor.Page{{Number: 1, Text: text}})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev, next := chunks[i-1].Content, chunks[i].Content
		assert.Equal(t, prev[len(prev)-4:], next[:4])
	}
}

func TestAnchor(t *testing.T) {
	a, err := NewAnchor(budgetFooter)
	require.NoError(t, err)

	page := "intro\n2005-06 Budget Paper No. 3   9\nmore"
	footer := a.Find(page)
	assert.Equal(t, "2005-06 Budget Paper No. 3   9", footer)

	assert.Equal(t, "chunk\n\n"+footer, a.Inject("chunk", footer))
	assert.Equal(t, page, a.Inject(page, footer))
	assert.Equal(t, "chunk", a.Inject("chunk", ""))

	var none *Anchor
	assert.Empty(t, none.Find(page))
}

func TestChunk_PageNumber(t *testing.T) {
	assert.Equal(t, 4, Chunk{Metadata: map[string]any{PageNumberKey: 4}}.PageNumber())
	assert.Equal(t, 4, Chunk{Metadata: map[string]any{PageNumberKey: float64(4)}}.PageNumber())
	assert.Equal(t, 0, Chunk{}.PageNumber())
}

func TestSplit_LongFooterRunsPastSize(t *testing.T) {
	footer := "Appendix footer line number 7"
	page := extractor.Page{
		Number: 7,
		Text:   "one two three four five six seven eight nine ten eleven twelve\n" + footer,
	}

	c, err := New(WithChunkSize(40), WithChunkOverlap(10), WithFooterPattern(`Appendix footer line number \d+`))
	require.NoError(t, err)

	chunks, err := c.Split([]extractor.Page{page})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	longest := 0
	for i, chunk := range chunks {
		assert.Contains(t, chunk.Content, footer, "chunk %d", i)

		window := strings.TrimSuffix(chunk.Content, "\n\n"+footer)
		assert.LessOrEqual(t, runeLen(window), 40, "chunk %d", i)

		longest = max(longest, runeLen(chunk.Content))
	}

	assert.Greater(t, longest, 40)
	assert.LessOrEqual(t, longest, 40+2+runeLen(footer))
}
