// Package chunker turns extracted pages into overlapping, page-traceable chunks.
package chunker

import (
	"fmt"

	"github.com/w-h-a/pdfrag/errs"
	"github.com/w-h-a/pdfrag/extractor"
)

const PageNumberKey = "page_number"

type Chunk struct {
	Content  string
	Metadata map[string]any
}

// PageNumber returns the page the chunk was cut from, or 0 when unknown.
func (c Chunk) PageNumber() int {
	switch v := c.Metadata[PageNumberKey].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

type Chunker struct {
	options  Options
	splitter *Splitter
	anchor   *Anchor
}

// Split chunks every page independently; windows never span two pages.
func (c *Chunker) Split(pages []extractor.Page) ([]Chunk, error) {
	var chunks []Chunk

	for _, page := range pages {
		footer := c.anchor.Find(page.Text)

		windows, err := c.splitterFor(footer).Split(page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", page.Number, err)
		}

		for _, window := range windows {
			chunks = append(chunks, Chunk{
				Content:  c.anchor.Inject(window, footer),
				Metadata: map[string]any{PageNumberKey: page.Number},
			})
		}
	}

	return chunks, nil
}

// splitterFor leaves room for a footer that may be appended, so anchored
// chunks stay within the chunk size after injection. When the footer leaves
// no more room than the overlap, pages are split at the full size and
// injected chunks run past it by the footer plus its separator.
func (c *Chunker) splitterFor(footer string) *Splitter {
	if len(footer) == 0 {
		return c.splitter
	}

	size := c.options.ChunkSize - runeLen(footer) - 2
	if size <= c.options.ChunkOverlap {
		return c.splitter
	}

	return NewSplitter(size, c.options.ChunkOverlap, c.options.Separators)
}

func New(opts ...Option) (*Chunker, error) {
	options := NewOptions(opts...)

	if options.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", errs.ErrConfig, options.ChunkSize)
	}

	if options.ChunkOverlap < 0 || options.ChunkOverlap >= options.ChunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d)", errs.ErrConfig, options.ChunkOverlap, options.ChunkSize)
	}

	c := &Chunker{
		options:  options,
		splitter: NewSplitter(options.ChunkSize, options.ChunkOverlap, options.Separators),
	}

	if len(options.FooterPattern) > 0 {
		anchor, err := NewAnchor(options.FooterPattern)
		if err != nil {
			return nil, fmt.Errorf("%w: footer pattern: %w", errs.ErrConfig, err)
		}
		c.anchor = anchor
	}

	return c, nil
}
