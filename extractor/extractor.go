package extractor

import (
	"context"
	"strings"
)

// Page is the raw text of one physical page. Number is 1-indexed.
type Page struct {
	Number int
	Text   string
}

type Extractor interface {
	Extract(ctx context.Context, path string) ([]Page, error)
}

// Collect walks pages 1..count in physical order and keeps the ones with text.
// Blank pages produce no record but still advance the page number.
func Collect(ctx context.Context, count int, text func(number int) (string, error)) ([]Page, error) {
	pages := make([]Page, 0, count)

	for number := 1; number <= count; number++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		t, err := text(number)
		if err != nil {
			return nil, err
		}

		if len(strings.TrimSpace(t)) == 0 {
			continue
		}

		pages = append(pages, Page{Number: number, Text: t})
	}

	return pages, nil
}
