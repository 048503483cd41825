package pdf

import (
	"context"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
	"github.com/w-h-a/pdfrag/errs"
	"github.com/w-h-a/pdfrag/extractor"
)

type pdfExtractor struct{}

func (e *pdfExtractor) Extract(ctx context.Context, path string) ([]extractor.Page, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: pdf at %s: %w", errs.ErrNotFound, path, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("%w: pdf at %s is a directory", errs.ErrNotFound, path)
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	fonts := map[string]*pdf.Font{}

	return extractor.Collect(ctx, r.NumPage(), func(number int) (text string, err error) {
		// the parser panics on some malformed content streams
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("read page %d of %s: %v", number, path, p)
			}
		}()

		page := r.Page(number)
		if page.V.IsNull() {
			return "", nil
		}

		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}

		return page.GetPlainText(fonts)
	})
}

func NewExtractor() extractor.Extractor {
	return &pdfExtractor{}
}
