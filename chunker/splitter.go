package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter cuts text into windows of at most size characters, preferring the
// coarsest separator present in the text and falling back to finer ones for
// pieces that are still too long. Consecutive windows share up to overlap
// characters. Lengths are counted in runes and separators stay attached to the
// text that follows them.
type Splitter struct {
	splitter textsplitter.RecursiveCharacter
}

func (s *Splitter) Split(text string) ([]string, error) {
	windows, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	// pieces no separator could shorten are returned untrimmed and may be blank
	kept := windows[:0]
	for _, w := range windows {
		if len(strings.TrimSpace(w)) > 0 {
			kept = append(kept, w)
		}
	}

	return kept, nil
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func NewSplitter(size int, overlap int, separators []string) *Splitter {
	if len(separators) == 0 {
		separators = DefaultSeparators
	}

	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(separators),
			textsplitter.WithLenFunc(utf8.RuneCountInString),
			textsplitter.WithKeepSeparator(true),
		),
	}
}
