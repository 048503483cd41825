package chunker

import (
	"regexp"
	"strings"
)

// Anchor re-attaches a page footer to chunks that lost it during splitting,
// so the page number it carries can still be cited.
type Anchor struct {
	pattern *regexp.Regexp
}

// Find returns the first footer match in the whole page text, or "".
func (a *Anchor) Find(page string) string {
	if a == nil || a.pattern == nil {
		return ""
	}
	return a.pattern.FindString(page)
}

// Inject appends footer as a new paragraph unless chunk already contains it.
func (a *Anchor) Inject(chunk string, footer string) string {
	if len(footer) == 0 || strings.Contains(chunk, footer) {
		return chunk
	}
	return chunk + "\n\n" + footer
}

func NewAnchor(pattern string) (*Anchor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Anchor{pattern: re}, nil
}
