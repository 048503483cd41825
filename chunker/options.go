package chunker

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// DefaultSeparators break at paragraphs, then lines, then words, then characters.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

type Option func(*Options)

type Options struct {
	ChunkSize     int
	ChunkOverlap  int
	FooterPattern string
	Separators    []string
}

func WithChunkSize(size int) Option {
	return func(o *Options) {
		o.ChunkSize = size
	}
}

func WithChunkOverlap(overlap int) Option {
	return func(o *Options) {
		o.ChunkOverlap = overlap
	}
}

// WithFooterPattern sets a regular expression for a recurring page footer.
// Every chunk of a page carrying the footer gets the footer text appended if splitting cut it off.
func WithFooterPattern(pattern string) Option {
	return func(o *Options) {
		o.FooterPattern = pattern
	}
}

func WithSeparators(separators ...string) Option {
	return func(o *Options) {
		o.Separators = separators
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		ChunkSize:    DefaultChunkSize,
		ChunkOverlap: DefaultChunkOverlap,
		Separators:   DefaultSeparators,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
