package chat

const DefaultTopK = 5

type Option func(*Options)

type Options struct {
	TopK        int
	AnchorLabel string
}

// WithTopK sets how many chunks are retrieved per query.
func WithTopK(k int) Option {
	return func(o *Options) {
		o.TopK = k
	}
}

// WithAnchorLabel names the footer text that precedes page numbers. When set,
// answers are asked to cite pages.
func WithAnchorLabel(label string) Option {
	return func(o *Options) {
		o.AnchorLabel = label
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		TopK: DefaultTopK,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.TopK < 1 {
		options.TopK = DefaultTopK
	}
	return options
}
