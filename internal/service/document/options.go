package document

type Option func(*Options)

type Options struct {
	DocumentId    string
	FooterPattern string
}

// WithDocumentId fixes the id instead of generating one.
func WithDocumentId(id string) Option {
	return func(o *Options) {
		o.DocumentId = id
	}
}

// WithFooterPattern overrides the configured footer pattern for one document.
func WithFooterPattern(pattern string) Option {
	return func(o *Options) {
		o.FooterPattern = pattern
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
