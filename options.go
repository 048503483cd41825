package pdfrag

import (
	"time"

	"github.com/w-h-a/pdfrag/chunker"
)

type Option func(*Options)

type Options struct {
	Chunking       []chunker.Option
	TopK           int
	AnchorLabel    string
	UploadDir      string
	RequestTimeout time.Duration
}

func WithChunking(opts ...chunker.Option) Option {
	return func(o *Options) {
		o.Chunking = append(o.Chunking, opts...)
	}
}

func WithTopK(k int) Option {
	return func(o *Options) {
		o.TopK = k
	}
}

func WithAnchorLabel(label string) Option {
	return func(o *Options) {
		o.AnchorLabel = label
	}
}

func WithUploadDir(dir string) Option {
	return func(o *Options) {
		o.UploadDir = dir
	}
}

func WithRequestTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.RequestTimeout = d
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		UploadDir:      "uploads",
		RequestTimeout: time.Minute,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
