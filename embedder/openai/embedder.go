package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"github.com/w-h-a/pdfrag/embedder"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type openAIEmbedder struct {
	options embedder.Options
	client  *openai.Client
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.create(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	return vecs[0], nil
}

func (e *openAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, 0, len(texts))

	for _, batch := range embedder.Batches(texts, e.options.BatchSize) {
		got, err := e.create(ctx, batch)
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, got...)
	}

	return vecs, nil
}

func (e *openAIEmbedder) create(ctx context.Context, input []string) ([][]float32, error) {
	rsp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      input,
		Model:      openai.EmbeddingModel(e.options.Model),
		Dimensions: e.options.Dimensions,
	})
	if err != nil {
		return nil, err
	}

	if len(rsp.Data) != len(input) {
		return nil, errors.New("no response from OpenAI")
	}

	vecs := make([][]float32, len(input))
	for _, d := range rsp.Data {
		if d.Index < 0 || d.Index >= len(input) || len(d.Embedding) == 0 {
			return nil, fmt.Errorf("unexpected embedding at index %d from OpenAI", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}

	return vecs, nil
}

func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)

	if len(options.Model) == 0 {
		options.Model = string(openai.LargeEmbedding3)
	}

	e := &openAIEmbedder{
		options: options,
	}

	cfg := openai.DefaultConfig(options.ApiKey)
	if len(options.BaseURL) > 0 {
		cfg.BaseURL = options.BaseURL
	}

	if options.HTTPClient != nil {
		cfg.HTTPClient = options.HTTPClient
	} else {
		cfg.HTTPClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	e.client = openai.NewClientWithConfig(cfg)

	return e
}
