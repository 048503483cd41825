// Package pdfrag answers questions about PDF documents with retrieval-augmented
// generation and per-session conversational memory.
package pdfrag

import (
	"context"
	"net/http"

	"github.com/w-h-a/pdfrag/embedder"
	"github.com/w-h-a/pdfrag/errs"
	"github.com/w-h-a/pdfrag/extractor"
	"github.com/w-h-a/pdfrag/generator"
	"github.com/w-h-a/pdfrag/history"
	"github.com/w-h-a/pdfrag/internal/handler"
	"github.com/w-h-a/pdfrag/internal/service/chat"
	"github.com/w-h-a/pdfrag/internal/service/document"
	"github.com/w-h-a/pdfrag/internal/service/session"
	"github.com/w-h-a/pdfrag/retriever"
	"github.com/w-h-a/pdfrag/storer"
)

var (
	ErrNotFound   = errs.ErrNotFound
	ErrConfig     = errs.ErrConfig
	ErrGeneration = errs.ErrGeneration
	ErrNotReady   = errs.ErrNotReady
	ErrTimeout    = errs.ErrTimeout
	ErrInvalid    = errs.ErrInvalid
)

type (
	DocumentOption = document.Option
	DocumentStatus = document.Status
	DocumentState  = document.State
)

const (
	StatePending = document.StatePending
	StateReady   = document.StateReady
	StateFailed  = document.StateFailed
)

var (
	WithDocumentId    = document.WithDocumentId
	WithFooterPattern = document.WithFooterPattern
)

type RAG struct {
	options   Options
	documents *document.Service
	sessions  *session.Service
	chat      *chat.Service
}

// Submit indexes the PDF at path in the background and returns its document id.
func (r *RAG) Submit(ctx context.Context, path string, opts ...DocumentOption) (string, error) {
	return r.documents.Submit(ctx, path, opts...)
}

// Build indexes the PDF at path and returns once the index is ready.
func (r *RAG) Build(ctx context.Context, path string, opts ...DocumentOption) (string, error) {
	return r.documents.Build(ctx, path, opts...)
}

func (r *RAG) Status(ctx context.Context, documentId string) (DocumentStatus, error) {
	return r.documents.Status(ctx, documentId)
}

// Ask answers query against the document within the session. An empty
// sessionId starts a new session; the session id in use is returned.
func (r *RAG) Ask(ctx context.Context, documentId string, sessionId string, query string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.options.RequestTimeout)
	defer cancel()

	return r.chat.Ask(ctx, documentId, sessionId, query)
}

func (r *RAG) History(ctx context.Context, sessionId string) (history.History, error) {
	return r.sessions.History(ctx, sessionId)
}

// Handler serves the HTTP API.
func (r *RAG) Handler() http.Handler {
	return handler.New(
		r.documents,
		r.chat,
		r.sessions,
		r.options.UploadDir,
		r.options.RequestTimeout,
	).Router()
}

// Close stops outstanding index builds.
func (r *RAG) Close() error {
	r.documents.Close()
	return nil
}

func New(
	ext extractor.Extractor,
	emb embedder.Embedder,
	index storer.Storer,
	histories history.Store,
	gen generator.Generator,
	opts ...Option,
) *RAG {
	options := NewOptions(opts...)

	documents := document.New(
		ext,
		retriever.New(emb, index),
		options.Chunking...,
	)

	sessions := session.New(
		histories,
	)

	var chatOpts []chat.Option
	if options.TopK > 0 {
		chatOpts = append(chatOpts, chat.WithTopK(options.TopK))
	}
	chatOpts = append(chatOpts, chat.WithAnchorLabel(options.AnchorLabel))

	c := chat.New(
		documents,
		sessions,
		gen,
		chatOpts...,
	)

	return &RAG{
		options:   options,
		documents: documents,
		sessions:  sessions,
		chat:      c,
	}
}
