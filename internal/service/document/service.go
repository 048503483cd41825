package document

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/pdfrag/chunker"
	"github.com/w-h-a/pdfrag/errs"
	"github.com/w-h-a/pdfrag/extractor"
	"github.com/w-h-a/pdfrag/retriever"
	"github.com/w-h-a/pdfrag/util/ident"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/w-h-a/pdfrag/internal/service/document")

// Service owns the lifecycle of document indices: Pending while building,
// then Ready or Failed. The registry lock is only held for map access.
type Service struct {
	extractor extractor.Extractor
	retriever *retriever.Retriever
	chunking  []chunker.Option
	docs      map[string]*Status
	mtx       sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Submit registers the document and builds its index in the background.
func (s *Service) Submit(ctx context.Context, path string, opts ...Option) (string, error) {
	id, c, err := s.prepare(opts...)
	if err != nil {
		return "", err
	}

	if !s.claim(ctx, id) {
		return id, nil
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.build(s.ctx, id, path, c)
	}()

	return id, nil
}

// Build indexes the document before returning. A document that is already
// indexed is not rebuilt.
func (s *Service) Build(ctx context.Context, path string, opts ...Option) (string, error) {
	id, c, err := s.prepare(opts...)
	if err != nil {
		return "", err
	}

	if !s.claim(ctx, id) {
		status, err := s.Status(ctx, id)
		if err != nil {
			return "", err
		}
		if status.State == StatePending {
			return "", fmt.Errorf("%w: document %s is still being indexed", errs.ErrNotReady, id)
		}
		return id, nil
	}

	if err := s.build(ctx, id, path, c); err != nil {
		return "", err
	}

	return id, nil
}

// Status reports the build state. Documents indexed by an earlier process are Ready.
func (s *Service) Status(ctx context.Context, documentId string) (Status, error) {
	s.mtx.RLock()
	status, ok := s.docs[documentId]
	if ok {
		cpy := *status
		s.mtx.RUnlock()
		return cpy, nil
	}
	s.mtx.RUnlock()

	if ident.Valid(documentId) != nil {
		return Status{}, fmt.Errorf("%w: document %s", errs.ErrNotFound, documentId)
	}

	exists, err := s.retriever.Exists(ctx, documentId)
	if err != nil {
		return Status{}, err
	}

	if !exists {
		return Status{}, fmt.Errorf("%w: document %s", errs.ErrNotFound, documentId)
	}

	return Status{DocumentId: documentId, State: StateReady}, nil
}

// Index returns the searchable index of a Ready document.
func (s *Service) Index(ctx context.Context, documentId string) (*retriever.Index, error) {
	status, err := s.Status(ctx, documentId)
	if err != nil {
		return nil, err
	}

	switch status.State {
	case StatePending:
		return nil, fmt.Errorf("%w: document %s is still being indexed", errs.ErrNotReady, documentId)
	case StateFailed:
		return nil, fmt.Errorf("%w: document %s failed to index: %w", errs.ErrNotReady, documentId, status.Err)
	}

	return s.retriever.Load(ctx, documentId)
}

// Close cancels outstanding builds and waits for them to finish.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) prepare(opts ...Option) (string, *chunker.Chunker, error) {
	options := NewOptions(opts...)

	id := options.DocumentId
	if len(id) == 0 {
		id = uuid.NewString()
	}

	if err := ident.Valid(id); err != nil {
		return "", nil, err
	}

	chunking := s.chunking
	if len(options.FooterPattern) > 0 {
		chunking = append(append([]chunker.Option{}, s.chunking...), chunker.WithFooterPattern(options.FooterPattern))
	}

	c, err := chunker.New(chunking...)
	if err != nil {
		return "", nil, err
	}

	return id, c, nil
}

// claim marks the document Pending unless it is already pending or indexed.
// Failed documents may be claimed again.
func (s *Service) claim(ctx context.Context, documentId string) bool {
	s.mtx.Lock()
	if status, ok := s.docs[documentId]; ok && status.State != StateFailed {
		s.mtx.Unlock()
		return false
	}
	s.docs[documentId] = &Status{DocumentId: documentId, State: StatePending}
	s.mtx.Unlock()

	exists, err := s.retriever.Exists(ctx, documentId)
	if err == nil && exists {
		s.finish(documentId, nil)
		return false
	}

	return true
}

func (s *Service) build(ctx context.Context, documentId string, path string, c *chunker.Chunker) (err error) {
	ctx, span := tracer.Start(ctx, "document.Build")
	span.SetAttributes(attribute.String("document_id", documentId))

	start := time.Now()

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.ErrorContext(ctx, "failed to index document", "document_id", documentId, "error", err)
		} else {
			slog.InfoContext(ctx, "document indexed", "document_id", documentId, "duration", time.Since(start))
		}
		s.finish(documentId, err)
		span.End()
	}()

	pages, err := s.extractor.Extract(ctx, path)
	if err != nil {
		return err
	}

	chunks, err := c.Split(pages)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "document chunked", "document_id", documentId, "pages", len(pages), "chunks", len(chunks))

	span.SetAttributes(attribute.Int("pages", len(pages)), attribute.Int("chunks", len(chunks)))

	return s.retriever.Build(ctx, documentId, chunks)
}

func (s *Service) finish(documentId string, err error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err != nil {
		s.docs[documentId] = &Status{DocumentId: documentId, State: StateFailed, Err: err}
		return
	}

	s.docs[documentId] = &Status{DocumentId: documentId, State: StateReady}
}

func New(ext extractor.Extractor, ret *retriever.Retriever, chunking ...chunker.Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		extractor: ext,
		retriever: ret,
		chunking:  chunking,
		docs:      map[string]*Status{},
		mtx:       sync.RWMutex{},
		ctx:       ctx,
		cancel:    cancel,
	}
}
