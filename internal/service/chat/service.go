package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/w-h-a/pdfrag/errs"
	"github.com/w-h-a/pdfrag/generator"
	"github.com/w-h-a/pdfrag/history"
	"github.com/w-h-a/pdfrag/internal/service/document"
	"github.com/w-h-a/pdfrag/internal/service/session"
	"github.com/w-h-a/pdfrag/prompts"
	"github.com/w-h-a/pdfrag/retriever"
	"github.com/w-h-a/pdfrag/rewriter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/w-h-a/pdfrag/internal/service/chat")

type Service struct {
	options   Options
	documents *document.Service
	sessions  *session.Service
	rewriter  *rewriter.Rewriter
	generator generator.Generator
}

// Ask answers query against the document and records the exchange in the
// session. An empty sessionId starts a new session. No lock is held while the
// model runs; the exchange is appended to whatever the session holds by then.
func (s *Service) Ask(ctx context.Context, documentId string, sessionId string, query string) (string, string, error) {
	ctx, span := tracer.Start(ctx, "chat.Ask")
	defer span.End()

	span.SetAttributes(attribute.String("document_id", documentId))

	if len(strings.TrimSpace(query)) == 0 {
		return "", "", fmt.Errorf("%w: query is required", errs.ErrInvalid)
	}

	if len(sessionId) == 0 {
		sessionId = uuid.NewString()
	}

	span.SetAttributes(attribute.String("session_id", sessionId))

	index, err := s.documents.Index(ctx, documentId)
	if err != nil {
		return "", "", fail(span, err)
	}

	snapshot, err := s.sessions.History(ctx, sessionId)
	if err != nil {
		return "", "", fail(span, err)
	}

	answer, _, err := s.Answer(ctx, query, snapshot, index)
	if err != nil {
		slog.ErrorContext(ctx, "failed to answer query", "document_id", documentId, "session_id", sessionId, "error", err)
		return "", "", fail(span, err)
	}

	if _, err := s.sessions.Append(ctx, sessionId, history.Exchange(query, answer)...); err != nil {
		return "", "", fail(span, err)
	}

	return answer, sessionId, nil
}

// Answer runs one conversational retrieval step. The rewritten query drives
// retrieval while the original query is what the model answers. The returned
// history is a new slice; h is never modified.
func (s *Service) Answer(ctx context.Context, query string, h history.History, index retriever.Searcher) (string, history.History, error) {
	ctx, span := tracer.Start(ctx, "chat.Answer")
	defer span.End()

	standalone, err := s.rewriter.Rewrite(ctx, h, query)
	if err != nil {
		return "", nil, fail(span, errs.Upstream("rewrite query", err))
	}

	chunks, err := index.Search(ctx, standalone, s.options.TopK)
	if err != nil {
		return "", nil, fail(span, errs.Upstream("retrieve context", err))
	}

	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	contents := make([]string, 0, len(chunks))
	for _, c := range chunks {
		contents = append(contents, c.Content)
	}

	system, err := prompts.RenderAnswerPrompt(s.options.AnchorLabel, contents)
	if err != nil {
		return "", nil, fail(span, err)
	}

	answer, err := s.generator.Generate(ctx, rewriter.Conversation(system, h, query))
	if err != nil {
		return "", nil, fail(span, errs.Upstream("generate answer", err))
	}

	answer = strings.TrimSpace(answer)

	return answer, h.Append(history.Exchange(query, answer)...), nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func New(
	documents *document.Service,
	sessions *session.Service,
	gen generator.Generator,
	opts ...Option,
) *Service {
	return &Service{
		options:   NewOptions(opts...),
		documents: documents,
		sessions:  sessions,
		rewriter:  rewriter.New(gen),
		generator: gen,
	}
}
