package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/pdfrag/chunker"
	"github.com/w-h-a/pdfrag/errs"
	"github.com/w-h-a/pdfrag/extractor"
	"github.com/w-h-a/pdfrag/generator"
	"github.com/w-h-a/pdfrag/history"
	historymemory "github.com/w-h-a/pdfrag/history/memory"
	"github.com/w-h-a/pdfrag/internal/service/document"
	"github.com/w-h-a/pdfrag/internal/service/session"
	"github.com/w-h-a/pdfrag/retriever"
	storermemory "github.com/w-h-a/pdfrag/storer/memory"
)

const anchor = "2005-06 Budget Paper No. 3"

var budgetPages = []extractor.Page{
	{Number: 12, Text: "The net interest cost in 2007 was $7 million.\n" + anchor + " 12"},
	{Number: 13, Text: "The net interest cost in 2008 was $5 million.\n" + anchor + " 13"},
	{Number: 14, Text: "Revenue grew strongly."},
}

type staticExtractor struct {
	pages   []extractor.Page
	release chan struct{}
}

func (e *staticExtractor) Extract(ctx context.Context, path string) ([]extractor.Page, error) {
	if e.release != nil {
		<-e.release
	}
	return e.pages, nil
}

var vocabulary = []string{"2007", "2008", "revenue"}

type keywordEmbedder struct{}

func (keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, len(vocabulary))
	for i, word := range vocabulary {
		if strings.Contains(strings.ToLower(text), word) {
			vec[i] = 1
		}
	}
	return vec, nil
}

func (e keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i], _ = e.Embed(ctx, text)
	}
	return out, nil
}

type fakeGenerator struct {
	mtx     sync.Mutex
	calls   [][]generator.Message
	rewrite func(messages []generator.Message) string
	answer  func(ctx context.Context, messages []generator.Message) (string, error)
}

func (g *fakeGenerator) Generate(ctx context.Context, messages []generator.Message) (string, error) {
	g.mtx.Lock()
	g.calls = append(g.calls, messages)
	g.mtx.Unlock()

	if strings.Contains(messages[0].Content, "standalone question") {
		if g.rewrite == nil {
			return messages[len(messages)-1].Content, nil
		}
		return g.rewrite(messages), nil
	}

	if g.answer == nil {
		return "answer to " + messages[len(messages)-1].Content, nil
	}
	return g.answer(ctx, messages)
}

func (g *fakeGenerator) Calls() [][]generator.Message {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	return append([][]generator.Message{}, g.calls...)
}

type fixture struct {
	chat      *Service
	documents *document.Service
	sessions  *session.Service
	gen       *fakeGenerator
}

func newFixture(t *testing.T, gen *fakeGenerator, opts ...Option) fixture {
	t.Helper()

	ret := retriever.New(keywordEmbedder{}, storermemory.NewStorer())
	docs := document.New(&staticExtractor{pages: budgetPages}, ret, chunker.WithChunkSize(300), chunker.WithChunkOverlap(30))
	t.Cleanup(docs.Close)

	_, err := docs.Build(context.Background(), "budget.pdf", document.WithDocumentId("budget"))
	require.NoError(t, err)

	sessions := session.New(historymemory.NewStore())

	return fixture{
		chat:      New(docs, sessions, gen, opts...),
		documents: docs,
		sessions:  sessions,
		gen:       gen,
	}
}

func loadIndex(t *testing.T, f fixture) *retriever.Index {
	t.Helper()
	index, err := f.documents.Index(context.Background(), "budget")
	require.NoError(t, err)
	return index
}

func TestAnswer_FirstQuestion(t *testing.T) {
	gen := &fakeGenerator{}
	f := newFixture(t, gen, WithAnchorLabel(anchor))

	answer, h, err := f.chat.Answer(context.Background(), "What was the net interest cost in 2007?", nil, loadIndex(t, f))
	require.NoError(t, err)

	assert.Equal(t, "answer to What was the net interest cost in 2007?", answer)
	assert.Equal(t, history.History{
		{Role: history.RoleHuman, Text: "What was the net interest cost in 2007?"},
		{Role: history.RoleAI, Text: answer},
	}, h)

	calls := gen.Calls()
	require.Len(t, calls, 1)

	messages := calls[0]
	require.Len(t, messages, 2)
	assert.Equal(t, generator.RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "Use ONLY the retrieved context")
	assert.Contains(t, messages[0].Content, "Source: Page <number>")
	assert.Contains(t, messages[0].Content, "The net interest cost in 2007 was $7 million.")
	assert.Equal(t, generator.Message{Role: generator.RoleHuman, Content: "What was the net interest cost in 2007?"}, messages[1])
}

func TestAnswer_FollowUpUsesRewrittenQueryForRetrieval(t *testing.T) {
	gen := &fakeGenerator{
		rewrite: func(messages []generator.Message) string {
			return "What was the net interest cost in 2008?"
		},
	}
	f := newFixture(t, gen, WithTopK(1))

	prior := history.History{}.Append(history.Exchange(
		"What was the net interest cost in 2007?",
		"The net interest cost in 2007 was $7 million. Source: Page 12",
	)...)

	_, h, err := f.chat.Answer(context.Background(), "what about 2008", prior, loadIndex(t, f))
	require.NoError(t, err)

	assert.Len(t, prior, 2)
	assert.Len(t, h, 4)

	calls := gen.Calls()
	require.Len(t, calls, 2)

	final := calls[1]
	require.Len(t, final, 4)
	assert.Contains(t, final[0].Content, "The net interest cost in 2008 was $5 million.")
	assert.NotContains(t, final[0].Content, "The net interest cost in 2007 was $7 million.")
	assert.NotContains(t, final[0].Content, "Source: Page <number>")
	assert.Equal(t, generator.Message{Role: generator.RoleHuman, Content: "what about 2008"}, final[3])
}

func TestAnswer_GenerationFailure(t *testing.T) {
	gen := &fakeGenerator{
		answer: func(ctx context.Context, messages []generator.Message) (string, error) {
			return "", errors.New("upstream 500")
		},
	}
	f := newFixture(t, gen)

	_, h, err := f.chat.Answer(context.Background(), "q", nil, loadIndex(t, f))
	assert.ErrorIs(t, err, errs.ErrGeneration)
	assert.Nil(t, h)
}

func TestAsk_RecordsExchange(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})
	ctx := context.Background()

	answer, sessionId, err := f.chat.Ask(ctx, "budget", "", "What was the net interest cost in 2007?")
	require.NoError(t, err)
	assert.NotEmpty(t, sessionId)
	assert.Equal(t, "answer to What was the net interest cost in 2007?", answer)

	_, again, err := f.chat.Ask(ctx, "budget", sessionId, "what about 2008")
	require.NoError(t, err)
	assert.Equal(t, sessionId, again)

	h, err := f.sessions.History(ctx, sessionId)
	require.NoError(t, err)
	require.Len(t, h, 4)
	assert.Equal(t, "what about 2008", h[2].Text)
}

func TestAsk_ConcurrentQueriesOnOneSession(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	gen := &fakeGenerator{
		answer: func(ctx context.Context, messages []generator.Message) (string, error) {
			started <- struct{}{}
			<-release
			return "answer to " + messages[len(messages)-1].Content, nil
		},
	}
	f := newFixture(t, gen)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, q := range []string{"first question", "second question"} {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			_, _, err := f.chat.Ask(ctx, "budget", "shared", q)
			assert.NoError(t, err)
		}(q)
	}

	<-started
	<-started
	close(release)
	wg.Wait()

	h, err := f.sessions.History(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, h, 4)

	for i := 0; i < 4; i += 2 {
		assert.Equal(t, history.RoleHuman, h[i].Role)
		assert.Equal(t, history.RoleAI, h[i+1].Role)
		assert.Equal(t, "answer to "+h[i].Text, h[i+1].Text)
	}
}

func TestAsk_TimeoutLeavesHistoryUntouched(t *testing.T) {
	gen := &fakeGenerator{
		answer: func(ctx context.Context, messages []generator.Message) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	f := newFixture(t, gen)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := f.chat.Ask(ctx, "budget", "s1", "q")
	assert.ErrorIs(t, err, errs.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	h, err := f.sessions.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestAsk_FailureLeavesHistoryUntouched(t *testing.T) {
	gen := &fakeGenerator{
		answer: func(ctx context.Context, messages []generator.Message) (string, error) {
			return "", errors.New("boom")
		},
	}
	f := newFixture(t, gen)

	_, _, err := f.chat.Ask(context.Background(), "budget", "s1", "q")
	assert.ErrorIs(t, err, errs.ErrGeneration)

	h, err := f.sessions.History(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestAsk_UnknownDocument(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})

	_, _, err := f.chat.Ask(context.Background(), "missing", "s1", "q")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestAsk_PendingDocument(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})

	ret := retriever.New(keywordEmbedder{}, storermemory.NewStorer())
	release := make(chan struct{})
	docs := document.New(&staticExtractor{pages: budgetPages, release: release}, ret)
	t.Cleanup(func() {
		close(release)
		docs.Close()
	})

	id, err := docs.Submit(context.Background(), "budget.pdf")
	require.NoError(t, err)

	c := New(docs, f.sessions, f.gen)

	_, _, err = c.Ask(context.Background(), id, "s1", "q")
	assert.ErrorIs(t, err, errs.ErrNotReady)
}

func TestAsk_EmptyQuery(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})

	_, _, err := f.chat.Ask(context.Background(), "budget", "s1", "   ")
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestAsk_InvalidSession(t *testing.T) {
	f := newFixture(t, &fakeGenerator{})

	_, _, err := f.chat.Ask(context.Background(), "budget", "../x", "q")
	assert.ErrorIs(t, err, errs.ErrInvalid)
}
