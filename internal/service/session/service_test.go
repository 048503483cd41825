package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/pdfrag/errs"
	"github.com/w-h-a/pdfrag/history"
	"github.com/w-h-a/pdfrag/history/memory"
)

func TestService_AppendConcurrent(t *testing.T) {
	s := New(memory.NewStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Append(ctx, "shared", history.Exchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))...)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	h, err := s.History(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, h, 40)

	for i := 0; i < len(h); i += 2 {
		assert.Equal(t, history.RoleHuman, h[i].Role)
		assert.Equal(t, history.RoleAI, h[i+1].Role)
		assert.Equal(t, h[i].Text[1:], h[i+1].Text[1:])
	}

	assert.Empty(t, s.locks)
}

func TestService_UpdateFailureSavesNothing(t *testing.T) {
	s := New(memory.NewStore())
	ctx := context.Background()

	_, err := s.Append(ctx, "abc", history.Exchange("q", "a")...)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Update(ctx, "abc", func(h history.History) (history.History, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	h, err := s.History(ctx, "abc")
	require.NoError(t, err)
	assert.Len(t, h, 2)
}

func TestService_InvalidSession(t *testing.T) {
	s := New(memory.NewStore())

	_, err := s.History(context.Background(), "../x")
	assert.ErrorIs(t, err, errs.ErrInvalid)

	_, err = s.Append(context.Background(), "", history.Exchange("q", "a")...)
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestService_UnknownSessionIsEmpty(t *testing.T) {
	s := New(memory.NewStore())

	h, err := s.History(context.Background(), "new")
	require.NoError(t, err)
	assert.Empty(t, h)
}
