// Package historytest checks the behaviour every history.Store must share.
package historytest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/pdfrag/history"
)

func Run(t *testing.T, store history.Store) {
	t.Helper()

	t.Run("unknown session is empty", func(t *testing.T) {
		h, err := store.Load(context.Background(), "never-seen")
		require.NoError(t, err)
		assert.Empty(t, h)
	})

	t.Run("round trip", func(t *testing.T) {
		ctx := context.Background()

		want := history.History{}.
			Append(history.Exchange("What is the deficit?", "It is $1bn. Source: Page 4")...).
			Append(history.Exchange("what about 2008", "It falls to $0.5bn.")...)

		require.NoError(t, store.Save(ctx, "session-a", want))

		got, err := store.Load(ctx, "session-a")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("save replaces", func(t *testing.T) {
		ctx := context.Background()

		first := history.History{}.Append(history.Exchange("q1", "a1")...)
		second := first.Append(history.Exchange("q2", "a2")...)

		require.NoError(t, store.Save(ctx, "session-b", first))
		require.NoError(t, store.Save(ctx, "session-b", second))

		got, err := store.Load(ctx, "session-b")
		require.NoError(t, err)
		assert.Equal(t, second, got)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, store.Save(ctx, "session-c", history.History{}.Append(history.Exchange("c", "c")...)))
		require.NoError(t, store.Save(ctx, "session-d", history.History{}.Append(history.Exchange("d", "d")...)))

		c, err := store.Load(ctx, "session-c")
		require.NoError(t, err)
		d, err := store.Load(ctx, "session-d")
		require.NoError(t, err)

		assert.Equal(t, "c", c[0].Text)
		assert.Equal(t, "d", d[0].Text)
	})

	t.Run("loaded history is a copy", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, store.Save(ctx, "session-e", history.History{}.Append(history.Exchange("q", "a")...)))

		h, err := store.Load(ctx, "session-e")
		require.NoError(t, err)
		h[0].Text = "changed"

		again, err := store.Load(ctx, "session-e")
		require.NoError(t, err)
		assert.Equal(t, "q", again[0].Text)
	})
}
