package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_AppendDoesNotMutate(t *testing.T) {
	base := make(History, 1, 4)
	base[0] = Turn{Role: RoleHuman, Text: "hi"}

	next := base.Append(Exchange("q", "a")...)

	assert.Len(t, base, 1)
	assert.Equal(t, History{
		{Role: RoleHuman, Text: "hi"},
		{Role: RoleHuman, Text: "q"},
		{Role: RoleAI, Text: "a"},
	}, next)

	other := base.Append(Turn{Role: RoleAI, Text: "x"})
	assert.Equal(t, "q", next[1].Text)
	assert.Equal(t, "x", other[1].Text)
}

func TestHistory_AppendToNil(t *testing.T) {
	var h History

	next := h.Append(Exchange("q", "a")...)

	assert.Len(t, next, 2)
	assert.Equal(t, RoleHuman, next[0].Role)
	assert.Equal(t, RoleAI, next[1].Role)
}
