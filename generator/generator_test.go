package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	system, turns := Split([]Message{
		{Role: RoleSystem, Content: "Use ONLY the retrieved context."},
		{Role: RoleHuman, Content: "What was the cost in 2005?"},
		{Role: RoleAI, Content: "$5M"},
		{Role: RoleSystem, Content: "context chunk"},
		{Role: RoleHuman, Content: "what about 2008"},
	}, "Be brief.")

	assert.Equal(t, "Be brief.\n\nUse ONLY the retrieved context.\n\ncontext chunk", system)
	assert.Equal(t, []Message{
		{Role: RoleHuman, Content: "What was the cost in 2005?"},
		{Role: RoleAI, Content: "$5M"},
		{Role: RoleHuman, Content: "what about 2008"},
	}, turns)
}

func TestSplit_NoSystem(t *testing.T) {
	system, turns := Split([]Message{{Role: RoleHuman, Content: "hi"}}, "")
	assert.Empty(t, system)
	assert.Len(t, turns, 1)
}
