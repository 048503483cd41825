// Package rewriter turns follow-up questions into standalone queries using the chat history.
package rewriter

import (
	"context"
	"strings"

	"github.com/w-h-a/pdfrag/generator"
	"github.com/w-h-a/pdfrag/history"
	"github.com/w-h-a/pdfrag/prompts"
)

type Rewriter struct {
	generator generator.Generator
}

// Rewrite returns query unchanged for an empty history without calling the model.
func (r *Rewriter) Rewrite(ctx context.Context, h history.History, query string) (string, error) {
	if len(h) == 0 {
		return query, nil
	}

	system, err := prompts.RenderContextualizePrompt()
	if err != nil {
		return "", err
	}

	rewritten, err := r.generator.Generate(ctx, Conversation(system, h, query))
	if err != nil {
		return "", err
	}

	rewritten = strings.TrimSpace(rewritten)
	if len(rewritten) == 0 {
		return query, nil
	}

	return rewritten, nil
}

// Conversation lays out a system instruction, the prior turns and the new human input.
func Conversation(system string, h history.History, input string) []generator.Message {
	messages := make([]generator.Message, 0, len(h)+2)

	messages = append(messages, generator.Message{Role: generator.RoleSystem, Content: system})

	for _, turn := range h {
		role := generator.RoleHuman
		if turn.Role == history.RoleAI {
			role = generator.RoleAI
		}
		messages = append(messages, generator.Message{Role: role, Content: turn.Text})
	}

	messages = append(messages, generator.Message{Role: generator.RoleHuman, Content: input})

	return messages
}

func New(g generator.Generator) *Rewriter {
	return &Rewriter{
		generator: g,
	}
}
