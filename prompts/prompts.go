// Package prompts renders the system instructions sent to the language model.
package prompts

import (
	"bytes"
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

var (
	contextualizeTmpl = template.Must(template.ParseFS(templatesFS, "templates/contextualize_system.md"))
	answerTmpl        = template.Must(template.ParseFS(templatesFS, "templates/answer_system.md"))
)

// RenderContextualizePrompt renders the instruction that turns a follow-up into a standalone question.
func RenderContextualizePrompt() (string, error) {
	var buf bytes.Buffer
	if err := contextualizeTmpl.Execute(&buf, nil); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// RenderAnswerPrompt renders the grounded question-answering instruction.
// Citation rules are included only when anchorLabel is set.
func RenderAnswerPrompt(anchorLabel string, chunks []string) (string, error) {
	data := struct {
		AnchorLabel string
		Context     string
	}{
		AnchorLabel: anchorLabel,
		Context:     strings.Join(chunks, "\n\n"),
	}

	var buf bytes.Buffer
	if err := answerTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
