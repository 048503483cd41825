package generator

import "context"

type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
)

type Message struct {
	Role    Role
	Content string
}

// Generator completes a conversation. The last message is the turn to answer.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Split separates the system instruction from the conversational turns.
// Multiple system messages are joined with blank lines.
func Split(messages []Message, prefix string) (string, []Message) {
	system := prefix
	turns := make([]Message, 0, len(messages))

	for _, m := range messages {
		if m.Role != RoleSystem {
			turns = append(turns, m)
			continue
		}
		if len(system) > 0 {
			system += "\n\n"
		}
		system += m.Content
	}

	return system, turns
}
