// Package history persists per-session conversation turns.
package history

import "context"

type Role string

const (
	RoleHuman Role = "human"
	RoleAI    Role = "ai"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// History is ordered oldest first and only ever grows.
type History []Turn

// Append returns a new history; the receiver is left untouched.
func (h History) Append(turns ...Turn) History {
	out := make(History, 0, len(h)+len(turns))
	out = append(out, h...)
	out = append(out, turns...)
	return out
}

// Exchange is the pair of turns recorded for one answered query.
func Exchange(query, answer string) []Turn {
	return []Turn{
		{Role: RoleHuman, Text: query},
		{Role: RoleAI, Text: answer},
	}
}

// Store loads and saves whole histories. Load of an unknown session yields an
// empty history, never an error.
type Store interface {
	Load(ctx context.Context, sessionId string) (History, error)
	Save(ctx context.Context, sessionId string, h History) error
}
