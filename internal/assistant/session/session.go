// Package session owns the per-conversation message log: it sequences
// local retrieval before provider fallback, serializes sends, and persists
// the transcript through a pluggable store.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Transcript message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one committed turn of a conversation. The log is append
// only; messages are never edited after commit.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func newMessage(role, content string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}
