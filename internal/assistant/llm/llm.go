// Package llm is the resilient text-generation layer: five external
// provider tiers tried strictly in order, with a retry-and-rotate policy on
// the primary tier and one aggregated failure when everything is down.
package llm

import (
	"context"

	"github.com/orbitcrm/assist/internal/assistant/classify"
)

// Conversation roles on the provider wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation as sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QueryContext is the ephemeral classification bundle handed to the prompt
// builder and the tier adapters. It is never persisted.
type QueryContext struct {
	Classification  classify.Type
	Confidence      float64
	QuestionType    string
	WordCount       int
	IsAuthenticated bool
}

// Request is one generation request: the running conversation plus the
// caller's effective role and query context.
type Request struct {
	Messages []Message
	Role     string
	Context  QueryContext
}

// TierClient is one external text-generation provider in the fallback
// order. Generate performs exactly one network round trip and returns
// either a trimmed reply or a *TierError.
type TierClient interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}
