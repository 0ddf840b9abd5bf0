// Package ai wraps external text-generation providers behind a small
// chat-completion interface with an optional streaming extension.
package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is a single-shot chat completion backend.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
