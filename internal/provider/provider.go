// Package provider abstracts the LLM chat-completions APIs.
package provider

import (
	"context"

	"github.com/ticketd-io/ticketd/pkg/protocol"
)

// Provider is the abstraction over LLM APIs.
type Provider interface {
	Chat(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error)
	Name() string
}
