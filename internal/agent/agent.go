// Package agent holds the conversation state and the tool-calling loop
// that drives the ticketing API from natural-language input.
package agent

import (
	"log/slog"

	"github.com/ticketd-io/ticketd/internal/provider"
	"github.com/ticketd-io/ticketd/internal/tool"
	"github.com/ticketd-io/ticketd/pkg/protocol"
)

// SystemPrompt is the single system instruction that opens every conversation.
const SystemPrompt = `You are a helpful support ticket assistant. You help users manage their support tickets by creating, viewing, updating, and deleting them.

When users ask about tickets, use the available tools to interact with the ticketing system. Always provide clear, helpful responses based on the results.

If an operation fails (e.g., ticket not found, invalid status), explain the error clearly to the user and suggest what they can do instead.

Valid ticket statuses are: OPEN, RESOLVED, CLOSED. If a user tries to use an invalid status, inform them of the valid options.

When resolving a ticket (setting status to RESOLVED), a resolution note explaining how the issue was fixed is required.`

const (
	// defaultMaxIterations bounds tool-call round trips within one turn.
	defaultMaxIterations = 10
	// defaultMaxHistory bounds conversation length between turns.
	defaultMaxHistory = 50
)

// apologyMessage is the terminal reply when the iteration cap is hit. A
// degraded answer, not an error.
const apologyMessage = "I apologize, but I was unable to complete the request. Please try again."

// Agent holds one conversation against the ticketing API. Not safe for
// concurrent Chat calls; turns must be serialized by the caller.
type Agent struct {
	Provider      provider.Provider
	Tools         *tool.Registry
	Logger        *slog.Logger
	MaxIterations int
	MaxHistory    int

	messages []protocol.ChatMessage
}

// New creates an agent with a fresh conversation.
func New(prov provider.Provider, tools *tool.Registry) *Agent {
	return &Agent{
		Provider:      prov,
		Tools:         tools,
		Logger:        slog.Default(),
		MaxIterations: defaultMaxIterations,
		MaxHistory:    defaultMaxHistory,
		messages: []protocol.ChatMessage{
			{Role: "system", Content: SystemPrompt},
		},
	}
}

// Reset discards all history, restoring the single system message.
func (a *Agent) Reset() {
	a.messages = []protocol.ChatMessage{
		{Role: "system", Content: SystemPrompt},
	}
	a.Logger.Info("conversation reset")
}

// History returns a copy of the conversation state.
func (a *Agent) History() []protocol.ChatMessage {
	out := make([]protocol.ChatMessage, len(a.messages))
	copy(out, a.messages)
	return out
}
