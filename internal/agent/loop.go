package agent

import (
	"context"
	"fmt"

	"github.com/ticketd-io/ticketd/pkg/protocol"
)

// Chat processes one user turn: send the conversation to the LLM, execute
// any requested tool calls, and loop until the LLM returns a final text
// response or the iteration cap is reached. Only a provider failure is
// returned as an error; every tool outcome, including unknown tool names,
// is folded back into the conversation as data.
func (a *Agent) Chat(ctx context.Context, userMessage string) (string, error) {
	a.messages = append(a.messages, protocol.ChatMessage{Role: "user", Content: userMessage})

	maxIter := a.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}
	toolDefs := a.Tools.Definitions()

	for i := 0; i < maxIter; i++ {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("agent: context cancelled: %w", err)
		}

		a.Logger.Debug("chat request",
			"iteration", i+1,
			"max_iterations", maxIter,
			"messages", len(a.messages),
		)

		resp, err := a.Provider.Chat(ctx, protocol.ChatRequest{
			Messages: a.messages,
			Tools:    toolDefs,
		})
		if err != nil {
			return "", fmt.Errorf("agent: provider error: %w", err)
		}

		if !resp.HasToolCalls() {
			a.messages = append(a.messages, protocol.ChatMessage{
				Role:    "assistant",
				Content: resp.Content,
			})
			a.trimHistory()
			a.Logger.Debug("final response", "iteration", i+1, "content_len", len(resp.Content))
			return resp.Content, nil
		}

		// Append assistant message with tool calls
		a.messages = append(a.messages, protocol.ChatMessage{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		// Execute each requested call in the order the model emitted it.
		// Later calls in the batch may depend on earlier results through
		// the model's own reasoning, so dispatch stays sequential.
		for _, tc := range resp.ToolCalls {
			a.Logger.Info(fmt.Sprintf("tool call: %s", tc.Name), "call_id", tc.ID)

			result := a.Tools.Dispatch(ctx, tc.Name, tc.Arguments)

			a.messages = append(a.messages, protocol.ChatMessage{
				Role:       "tool",
				Content:    result,
				ToolCallID: tc.ID,
				Name:       tc.Name,
			})
		}
	}

	a.Logger.Warn("max iterations reached, returning partial response")
	a.trimHistory()
	return apologyMessage, nil
}

// trimHistory bounds the conversation to MaxHistory messages, keeping the
// system message plus the most recent remainder. The boundary can split a
// tool-call/tool-result pair; both providers accept the orphaned result and
// the window only matters for one turn, so alignment is not enforced.
func (a *Agent) trimHistory() {
	maxHistory := a.MaxHistory
	if maxHistory <= 0 {
		maxHistory = defaultMaxHistory
	}
	if len(a.messages) <= maxHistory {
		return
	}
	trimmed := make([]protocol.ChatMessage, 0, maxHistory)
	trimmed = append(trimmed, a.messages[0])
	trimmed = append(trimmed, a.messages[len(a.messages)-(maxHistory-1):]...)
	a.messages = trimmed
	a.Logger.Debug("trimmed message history", "messages", len(a.messages))
}
