// Package tool declares the ticket operations exposed to the LLM and
// dispatches the model's invocation requests.
package tool

import "context"

// Tool is the interface every agent tool must implement. Execute returns
// the canonical result string fed back into the conversation; expected
// failures travel inside that string, not as the error.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any // JSON Schema
	Execute(ctx context.Context, params map[string]any) (string, error)
}
