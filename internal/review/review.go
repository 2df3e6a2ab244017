// Package review generates a one-shot code review for a unified diff
// through the configured LLM provider. No tools are involved; it is a
// single chat-completions round trip.
package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ticketd-io/ticketd/internal/provider"
	"github.com/ticketd-io/ticketd/pkg/protocol"
)

const systemPrompt = `You are a code reviewer. Analyze the provided git diff and provide a concise review.

Focus on:
1. Code quality and best practices
2. Potential bugs or issues
3. Security concerns
4. Performance considerations
5. Suggestions for improvement

Format your response as markdown with clear sections. Be constructive and specific.
Keep the review concise but thorough. If the changes look good, say so briefly.`

const (
	// DefaultMinDiffSize is the size below which no review is generated.
	DefaultMinDiffSize = 50
	// DefaultMaxDiffSize is the size above which the diff is truncated.
	DefaultMaxDiffSize = 10000
)

// Reviewer produces diff reviews.
type Reviewer struct {
	Provider    provider.Provider
	MinDiffSize int
	MaxDiffSize int
	Logger      *slog.Logger
}

// New creates a Reviewer with default size bounds.
func New(prov provider.Provider) *Reviewer {
	return &Reviewer{
		Provider:    prov,
		MinDiffSize: DefaultMinDiffSize,
		MaxDiffSize: DefaultMaxDiffSize,
		Logger:      slog.Default(),
	}
}

// Review analyzes the diff and returns the review text. Provider failures
// are folded into the text so callers always get a usable comment body.
func (r *Reviewer) Review(ctx context.Context, diff string) string {
	if strings.TrimSpace(diff) == "" {
		return "No changes detected in this PR."
	}
	if len(strings.TrimSpace(diff)) < r.MinDiffSize {
		return "Changes are minimal - no detailed review needed."
	}
	if len(diff) > r.MaxDiffSize {
		diff = diff[:r.MaxDiffSize] + "\n\n... (diff truncated)"
		r.Logger.Debug("diff truncated", "max_size", r.MaxDiffSize)
	}

	resp, err := r.Provider.Chat(ctx, protocol.ChatRequest{
		Messages: []protocol.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Please review the following changes:\n\n```diff\n%s\n```", diff)},
		},
	})
	if err != nil {
		r.Logger.Error("review failed", "error", err)
		return fmt.Sprintf("Review could not be completed: %v", err)
	}
	if resp.Content == "" {
		return "No review generated."
	}
	return resp.Content
}

// Comment wraps a review body in the PR comment frame.
func Comment(review string) string {
	return fmt.Sprintf(`## AI Code Review

%s

---
*This review was generated automatically by the PR Review Bot.*
`, review)
}
