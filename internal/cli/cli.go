// Package cli is the interactive shell for the ticketing agent.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ticketd-io/ticketd/internal/agent"
)

const helpText = `
Available Commands:
  help   - Show this help message
  reset  - Clear conversation history
  quit   - Exit the CLI

Example Requests:
  "Create a ticket about my keyboard not working"
  "List all open tickets"
  "Get details for ticket <id>"
  "Update ticket <id> to RESOLVED with resolution 'Replaced keyboard'"
  "Delete ticket <id>"

Valid Ticket Statuses: OPEN, RESOLVED, CLOSED
`

// Shell runs the interactive conversation loop.
type Shell struct {
	agent  *agent.Agent
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
	apiURL string
	isTTY  bool
}

// Option configures a Shell.
type Option func(*Shell)

// WithIO overrides the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Shell) {
		s.in = in
		s.out = out
	}
}

// WithTTY controls spinner rendering.
func WithTTY(isTTY bool) Option {
	return func(s *Shell) { s.isTTY = isTTY }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) { s.logger = l }
}

// New creates a shell around an agent. apiURL is shown in the banner.
func New(a *agent.Agent, apiURL string, opts ...Option) *Shell {
	s := &Shell{
		agent:  a,
		logger: slog.Default(),
		apiURL: apiURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads user turns until quit or EOF. Provider errors are printed and
// the loop continues; the process does not crash on a failed model call.
func (s *Shell) Run(ctx context.Context) error {
	s.printBanner()
	fmt.Fprintln(s.out, "\nAgent ready. How can I help you today?")
	fmt.Fprintln(s.out)

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "quit", "exit":
			fmt.Fprintln(s.out, "\nGoodbye!")
			return nil
		case "help":
			fmt.Fprint(s.out, helpText+"\n")
			continue
		case "reset":
			s.agent.Reset()
			fmt.Fprintln(s.out, "\nConversation history cleared.")
			fmt.Fprintln(s.out)
			continue
		}

		spinner := NewSpinner(s.out, "Thinking", s.isTTY)
		spinner.Start()
		response, err := s.agent.Chat(ctx, input)
		spinner.Stop()

		if err != nil {
			s.logger.Error("chat turn failed", "error", err)
			fmt.Fprintf(s.out, "\nError: %v\n\n", err)
			continue
		}
		fmt.Fprintf(s.out, "\nAgent: %s\n\n", response)
	}
	return scanner.Err()
}

func (s *Shell) printBanner() {
	line := strings.Repeat("=", 60)
	fmt.Fprintln(s.out, line)
	fmt.Fprintln(s.out, "  Ticketing Agent CLI")
	fmt.Fprintln(s.out, line)
	fmt.Fprintf(s.out, "API URL: %s\n", s.apiURL)
	fmt.Fprintln(s.out, "\nType your requests in natural language.")
	fmt.Fprintln(s.out, "Type 'help' for available commands and examples.")
	fmt.Fprintln(s.out, line)
}
