package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/ticketd-io/ticketd/internal/agent"
	"github.com/ticketd-io/ticketd/internal/tool"
	"github.com/ticketd-io/ticketd/pkg/protocol"
)

type scriptedProvider struct {
	replies []string
	errs    []error
	idx     int
}

func (s *scriptedProvider) Name() string { return "scripted" }

func (s *scriptedProvider) Chat(_ context.Context, _ protocol.ChatRequest) (*protocol.ChatResponse, error) {
	i := s.idx
	s.idx++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	reply := "..."
	if i < len(s.replies) {
		reply = s.replies[i]
	}
	return &protocol.ChatResponse{Content: reply}, nil
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func runShell(t *testing.T, prov *scriptedProvider, input string) (string, *agent.Agent) {
	t.Helper()
	a := agent.New(prov, tool.NewRegistry())
	a.Logger = slog.New(slog.NewTextHandler(discard{}, nil))

	var out strings.Builder
	shell := New(a, "http://localhost:8000/v1",
		WithIO(strings.NewReader(input), &out),
		WithTTY(false),
		WithLogger(a.Logger),
	)
	if err := shell.Run(context.Background()); err != nil {
		t.Fatalf("shell run: %v", err)
	}
	return out.String(), a
}

func TestShell_QuitAndBanner(t *testing.T) {
	out, _ := runShell(t, &scriptedProvider{}, "quit\n")

	if !strings.Contains(out, "Ticketing Agent CLI") {
		t.Errorf("missing banner: %s", out)
	}
	if !strings.Contains(out, "API URL: http://localhost:8000/v1") {
		t.Errorf("missing API URL line: %s", out)
	}
	if !strings.Contains(out, "Goodbye!") {
		t.Errorf("missing goodbye: %s", out)
	}
}

func TestShell_ExitAlias(t *testing.T) {
	out, _ := runShell(t, &scriptedProvider{}, "EXIT\n")
	if !strings.Contains(out, "Goodbye!") {
		t.Errorf("exit must behave like quit: %s", out)
	}
}

func TestShell_Help(t *testing.T) {
	out, _ := runShell(t, &scriptedProvider{}, "help\nquit\n")
	if !strings.Contains(out, "Available Commands:") {
		t.Errorf("missing help text: %s", out)
	}
	if !strings.Contains(out, "Valid Ticket Statuses: OPEN, RESOLVED, CLOSED") {
		t.Errorf("missing status line: %s", out)
	}
}

func TestShell_ChatTurn(t *testing.T) {
	prov := &scriptedProvider{replies: []string{"Hi there!"}}
	out, _ := runShell(t, prov, "hello\nquit\n")

	if !strings.Contains(out, "Agent: Hi there!") {
		t.Errorf("missing agent reply: %s", out)
	}
}

func TestShell_Reset(t *testing.T) {
	prov := &scriptedProvider{replies: []string{"first answer"}}
	out, a := runShell(t, prov, "hello\nreset\nquit\n")

	if !strings.Contains(out, "Conversation history cleared.") {
		t.Errorf("missing reset confirmation: %s", out)
	}
	if len(a.History()) != 1 {
		t.Errorf("expected only the system message after reset, got %d", len(a.History()))
	}
}

func TestShell_ProviderErrorKeepsLoopAlive(t *testing.T) {
	prov := &scriptedProvider{
		errs:    []error{fmt.Errorf("model down"), nil},
		replies: []string{"", "recovered"},
	}
	out, _ := runShell(t, prov, "first\nsecond\nquit\n")

	if !strings.Contains(out, "Error:") || !strings.Contains(out, "model down") {
		t.Errorf("expected printed error: %s", out)
	}
	if !strings.Contains(out, "Agent: recovered") {
		t.Errorf("loop must continue after an error: %s", out)
	}
}

func TestShell_BlankLinesIgnored(t *testing.T) {
	prov := &scriptedProvider{replies: []string{"only once"}}
	out, _ := runShell(t, prov, "\n   \nhello\nquit\n")

	if prov.idx != 1 {
		t.Errorf("blank input must not reach the agent, provider called %d times", prov.idx)
	}
	if !strings.Contains(out, "Agent: only once") {
		t.Errorf("missing reply: %s", out)
	}
}

func TestShell_EOFTerminates(t *testing.T) {
	out, _ := runShell(t, &scriptedProvider{}, "")
	if !strings.Contains(out, "You: ") {
		t.Errorf("prompt must still be printed before EOF: %s", out)
	}
}
