package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/ticketd-io/ticketd/internal/client"
	"github.com/ticketd-io/ticketd/internal/tool"
	"github.com/ticketd-io/ticketd/pkg/protocol"
)

// mockProvider is a test provider that returns a sequence of responses.
type mockProvider struct {
	responses []*protocol.ChatResponse
	callIdx   int
	calls     []protocol.ChatRequest // recorded requests
	err       error
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Chat(_ context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error) {
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.callIdx >= len(m.responses) {
		return nil, fmt.Errorf("mock: no more responses (call %d)", m.callIdx)
	}
	resp := m.responses[m.callIdx]
	m.callIdx++
	return resp, nil
}

// loopingProvider always requests the same tool call.
type loopingProvider struct {
	calls int
}

func (p *loopingProvider) Name() string { return "looping" }

func (p *loopingProvider) Chat(_ context.Context, _ protocol.ChatRequest) (*protocol.ChatResponse, error) {
	p.calls++
	return &protocol.ChatResponse{
		ToolCalls: []protocol.ToolCall{
			{ID: fmt.Sprintf("call_%d", p.calls), Name: "list_tickets", Arguments: map[string]any{}},
		},
	}, nil
}

// fakeTicketAPI returns canned results and counts invocations.
type fakeTicketAPI struct {
	listResult   client.Result
	updateResult client.Result
	listCalls    int
}

func (f *fakeTicketAPI) CreateTicket(_ context.Context, title, description string) client.Result {
	return client.Ok(map[string]any{"id": "t1", "title": title, "description": description})
}

func (f *fakeTicketAPI) ListTickets(_ context.Context, _ string) client.Result {
	f.listCalls++
	return f.listResult
}

func (f *fakeTicketAPI) GetTicket(_ context.Context, id string) client.Result {
	return client.Ok(map[string]any{"id": id})
}

func (f *fakeTicketAPI) UpdateTicket(_ context.Context, _ string, _ protocol.TicketUpdate) client.Result {
	return f.updateResult
}

func (f *fakeTicketAPI) DeleteTicket(_ context.Context, _ string) client.Result {
	return client.Ok(nil)
}

// chatProvider mirrors provider.Provider so fakes stay local.
type chatProvider interface {
	Chat(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error)
	Name() string
}

func newTestAgent(prov chatProvider, api tool.TicketAPI) *Agent {
	reg := tool.NewRegistry()
	tool.RegisterTicketTools(reg, api)
	a := New(prov, reg)
	a.Logger = slog.New(slog.NewTextHandler(discard{}, nil))
	return a
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestChat_DirectResponse(t *testing.T) {
	prov := &mockProvider{
		responses: []*protocol.ChatResponse{
			{Content: "Hello!"},
		},
	}
	a := newTestAgent(prov, &fakeTicketAPI{})

	result, err := a.Chat(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Hello!" {
		t.Errorf("expected 'Hello!', got %q", result)
	}
	if len(prov.calls) != 1 {
		t.Errorf("expected 1 provider call, got %d", len(prov.calls))
	}

	msgs := a.History()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages (system+user+assistant), got %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[1].Role != "user" || msgs[2].Role != "assistant" {
		t.Errorf("unexpected roles: %s %s %s", msgs[0].Role, msgs[1].Role, msgs[2].Role)
	}
}

func TestChat_ListTicketsScenario(t *testing.T) {
	// User asks for open tickets, model calls list_tickets, store is empty,
	// model answers. State must be exactly system+user+assistant(tool
	// request)+tool(result)+assistant(final) = 5 messages.
	prov := &mockProvider{
		responses: []*protocol.ChatResponse{
			{
				ToolCalls: []protocol.ToolCall{
					{ID: "call_1", Name: "list_tickets", Arguments: map[string]any{"status": "OPEN"}},
				},
			},
			{Content: "You have no open tickets."},
		},
	}
	api := &fakeTicketAPI{listResult: client.Ok([]any{})}
	a := newTestAgent(prov, api)

	result, err := a.Chat(context.Background(), "List all open tickets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "You have no open tickets." {
		t.Errorf("expected final answer, got %q", result)
	}
	if api.listCalls != 1 {
		t.Errorf("expected 1 list call, got %d", api.listCalls)
	}

	msgs := a.History()
	if len(msgs) != 5 {
		t.Fatalf("expected 5 messages, got %d", len(msgs))
	}
	wantRoles := []string{"system", "user", "assistant", "tool", "assistant"}
	for i, role := range wantRoles {
		if msgs[i].Role != role {
			t.Errorf("message %d: expected role %q, got %q", i, role, msgs[i].Role)
		}
	}
	if msgs[3].ToolCallID != "call_1" {
		t.Errorf("tool result should carry call_1, got %q", msgs[3].ToolCallID)
	}
	if !strings.Contains(msgs[3].Content, `"success": true`) {
		t.Errorf("tool result should be a success payload, got %q", msgs[3].Content)
	}
}

func TestChat_MultipleToolCallsKeepOrder(t *testing.T) {
	prov := &mockProvider{
		responses: []*protocol.ChatResponse{
			{
				ToolCalls: []protocol.ToolCall{
					{ID: "call_a", Name: "get_ticket", Arguments: map[string]any{"ticket_id": "t1"}},
					{ID: "call_b", Name: "get_ticket", Arguments: map[string]any{"ticket_id": "t2"}},
					{ID: "call_c", Name: "list_tickets", Arguments: map[string]any{}},
				},
			},
			{Content: "done"},
		},
	}
	a := newTestAgent(prov, &fakeTicketAPI{listResult: client.Ok([]any{})})

	if _, err := a.Chat(context.Background(), "check a few tickets"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := a.History()
	// system, user, assistant, tool x3, assistant
	if len(msgs) != 7 {
		t.Fatalf("expected 7 messages, got %d", len(msgs))
	}
	wantIDs := []string{"call_a", "call_b", "call_c"}
	for i, id := range wantIDs {
		m := msgs[3+i]
		if m.Role != "tool" {
			t.Errorf("message %d: expected tool role, got %q", 3+i, m.Role)
		}
		if m.ToolCallID != id {
			t.Errorf("message %d: expected call id %q, got %q", 3+i, id, m.ToolCallID)
		}
	}
}

func TestChat_UnknownToolBecomesFailureResult(t *testing.T) {
	prov := &mockProvider{
		responses: []*protocol.ChatResponse{
			{
				ToolCalls: []protocol.ToolCall{
					{ID: "call_1", Name: "reboot_server", Arguments: map[string]any{}},
				},
			},
			{Content: "Sorry, I can't do that."},
		},
	}
	a := newTestAgent(prov, &fakeTicketAPI{})

	result, err := a.Chat(context.Background(), "reboot the server")
	if err != nil {
		t.Fatalf("unknown tool must not raise: %v", err)
	}
	if result != "Sorry, I can't do that." {
		t.Errorf("expected final answer, got %q", result)
	}

	// The failure result is visible to the model on the next iteration.
	second := prov.calls[1].Messages
	toolMsg := second[len(second)-1]
	if toolMsg.Role != "tool" {
		t.Fatalf("expected tool message, got %q", toolMsg.Role)
	}
	if !strings.Contains(toolMsg.Content, "Unknown tool: reboot_server") {
		t.Errorf("expected unknown-tool error in result, got %q", toolMsg.Content)
	}
	if !strings.Contains(toolMsg.Content, `"status_code": null`) {
		t.Errorf("synthetic failure should carry a null status code, got %q", toolMsg.Content)
	}
}

func TestChat_APIErrorTextReachesModel(t *testing.T) {
	code := 422
	detail := "Resolution is required when setting status to RESOLVED"
	prov := &mockProvider{
		responses: []*protocol.ChatResponse{
			{
				ToolCalls: []protocol.ToolCall{
					{ID: "call_1", Name: "update_ticket", Arguments: map[string]any{
						"ticket_id": "t1", "status": "RESOLVED",
					}},
				},
			},
			{Content: "A resolution note is needed first."},
		},
	}
	api := &fakeTicketAPI{updateResult: client.Fail(&code, detail)}
	a := newTestAgent(prov, api)

	if _, err := a.Chat(context.Background(), "resolve t1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := prov.calls[1].Messages
	toolMsg := second[len(second)-1]
	if !strings.Contains(toolMsg.Content, detail) {
		t.Errorf("expected %q in tool result, got %q", detail, toolMsg.Content)
	}
	if !strings.Contains(toolMsg.Content, `"status_code": 422`) {
		t.Errorf("expected status code 422 in tool result, got %q", toolMsg.Content)
	}
}

func TestChat_IterationCapReturnsApology(t *testing.T) {
	prov := &loopingProvider{}
	api := &fakeTicketAPI{listResult: client.Ok([]any{})}
	a := newTestAgent(prov, api)

	result, err := a.Chat(context.Background(), "loop forever")
	if err != nil {
		t.Fatalf("cap exhaustion must not be an error: %v", err)
	}
	if result != apologyMessage {
		t.Errorf("expected apology, got %q", result)
	}
	if prov.calls != defaultMaxIterations {
		t.Errorf("expected %d provider calls, got %d", defaultMaxIterations, prov.calls)
	}
	if api.listCalls != defaultMaxIterations {
		t.Errorf("expected %d tool invocations, got %d", defaultMaxIterations, api.listCalls)
	}
}

func TestChat_ProviderErrorPropagates(t *testing.T) {
	prov := &mockProvider{err: fmt.Errorf("boom")}
	a := newTestAgent(prov, &fakeTicketAPI{})

	if _, err := a.Chat(context.Background(), "hello"); err == nil {
		t.Fatal("expected provider error to propagate")
	}
}

func TestChat_EmptyContentReturnsEmptyString(t *testing.T) {
	prov := &mockProvider{
		responses: []*protocol.ChatResponse{{Content: ""}},
	}
	a := newTestAgent(prov, &fakeTicketAPI{})

	result, err := a.Chat(context.Background(), "say nothing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestTrimHistory_KeepsSystemAndRecent(t *testing.T) {
	prov := &loopingProvider{}
	a := newTestAgent(prov, &fakeTicketAPI{listResult: client.Ok([]any{})})
	a.MaxHistory = 10

	// One capped turn appends 1 user + 10*(assistant+tool) = 21 messages.
	if _, err := a.Chat(context.Background(), "loop"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := a.History()
	if len(msgs) != 10 {
		t.Fatalf("expected history trimmed to 10, got %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != SystemPrompt {
		t.Errorf("system message must survive trimming")
	}
	// The tail must be the most recent messages: last one is the final
	// tool result of the capped turn.
	last := msgs[len(msgs)-1]
	if last.Role != "tool" {
		t.Errorf("expected most recent message retained, got role %q", last.Role)
	}
}

func TestTrimHistory_NotTriggeredBelowLimit(t *testing.T) {
	prov := &mockProvider{
		responses: []*protocol.ChatResponse{{Content: "hi"}},
	}
	a := newTestAgent(prov, &fakeTicketAPI{})

	if _, err := a.Chat(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.History()) != 3 {
		t.Errorf("short conversations must not be trimmed, got %d messages", len(a.History()))
	}
}

func TestReset_RestoresInitialSystemMessage(t *testing.T) {
	prov := &mockProvider{
		responses: []*protocol.ChatResponse{{Content: "hi"}},
	}
	a := newTestAgent(prov, &fakeTicketAPI{})

	if _, err := a.Chat(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.Reset()

	msgs := a.History()
	if len(msgs) != 1 {
		t.Fatalf("expected exactly 1 message after reset, got %d", len(msgs))
	}
	if msgs[0].Role != "system" || msgs[0].Content != SystemPrompt {
		t.Errorf("reset message must be byte-identical to the initial system message")
	}
}

func TestChat_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prov := &mockProvider{
		responses: []*protocol.ChatResponse{{Content: "never"}},
	}
	a := newTestAgent(prov, &fakeTicketAPI{})

	if _, err := a.Chat(ctx, "hello"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
