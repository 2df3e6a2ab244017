package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ticketd-io/ticketd/pkg/protocol"
)

func TestAzure_Chat(t *testing.T) {
	var gotPath, gotVersion, gotKey, gotAuth string
	var gotBody map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotVersion = r.URL.Query().Get("api-version")
		gotKey = r.Header.Get("api-key")
		gotAuth = r.Header.Get("Authorization")
		gotBody = completionBody(t, r)
		json.NewEncoder(w).Encode(textCompletion("Hello from Azure"))
	}))
	defer ts.Close()

	p := NewAzure(ts.URL, "azure-key", "gpt-5-mini")
	resp, err := p.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if gotPath != "/openai/deployments/gpt-5-mini/chat/completions" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotVersion != defaultAzureAPIVersion {
		t.Errorf("unexpected api-version %q", gotVersion)
	}
	if gotKey != "azure-key" {
		t.Errorf("expected api-key header, got %q", gotKey)
	}
	if gotAuth != "" {
		t.Errorf("Azure must not use bearer auth, got %q", gotAuth)
	}
	if gotBody["model"] != "gpt-5-mini" {
		t.Errorf("unexpected model %v", gotBody["model"])
	}
	if resp.Content != "Hello from Azure" {
		t.Errorf("unexpected content %q", resp.Content)
	}
}

func TestAzure_APIVersionOverride(t *testing.T) {
	var gotVersion string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotVersion = r.URL.Query().Get("api-version")
		json.NewEncoder(w).Encode(textCompletion("ok"))
	}))
	defer ts.Close()

	p := NewAzure(ts.URL, "k", "dep", WithAzureAPIVersion("2025-01-01"))
	p.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{{Role: "user", Content: "hi"}},
	})

	if gotVersion != "2025-01-01" {
		t.Errorf("api-version override ignored, got %q", gotVersion)
	}
}

func TestAzure_TrailingSlashEndpoint(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(textCompletion("ok"))
	}))
	defer ts.Close()

	p := NewAzure(ts.URL+"/", "k", "dep")
	p.Chat(context.Background(), protocol.ChatRequest{
		Messages: []protocol.ChatMessage{{Role: "user", Content: "hi"}},
	})

	if gotPath != "/openai/deployments/dep/chat/completions" {
		t.Errorf("trailing slash mishandled: %q", gotPath)
	}
}

func TestAzure_ModelSelectsDeployment(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(textCompletion("ok"))
	}))
	defer ts.Close()

	p := NewAzure(ts.URL, "k", "default-dep")
	p.Chat(context.Background(), protocol.ChatRequest{
		Model:    "other-dep",
		Messages: []protocol.ChatMessage{{Role: "user", Content: "hi"}},
	})

	if gotPath != "/openai/deployments/other-dep/chat/completions" {
		t.Errorf("per-request deployment ignored: %q", gotPath)
	}
}
