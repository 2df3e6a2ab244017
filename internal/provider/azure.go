package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ticketd-io/ticketd/pkg/protocol"
)

const defaultAzureAPIVersion = "2024-12-01-preview"

// AzureProvider implements Provider for Azure OpenAI deployments. The wire
// format matches the OpenAI chat-completions API; only the URL scheme and
// auth header differ.
type AzureProvider struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
}

// AzureOption configures an AzureProvider.
type AzureOption func(*AzureProvider)

// WithAzureAPIVersion overrides the api-version query parameter.
func WithAzureAPIVersion(version string) AzureOption {
	return func(p *AzureProvider) { p.apiVersion = version }
}

// WithAzureHTTPClient sets a custom HTTP client.
func WithAzureHTTPClient(c *http.Client) AzureOption {
	return func(p *AzureProvider) { p.client = c }
}

// NewAzure creates a provider for the given Azure OpenAI endpoint and
// deployment name.
func NewAzure(endpoint, apiKey, deployment string, opts ...AzureOption) *AzureProvider {
	p := &AzureProvider{
		client:     &http.Client{Timeout: 120 * time.Second},
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		deployment: deployment,
		apiVersion: defaultAzureAPIVersion,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *AzureProvider) Name() string { return "azure-openai" }

func (p *AzureProvider) Chat(ctx context.Context, req protocol.ChatRequest) (*protocol.ChatResponse, error) {
	deployment := req.Model
	if deployment == "" {
		deployment = p.deployment
	}
	chatURL := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		p.endpoint, url.PathEscape(deployment), url.QueryEscape(p.apiVersion))

	return doChat(ctx, p.client, chatURL, map[string]string{
		"api-key": p.apiKey,
	}, deployment, req)
}
