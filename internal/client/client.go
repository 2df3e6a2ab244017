// Package client is the typed boundary to the ticketing REST API. Every
// call, whether it succeeds, is rejected, or never reaches the service,
// is normalized into a Result.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/ticketd-io/ticketd/pkg/protocol"
)

// DefaultBaseURL is the local ticketing API.
const DefaultBaseURL = "http://localhost:8000/v1"

const apiKeyHeader = "X-API-Key"

// Client calls the ticketing API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the X-API-Key header value.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the API at baseURL (DefaultBaseURL if empty).
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateTicket creates a new ticket.
func (c *Client) CreateTicket(ctx context.Context, title, description string) Result {
	return c.request(ctx, http.MethodPost, "/tickets", nil, protocol.TicketCreate{
		Title:       title,
		Description: description,
	})
}

// ListTickets lists all tickets, optionally filtered by status.
func (c *Client) ListTickets(ctx context.Context, status string) Result {
	var query url.Values
	if status != "" {
		query = url.Values{"status": []string{status}}
	}
	return c.request(ctx, http.MethodGet, "/tickets", query, nil)
}

// GetTicket fetches a single ticket by ID.
func (c *Client) GetTicket(ctx context.Context, ticketID string) Result {
	return c.request(ctx, http.MethodGet, "/tickets/"+url.PathEscape(ticketID), nil, nil)
}

// UpdateTicket applies a partial update to a ticket.
func (c *Client) UpdateTicket(ctx context.Context, ticketID string, upd protocol.TicketUpdate) Result {
	return c.request(ctx, http.MethodPatch, "/tickets/"+url.PathEscape(ticketID), nil, upd)
}

// DeleteTicket deletes a ticket by ID.
func (c *Client) DeleteTicket(ctx context.Context, ticketID string) Result {
	return c.request(ctx, http.MethodDelete, "/tickets/"+url.PathEscape(ticketID), nil, nil)
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any) Result {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	c.logger.Debug("api request", "method", method, "url", u)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Fail(nil, fmt.Sprintf("Failed to encode request body: %v", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return Fail(nil, fmt.Sprintf("Failed to build request: %v", err))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.transportFailure(err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp)
}

// transportFailure maps connection and timeout errors to results with a nil
// status code, the sentinel callers use for "could not reach the service".
func (c *Client) transportFailure(err error) Result {
	var netErr net.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())
	if timedOut {
		c.logger.Error("request timed out", "error", err)
		return Fail(nil, fmt.Sprintf("Request timed out: %v", err))
	}
	c.logger.Error("connection failed", "error", err)
	return Fail(nil, fmt.Sprintf("Failed to connect to API: %v", err))
}

func (c *Client) handleResponse(resp *http.Response) Result {
	c.logger.Debug("api response", "status", resp.StatusCode, "url", resp.Request.URL.String())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportFailure(err)
	}

	if resp.StatusCode >= 400 {
		detail := errorDetail(raw)
		c.logger.Warn("api error", "status", resp.StatusCode, "detail", detail)
		code := resp.StatusCode
		return Fail(&code, detail)
	}

	if resp.StatusCode == http.StatusNoContent {
		return Ok(nil)
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		code := resp.StatusCode
		return Fail(&code, fmt.Sprintf("Invalid JSON in response body: %v", err))
	}
	return Ok(data)
}

// errorDetail extracts the "detail" field from an error body, falling back
// to the raw response text.
func errorDetail(raw []byte) string {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		if detail, ok := body["detail"]; ok {
			if s, ok := detail.(string); ok {
				return s
			}
			if out, err := json.Marshal(detail); err == nil {
				return string(out)
			}
		}
	}
	return string(raw)
}
