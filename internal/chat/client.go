package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a single chat round trip.
const DefaultTimeout = 2 * time.Minute

// Request is the body posted to /api/chat.
type Request struct {
	Prompt       string `json:"prompt"`
	MCPServerURL string `json:"mcpServerUrl"`
	AccessToken  string `json:"accessToken"`
	OrgID        string `json:"orgId,omitempty"`
}

// ToolCall is one MCP tool invocation reported by the backend.
type ToolCall struct {
	Name   string `json:"name"`
	Result string `json:"result"`
}

// Response is the body returned by /api/chat.
type Response struct {
	Reply     string     `json:"reply,omitempty"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string { return e.Message }

// Sender posts one chat request.
type Sender interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// Client talks to the backend chat API.
type Client struct {
	BaseURL string
	// Timeout applies per request; zero waits indefinitely.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewClient returns a Client for the API rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Timeout:    DefaultTimeout,
		HTTPClient: http.DefaultClient,
	}
}

// Endpoint returns the chat URL for base. A trailing slash on base is dropped.
func Endpoint(base string) string {
	return strings.TrimSuffix(strings.TrimSpace(base), "/") + "/api/chat"
}

// Send posts req and decodes the reply. Non-2xx statuses return *HTTPError
// carrying the body's error field, or "HTTP <status>" when there is none.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, Endpoint(c.BaseURL), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.NewString())

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out Response
	decodeErr := json.Unmarshal(data, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Error
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, &HTTPError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &out, nil
}
