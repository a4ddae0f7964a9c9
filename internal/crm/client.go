// Package crm is the HTTP client of the external customer-chat API.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/spherical-ai/spherical/libs/showroom/internal/domain"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
)

const (
	pathSessions        = "/api/public/customer-chat/sessions"
	pathMessages        = "/api/public/customer-chat/messages"
	pathAIResponse      = "/api/public/customer-chat/ai-response"
	pathOperatorRequest = "/api/public/customer-chat/operator-request"
)

// Customer is the contact data required to open a session.
type Customer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// MessageType tags a persisted message with its author.
type MessageType string

const (
	MessageTypeCustomer MessageType = "customer"
	MessageTypeOperator MessageType = "operator"
	MessageTypeAI       MessageType = "ai"
)

// Config holds client configuration.
type Config struct {
	BaseURL string
	// RequestTimeout bounds the plain JSON calls.
	RequestTimeout time.Duration
	// StreamTimeout bounds a whole ai-response stream.
	StreamTimeout time.Duration
	// Tracing wraps the transport with OpenTelemetry instrumentation.
	Tracing bool
	// Transport overrides the base round tripper.
	Transport http.RoundTripper
}

// Client talks to the customer-chat API. Calls are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cfg        Config
	logger     *observability.Logger
}

// NewClient creates a new CRM client.
func NewClient(cfg Config, logger *observability.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, domain.ConfigError("crm base url is required", nil)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = observability.Nop()
	}

	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if cfg.Tracing {
		transport = otelhttp.NewTransport(transport)
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Transport: transport},
		cfg:        cfg,
		logger:     logger.WithComponent("crm"),
	}, nil
}

type errorBody struct {
	Error string `json:"error"`
}

// CreateSession registers the customer and returns the issued session id.
func (c *Client) CreateSession(ctx context.Context, customer Customer) (string, error) {
	var out struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.postJSON(ctx, pathSessions, customer, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", domain.APIError("session response carried no sessionId", nil)
	}
	return out.SessionID, nil
}

// SaveMessage persists one transcript message.
func (c *Client) SaveMessage(ctx context.Context, sessionID, message string, kind MessageType) error {
	body := struct {
		SessionID   string      `json:"sessionId"`
		Message     string      `json:"message"`
		MessageType MessageType `json:"messageType"`
	}{sessionID, message, kind}
	return c.postJSON(ctx, pathMessages, body, nil)
}

// RequestOperator asks for a human operator to take over the session.
func (c *Client) RequestOperator(ctx context.Context, sessionID string) error {
	body := struct {
		SessionID string `json:"sessionId"`
	}{sessionID}
	return c.postJSON(ctx, pathOperatorRequest, body, nil)
}

// StreamAIResponse requests an AI reply to message and calls onChunk with
// every content fragment as it arrives. It returns once the stream ends.
func (c *Client) StreamAIResponse(ctx context.Context, sessionID, message string, onChunk func(string)) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StreamTimeout)
	defer cancel()

	body := struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}{sessionID, message}

	resp, err := c.do(ctx, pathAIResponse, body, "text/event-stream")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	start := time.Now()
	if err := NewStreamParser(resp.Body).Each(onChunk); err != nil {
		return domain.APIError("read ai response stream", err)
	}
	c.logger.WithContext(ctx).Debug().Dur("duration", time.Since(start)).Msg("AI response stream finished")
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	resp, err := c.do(ctx, path, in, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.APIError("decode "+path+" response", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, in interface{}, accept string) (*http.Response, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, domain.APIError("marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, domain.APIError("create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	if traceID := observability.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Request-Id", traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithContext(ctx).Warn().Err(err).Str("path", path).Msg("CRM request failed")
		return nil, domain.APIError("send "+path, err)
	}
	return resp, nil
}

// checkStatus turns a non-2xx response into an API error carrying the
// server's {"error": "..."} message when present.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil && eb.Error != "" {
		return domain.APIError(eb.Error, &StatusError{Code: resp.StatusCode})
	}
	return domain.APIError(fmt.Sprintf("crm returned status %d", resp.StatusCode), &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))})
}

// StatusError is the HTTP status of a failed call.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("status %d: %s", e.Code, e.Body)
	}
	return fmt.Sprintf("status %d", e.Code)
}
