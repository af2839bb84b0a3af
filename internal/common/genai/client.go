// Package genai is a minimal client for OpenAI-compatible chat-completion APIs.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	commonhttp "procurement-ai/internal/common/http"
)

var (
	ErrUpstreamFailed  = errors.New("UPSTREAM_FAILED")
	ErrUpstreamTimeout = errors.New("UPSTREAM_TIMEOUT")
)

const tracerName = "procurement-ai/genai"

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a single system+user exchange that expects a JSON object back.
type CompletionRequest struct {
	SystemPrompt string
	UserContent  string
}

// Completer is the single outbound dependency of every transform.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

type Client struct {
	config *Config
	http   *commonhttp.Client
	tracer trace.Tracer
}

// NewClient builds a client. The API key comes from config; it is never read from the environment here.
// The caller's context is the only deadline, so a nil httpClient gets one without a Client.Timeout.
func NewClient(config *Config, httpClient *commonhttp.Client) *Client {
	if httpClient == nil {
		httpClient = commonhttp.NewClient(0)
	}
	return &Client{
		config: config,
		http:   httpClient,
		tracer: otel.Tracer(tracerName),
	}
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []Message      `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete performs exactly one chat-completion call. Non-2xx responses become
// ErrUpstreamFailed carrying the raw body; context expiry becomes ErrUpstreamTimeout.
// An empty choice list yields "" so the caller can apply its fallback.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := c.tracer.Start(ctx, "genai.chat_completion",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("genai.model", c.config.Model)),
	)
	defer span.End()

	content, err := c.complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return content, err
}

func (c *Client) complete(ctx context.Context, req CompletionRequest) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.config.Model,
		Messages: []Message{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserContent},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrUpstreamFailed, err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstreamFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.DoWithContext(ctx, httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		return "", fmt.Errorf("%w: AI API error: %v", ErrUpstreamFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(ctx, err) {
			return "", fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
		}
		return "", fmt.Errorf("%w: read body: %v", ErrUpstreamFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUpstreamFailed, err)
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return parsed.Choices[0].Message.Content, nil
}

func (c *Client) endpoint() string {
	base := strings.TrimSuffix(c.config.BaseURL, "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return base + "/chat/completions"
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// StatusError is a non-2xx completion API response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return "AI API error: " + e.Body
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamFailed
}
