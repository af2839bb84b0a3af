package extraction

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-ai/internal/common/audit"
	"procurement-ai/internal/common/genai"
	"procurement-ai/internal/common/logger"
	"procurement-ai/internal/common/metrics"
)

// ==========================
// Test Doubles
// ==========================

type echoInput struct {
	Text string `json:"text"`
}

type echoFallback struct {
	Text   string `json:"text"`
	Status string `json:"status"`
}

func echoDefinition() Definition[echoInput] {
	return Definition[echoInput]{
		TaskType:      "echo",
		OutputField:   "echoed",
		RequestSchema: `{"type":"object","required":["text"],"properties":{"text":{"type":"string","minLength":1}}}`,
		ResultSchema:  `{"type":"object","properties":{"text":{"type":"string"}}}`,
		BuildPrompt: func(in *echoInput) (genai.CompletionRequest, error) {
			return genai.CompletionRequest{SystemPrompt: "echo", UserContent: in.Text}, nil
		},
		Fallback: func(in *echoInput) interface{} {
			return &echoFallback{Text: in.Text, Status: "unparsed"}
		},
	}
}

type funcCompleter func(ctx context.Context, req genai.CompletionRequest) (string, error)

func (f funcCompleter) Complete(ctx context.Context, req genai.CompletionRequest) (string, error) {
	return f(ctx, req)
}

func constCompleter(content string) funcCompleter {
	return func(context.Context, genai.CompletionRequest) (string, error) { return content, nil }
}

type auditSpy struct {
	mu      sync.Mutex
	entries []audit.Entry
	err     error
}

func (a *auditSpy) Record(ctx context.Context, e audit.Entry) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return "audit-id", a.err
}

type recorderSpy struct {
	outcomes []string
}

func (r *recorderSpy) RecordRequest(ctx context.Context, transform, outcome string, duration time.Duration) {
	r.outcomes = append(r.outcomes, transform+":"+outcome)
}

func newEchoHandler(t *testing.T, completer genai.Completer, config *Config, opts ...Option) *Handler[echoInput] {
	t.Helper()
	if config == nil {
		config = &Config{Timeout: time.Second, MaxBodyBytes: 1 << 10}
	}
	h, err := NewHandler(echoDefinition(), config, completer, logger.NewTestLogger(t), opts...)
	require.NoError(t, err)
	return h
}

func doRequest(h http.Handler, method, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/functions/v1/echo", strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ==========================
// Tests
// ==========================

func TestNewHandler_InvalidSchema(t *testing.T) {
	def := echoDefinition()
	def.RequestSchema = `{"type": 12}`

	_, err := NewHandler(def, &Config{}, constCompleter(`{}`), logger.NewNoOpLogger())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "echo: compile request schema")
}

func TestResult_MarshalJSON(t *testing.T) {
	ok, err := (&Result{Field: "structured", Value: map[string]int{"a": 1}}).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"structured":{"a":1}}`, string(ok))

	degraded, err := (&Result{Field: "parsed", Value: map[string]int{"a": 1}, Degraded: true}).MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"parsed":{"a":1},"degraded":true}`, string(degraded))
}

func TestHandler_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		completer   funcCompleter
		body        string
		wantStatus  int
		wantBody    string
		wantOutcome string
		wantCode    string
	}{
		{
			name:        "success",
			completer:   constCompleter(`{"text":"hi"}`),
			body:        `{"text":"hi"}`,
			wantStatus:  http.StatusOK,
			wantBody:    `{"echoed":{"text":"hi"}}`,
			wantOutcome: metrics.OutcomeSuccess,
		},
		{
			name:        "degraded",
			completer:   constCompleter(`hi there`),
			body:        `{"text":"hi"}`,
			wantStatus:  http.StatusOK,
			wantBody:    `{"echoed":{"text":"hi","status":"unparsed"},"degraded":true}`,
			wantOutcome: metrics.OutcomeDegraded,
		},
		{
			name:        "rejected",
			completer:   constCompleter(`{}`),
			body:        `{}`,
			wantStatus:  http.StatusBadRequest,
			wantBody:    `{"error":"text is required"}`,
			wantOutcome: metrics.OutcomeRejected,
			wantCode:    "VALIDATION_FAILED",
		},
		{
			name: "upstream failure",
			completer: func(context.Context, genai.CompletionRequest) (string, error) {
				return "", &genai.StatusError{StatusCode: http.StatusTooManyRequests, Body: "rate limited"}
			},
			body:        `{"text":"hi"}`,
			wantStatus:  http.StatusInternalServerError,
			wantBody:    `{"error":"AI API error: rate limited"}`,
			wantOutcome: metrics.OutcomeFailed,
			wantCode:    "UPSTREAM_FAILED",
		},
		{
			name: "unexpected completer error",
			completer: func(context.Context, genai.CompletionRequest) (string, error) {
				return "", errors.New("boom")
			},
			body:        `{"text":"hi"}`,
			wantStatus:  http.StatusInternalServerError,
			wantBody:    `{"error":"boom"}`,
			wantOutcome: metrics.OutcomeFailed,
			wantCode:    "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &auditSpy{}
			rec := &recorderSpy{}
			h := newEchoHandler(t, tt.completer, nil, WithAudit(spy), WithRequestRecorder(rec))

			resp := doRequest(h, http.MethodPost, tt.body, map[string]string{RequestIDHeader: "req-42"})

			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.JSONEq(t, tt.wantBody, resp.Body.String())
			assert.Equal(t, "req-42", resp.Header().Get(RequestIDHeader))
			assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))

			require.Len(t, spy.entries, 1)
			entry := spy.entries[0]
			assert.Equal(t, "req-42", entry.RequestID)
			assert.Equal(t, "echo", entry.Transform)
			assert.Equal(t, tt.wantOutcome, entry.Outcome)
			assert.Equal(t, tt.wantStatus, entry.StatusCode)
			assert.Equal(t, tt.wantCode, entry.ErrorCode)
			assert.Equal(t, tt.wantOutcome == metrics.OutcomeDegraded, entry.Degraded)

			assert.Equal(t, []string{"echo:" + tt.wantOutcome}, rec.outcomes)
		})
	}
}

func TestHandler_GeneratesRequestID(t *testing.T) {
	h := newEchoHandler(t, constCompleter(`{}`), nil)

	resp := doRequest(h, http.MethodPost, `{"text":"hi"}`, nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, resp.Header().Get(RequestIDHeader), 36)
}

func TestHandler_AuditFailureDoesNotChangeResponse(t *testing.T) {
	spy := &auditSpy{err: errors.New("connection refused")}
	h := newEchoHandler(t, constCompleter(`{"text":"hi"}`), nil, WithAudit(spy))

	resp := doRequest(h, http.MethodPost, `{"text":"hi"}`, nil)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"echoed":{"text":"hi"}}`, resp.Body.String())
	assert.Len(t, spy.entries, 1)
}

func TestHandler_BodyTooLarge(t *testing.T) {
	calls := 0
	completer := funcCompleter(func(context.Context, genai.CompletionRequest) (string, error) {
		calls++
		return `{}`, nil
	})
	h := newEchoHandler(t, completer, &Config{Timeout: time.Second, MaxBodyBytes: 16})

	resp := doRequest(h, http.MethodPost, `{"text":"`+strings.Repeat("x", 64)+`"}`, nil)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, 0, calls)
}

func TestHandler_Timeout(t *testing.T) {
	completer := funcCompleter(func(ctx context.Context, _ genai.CompletionRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	h := newEchoHandler(t, completer, &Config{Timeout: 20 * time.Millisecond})

	start := time.Now()
	resp := doRequest(h, http.MethodPost, `{"text":"hi"}`, nil)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.JSONEq(t, `{"error":"AI API error: request timed out"}`, resp.Body.String())
}

func TestHandler_ExecuteInputSkipsValidation(t *testing.T) {
	var got genai.CompletionRequest
	completer := funcCompleter(func(_ context.Context, req genai.CompletionRequest) (string, error) {
		got = req
		return `{"text":"ok"}`, nil
	})
	h := newEchoHandler(t, completer, nil)

	result, err := h.ExecuteInput(context.Background(), &echoInput{Text: ""})

	require.NoError(t, err)
	assert.False(t, result.Degraded)
	assert.Equal(t, "echoed", result.Field)
	assert.Equal(t, "echo", got.SystemPrompt)
	assert.Equal(t, "echo", h.TaskType())
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("redis down")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis down")
}

func TestHandler_CacheErrorsAreIgnored(t *testing.T) {
	calls := 0
	completer := funcCompleter(func(context.Context, genai.CompletionRequest) (string, error) {
		calls++
		return `{"text":"hi"}`, nil
	})
	config := &Config{Timeout: time.Second, CacheTTL: time.Minute}
	h := newEchoHandler(t, completer, config, WithCache(failingCache{}, func(transform string, canonical []byte) string {
		return transform + ":" + string(canonical)
	}))

	first := doRequest(h, http.MethodPost, `{"text":"hi"}`, nil)
	second := doRequest(h, http.MethodPost, `{"text":"hi"}`, nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 2, calls)
}
