package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"procurement-ai/internal/common/audit"
	apperrors "procurement-ai/internal/common/errors"
	"procurement-ai/internal/common/genai"
	"procurement-ai/internal/common/logger"
	"procurement-ai/internal/common/metrics"
)

const RequestIDHeader = "X-Request-Id"

// CORSHeaders are set on every response, including errors and preflight.
var CORSHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
}

type ResultCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) (string, error)
}

type RequestRecorder interface {
	RecordRequest(ctx context.Context, transform, outcome string, duration time.Duration)
}

type Option func(*options)

type options struct {
	cache    ResultCache
	audit    AuditRecorder
	recorder RequestRecorder
	cacheKey func(transform string, canonical []byte) string
}

// WithCache enables the result cache. keyFn derives the key from the transform
// name and the canonical request.
func WithCache(c ResultCache, keyFn func(transform string, canonical []byte) string) Option {
	return func(o *options) {
		o.cache = c
		o.cacheKey = keyFn
	}
}

func WithAudit(a AuditRecorder) Option {
	return func(o *options) { o.audit = a }
}

func WithRequestRecorder(r RequestRecorder) Option {
	return func(o *options) { o.recorder = r }
}

type Handler[T any] struct {
	def           Definition[T]
	config        *Config
	completer     genai.Completer
	logger        logger.Logger
	errors        *apperrors.ErrorHandler
	requestSchema *gojsonschema.Schema
	resultSchema  *gojsonschema.Schema
	opts          options
}

// NewHandler compiles the definition's schemas and returns a ready handler.
func NewHandler[T any](def Definition[T], config *Config, completer genai.Completer, log logger.Logger, opts ...Option) (*Handler[T], error) {
	requestSchema, err := compileSchema(def.RequestSchema)
	if err != nil {
		return nil, fmt.Errorf("%s: compile request schema: %w", def.TaskType, err)
	}
	resultSchema, err := compileSchema(def.ResultSchema)
	if err != nil {
		return nil, fmt.Errorf("%s: compile result schema: %w", def.TaskType, err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log = log.WithFields(map[string]interface{}{"taskType": def.TaskType})

	return &Handler[T]{
		def:           def,
		config:        config,
		completer:     completer,
		logger:        log,
		errors:        apperrors.NewErrorHandler(log),
		requestSchema: requestSchema,
		resultSchema:  resultSchema,
		opts:          o,
	}, nil
}

func (h *Handler[T]) TaskType() string {
	return h.def.TaskType
}

func (h *Handler[T]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for k, v := range CORSHeaders {
		w.Header().Set(k, v)
	}

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		h.errors.HandleRequestError(w, r, apperrors.NewMethodNotAllowedError(r.Method))
		return
	}

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	w.Header().Set(RequestIDHeader, requestID)

	start := time.Now()
	metrics.TransformRequestsActive.WithLabelValues(h.def.TaskType).Inc()
	defer metrics.TransformRequestsActive.WithLabelValues(h.def.TaskType).Dec()

	h.logger.Info("processing request", map[string]interface{}{
		"requestId": requestID,
	})

	var (
		result *Result
		err    error
	)
	body, readErr := h.readBody(w, r)
	if readErr != nil {
		err = apperrors.NewInvalidRequestBodyError(readErr)
	} else {
		result, err = h.Execute(r.Context(), body)
	}

	entry := audit.Entry{
		RequestID: requestID,
		Transform: h.def.TaskType,
		CreatedAt: start.UTC(),
	}

	if err != nil {
		stdErr := h.errors.HandleRequestError(w, r, err)
		entry.StatusCode = apperrors.HTTPStatus(stdErr.Code)
		entry.ErrorCode = string(stdErr.Code)
		entry.Outcome = metrics.OutcomeFailed
		if apperrors.IsClientError(stdErr.Code) {
			entry.Outcome = metrics.OutcomeRejected
		}
	} else {
		apperrors.WriteJSON(w, http.StatusOK, result)
		entry.StatusCode = http.StatusOK
		entry.Degraded = result.Degraded
		switch {
		case result.Cached:
			entry.Outcome = metrics.OutcomeCacheHit
		case result.Degraded:
			entry.Outcome = metrics.OutcomeDegraded
		default:
			entry.Outcome = metrics.OutcomeSuccess
		}
	}

	entry.Duration = time.Since(start)
	h.finish(r.Context(), entry)
}

func (h *Handler[T]) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	reader := io.Reader(r.Body)
	if h.config.MaxBodyBytes > 0 {
		reader = http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)
	}
	return io.ReadAll(reader)
}

func (h *Handler[T]) finish(ctx context.Context, entry audit.Entry) {
	metrics.TransformRequests.WithLabelValues(h.def.TaskType, entry.Outcome).Inc()
	metrics.TransformRequestDuration.WithLabelValues(h.def.TaskType).Observe(entry.Duration.Seconds())

	if h.opts.recorder != nil {
		h.opts.recorder.RecordRequest(ctx, h.def.TaskType, entry.Outcome, entry.Duration)
	}

	if h.opts.audit != nil {
		auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if _, err := h.opts.audit.Record(auditCtx, entry); err != nil {
			h.logger.Warn("audit insert failed", map[string]interface{}{
				"requestId": entry.RequestID,
				"error":     err,
			})
		}
	}
}

// Execute runs the transform on a raw JSON request body.
func (h *Handler[T]) Execute(ctx context.Context, body []byte) (*Result, error) {
	in, err := decodeRequest[T](body, h.requestSchema, h.def.RequiredMessages)
	if err != nil {
		return nil, err
	}
	return h.ExecuteInput(ctx, in)
}

// ExecuteInput runs the transform on an already decoded request. Validation
// against the request schema is skipped.
func (h *Handler[T]) ExecuteInput(ctx context.Context, in *T) (*Result, error) {
	cacheKey := h.lookupKey(in)
	if cacheKey != "" {
		if cached, ok := h.cacheGet(ctx, cacheKey); ok {
			return &Result{Field: h.def.OutputField, Value: cached, Cached: true}, nil
		}
	}

	prompt, err := h.def.BuildPrompt(in)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("build prompt: %w", err))
	}

	callCtx := ctx
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	content, err := h.completer.Complete(callCtx, prompt)
	if err != nil {
		return nil, h.upstreamError(callCtx, err)
	}

	parsed, err := parseModelContent(content)
	if err != nil {
		malformed := apperrors.NewMalformedModelOutputError(err)
		metrics.TransformDegraded.WithLabelValues(h.def.TaskType).Inc()
		h.logger.Warn("model output is not valid JSON, returning fallback", map[string]interface{}{
			"errorCode":     string(malformed.Code),
			"error":         err.Error(),
			"contentLength": len(content),
		})
		return &Result{Field: h.def.OutputField, Value: h.def.Fallback(in), Degraded: true}, nil
	}

	if mismatches := conformanceErrors(h.resultSchema, parsed); len(mismatches) > 0 {
		metrics.TransformSchemaMismatches.WithLabelValues(h.def.TaskType).Inc()
		h.logger.Warn("model output does not match expected shape", map[string]interface{}{
			"mismatches": mismatches,
		})
	}

	if cacheKey != "" {
		h.cacheSet(ctx, cacheKey, parsed)
	}

	h.logger.Info("transform completed", map[string]interface{}{
		"outputField": h.def.OutputField,
		"bytes":       len(parsed),
	})

	return &Result{Field: h.def.OutputField, Value: parsed}, nil
}

func (h *Handler[T]) upstreamError(ctx context.Context, err error) error {
	var stdErr *apperrors.StandardError
	switch {
	case errors.Is(err, genai.ErrUpstreamTimeout), errors.Is(ctx.Err(), context.DeadlineExceeded):
		stdErr = apperrors.NewUpstreamTimeoutError(err)
	case errors.Is(err, genai.ErrUpstreamFailed):
		stdErr = apperrors.NewUpstreamFailedError(err)
	default:
		stdErr = apperrors.NewInternalError(err)
	}
	metrics.TransformUpstreamFailures.WithLabelValues(h.def.TaskType, string(stdErr.Code)).Inc()
	return stdErr
}

func (h *Handler[T]) lookupKey(in *T) string {
	if h.opts.cache == nil || h.config.CacheTTL <= 0 {
		return ""
	}
	canonical, err := json.Marshal(in)
	if err != nil {
		return ""
	}
	return h.opts.cacheKey(h.def.TaskType, canonical)
}

func (h *Handler[T]) cacheGet(ctx context.Context, key string) (json.RawMessage, bool) {
	val, ok, err := h.opts.cache.Get(ctx, key)
	if err != nil {
		h.logger.Warn("result cache read failed", map[string]interface{}{"error": err})
		return nil, false
	}
	if !ok || !json.Valid(val) {
		return nil, false
	}
	return json.RawMessage(val), true
}

func (h *Handler[T]) cacheSet(ctx context.Context, key string, value json.RawMessage) {
	if err := h.opts.cache.Set(ctx, key, value, h.config.CacheTTL); err != nil {
		h.logger.Warn("result cache write failed", map[string]interface{}{"error": err})
	}
}
