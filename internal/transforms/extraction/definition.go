// Package extraction implements the shared request skeleton of every
// structured-extraction transform: CORS preflight, request validation, one
// completion call, JSON parsing with a deterministic fallback, and a uniform
// error envelope.
package extraction

import (
	"encoding/json"
	"time"

	"procurement-ai/internal/common/genai"
)

// Definition parameterizes the skeleton for one transform.
type Definition[T any] struct {
	// TaskType names the transform in logs, metrics, audit rows and cache keys.
	TaskType string

	// OutputField is the key of the result in the success envelope.
	OutputField string

	// RequestSchema is a JSON schema for the request body. Required fields and
	// minLength/minItems violations are reported as "<field> is required".
	RequestSchema string

	// RequiredMessages overrides the validation message for a field.
	RequiredMessages map[string]string

	// ResultSchema describes the expected model output. Mismatches are logged
	// but never change the returned value.
	ResultSchema string

	BuildPrompt func(in *T) (genai.CompletionRequest, error)

	// Fallback builds the value returned when the model output is not JSON.
	Fallback func(in *T) interface{}
}

type Config struct {
	Timeout      time.Duration
	CacheTTL     time.Duration
	MaxBodyBytes int64
}

// Result is the success envelope: {<OutputField>: Value} plus degraded=true
// when Value is the fallback object.
type Result struct {
	Field    string
	Value    interface{}
	Degraded bool
	Cached   bool
}

func (r *Result) MarshalJSON() ([]byte, error) {
	body := map[string]interface{}{r.Field: r.Value}
	if r.Degraded {
		body["degraded"] = true
	}
	return json.Marshal(body)
}
