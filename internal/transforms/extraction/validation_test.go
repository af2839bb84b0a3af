package extraction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "procurement-ai/internal/common/errors"
)

const testRequestSchema = `{
  "type": "object",
  "required": ["name", "tags"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "tags": {"type": "array", "minItems": 1}
  }
}`

type testInput struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

func TestDecodeRequest(t *testing.T) {
	schema, err := compileSchema(testRequestSchema)
	require.NoError(t, err)
	overrides := map[string]string{"tags": "Tags are required"}

	tests := []struct {
		name     string
		body     string
		wantCode apperrors.ErrorCode
		wantMsg  string
	}{
		{name: "both missing reports first field", body: `{}`, wantCode: apperrors.ErrCodeValidationFailed, wantMsg: "name is required"},
		{name: "empty string", body: `{"name":"","tags":["a"]}`, wantCode: apperrors.ErrCodeValidationFailed, wantMsg: "name is required"},
		{name: "override message", body: `{"name":"x","tags":[]}`, wantCode: apperrors.ErrCodeValidationFailed, wantMsg: "Tags are required"},
		{name: "null uses override", body: `{"name":"x","tags":null}`, wantCode: apperrors.ErrCodeValidationFailed, wantMsg: "Tags are required"},
		{name: "wrong type", body: `{"name":7,"tags":["a"]}`, wantCode: apperrors.ErrCodeValidationFailed, wantMsg: "name must be of type string"},
		{name: "null body", body: `null`, wantCode: apperrors.ErrCodeValidationFailed, wantMsg: "name is required"},
		{name: "array body", body: `[]`, wantCode: apperrors.ErrCodeInvalidRequestBody},
		{name: "not json", body: `name=x`, wantCode: apperrors.ErrCodeInvalidRequestBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := decodeRequest[testInput]([]byte(tt.body), schema, overrides)
			assert.Nil(t, in)

			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, stdErr.Message)
			}
		})
	}
}

func TestDecodeRequest_Valid(t *testing.T) {
	schema, err := compileSchema(testRequestSchema)
	require.NoError(t, err)

	in, err := decodeRequest[testInput]([]byte(`{"name":"chairs","tags":["office"],"extra":true}`), schema, nil)
	require.NoError(t, err)
	assert.Equal(t, &testInput{Name: "chairs", Tags: []string{"office"}}, in)
}

func TestConformanceErrors(t *testing.T) {
	schema, err := compileSchema(`{"type":"object","properties":{"budget":{"type":["number","null"]}}}`)
	require.NoError(t, err)

	assert.Empty(t, conformanceErrors(schema, json.RawMessage(`{"budget":10}`)))
	assert.Empty(t, conformanceErrors(schema, json.RawMessage(`{"budget":null,"other":"x"}`)))
	assert.NotEmpty(t, conformanceErrors(schema, json.RawMessage(`{"budget":"ten"}`)))
	assert.NotEmpty(t, conformanceErrors(schema, json.RawMessage(`[1]`)))
	assert.Empty(t, conformanceErrors(nil, json.RawMessage(`[1]`)))
}
