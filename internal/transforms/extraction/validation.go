package extraction

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "procurement-ai/internal/common/errors"
)

func compileSchema(schema string) (*gojsonschema.Schema, error) {
	if strings.TrimSpace(schema) == "" {
		return nil, nil
	}
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
}

// decodeRequest validates body against the request schema and decodes it into T.
func decodeRequest[T any](body []byte, schema *gojsonschema.Schema, overrides map[string]string) (*T, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, apperrors.NewInvalidRequestBodyError(err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}

	if schema != nil {
		result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("validate request: %w", err))
		}
		if !result.Valid() {
			return nil, apperrors.NewValidationError(validationMessage(result.Errors(), overrides))
		}
	}

	var in T
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, apperrors.NewInvalidRequestBodyError(err)
	}
	return &in, nil
}

// validationMessage picks one deterministic message from the schema errors.
func validationMessage(errs []gojsonschema.ResultError, overrides map[string]string) string {
	type fieldErr struct {
		field string
		msg   string
	}
	out := make([]fieldErr, 0, len(errs))
	for _, re := range errs {
		field := errorField(re)
		out = append(out, fieldErr{field: field, msg: messageFor(re, field, overrides)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].field < out[j].field })
	return out[0].msg
}

func errorField(re gojsonschema.ResultError) string {
	if re.Type() == "required" {
		if p, ok := re.Details()["property"].(string); ok {
			return p
		}
	}
	return re.Field()
}

func messageFor(re gojsonschema.ResultError, field string, overrides map[string]string) string {
	missing := false
	switch re.Type() {
	case "required", "string_gte", "array_min_items":
		missing = true
	case "invalid_type":
		if given, _ := re.Details()["given"].(string); given == "null" {
			missing = true
		}
	}

	if missing {
		if msg, ok := overrides[field]; ok {
			return msg
		}
		return field + " is required"
	}

	if re.Type() == "invalid_type" {
		if expected, ok := re.Details()["expected"].(string); ok {
			return fmt.Sprintf("%s must be of type %s", field, expected)
		}
	}
	return fmt.Sprintf("%s: %s", field, re.Description())
}

// conformanceErrors checks a parsed model value against the result schema.
func conformanceErrors(schema *gojsonschema.Schema, raw json.RawMessage) []string {
	if schema == nil {
		return nil
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return []string{err.Error()}
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		msgs[i] = desc.String()
	}
	return msgs
}
