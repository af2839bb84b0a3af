// internal/transforms/procurement/parse-rfp/handler.go
package parserfp

import (
	"procurement-ai/internal/common/genai"
	"procurement-ai/internal/common/logger"
	"procurement-ai/internal/transforms/extraction"
	"procurement-ai/pkg/registry"
)

const (
	TaskType    = "parse-rfp"
	OutputField = "structured"

	FallbackTitle = "Procurement Request"
)

const systemPrompt = `You are an AI assistant that turns natural language procurement requests into structured RFP (Request for Proposal) data.

Read the user's description of what they want to buy and extract:

1. title: A concise title for the RFP (max 100 characters)
2. description: A clear description of what is being procured
3. items: Array of items, each { name, quantity, specifications }
4. budget: Total budget as a number, without currency symbols
5. delivery_days: Number of days allowed for delivery
6. payment_terms: Payment terms (e.g. "Net 30", "50% upfront, 50% on delivery")
7. warranty_terms: Warranty requirements
8. additional_requirements: Any other requirements mentioned

Return a single valid JSON object with exactly these fields. Use null for any field the input does not mention; do not omit fields.`

const requestSchema = `{
  "type": "object",
  "required": ["rawInput"],
  "properties": {
    "rawInput": {"type": "string", "minLength": 1}
  }
}`

const resultSchema = `{
  "type": "object",
  "properties": {
    "title": {"type": ["string", "null"]},
    "description": {"type": ["string", "null"]},
    "items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": ["string", "null"]},
          "quantity": {"type": ["number", "null"]},
          "specifications": {"type": ["string", "null"]}
        }
      }
    },
    "budget": {"type": ["number", "null"]},
    "delivery_days": {"type": ["number", "null"]},
    "payment_terms": {"type": ["string", "null"]},
    "warranty_terms": {"type": ["string", "null"]},
    "additional_requirements": {"type": ["string", "null"]}
  }
}`

func Definition() extraction.Definition[Input] {
	return extraction.Definition[Input]{
		TaskType:      TaskType,
		OutputField:   OutputField,
		RequestSchema: requestSchema,
		ResultSchema:  resultSchema,
		BuildPrompt:   buildPrompt,
		Fallback:      fallback,
	}
}

func NewHandler(config *Config, completer genai.Completer, log logger.Logger, opts ...extraction.Option) (*extraction.Handler[Input], error) {
	return extraction.NewHandler(Definition(), config, completer, log, opts...)
}

func buildPrompt(in *Input) (genai.CompletionRequest, error) {
	return genai.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserContent:  in.RawInput,
	}, nil
}

func fallback(in *Input) interface{} {
	return &ProcurementRequestDraft{
		Title:       FallbackTitle,
		Description: in.RawInput,
		Items:       []Item{},
	}
}

// Describe returns the catalog entry for this transform.
func Describe() registry.Transform {
	return registry.Transform{
		ID:           TaskType,
		DisplayName:  "Parse RFP",
		Description:  "Converts a free-text procurement description into a structured RFP draft",
		OutputField:  OutputField,
		InputSchema:  registry.SchemaMap(requestSchema),
		OutputSchema: registry.SchemaMap(resultSchema),
		ErrorCodes:   []string{"VALIDATION_FAILED", "INVALID_REQUEST_BODY", "UPSTREAM_FAILED", "UPSTREAM_TIMEOUT", "INTERNAL_ERROR"},
		Tags:         []string{"rfp", "intake"},
	}
}
