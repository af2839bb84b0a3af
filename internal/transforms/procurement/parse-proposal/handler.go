// internal/transforms/procurement/parse-proposal/handler.go
package parseproposal

import (
	"strings"

	"procurement-ai/internal/common/genai"
	"procurement-ai/internal/common/logger"
	"procurement-ai/internal/transforms/extraction"
	"procurement-ai/pkg/registry"
)

const (
	TaskType    = "parse-proposal"
	OutputField = "parsed"

	FallbackSummary = "Unable to parse vendor response"
)

const systemPrompt = `You are an AI assistant that parses vendor replies to RFPs (Requests for Proposal).

The vendor's reply may be messy free text, an email body, or content pulled out of attachments. Extract:

1. total_price: The total quoted price, as a number only
2. line_items: Array of { item_name, quantity, unit_price, total_price }
3. delivery_days: Proposed delivery timeline in days
4. payment_terms: Proposed payment terms
5. warranty_terms: Warranty offered
6. additional_notes: Any other relevant information
7. compliance_notes: How well the reply meets the RFP requirements

Also provide:
8. completeness_score: A 1-10 rating of how complete the proposal is
9. summary: A 2-3 sentence summary of the proposal
`

const promptFooter = `
Return a valid JSON object with these fields. Use null for any field that is not found.`

const requestSchema = `{
  "type": "object",
  "required": ["vendorResponse"],
  "properties": {
    "vendorResponse": {"type": "string", "minLength": 1},
    "rfpContext": {"type": ["string", "null"]}
  }
}`

const resultSchema = `{
  "type": "object",
  "properties": {
    "total_price": {"type": ["number", "null"]},
    "line_items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "item_name": {"type": ["string", "null"]},
          "quantity": {"type": ["number", "null"]},
          "unit_price": {"type": ["number", "null"]},
          "total_price": {"type": ["number", "null"]}
        }
      }
    },
    "delivery_days": {"type": ["number", "null"]},
    "payment_terms": {"type": ["string", "null"]},
    "warranty_terms": {"type": ["string", "null"]},
    "additional_notes": {"type": ["string", "null"]},
    "compliance_notes": {"type": ["string", "null"]},
    "completeness_score": {"type": ["number", "null"], "minimum": 0, "maximum": 10},
    "summary": {"type": ["string", "null"]}
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

// buildPrompt appends the RFP context to the system prompt when one is given.
func buildPrompt(in *Input) (genai.CompletionRequest, error) {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	if in.RFPContext != "" {
		sb.WriteString("\nOriginal RFP Context:\n")
		sb.WriteString(in.RFPContext)
		sb.WriteString("\n")
	}
	sb.WriteString(promptFooter)

	return genai.CompletionRequest{
		SystemPrompt: sb.String(),
		UserContent:  in.VendorResponse,
	}, nil
}

func fallback(in *Input) interface{} {
	notes := in.VendorResponse
	return &ProposalExtract{
		LineItems:         []LineItem{},
		AdditionalNotes:   &notes,
		CompletenessScore: 0,
		Summary:           FallbackSummary,
	}
}

func Describe() registry.Transform {
	return registry.Transform{
		ID:           TaskType,
		DisplayName:  "Parse Proposal",
		Description:  "Extracts pricing, terms and a completeness score from a free-text vendor reply",
		OutputField:  OutputField,
		InputSchema:  registry.SchemaMap(requestSchema),
		OutputSchema: registry.SchemaMap(resultSchema),
		ErrorCodes:   []string{"VALIDATION_FAILED", "INVALID_REQUEST_BODY", "UPSTREAM_FAILED", "UPSTREAM_TIMEOUT", "INTERNAL_ERROR"},
		Tags:         []string{"proposal", "vendor"},
	}
}
