// internal/transforms/procurement/compare-proposals/handler.go
package compareproposals

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"procurement-ai/internal/common/genai"
	"procurement-ai/internal/common/logger"
	"procurement-ai/internal/transforms/extraction"
	"procurement-ai/pkg/registry"
)

const (
	TaskType    = "compare-proposals"
	OutputField = "analysis"

	FallbackSummary  = "Unable to generate comparison"
	ProposalsMissing = "Proposals are required"
)

const systemPrompt = `You are an AI procurement advisor comparing vendor proposals for an RFP.

You will receive the original RFP requirements and several vendor proposals. Analyze and compare them so the procurement manager can make a decision.

Provide:
1. comparison_summary: An overall comparison of all proposals (2-3 paragraphs)
2. vendor_rankings: Array of { vendor_name, rank, score (1-100), strengths: [], weaknesses: [], key_differentiators: string }
3. recommended_vendor: The vendor you recommend
4. recommendation_reason: A detailed explanation of the recommendation, weighing price, delivery, terms and compliance
5. risk_factors: Risks to be aware of with each vendor
6. negotiation_tips: Suggestions for negotiating with the top vendors

Be objective and thorough. Focus on value for money, not just the lowest price.

Return valid JSON.`

const requestSchema = `{
  "type": "object",
  "required": ["proposals"],
  "properties": {
    "rfpData": {"type": ["object", "null"]},
    "proposals": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "properties": {
          "vendor_name": {"type": ["string", "null"]}
        }
      }
    }
  }
}`

const resultSchema = `{
  "type": "object",
  "properties": {
    "comparison_summary": {"type": ["string", "null"]},
    "vendor_rankings": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "vendor_name": {"type": ["string", "null"]},
          "rank": {"type": ["number", "null"]},
          "score": {"type": ["number", "null"]},
          "strengths": {"type": ["array", "null"]},
          "weaknesses": {"type": ["array", "null"]},
          "key_differentiators": {"type": ["string", "null"]}
        }
      }
    },
    "recommended_vendor": {"type": ["string", "null"]},
    "recommendation_reason": {"type": ["string", "null"]},
    "risk_factors": {"type": ["array", "object", "null"]},
    "negotiation_tips": {"type": ["array", "null"]}
  }
}`

func Definition() extraction.Definition[Input] {
	return extraction.Definition[Input]{
		TaskType:         TaskType,
		OutputField:      OutputField,
		RequestSchema:    requestSchema,
		RequiredMessages: map[string]string{"proposals": ProposalsMissing},
		ResultSchema:     resultSchema,
		BuildPrompt:      buildPrompt,
		Fallback:         fallback,
	}
}

func NewHandler(config *Config, completer genai.Completer, log logger.Logger, opts ...extraction.Option) (*extraction.Handler[Input], error) {
	return extraction.NewHandler(Definition(), config, completer, log, opts...)
}

func buildPrompt(in *Input) (genai.CompletionRequest, error) {
	rfp, err := indent(in.RFPData)
	if err != nil {
		return genai.CompletionRequest{}, fmt.Errorf("rfpData: %w", err)
	}

	blocks := make([]string, 0, len(in.Proposals))
	for i, p := range in.Proposals {
		data, err := indent(p.ProposalData)
		if err != nil {
			return genai.CompletionRequest{}, fmt.Errorf("proposals[%d].proposal_data: %w", i, err)
		}
		blocks = append(blocks, fmt.Sprintf("\n--- Vendor %d: %s ---\n%s\n", i+1, p.VendorName, data))
	}

	var sb strings.Builder
	sb.WriteString("\nRFP Requirements:\n")
	sb.WriteString(rfp)
	sb.WriteString("\n\nVendor Proposals:\n")
	sb.WriteString(strings.Join(blocks, "\n"))
	sb.WriteString("\n")

	return genai.CompletionRequest{
		SystemPrompt: systemPrompt,
		UserContent:  sb.String(),
	}, nil
}

// indent pretty-prints raw JSON with two-space indentation. Absent values print as null.
func indent(raw json.RawMessage) (string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "null", nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func fallback(*Input) interface{} {
	return &ComparisonReport{
		ComparisonSummary: FallbackSummary,
		VendorRankings:    []VendorRanking{},
		RiskFactors:       []string{},
		NegotiationTips:   []string{},
	}
}

func Describe() registry.Transform {
	return registry.Transform{
		ID:           TaskType,
		DisplayName:  "Compare Proposals",
		Description:  "Ranks vendor proposals against the RFP and recommends one vendor",
		OutputField:  OutputField,
		InputSchema:  registry.SchemaMap(requestSchema),
		OutputSchema: registry.SchemaMap(resultSchema),
		ErrorCodes:   []string{"VALIDATION_FAILED", "INVALID_REQUEST_BODY", "UPSTREAM_FAILED", "UPSTREAM_TIMEOUT", "INTERNAL_ERROR"},
		Tags:         []string{"proposal", "comparison"},
	}
}
